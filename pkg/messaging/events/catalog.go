package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/webstore/pkg/messaging"
	"github.com/shopspring/decimal"
)

type ChangeKind string

const (
	Created ChangeKind = "created"
	Updated ChangeKind = "updated"
	Deleted ChangeKind = "deleted"
)

// ProductChangedEvent notifies consumers that the product collection changed.
type ProductChangedEvent struct {
	Kind       ChangeKind      `json:"kind"`
	ProductID  int64           `json:"product_id"`
	Name       string          `json:"name,omitempty"`
	Reference  string          `json:"reference,omitempty"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func (e ProductChangedEvent) Subject() string {
	switch e.Kind {
	case Created:
		return messaging.ProductCreatedSubject
	case Deleted:
		return messaging.ProductDeletedSubject
	default:
		return messaging.ProductUpdatedSubject
	}
}

func (e ProductChangedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

type CategoryChangedEvent struct {
	Kind       ChangeKind `json:"kind"`
	CategoryID int64      `json:"category_id"`
	Name       string     `json:"name,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

func (e CategoryChangedEvent) Subject() string {
	switch e.Kind {
	case Created:
		return messaging.CategoryCreatedSubject
	case Deleted:
		return messaging.CategoryDeletedSubject
	default:
		return messaging.CategoryUpdatedSubject
	}
}

func (e CategoryChangedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
