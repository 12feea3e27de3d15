package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/webstore/pkg/messaging"
	"github.com/shopspring/decimal"
)

type OrderLine struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// OrderCreatedEvent is published when a cart is checked out. UserID is empty for anonymous carts.
type OrderCreatedEvent struct {
	OrderID        int64           `json:"order_id"`
	Reference      string          `json:"reference"`
	UserID         string          `json:"user_id,omitempty"`
	DeliveryMethod string          `json:"delivery_method"`
	Lines          []OrderLine     `json:"lines"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (o OrderCreatedEvent) Subject() string {
	return messaging.OrdersCreatedSubject
}

func (o OrderCreatedEvent) Payload() ([]byte, error) {
	return json.Marshal(o)
}

// OrderStatusChangedEvent is published after an order moved to another status or was deleted.
// Status is empty for a deleted order.
type OrderStatusChangedEvent struct {
	OrderID    int64     `json:"order_id"`
	Reference  string    `json:"reference"`
	From       string    `json:"from"`
	Status     string    `json:"status,omitempty"`
	Version    int32     `json:"version"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (o OrderStatusChangedEvent) Subject() string {
	return messaging.OrdersUpdatedSubject
}

func (o OrderStatusChangedEvent) Payload() ([]byte, error) {
	return json.Marshal(o)
}
