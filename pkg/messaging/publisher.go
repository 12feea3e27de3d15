package messaging

import (
	"context"
)

const (
	ProductCreatedSubject  = "catalog.product.created"
	ProductUpdatedSubject  = "catalog.product.updated"
	ProductDeletedSubject  = "catalog.product.deleted"
	CategoryCreatedSubject = "catalog.category.created"
	CategoryUpdatedSubject = "catalog.category.updated"
	CategoryDeletedSubject = "catalog.category.deleted"
	OrdersCreatedSubject   = "orders.created"
	OrdersUpdatedSubject   = "orders.updated"
)

// StreamSubjects are the subjects captured by the storefront stream.
var StreamSubjects = []string{"catalog.>", "orders.>"}

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event. Used when NATS is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
