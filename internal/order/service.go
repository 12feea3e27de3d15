package order

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abgdnv/webstore/internal/catalog"
	apperrors "github.com/abgdnv/webstore/internal/errors"
	"github.com/abgdnv/webstore/pkg/messaging"
	"github.com/abgdnv/webstore/pkg/messaging/events"
	"github.com/abgdnv/webstore/pkg/web"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OrderService defines the methods for managing orders.
// It abstracts the underlying business logic and data access.
type OrderService interface {
	// Place stores a new pending order and publishes OrderCreatedEvent.
	// Returns ErrCartEmpty for an order without lines.
	Place(ctx context.Context, n NewOrder) (*Order, error)

	// FindByID retrieves a single order by its unique identifier.
	// Returns ErrOrderNotFound if no order exists with the given ID.
	FindByID(ctx context.Context, id int64) (*Order, error)

	// List returns one page of orders, newest first unless dto says otherwise.
	List(ctx context.Context, dto ListDto) (*Page, error)

	Confirm(ctx context.Context, id int64) (*Order, error)
	Deliver(ctx context.Context, id int64) (*Order, error)
	Cancel(ctx context.Context, id int64) (*Order, error)

	// UpdateStatus moves an order to dto.Status.
	// Returns ErrOrderNotFound, ErrOptimisticLock or ErrInvalidTransition.
	UpdateStatus(ctx context.Context, id int64, dto StatusUpdateDto) (*Order, error)

	// Delete removes an order in any status.
	Delete(ctx context.Context, id int64) error

	Stats(ctx context.Context) (*Stats, error)
}

// ListDto is an order listing request as received from a transport.
// Size 0 selects DefaultPageSize.
type ListDto struct {
	Page      int     `json:"page"      validate:"gte=0"`
	Size      int     `json:"size"      validate:"gte=0,lte=100"`
	Sort      string  `json:"sort"      validate:"omitempty,oneof=orderDate totalAmount id status"`
	Direction string  `json:"direction"`
	Status    string  `json:"status"    validate:"omitempty,oneof=pending confirmed delivered cancelled"`
	UserID    *string `json:"userId"    validate:"omitempty,max=100"`
	Keyword   string  `json:"q"         validate:"max=100"`
}

// StatusUpdateDto changes the status of an order. Version 0 skips the concurrency check.
type StatusUpdateDto struct {
	Status  string `json:"status"  validate:"required,oneof=pending confirmed delivered cancelled"`
	Version int32  `json:"version" validate:"gte=0"`
}

var _ OrderService = (*Service)(nil)

// Service implements OrderService and provides methods to manage orders.
type Service struct {
	store     Store
	publisher messaging.Publisher
	validate  *validator.Validate
	logger    *slog.Logger
	now       func() time.Time

	ordersCounter  metric.Int64Counter
	changesCounter metric.Int64Counter
}

// NewService creates a new instance of OrderService with the provided store.
func NewService(store Store, publisher messaging.Publisher, logger *slog.Logger) *Service {
	meter := otel.Meter("storefront")
	ordersCounter, err := meter.Int64Counter("orders_created", metric.WithDescription("Total number of created orders"))
	if err != nil {
		panic(fmt.Sprintf("failed to create orders_created counter: %v", err))
	}
	changesCounter, err := meter.Int64Counter("order_status_changes", metric.WithDescription("Total number of order status changes"))
	if err != nil {
		panic(fmt.Sprintf("failed to create order_status_changes counter: %v", err))
	}
	return &Service{
		store:          store,
		publisher:      publisher,
		validate:       web.NewValidator(),
		logger:         logger.With("component", "order-service"),
		now:            time.Now,
		ordersCounter:  ordersCounter,
		changesCounter: changesCounter,
	}
}

func (s *Service) Place(ctx context.Context, n NewOrder) (*Order, error) {
	if len(n.Lines) == 0 {
		return nil, apperrors.ErrCartEmpty
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now().UTC()
	}
	created, err := s.store.Create(ctx, n)
	if err != nil {
		return nil, err
	}

	lines := make([]events.OrderLine, 0, len(created.Lines))
	for _, l := range created.Lines {
		lines = append(lines, events.OrderLine{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	event := events.OrderCreatedEvent{
		OrderID:        created.ID,
		Reference:      created.Reference,
		UserID:         created.UserID,
		DeliveryMethod: created.DeliveryMethod,
		Lines:          lines,
		TotalPrice:     created.Total,
		CreatedAt:      created.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish OrderCreatedEvent", "order_id", created.ID, "error", err)
	}
	s.ordersCounter.Add(ctx, 1)
	s.logger.InfoContext(ctx, "Order placed", "order_id", created.ID, "reference", created.Reference, "total", created.Total.String())
	return created, nil
}

func (s *Service) FindByID(ctx context.Context, id int64) (*Order, error) {
	return s.store.FindByID(ctx, id)
}

func (s *Service) List(ctx context.Context, dto ListDto) (*Page, error) {
	if err := s.validate.Struct(dto); err != nil {
		return nil, err
	}
	req := ListRequest{
		Page:      dto.Page,
		Size:      dto.Size,
		Sort:      SortField(dto.Sort),
		Direction: catalog.SortDirection(dto.Direction),
		Filter:    Filter{UserID: dto.UserID, Keyword: dto.Keyword},
	}
	if dto.Status != "" {
		st := Status(dto.Status)
		req.Filter.Status = &st
	}
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}
	page, err := s.store.List(ctx, req)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *Service) Confirm(ctx context.Context, id int64) (*Order, error) {
	return s.changeStatus(ctx, id, StatusChange{Status: StatusConfirmed})
}

// Deliver marks a confirmed order as delivered and records the delivery date.
func (s *Service) Deliver(ctx context.Context, id int64) (*Order, error) {
	return s.changeStatus(ctx, id, StatusChange{Status: StatusDelivered})
}

func (s *Service) Cancel(ctx context.Context, id int64) (*Order, error) {
	return s.changeStatus(ctx, id, StatusChange{Status: StatusCancelled})
}

func (s *Service) UpdateStatus(ctx context.Context, id int64, dto StatusUpdateDto) (*Order, error) {
	if err := s.validate.Struct(dto); err != nil {
		return nil, err
	}
	return s.changeStatus(ctx, id, StatusChange{Status: Status(dto.Status), Version: dto.Version})
}

func (s *Service) changeStatus(ctx context.Context, id int64, change StatusChange) (*Order, error) {
	change.At = s.now().UTC()
	updated, from, err := s.store.UpdateStatus(ctx, id, change)
	if err != nil {
		return nil, err
	}
	s.publishChange(ctx, updated, from)
	s.changesCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(updated.Status))))
	s.logger.InfoContext(ctx, "Order status changed", "order_id", id, "status", updated.Status, "version", updated.Version)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	found, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	event := events.OrderStatusChangedEvent{
		OrderID:    found.ID,
		Reference:  found.Reference,
		From:       string(found.Status),
		Version:    found.Version,
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish OrderStatusChangedEvent", "order_id", id, "error", err)
	}
	s.logger.InfoContext(ctx, "Order deleted", "order_id", id)
	return nil
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *Service) publishChange(ctx context.Context, o *Order, from Status) {
	event := events.OrderStatusChangedEvent{
		OrderID:    o.ID,
		Reference:  o.Reference,
		From:       string(from),
		Status:     string(o.Status),
		Version:    o.Version,
		OccurredAt: o.UpdatedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish OrderStatusChangedEvent", "order_id", o.ID, "error", err)
	}
}
