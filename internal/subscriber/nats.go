// Package subscriber consumes the storefront events from NATS JetStream.
package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/abgdnv/webstore/pkg/config"
	"github.com/abgdnv/webstore/pkg/messaging"
	"github.com/abgdnv/webstore/pkg/messaging/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// message is the part of jetstream.Msg the handler needs.
type message interface {
	Data() []byte
	Subject() string
	Headers() nats.Header
	Ack() error
	Term() error
}

// Handler processes storefront events. It is safe for use by concurrent workers.
type Handler struct {
	logger    *slog.Logger
	tracer    trace.Tracer
	processed metric.Int64Counter
	job       func(ctx context.Context)
}

func NewHandler(logger *slog.Logger) *Handler {
	processed, err := otel.Meter("notifier").Int64Counter("events_processed",
		metric.WithDescription("Total number of processed storefront events"))
	if err != nil {
		panic(fmt.Sprintf("failed to create events_processed counter: %v", err))
	}
	return &Handler{
		logger:    logger.With("component", "subscriber"),
		tracer:    otel.Tracer("notifier"),
		processed: processed,
		job:       notificationJob,
	}
}

// Start creates the durable consumer and runs cfg.Workers workers until ctx is done.
func Start(ctx context.Context, js jetstream.JetStream, cfg config.SubscriberConfig, h *Handler) error {
	consumer, err := js.CreateOrUpdateConsumer(ctx, cfg.Stream, jetstream.ConsumerConfig{
		Durable:        cfg.Consumer,
		FilterSubjects: cfg.Subjects,
		AckPolicy:      jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer %s: %w", cfg.Consumer, err)
	}
	g, gCtx := errgroup.WithContext(ctx)
	for range cfg.Workers {
		g.Go(func() error {
			return h.runWorker(gCtx, consumer, cfg)
		})
	}
	return g.Wait()
}

// runWorker fetches batches from the consumer and handles them one by one.
func (h *Handler) runWorker(ctx context.Context, consumer jetstream.Consumer, cfg config.SubscriberConfig) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		batch, err := consumer.Fetch(cfg.Batch, jetstream.FetchMaxWait(cfg.Timeout))
		if err != nil {
			if !errors.Is(err, nats.ErrTimeout) {
				h.logger.ErrorContext(ctx, "failed to fetch messages", "error", err)
				time.Sleep(cfg.Interval)
			}
			continue
		}
		for msg := range batch.Messages() {
			h.Handle(ctx, msg)
		}
		if err := batch.Error(); err != nil && !errors.Is(err, nats.ErrTimeout) {
			h.logger.WarnContext(ctx, "batch finished with error", "error", err)
		}
	}
}

// Handle processes a single message. Messages that cannot be decoded are terminated
// so that they are not redelivered.
func (h *Handler) Handle(ctx context.Context, msg message) {
	if msg == nil {
		h.logger.ErrorContext(ctx, "received nil message")
		return
	}
	ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(http.Header(msg.Headers())))
	ctx, span := h.tracer.Start(ctx, "notify "+msg.Subject(), trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	attrs, err := h.describe(msg)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to decode message", "error", err, "subject", msg.Subject())
		span.RecordError(err)
		if err := msg.Term(); err != nil {
			h.logger.ErrorContext(ctx, "failed to terminate message", "error", err)
		}
		return
	}
	h.logger.InfoContext(ctx, "received storefront event", attrs...)

	h.job(ctx)

	h.processed.Add(ctx, 1, metric.WithAttributes(attribute.String("subject", msg.Subject())))
	if err := msg.Ack(); err != nil {
		h.logger.ErrorContext(ctx, "failed to ack message", "error", err)
	}
}

// describe decodes the payload by subject and returns the log attributes of the event.
func (h *Handler) describe(msg message) ([]any, error) {
	subject := msg.Subject()
	switch {
	case subject == messaging.OrdersCreatedSubject:
		var event events.OrderCreatedEvent
		if err := json.Unmarshal(msg.Data(), &event); err != nil {
			return nil, err
		}
		return []any{
			slog.String("subject", subject),
			slog.Int64("order_id", event.OrderID),
			slog.String("reference", event.Reference),
			slog.String("user_id", event.UserID),
			slog.Int("lines", len(event.Lines)),
			slog.String("total_price", event.TotalPrice.String()),
			slog.String("created_at", event.CreatedAt.Format(time.RFC3339)),
		}, nil
	case subject == messaging.OrdersUpdatedSubject:
		var event events.OrderStatusChangedEvent
		if err := json.Unmarshal(msg.Data(), &event); err != nil {
			return nil, err
		}
		return []any{
			slog.String("subject", subject),
			slog.Int64("order_id", event.OrderID),
			slog.String("reference", event.Reference),
			slog.String("from", event.From),
			slog.String("status", event.Status),
		}, nil
	case strings.HasPrefix(subject, "catalog.product."):
		var event events.ProductChangedEvent
		if err := json.Unmarshal(msg.Data(), &event); err != nil {
			return nil, err
		}
		return []any{
			slog.String("subject", subject),
			slog.String("kind", string(event.Kind)),
			slog.Int64("product_id", event.ProductID),
			slog.String("name", event.Name),
			slog.Int("stock", event.Stock),
		}, nil
	case strings.HasPrefix(subject, "catalog.category."):
		var event events.CategoryChangedEvent
		if err := json.Unmarshal(msg.Data(), &event); err != nil {
			return nil, err
		}
		return []any{
			slog.String("subject", subject),
			slog.String("kind", string(event.Kind)),
			slog.Int64("category_id", event.CategoryID),
			slog.String("name", event.Name),
		}, nil
	default:
		return nil, fmt.Errorf("unexpected subject %s", subject)
	}
}

// notificationJob simulates sending the notification.
func notificationJob(ctx context.Context) {
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
	}
}
