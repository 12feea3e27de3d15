// Package logger provides a slog.Handler that stamps records with request-scoped
// attributes such as the trace id, the chi request id and the caller identity.
package logger

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
)

// Extractor derives one attribute from a request context. ok is false when the
// context carries nothing to log.
type Extractor func(ctx context.Context) (attr slog.Attr, ok bool)

// TraceID logs the id of the active OpenTelemetry span.
func TraceID(ctx context.Context) (slog.Attr, bool) {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return slog.Attr{}, false
	}
	return slog.String("trace_id", sc.TraceID().String()), true
}

// RequestID logs the id assigned by the chi RequestID middleware.
func RequestID(ctx context.Context) (slog.Attr, bool) {
	id := middleware.GetReqID(ctx)
	return slog.String("request_id", id), id != ""
}

// String adapts a context getter into an Extractor for the given key.
// Empty values are skipped.
func String(key string, get func(ctx context.Context) string) Extractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		v := get(ctx)
		return slog.String(key, v), v != ""
	}
}

// ContextHandler wraps a slog.Handler and appends the attributes of its extractors
// to every record.
type ContextHandler struct {
	slog.Handler
	extractors []Extractor
}

// NewContextHandler returns a handler that logs the trace and request ids
// followed by the attributes of extra.
func NewContextHandler(handler slog.Handler, extra ...Extractor) *ContextHandler {
	return &ContextHandler{
		Handler:    handler,
		extractors: append([]Extractor{TraceID, RequestID}, extra...),
	}
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, extract := range h.extractors {
		if attr, ok := extract(ctx); ok {
			r.AddAttrs(attr)
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithAttrs(attrs), extractors: h.extractors}
}

func (h *ContextHandler) WithGroup(group string) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithGroup(group), extractors: h.extractors}
}
