// Package rest provides the HTTP handlers of the storefront.
package rest

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/abgdnv/webstore/internal/catalog"
	perrors "github.com/abgdnv/webstore/internal/errors"
	"github.com/abgdnv/webstore/internal/kv"
	"github.com/abgdnv/webstore/internal/order"
	"github.com/abgdnv/webstore/internal/service"
	"github.com/abgdnv/webstore/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service service.CatalogService
	orders  order.OrderService
	logger  *slog.Logger
	latency time.Duration
}

// NewHandler creates a new instance of Handler with the provided services.
// A positive latency delays product listings to simulate a remote backend.
func NewHandler(service service.CatalogService, orders order.OrderService, logger *slog.Logger, latency time.Duration) *Handler {
	return &Handler{
		service: service,
		orders:  orders,
		logger:  logger.With("component", "rest"),
		latency: latency,
	}
}

// RegisterRoutes registers the HTTP routes of the storefront.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/products", func(r chi.Router) {
		if h.latency > 0 {
			r.With(web.Latency(h.latency)).Get("/", h.QueryProducts)
		} else {
			r.Get("/", h.QueryProducts)
		}
		r.Post("/", h.CreateProduct)
		r.Get("/reference/next", h.NextReference)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetProduct)
			r.Put("/", h.UpdateProduct)
			r.Patch("/", h.PatchProduct)
			r.Delete("/", h.DeleteProduct)
		})
	})

	r.Route("/api/v1/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Post("/", h.CreateCategory)
		r.Put("/{id}", h.UpdateCategory)
		r.Delete("/{id}", h.DeleteCategory)
	})

	r.Route("/api/v1/favorites", func(r chi.Router) {
		r.Get("/", h.Favorites)
		r.Delete("/", h.ClearFavorites)
		r.Post("/{id}/toggle", h.ToggleFavorite)
	})

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Get("/", h.Cart)
		r.Delete("/", h.ClearCart)
		r.Post("/items", h.AddToCart)
		r.Delete("/items/{id}", h.RemoveFromCart)
		r.Post("/checkout", h.Checkout)
	})

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Get("/stats", h.OrderStats)
		r.Get("/search", h.SearchOrders)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetOrder)
			r.Patch("/", h.UpdateOrderStatus)
			r.Delete("/", h.DeleteOrder)
			r.Post("/confirm", h.ConfirmOrder)
			r.Post("/deliver", h.DeliverOrder)
			r.Post("/cancel", h.CancelOrder)
		})
	})

	r.Get("/healthz", h.HealthCheck)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// respondServiceError maps a service error to a status code. failure is the message of unexpected errors.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, failure string) {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrors):
		logger.WarnContext(r.Context(), "Validation errors occurred", "error", err)
		web.RespondValidationError(w, logger, err)
	case errors.Is(err, catalog.ErrInvalidInput):
		logger.WarnContext(r.Context(), "Invalid input", "error", err)
		web.RespondError(w, logger, http.StatusBadRequest, err.Error())
	case service.IsNotFound(err):
		logger.WarnContext(r.Context(), "Resource not found", "error", err)
		web.RespondError(w, logger, http.StatusNotFound, err.Error())
	case errors.Is(err, perrors.ErrOutOfStock):
		logger.WarnContext(r.Context(), "Insufficient stock", "error", err)
		web.RespondError(w, logger, http.StatusConflict, err.Error())
	case errors.Is(err, perrors.ErrCartEmpty):
		web.RespondError(w, logger, http.StatusBadRequest, err.Error())
	case errors.Is(err, perrors.ErrOptimisticLock), errors.Is(err, perrors.ErrInvalidTransition):
		logger.WarnContext(r.Context(), "Order status conflict", "error", err)
		web.RespondError(w, logger, http.StatusConflict, err.Error())
	default:
		logger.ErrorContext(r.Context(), failure, "error", err)
		web.RespondError(w, logger, http.StatusInternalServerError, failure)
	}
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	return h.logger.With("request_id", middleware.GetReqID(r.Context()))
}

func identityOf(r *http.Request) kv.Identity {
	return kv.UserIdentity(web.UserID(r.Context()))
}
