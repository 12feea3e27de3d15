package rest

import (
	"net/http"

	"github.com/abgdnv/webstore/internal/service"
	"github.com/abgdnv/webstore/pkg/web"
)

// Favorites lists the favorites of the caller.
func (h *Handler) Favorites(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	view, err := h.service.Favorites(r.Context(), identityOf(r))
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to fetch favorites")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, view)
}

// ToggleFavorite adds or removes a product from the favorites of the caller.
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	result, err := h.service.ToggleFavorite(r.Context(), identityOf(r), id)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to toggle favorite")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, result)
}

func (h *Handler) ClearFavorites(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	if err := h.service.ClearFavorites(r.Context(), identityOf(r)); err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to clear favorites")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Cart(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	view, err := h.service.Cart(r.Context(), identityOf(r))
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to fetch cart")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, view)
}

func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto service.AddToCartDto
	if !web.DecodeJSON(w, r, mLogger, &dto) {
		return
	}
	view, err := h.service.AddToCart(r.Context(), identityOf(r), dto)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to add to cart")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, view)
}

func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	view, err := h.service.RemoveFromCart(r.Context(), identityOf(r), id)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to remove from cart")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, view)
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	if err := h.service.ClearCart(r.Context(), identityOf(r)); err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to clear cart")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Checkout turns the cart of the caller into an order.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto service.CheckoutDto
	if r.ContentLength != 0 && !web.DecodeJSON(w, r, mLogger, &dto) {
		return
	}
	receipt, err := h.service.Checkout(r.Context(), identityOf(r), dto)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to check out")
		return
	}
	mLogger.InfoContext(r.Context(), "Checkout completed", "order_id", receipt.OrderID, "items", receipt.ItemCount, "total", receipt.Total.String())
	web.RespondJSON(w, mLogger, http.StatusOK, receipt)
}
