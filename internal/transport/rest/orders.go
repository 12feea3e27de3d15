package rest

import (
	"context"
	"net/http"
	"strings"

	"github.com/abgdnv/webstore/internal/order"
	"github.com/abgdnv/webstore/pkg/web"
)

// ListOrders lists one page of orders. mine=true restricts the page to the orders of the caller.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	dto, ok := h.parseOrderQuery(w, r)
	if !ok {
		return
	}
	h.respondOrderPage(w, r, dto)
}

// SearchOrders lists the orders whose reference or id matches q.
func (h *Handler) SearchOrders(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	dto, ok := h.parseOrderQuery(w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(dto.Keyword) == "" {
		web.RespondError(w, mLogger, http.StatusBadRequest, "Missing search keyword q")
		return
	}
	h.respondOrderPage(w, r, dto)
}

func (h *Handler) respondOrderPage(w http.ResponseWriter, r *http.Request, dto order.ListDto) {
	mLogger := h.loggerWithReqID(r)
	mLogger.DebugContext(r.Context(), "Received order query", "query", dto)
	page, err := h.orders.List(r.Context(), dto)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to fetch orders")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, page)
}

func (h *Handler) parseOrderQuery(w http.ResponseWriter, r *http.Request) (order.ListDto, bool) {
	mLogger := h.loggerWithReqID(r)
	q := r.URL.Query()
	dto := order.ListDto{
		Sort:      q.Get("sort"),
		Direction: q.Get("direction"),
		Status:    strings.ToLower(q.Get("status")),
		Keyword:   q.Get("q"),
	}
	var ok bool
	if dto.Page, ok = web.QueryIntGte(r, w, mLogger, "page", 0, 0); !ok {
		return dto, false
	}
	if dto.Size, ok = web.QueryIntGt(r, w, mLogger, "size", 0, 0); !ok {
		return dto, false
	}
	if q.Has("userId") {
		userID := q.Get("userId")
		dto.UserID = &userID
	}
	mine, ok := web.QueryBool(r, w, mLogger, "mine")
	if !ok {
		return dto, false
	}
	if mine != nil && *mine {
		userID := identityOf(r).UserID
		dto.UserID = &userID
	}
	return dto, true
}

// GetOrder retrieves an order by its ID.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	found, err := h.orders.FindByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to retrieve order")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// UpdateOrderStatus moves an order to the status of the body. A non-zero version must match the stored one.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var dto order.StatusUpdateDto
	if !web.DecodeJSON(w, r, mLogger, &dto) {
		return
	}
	dto.Status = strings.ToLower(dto.Status)
	updated, err := h.orders.UpdateStatus(r.Context(), id, dto)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to update order")
		return
	}
	mLogger.InfoContext(r.Context(), "Order updated successfully", "ID", id, "status", updated.Status)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

func (h *Handler) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orders.Confirm)
}

func (h *Handler) DeliverOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orders.Deliver)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orders.Cancel)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, move func(ctx context.Context, id int64) (*order.Order, error)) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	updated, err := move(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to update order")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	if err := h.orders.Delete(r.Context(), id); err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to delete order")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OrderStats counts the orders per status.
func (h *Handler) OrderStats(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	stats, err := h.orders.Stats(r.Context())
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to compute order stats")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, stats)
}
