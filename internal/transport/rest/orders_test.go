package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/abgdnv/webstore/internal/cart"
	apperrors "github.com/abgdnv/webstore/internal/errors"
	"github.com/abgdnv/webstore/internal/order"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockOrderService is a mock implementation of the OrderService interface
type mockOrderService struct {
	order.OrderService
	order    *order.Order
	page     *order.Page
	stats    *order.Stats
	error    error
	listed   order.ListDto
	statusTo order.StatusUpdateDto
}

func (m *mockOrderService) FindByID(_ context.Context, _ int64) (*order.Order, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.order, nil
}

func (m *mockOrderService) List(_ context.Context, dto order.ListDto) (*order.Page, error) {
	m.listed = dto
	if m.error != nil {
		return nil, m.error
	}
	return m.page, nil
}

func (m *mockOrderService) UpdateStatus(_ context.Context, _ int64, dto order.StatusUpdateDto) (*order.Order, error) {
	m.statusTo = dto
	if m.error != nil {
		return nil, m.error
	}
	return m.order, nil
}

func (m *mockOrderService) Cancel(_ context.Context, _ int64) (*order.Order, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.order, nil
}

func (m *mockOrderService) Delete(_ context.Context, _ int64) error {
	return m.error
}

func (m *mockOrderService) Stats(_ context.Context) (*order.Stats, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.stats, nil
}

func Test_OrderHandlers(t *testing.T) {
	pending := &order.Order{ID: 1, Reference: "ORD-000001", Status: order.StatusPending, Version: 1, Lines: []order.Line{}}

	testCases := []struct {
		name         string
		mockService  *mockOrderService
		method       string
		target       string
		body         string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Success - get order",
			mockService:  &mockOrderService{order: pending},
			method:       http.MethodGet,
			target:       "/api/v1/orders/1",
			expectedCode: http.StatusOK,
		},
		{
			name:         "Error - order not found",
			mockService:  &mockOrderService{error: fmt.Errorf("order 9: %w", apperrors.ErrOrderNotFound)},
			method:       http.MethodGet,
			target:       "/api/v1/orders/9",
			expectedCode: http.StatusNotFound,
			expectedBody: `{"error":"order 9: order not found"}`,
		},
		{
			name:         "Error - invalid id",
			mockService:  &mockOrderService{},
			method:       http.MethodGet,
			target:       "/api/v1/orders/abc",
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "Error - stale version",
			mockService:  &mockOrderService{error: apperrors.ErrOptimisticLock},
			method:       http.MethodPatch,
			target:       "/api/v1/orders/1",
			body:         `{"status":"confirmed","version":1}`,
			expectedCode: http.StatusConflict,
		},
		{
			name:         "Error - delivered order cannot be cancelled",
			mockService:  &mockOrderService{error: apperrors.ErrInvalidTransition},
			method:       http.MethodPost,
			target:       "/api/v1/orders/1/cancel",
			expectedCode: http.StatusConflict,
		},
		{
			name:         "Error - unknown body field",
			mockService:  &mockOrderService{},
			method:       http.MethodPatch,
			target:       "/api/v1/orders/1",
			body:         `{"state":"confirmed"}`,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "Success - delete",
			mockService:  &mockOrderService{},
			method:       http.MethodDelete,
			target:       "/api/v1/orders/1",
			expectedCode: http.StatusNoContent,
		},
		{
			name:         "Success - stats",
			mockService:  &mockOrderService{stats: &order.Stats{TotalOrders: 2, PendingOrders: 2, TotalRevenue: decimal.RequireFromString("10.5")}},
			method:       http.MethodGet,
			target:       "/api/v1/orders/stats",
			expectedCode: http.StatusOK,
			expectedBody: `{"totalOrders":2,"pendingOrders":2,"confirmedOrders":0,"deliveredOrders":0,"cancelledOrders":0,"totalRevenue":"10.5"}`,
		},
		{
			name:         "Error - store failure is hidden",
			mockService:  &mockOrderService{error: errors.New("connection reset")},
			method:       http.MethodGet,
			target:       "/api/v1/orders",
			expectedCode: http.StatusInternalServerError,
			expectedBody: `{"error":"Failed to fetch orders"}`,
		},
		{
			name:         "Error - search without keyword",
			mockService:  &mockOrderService{},
			method:       http.MethodGet,
			target:       "/api/v1/orders/search",
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			h := newTestRouter(t, svcStub{}, tc.mockService)

			// when
			rr := do(t, h, tc.method, tc.target, "", tc.body)

			// then
			assert.Equal(t, tc.expectedCode, rr.Code, rr.Body.String())
			if tc.expectedBody != "" {
				assert.JSONEq(t, tc.expectedBody, rr.Body.String())
			}
		})
	}
}

func Test_ListOrdersParsesQuery(t *testing.T) {
	// given
	svc := &mockOrderService{page: &order.Page{Orders: []order.Order{}, Size: 5}}
	h := newTestRouter(t, svcStub{}, svc)

	// when
	rr := do(t, h, http.MethodGet, "/api/v1/orders?page=1&size=5&sort=totalAmount&direction=asc&status=PENDING&mine=true", "alice", "")

	// then
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, svc.listed.Page)
	assert.Equal(t, 5, svc.listed.Size)
	assert.Equal(t, "totalAmount", svc.listed.Sort)
	assert.Equal(t, "asc", svc.listed.Direction)
	assert.Equal(t, "pending", svc.listed.Status)
	require.NotNil(t, svc.listed.UserID)
	assert.Equal(t, "alice", *svc.listed.UserID)
}

func Test_ListOrdersRejectsBadPaging(t *testing.T) {
	h := newTestRouter(t, svcStub{}, &mockOrderService{})

	rr := do(t, h, http.MethodGet, "/api/v1/orders?size=0", "", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodGet, "/api/v1/orders?page=-1", "", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func Test_OrderLifecycle(t *testing.T) {
	h := newSeededRouter(t)

	rr := do(t, h, http.MethodPost, "/api/v1/cart/items", "dave", `{"productId":1,"quantity":2}`)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = do(t, h, http.MethodPost, "/api/v1/cart/checkout", "dave", `{"deliveryMethod":"pickup"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	receipt := decode[cart.Receipt](t, rr)
	require.NotZero(t, receipt.OrderID)
	target := fmt.Sprintf("/api/v1/orders/%d", receipt.OrderID)

	found := decode[order.Order](t, do(t, h, http.MethodGet, target, "", ""))
	assert.Equal(t, order.StatusPending, found.Status)
	assert.Equal(t, "pickup", found.DeliveryMethod)
	assert.Equal(t, "dave", found.UserID)
	require.Len(t, found.Lines, 1)
	assert.Equal(t, 2, found.Lines[0].Quantity)

	rr = do(t, h, http.MethodPost, target+"/deliver", "", "")
	assert.Equal(t, http.StatusConflict, rr.Code, "a pending order cannot be delivered")

	rr = do(t, h, http.MethodPatch, target, "", `{"status":"confirmed","version":1}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int32(2), decode[order.Order](t, rr).Version)

	rr = do(t, h, http.MethodPatch, target, "", `{"status":"cancelled","version":1}`)
	assert.Equal(t, http.StatusConflict, rr.Code, "version 1 is stale")

	rr = do(t, h, http.MethodPost, target+"/deliver", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	delivered := decode[order.Order](t, rr)
	assert.Equal(t, order.StatusDelivered, delivered.Status)
	assert.NotNil(t, delivered.DeliveredAt)

	rr = do(t, h, http.MethodPost, target+"/cancel", "", "")
	assert.Equal(t, http.StatusConflict, rr.Code)

	page := decode[order.Page](t, do(t, h, http.MethodGet, "/api/v1/orders?userId=dave&status=delivered", "", ""))
	assert.Equal(t, 1, page.TotalElements)
	page = decode[order.Page](t, do(t, h, http.MethodGet, "/api/v1/orders/search?q="+receipt.Reference, "", ""))
	assert.Equal(t, 1, page.TotalElements)

	stats := decode[order.Stats](t, do(t, h, http.MethodGet, "/api/v1/orders/stats", "", ""))
	assert.Equal(t, 1, stats.DeliveredOrders)
	assert.True(t, stats.TotalRevenue.Equal(receipt.Total))

	rr = do(t, h, http.MethodDelete, target, "", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = do(t, h, http.MethodGet, target, "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
