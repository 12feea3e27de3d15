package order

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/abgdnv/webstore/internal/catalog"
	apperrors "github.com/abgdnv/webstore/internal/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func line(price string, quantity int) Line {
	return Line{ProductID: 1, Name: "Tee", UnitPrice: decimal.RequireFromString(price), Quantity: quantity}
}

func TestStatus_CanTransitionTo(t *testing.T) {
	testCases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusDelivered, false},
		{StatusConfirmed, StatusDelivered, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusCancelled, false},
	}
	for _, tc := range testCases {
		t.Run(string(tc.from)+" to "+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus(" Confirmed ")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, st)

	_, err = ParseStatus("shipped")
	assert.ErrorIs(t, err, catalog.ErrInvalidInput)
}

func TestNewOrder_Build(t *testing.T) {
	// given
	n := NewOrder{UserID: "7", Lines: []Line{line("29.99", 2), line("5.00", 1)}, CreatedAt: day}

	// when
	o := n.Build()

	// then
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, DefaultDeliveryMethod, o.DeliveryMethod)
	assert.Equal(t, int32(1), o.Version)
	assert.True(t, decimal.RequireFromString("64.98").Equal(o.Total), "total=%s", o.Total)
	assert.Equal(t, day, o.UpdatedAt)
}

func TestOrder_Apply(t *testing.T) {
	later := day.Add(time.Hour)

	t.Run("delivery records the date", func(t *testing.T) {
		o := Order{ID: 1, Status: StatusConfirmed, Version: 2}

		require.NoError(t, o.Apply(StatusChange{Status: StatusDelivered, Version: 2, At: later}))

		assert.Equal(t, StatusDelivered, o.Status)
		assert.Equal(t, int32(3), o.Version)
		require.NotNil(t, o.DeliveredAt)
		assert.Equal(t, later, *o.DeliveredAt)
		assert.Equal(t, later, o.UpdatedAt)
	})

	t.Run("stale version", func(t *testing.T) {
		o := Order{ID: 1, Status: StatusPending, Version: 3}

		err := o.Apply(StatusChange{Status: StatusConfirmed, Version: 2, At: later})

		assert.ErrorIs(t, err, apperrors.ErrOptimisticLock)
		assert.Equal(t, StatusPending, o.Status)
		assert.Equal(t, int32(3), o.Version)
	})

	t.Run("final status", func(t *testing.T) {
		o := Order{ID: 1, Status: StatusCancelled, Version: 2}

		err := o.Apply(StatusChange{Status: StatusConfirmed, At: later})

		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
		assert.Equal(t, StatusCancelled, o.Status)
	})
}

func TestListRequest_Normalize(t *testing.T) {
	testCases := []struct {
		name    string
		req     ListRequest
		want    ListRequest
		wantErr bool
	}{
		{
			name: "defaults",
			req:  ListRequest{},
			want: ListRequest{Size: DefaultPageSize, Sort: SortByDate, Direction: catalog.Descending},
		},
		{
			name: "explicit values are kept",
			req:  ListRequest{Page: 2, Size: 5, Sort: SortByTotal, Direction: "ASC"},
			want: ListRequest{Page: 2, Size: 5, Sort: SortByTotal, Direction: catalog.Ascending},
		},
		{name: "negative page", req: ListRequest{Page: -1}, wantErr: true},
		{name: "size above max", req: ListRequest{Size: MaxPageSize + 1}, wantErr: true},
		{name: "unknown sort", req: ListRequest{Sort: "name"}, wantErr: true},
		{name: "unknown direction", req: ListRequest{Direction: "up"}, wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.req.Normalize()

			if tc.wantErr {
				assert.ErrorIs(t, err, catalog.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func sampleOrders() []Order {
	alice, bob := "alice", "bob"
	return []Order{
		{ID: 1, Reference: ReferenceOf(1), UserID: alice, Status: StatusPending, Total: decimal.RequireFromString("30"), CreatedAt: day},
		{ID: 2, Reference: ReferenceOf(2), UserID: bob, Status: StatusDelivered, Total: decimal.RequireFromString("10"), CreatedAt: day.Add(time.Hour)},
		{ID: 3, Reference: ReferenceOf(3), UserID: alice, Status: StatusCancelled, Total: decimal.RequireFromString("50"), CreatedAt: day.Add(2 * time.Hour)},
		{ID: 4, Reference: ReferenceOf(4), UserID: bob, Status: StatusConfirmed, Total: decimal.RequireFromString("20"), CreatedAt: day.Add(time.Hour)},
	}
}

func ids(orders []Order) []int64 {
	out := make([]int64, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.ID)
	}
	return out
}

func TestList(t *testing.T) {
	alice := "alice"
	pending := StatusPending

	testCases := []struct {
		name      string
		req       ListRequest
		wantIDs   []int64
		wantTotal int
		wantPages int
	}{
		{
			name:      "newest first with id as tie breaker",
			req:       ListRequest{},
			wantIDs:   []int64{3, 4, 2, 1},
			wantTotal: 4,
			wantPages: 1,
		},
		{
			name:      "by total ascending",
			req:       ListRequest{Sort: SortByTotal, Direction: catalog.Ascending},
			wantIDs:   []int64{2, 4, 1, 3},
			wantTotal: 4,
			wantPages: 1,
		},
		{
			name:      "user filter",
			req:       ListRequest{Sort: SortByID, Direction: catalog.Ascending, Filter: Filter{UserID: &alice}},
			wantIDs:   []int64{1, 3},
			wantTotal: 2,
			wantPages: 1,
		},
		{
			name:      "status and user filter",
			req:       ListRequest{Filter: Filter{UserID: &alice, Status: &pending}},
			wantIDs:   []int64{1},
			wantTotal: 1,
			wantPages: 1,
		},
		{
			name:      "keyword matches reference",
			req:       ListRequest{Filter: Filter{Keyword: "ord-000002"}},
			wantIDs:   []int64{2},
			wantTotal: 1,
			wantPages: 1,
		},
		{
			name:      "keyword matches id",
			req:       ListRequest{Filter: Filter{Keyword: "4"}},
			wantIDs:   []int64{4},
			wantTotal: 1,
			wantPages: 1,
		},
		{
			name:      "second page",
			req:       ListRequest{Page: 1, Size: 3, Sort: SortByID, Direction: catalog.Ascending},
			wantIDs:   []int64{4},
			wantTotal: 4,
			wantPages: 2,
		},
		{
			name:      "page past the end",
			req:       ListRequest{Page: math.MaxInt, Size: 3},
			wantIDs:   []int64{},
			wantTotal: 4,
			wantPages: 2,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			req, err := tc.req.Normalize()
			require.NoError(t, err)

			// when
			page := List(sampleOrders(), req)

			// then
			assert.Equal(t, tc.wantIDs, ids(page.Orders))
			assert.Equal(t, tc.wantTotal, page.TotalElements)
			assert.Equal(t, tc.wantPages, page.TotalPages)
			assert.NotNil(t, page.Orders)
		})
	}
}

func TestStats_LeavesCancelledOutOfRevenue(t *testing.T) {
	var s Stats
	for _, o := range sampleOrders() {
		s.Add(o)
	}

	assert.Equal(t, Stats{
		TotalOrders:     4,
		PendingOrders:   1,
		ConfirmedOrders: 1,
		DeliveredOrders: 1,
		CancelledOrders: 1,
		TotalRevenue:    s.TotalRevenue,
	}, s)
	assert.True(t, decimal.RequireFromString("60").Equal(s.TotalRevenue), "revenue=%s", s.TotalRevenue)
}

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	st := NewInMemoryStore()

	created, err := st.Create(ctx, NewOrder{UserID: "alice", Lines: []Line{line("9.99", 1)}, CreatedAt: day})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "ORD-000001", created.Reference)

	created.Lines[0].Quantity = 99
	found, err := st.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, found.Lines[0].Quantity, "callers must not alias stored lines")

	updated, from, err := st.UpdateStatus(ctx, created.ID, StatusChange{Status: StatusCancelled, Version: 1, At: day})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, from)
	assert.Equal(t, StatusCancelled, updated.Status)

	_, _, err = st.UpdateStatus(ctx, created.ID, StatusChange{Status: StatusConfirmed, At: day})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CancelledOrders)
	assert.True(t, stats.TotalRevenue.IsZero())

	require.NoError(t, st.Delete(ctx, created.ID))
	_, err = st.FindByID(ctx, created.ID)
	assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)
	assert.ErrorIs(t, st.Delete(ctx, created.ID), apperrors.ErrOrderNotFound)
	_, _, err = st.UpdateStatus(ctx, created.ID, StatusChange{Status: StatusConfirmed})
	assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)
}
