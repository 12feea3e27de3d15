// Package order keeps the orders placed at checkout and moves them through their lifecycle.
package order

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/abgdnv/webstore/internal/catalog"
	apperrors "github.com/abgdnv/webstore/internal/errors"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusPending, StatusConfirmed, StatusDelivered, StatusCancelled}

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusDelivered, StatusCancelled},
}

// ParseStatus accepts a status name in any case.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Statuses, st) {
		return "", fmt.Errorf("%w: unknown order status %q", catalog.ErrInvalidInput, s)
	}
	return st, nil
}

// CanTransitionTo reports whether an order in s may move to next.
// Delivered and cancelled orders are final.
func (s Status) CanTransitionTo(next Status) bool {
	return slices.Contains(transitions[s], next)
}

// DefaultDeliveryMethod is used when checkout does not name one.
const DefaultDeliveryMethod = "standard"

// Line is one ordered product. UnitPrice is the cart price at checkout.
type Line struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"imageUrl,omitempty"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is a placed order. Version grows with every status change.
type Order struct {
	ID             int64           `json:"id"`
	Reference      string          `json:"reference"`
	UserID         string          `json:"userId,omitempty"`
	Status         Status          `json:"status"`
	DeliveryMethod string          `json:"deliveryMethod"`
	Lines          []Line          `json:"orderItems"`
	Total          decimal.Decimal `json:"totalAmount"`
	Version        int32           `json:"version"`
	CreatedAt      time.Time       `json:"orderDate"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	DeliveredAt    *time.Time      `json:"deliveryDate,omitempty"`
}

// ReferenceOf formats the public reference of order id.
func ReferenceOf(id int64) string {
	return fmt.Sprintf("ORD-%06d", id)
}

// NewOrder holds what checkout knows about an order before it is stored.
type NewOrder struct {
	UserID         string
	DeliveryMethod string
	Lines          []Line
	CreatedAt      time.Time
}

// Build returns the pending order for n. ID and Reference are left to the store.
func (n NewOrder) Build() Order {
	o := Order{
		UserID:         n.UserID,
		Status:         StatusPending,
		DeliveryMethod: cmp.Or(n.DeliveryMethod, DefaultDeliveryMethod),
		Lines:          slices.Clone(n.Lines),
		Total:          decimal.Zero,
		Version:        1,
		CreatedAt:      n.CreatedAt,
		UpdatedAt:      n.CreatedAt,
	}
	for _, l := range o.Lines {
		o.Total = o.Total.Add(l.Total())
	}
	return o
}

// StatusChange moves an order to Status. A zero Version skips the concurrency check.
type StatusChange struct {
	Status  Status
	Version int32
	At      time.Time
}

// Apply changes the status of o in place.
// Returns ErrOptimisticLock on a version mismatch and ErrInvalidTransition when the lifecycle forbids the move.
func (o *Order) Apply(change StatusChange) error {
	if change.Version != 0 && change.Version != o.Version {
		return fmt.Errorf("order %d at version %d, got %d: %w", o.ID, o.Version, change.Version, apperrors.ErrOptimisticLock)
	}
	if !o.Status.CanTransitionTo(change.Status) {
		return fmt.Errorf("order %d from %s to %s: %w", o.ID, o.Status, change.Status, apperrors.ErrInvalidTransition)
	}
	o.Status = change.Status
	o.Version++
	o.UpdatedAt = change.At
	if change.Status == StatusDelivered {
		at := change.At
		o.DeliveredAt = &at
	}
	return nil
}

// Filter narrows an order listing. Keyword matches the reference or the numeric id.
type Filter struct {
	Status  *Status
	UserID  *string
	Keyword string
}

func (f Filter) Matches(o Order) bool {
	if f.Status != nil && o.Status != *f.Status {
		return false
	}
	if f.UserID != nil && o.UserID != *f.UserID {
		return false
	}
	if kw := strings.ToLower(strings.TrimSpace(f.Keyword)); kw != "" {
		return strings.Contains(strings.ToLower(o.Reference), kw) || fmt.Sprint(o.ID) == kw
	}
	return true
}

type SortField string

const (
	SortByDate   SortField = "orderDate"
	SortByTotal  SortField = "totalAmount"
	SortByID     SortField = "id"
	SortByStatus SortField = "status"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ListRequest selects one page of orders. Zero values select the newest orders first.
type ListRequest struct {
	Page      int
	Size      int
	Sort      SortField
	Direction catalog.SortDirection
	Filter    Filter
}

// Normalize fills defaults and rejects unknown sort keys.
func (r ListRequest) Normalize() (ListRequest, error) {
	if r.Page < 0 {
		return r, fmt.Errorf("%w: page must not be negative", catalog.ErrInvalidInput)
	}
	if r.Size == 0 {
		r.Size = DefaultPageSize
	}
	if r.Size < 0 || r.Size > MaxPageSize {
		return r, fmt.Errorf("%w: size must be between 1 and %d", catalog.ErrInvalidInput, MaxPageSize)
	}
	switch r.Sort {
	case "":
		r.Sort = SortByDate
	case SortByDate, SortByTotal, SortByID, SortByStatus:
	default:
		return r, fmt.Errorf("%w: unknown sort field %q", catalog.ErrInvalidInput, r.Sort)
	}
	if r.Direction == "" {
		r.Direction = catalog.Descending
	}
	dir, err := catalog.ParseSortDirection(string(r.Direction))
	if err != nil {
		return r, err
	}
	r.Direction = dir
	return r, nil
}

func compare(field SortField, a, b Order) int {
	var c int
	switch field {
	case SortByTotal:
		c = a.Total.Cmp(b.Total)
	case SortByStatus:
		c = cmp.Compare(a.Status, b.Status)
	case SortByID:
	default:
		c = a.CreatedAt.Compare(b.CreatedAt)
	}
	return cmp.Or(c, cmp.Compare(a.ID, b.ID))
}

// Page is one page of orders.
type Page struct {
	Orders        []Order `json:"orders"`
	Page          int     `json:"page"`
	Size          int     `json:"size"`
	TotalElements int     `json:"totalElements"`
	TotalPages    int     `json:"totalPages"`
}

// List filters, sorts and pages orders. req must be normalized.
func List(orders []Order, req ListRequest) Page {
	matched := make([]Order, 0, len(orders))
	for _, o := range orders {
		if req.Filter.Matches(o) {
			matched = append(matched, o)
		}
	}
	slices.SortStableFunc(matched, func(a, b Order) int {
		c := compare(req.Sort, a, b)
		if req.Direction == catalog.Descending {
			return -c
		}
		return c
	})
	start, end, totalPages := catalog.Bounds(len(matched), req.Page, req.Size)
	return Page{
		Orders:        matched[start:end:end],
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: len(matched),
		TotalPages:    totalPages,
	}
}

// Stats counts orders per status. TotalRevenue leaves out cancelled orders.
type Stats struct {
	TotalOrders     int             `json:"totalOrders"`
	PendingOrders   int             `json:"pendingOrders"`
	ConfirmedOrders int             `json:"confirmedOrders"`
	DeliveredOrders int             `json:"deliveredOrders"`
	CancelledOrders int             `json:"cancelledOrders"`
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
}

// Add counts o in s.
func (s *Stats) Add(o Order) {
	s.TotalOrders++
	switch o.Status {
	case StatusPending:
		s.PendingOrders++
	case StatusConfirmed:
		s.ConfirmedOrders++
	case StatusDelivered:
		s.DeliveredOrders++
	case StatusCancelled:
		s.CancelledOrders++
		return
	}
	s.TotalRevenue = s.TotalRevenue.Add(o.Total)
}
