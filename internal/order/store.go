package order

import (
	"context"
	"fmt"
	"slices"
	"sync"

	apperrors "github.com/abgdnv/webstore/internal/errors"
)

// Store is an interface for order storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type Store interface {
	// Create stores a pending order and assigns its ID and Reference.
	Create(ctx context.Context, n NewOrder) (*Order, error)

	// FindByID retrieves a single order with its lines.
	// Returns ErrOrderNotFound if no order exists with the given ID.
	FindByID(ctx context.Context, id int64) (*Order, error)

	// List returns one page of the orders matching req.Filter. req must be normalized.
	List(ctx context.Context, req ListRequest) (Page, error)

	// UpdateStatus applies change to the order atomically and returns the status it left.
	// Returns ErrOrderNotFound, ErrOptimisticLock or ErrInvalidTransition.
	UpdateStatus(ctx context.Context, id int64, change StatusChange) (*Order, Status, error)

	// Delete removes an order and its lines.
	// Returns ErrOrderNotFound if no order exists with the given ID.
	Delete(ctx context.Context, id int64) error

	Stats(ctx context.Context) (Stats, error)
}

type inMemory struct {
	mu     sync.RWMutex
	orders map[int64]Order
	nextID int64
}

// NewInMemoryStore returns a Store kept in process memory.
func NewInMemoryStore() Store {
	return &inMemory{orders: make(map[int64]Order), nextID: 1}
}

func (m *inMemory) Create(_ context.Context, n NewOrder) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o := n.Build()
	o.ID = m.nextID
	o.Reference = ReferenceOf(o.ID)
	m.nextID++
	m.orders[o.ID] = o
	return clone(o), nil
}

func (m *inMemory) FindByID(_ context.Context, id int64) (*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, apperrors.ErrOrderNotFound)
	}
	return clone(o), nil
}

func (m *inMemory) List(_ context.Context, req ListRequest) (Page, error) {
	m.mu.RLock()
	orders := make([]Order, 0, len(m.orders))
	for _, o := range m.orders {
		orders = append(orders, *clone(o))
	}
	m.mu.RUnlock()
	return List(orders, req), nil
}

func (m *inMemory) UpdateStatus(_ context.Context, id int64, change StatusChange) (*Order, Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, "", fmt.Errorf("order %d: %w", id, apperrors.ErrOrderNotFound)
	}
	from := o.Status
	if err := o.Apply(change); err != nil {
		return nil, "", err
	}
	m.orders[id] = o
	return clone(o), from, nil
}

func (m *inMemory) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[id]; !ok {
		return fmt.Errorf("order %d: %w", id, apperrors.ErrOrderNotFound)
	}
	delete(m.orders, id)
	return nil
}

func (m *inMemory) Stats(_ context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var s Stats
	for _, o := range m.orders {
		s.Add(o)
	}
	return s, nil
}

func clone(o Order) *Order {
	o.Lines = slices.Clone(o.Lines)
	if o.DeliveredAt != nil {
		at := *o.DeliveredAt
		o.DeliveredAt = &at
	}
	return &o
}
