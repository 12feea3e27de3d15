package favorites

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/abgdnv/webstore/internal/kv"
)

const DefaultSlots = 64

// Registry serves favorite overlays for many identities from a fixed number of
// slots. Each slot owns one overlay and switches it to the requested identity
// when needed, so an identity's set is reloaded from the store and never mixed
// with the previous occupant's. An overlay whose last load failed is reloaded
// on its next use.
type Registry struct {
	store  kv.Store
	logger *slog.Logger
	slots  []slot
}

type slot struct {
	mu      sync.Mutex
	overlay *Overlay
}

// NewRegistry creates a registry with n slots, DefaultSlots when n <= 0.
func NewRegistry(store kv.Store, n int, logger *slog.Logger) *Registry {
	if n <= 0 {
		n = DefaultSlots
	}
	return &Registry{store: store, logger: logger, slots: make([]slot, n)}
}

// With runs fn with the overlay of identity. Calls for identities sharing a slot are serialized.
func (r *Registry) With(ctx context.Context, identity kv.Identity, fn func(o *Overlay) error) error {
	s := &r.slots[r.index(identity)]
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.overlay == nil:
		s.overlay = NewOverlay(ctx, r.store, identity, r.logger)
	case s.overlay.Identity() != identity, s.overlay.Stale():
		s.overlay.SwitchContext(ctx, identity)
	}
	return fn(s.overlay)
}

func (r *Registry) index(identity kv.Identity) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(identity.UserID))
	return int(h.Sum32() % uint32(len(r.slots)))
}
