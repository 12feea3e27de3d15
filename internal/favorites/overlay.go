// Package favorites tracks the products an identity has marked as liked.
package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/abgdnv/webstore/internal/catalog"
	"github.com/abgdnv/webstore/internal/kv"
)

// KeyPrefix namespaces the persisted favorite sets.
const KeyPrefix = "studyzone_favorites"

// Overlay holds the favorite set of the active identity. The set is loaded when
// the identity becomes active and saved after every mutation.
type Overlay struct {
	store  kv.Store
	logger *slog.Logger

	mu       sync.RWMutex
	identity kv.Identity
	ids      catalog.IDSet
	// stale is set while the persisted set could not be read. The stored set
	// may still exist, so it is re-read before any save.
	stale bool
}

// NewOverlay creates an overlay for identity and loads its persisted set.
func NewOverlay(ctx context.Context, store kv.Store, identity kv.Identity, logger *slog.Logger) *Overlay {
	o := &Overlay{
		store:  store,
		logger: logger.With("component", "favorites"),
	}
	o.identity = identity
	o.ids, o.stale = o.load(ctx, identity)
	return o
}

// Identity returns the active identity.
func (o *Overlay) Identity() kv.Identity {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.identity
}

func (o *Overlay) IsFavorite(productID int64) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.ids.Contains(productID)
}

// Stale reports whether the last load failed on a storage error.
func (o *Overlay) Stale() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.stale
}

// Toggle flips the membership of productID and returns whether it is now a favorite.
// The in-memory set is left unchanged when saving fails. A stale overlay re-reads
// the stored set first and fails without saving when the store is still unreadable.
func (o *Overlay) Toggle(ctx context.Context, productID int64) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.stale {
		ids, err := o.read(ctx, o.identity)
		if err != nil {
			return false, err
		}
		o.ids, o.stale = ids, false
	}

	next := o.ids.Clone()
	_, was := next[productID]
	if was {
		delete(next, productID)
	} else {
		next[productID] = struct{}{}
	}
	if err := o.save(ctx, o.identity, next); err != nil {
		return was, err
	}
	o.ids = next
	return !was, nil
}

// Current returns a snapshot of the favorite set.
func (o *Overlay) Current() catalog.IDSet {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.ids.Clone()
}

func (o *Overlay) Count() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.ids)
}

// Clear removes every favorite of the active identity.
func (o *Overlay) Clear(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.store.Delete(ctx, o.identity.Key(KeyPrefix)); err != nil {
		return fmt.Errorf("failed to clear favorites of %s: %w", o.identity, err)
	}
	o.ids = catalog.IDSet{}
	o.stale = false
	return nil
}

// SwitchContext drops the current set and loads the one persisted for identity.
// Nothing is carried over from the previous identity.
func (o *Overlay) SwitchContext(ctx context.Context, identity kv.Identity) {
	ids, stale := o.load(ctx, identity)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.identity = identity
	o.ids = ids
	o.stale = stale
}

// load reads the persisted set. Missing or unreadable data yields an empty set;
// stale reports that the store itself failed.
func (o *Overlay) load(ctx context.Context, identity kv.Identity) (ids catalog.IDSet, stale bool) {
	ids, err := o.read(ctx, identity)
	if err != nil {
		o.logger.WarnContext(ctx, "Failed to read favorites, starting empty", "identity", identity.String(), "error", err)
		return catalog.IDSet{}, true
	}
	return ids, false
}

// read returns the persisted set. Corrupt data is logged and read as empty.
func (o *Overlay) read(ctx context.Context, identity kv.Identity) (catalog.IDSet, error) {
	key := identity.Key(KeyPrefix)
	data, err := o.store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return catalog.IDSet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read favorites of %s: %w", identity, err)
	}
	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		o.logger.WarnContext(ctx, "Corrupt favorites, starting empty", "key", key, "error", err)
		return catalog.IDSet{}, nil
	}
	return catalog.NewIDSet(ids...), nil
}

func (o *Overlay) save(ctx context.Context, identity kv.Identity, ids catalog.IDSet) error {
	data, err := json.Marshal(ids.Sorted())
	if err != nil {
		return fmt.Errorf("failed to encode favorites: %w", err)
	}
	if err := o.store.Put(ctx, identity.Key(KeyPrefix), data); err != nil {
		return fmt.Errorf("failed to save favorites of %s: %w", identity, err)
	}
	return nil
}
