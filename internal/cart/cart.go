// Package cart keeps a shopping cart per identity in a kv.Store.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/abgdnv/webstore/internal/catalog"
	apperrors "github.com/abgdnv/webstore/internal/errors"
	"github.com/abgdnv/webstore/internal/kv"
	"github.com/shopspring/decimal"
)

// KeyPrefix namespaces the persisted carts.
const KeyPrefix = "studyzone_cart"

// Item is one cart line. UnitPrice is the product price when the line was last changed.
type Item struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"imageUrl,omitempty"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// LineTotal is UnitPrice times Quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Receipt summarizes a successful checkout. OrderID and Reference name the stored order.
type Receipt struct {
	OrderID   int64           `json:"orderId,omitempty"`
	Reference string          `json:"reference,omitempty"`
	Items     []Item          `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
	CheckedAt time.Time       `json:"timestamp"`
}

// CommitFunc persists the order of a receipt. It may fill the order fields of the receipt.
type CommitFunc func(ctx context.Context, receipt *Receipt) error

// Carts stores the carts of all identities.
type Carts struct {
	store  kv.Store
	logger *slog.Logger
	now    func() time.Time

	mu sync.Mutex
}

func New(store kv.Store, logger *slog.Logger) *Carts {
	return &Carts{
		store:  store,
		logger: logger.With("component", "cart"),
		now:    time.Now,
	}
}

// Items returns the cart lines of identity in insertion order.
func (c *Carts) Items(ctx context.Context, identity kv.Identity) ([]Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx, identity)
}

// Add puts quantity units of product in the cart, merging with an existing line.
// The line price is refreshed from product.
func (c *Carts) Add(ctx context.Context, identity kv.Identity, product catalog.Product, quantity int) (Item, error) {
	if quantity < 1 {
		return Item{}, fmt.Errorf("%w: quantity must be at least 1", catalog.ErrInvalidInput)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load(ctx, identity)
	if err != nil {
		return Item{}, err
	}
	idx := slices.IndexFunc(items, func(i Item) bool { return i.ProductID == product.ID })
	if idx < 0 {
		items = append(items, Item{ProductID: product.ID})
		idx = len(items) - 1
	}
	line := &items[idx]
	line.Name = product.Name
	line.ImageURL = product.ImageURL
	line.UnitPrice = product.Price
	line.Quantity += quantity
	if line.Quantity > product.Stock {
		return Item{}, fmt.Errorf("%w: %d requested, %d available", apperrors.ErrOutOfStock, line.Quantity, product.Stock)
	}

	if err := c.save(ctx, identity, items); err != nil {
		return Item{}, err
	}
	return *line, nil
}

// Remove drops the line of productID.
func (c *Carts) Remove(ctx context.Context, identity kv.Identity, productID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load(ctx, identity)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(items, func(i Item) bool { return i.ProductID == productID })
	if idx < 0 {
		return fmt.Errorf("product %d: %w", productID, apperrors.ErrCartItemNotFound)
	}
	return c.save(ctx, identity, slices.Delete(items, idx, idx+1))
}

// Clear empties the cart of identity.
func (c *Carts) Clear(ctx context.Context, identity kv.Identity) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clear(ctx, identity)
}

// Total is the sum of all line totals.
func (c *Carts) Total(ctx context.Context, identity kv.Identity) (decimal.Decimal, error) {
	items, err := c.Items(ctx, identity)
	if err != nil {
		return decimal.Zero, err
	}
	return total(items), nil
}

// Checkout hands the cart content to commit and empties the cart once commit succeeded.
// A failed commit keeps the cart. Returns ErrCartEmpty when there is nothing to check out.
func (c *Carts) Checkout(ctx context.Context, identity kv.Identity, commit CommitFunc) (Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load(ctx, identity)
	if err != nil {
		return Receipt{}, err
	}
	if len(items) == 0 {
		return Receipt{}, apperrors.ErrCartEmpty
	}
	receipt := Receipt{
		Items:     items,
		Total:     total(items),
		ItemCount: len(items),
		CheckedAt: c.now().UTC(),
	}
	if commit != nil {
		if err := commit(ctx, &receipt); err != nil {
			return Receipt{}, err
		}
	}
	// The order exists now; a cart that cannot be cleared must not fail the checkout.
	if err := c.clear(ctx, identity); err != nil {
		c.logger.ErrorContext(ctx, "Failed to clear cart after checkout", "identity", identity.String(), "order_id", receipt.OrderID, "error", err)
	}
	return receipt, nil
}

func total(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, i := range items {
		sum = sum.Add(i.LineTotal())
	}
	return sum
}

// load reads the cart. A corrupt cart is logged and treated as empty.
func (c *Carts) load(ctx context.Context, identity kv.Identity) ([]Item, error) {
	key := identity.Key(KeyPrefix)
	data, err := c.store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return []Item{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cart of %s: %w", identity, err)
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		c.logger.WarnContext(ctx, "Corrupt cart, starting empty", "key", key, "error", err)
		return []Item{}, nil
	}
	return items, nil
}

func (c *Carts) save(ctx context.Context, identity kv.Identity, items []Item) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := c.store.Put(ctx, identity.Key(KeyPrefix), data); err != nil {
		return fmt.Errorf("failed to save cart of %s: %w", identity, err)
	}
	return nil
}

func (c *Carts) clear(ctx context.Context, identity kv.Identity) error {
	if err := c.store.Delete(ctx, identity.Key(KeyPrefix)); err != nil {
		return fmt.Errorf("failed to clear cart of %s: %w", identity, err)
	}
	return nil
}
