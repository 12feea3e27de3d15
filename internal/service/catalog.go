// Package service provides the storefront business logic shared by the REST and gRPC transports.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abgdnv/webstore/internal/cart"
	"github.com/abgdnv/webstore/internal/catalog"
	perrors "github.com/abgdnv/webstore/internal/errors"
	"github.com/abgdnv/webstore/internal/favorites"
	"github.com/abgdnv/webstore/internal/kv"
	"github.com/abgdnv/webstore/internal/order"
	"github.com/abgdnv/webstore/internal/store"
	"github.com/abgdnv/webstore/pkg/messaging"
	"github.com/abgdnv/webstore/pkg/messaging/events"
	"github.com/abgdnv/webstore/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MaxPageSize bounds the page size a client may request.
const MaxPageSize = 100

// QueryDto is a product listing request as received from a transport.
// Size 0 selects the configured default page size.
type QueryDto struct {
	Page          int              `json:"page"          validate:"gte=0"`
	Size          int              `json:"size"          validate:"gte=0,lte=100"`
	Sort          string           `json:"sort"`
	Direction     string           `json:"direction"`
	Search        string           `json:"q"             validate:"max=200"`
	CategoryID    *int64           `json:"categoryId"    validate:"omitempty,gt=0"`
	Clothing      *bool            `json:"clothing"`
	MinPrice      *decimal.Decimal `json:"minPrice"      validate:"omitempty,gte=0"`
	MaxPrice      *decimal.Decimal `json:"maxPrice"      validate:"omitempty,gte=0"`
	FavoritesOnly bool             `json:"favoritesOnly"`
}

// QueryResult is a page of products. Message describes the active filters when the page is empty.
type QueryResult struct {
	catalog.Page
	Message string `json:"message,omitempty"`
}

// FavoritesView lists the favorite ids of an identity and the products that still exist for them.
type FavoritesView struct {
	IDs      []int64           `json:"ids"`
	Count    int               `json:"count"`
	Products []catalog.Product `json:"products"`
}

// ToggleResult reports the membership of a product after a toggle.
type ToggleResult struct {
	ProductID  int64 `json:"productId"`
	IsFavorite bool  `json:"isFavorite"`
	Count      int   `json:"count"`
}

// AddToCartDto adds Quantity units of a product to the cart.
type AddToCartDto struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity"  validate:"required,gte=1,lte=999"`
}

// CheckoutDto carries the checkout options. An empty delivery method selects order.DefaultDeliveryMethod.
type CheckoutDto struct {
	DeliveryMethod string `json:"deliveryMethod" validate:"omitempty,oneof=standard express pickup"`
}

// CartView is the content of a cart.
type CartView struct {
	Items []cart.Item     `json:"items"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// CatalogService defines the storefront operations used by the transports.
type CatalogService interface {
	QueryProducts(ctx context.Context, identity kv.Identity, dto QueryDto) (*QueryResult, error)
	GetProduct(ctx context.Context, id int64) (*catalog.Product, error)
	NextReference(ctx context.Context) (string, error)
	CreateProduct(ctx context.Context, in store.ProductInput) (*catalog.Product, error)
	UpdateProduct(ctx context.Context, id int64, in store.ProductInput) (*catalog.Product, error)
	PatchProduct(ctx context.Context, id int64, patch store.ProductPatch) (*catalog.Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	ListCategories(ctx context.Context) ([]catalog.Category, error)
	CreateCategory(ctx context.Context, in store.CategoryInput) (*catalog.Category, error)
	UpdateCategory(ctx context.Context, id int64, in store.CategoryInput) (*catalog.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	ToggleFavorite(ctx context.Context, identity kv.Identity, productID int64) (*ToggleResult, error)
	Favorites(ctx context.Context, identity kv.Identity) (*FavoritesView, error)
	ClearFavorites(ctx context.Context, identity kv.Identity) error

	Cart(ctx context.Context, identity kv.Identity) (*CartView, error)
	AddToCart(ctx context.Context, identity kv.Identity, dto AddToCartDto) (*CartView, error)
	RemoveFromCart(ctx context.Context, identity kv.Identity, productID int64) (*CartView, error)
	ClearCart(ctx context.Context, identity kv.Identity) error
	Checkout(ctx context.Context, identity kv.Identity, dto CheckoutDto) (*cart.Receipt, error)
}

var _ CatalogService = (*Catalog)(nil)

// Catalog combines the collection store, the query engine, favorites, carts and order placement.
type Catalog struct {
	store     store.Store
	favorites *favorites.Registry
	carts     *cart.Carts
	orders    order.OrderService
	publisher messaging.Publisher
	validate  *validator.Validate
	logger    *slog.Logger
	now       func() time.Time
	pageSize  int

	queriesCounter   metric.Int64Counter
	togglesCounter   metric.Int64Counter
	checkoutsCounter metric.Int64Counter
}

// NewCatalog creates the service. pageSize <= 0 selects catalog.DefaultPageSize.
func NewCatalog(st store.Store, favs *favorites.Registry, carts *cart.Carts, orders order.OrderService, publisher messaging.Publisher, logger *slog.Logger, pageSize int) *Catalog {
	if pageSize <= 0 {
		pageSize = catalog.DefaultPageSize
	}
	meter := otel.Meter("storefront")
	return &Catalog{
		store:            st,
		favorites:        favs,
		carts:            carts,
		orders:           orders,
		publisher:        publisher,
		validate:         web.NewValidator(),
		logger:           logger.With("component", "catalog-service"),
		now:              time.Now,
		pageSize:         pageSize,
		queriesCounter:   mustCounter(meter, "catalog_queries", "Total number of product queries"),
		togglesCounter:   mustCounter(meter, "favorites_toggled", "Total number of favorite toggles"),
		checkoutsCounter: mustCounter(meter, "checkouts", "Total number of successful checkouts"),
	}
}

func mustCounter(meter metric.Meter, name, description string) metric.Int64Counter {
	counter, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		panic(fmt.Sprintf("failed to create %s counter: %v", name, err))
	}
	return counter
}

// QueryProducts runs the listing pipeline over the current collection.
// For favorites-only queries the favorite set of identity is used.
// Returns catalog.ErrInvalidInput or validator.ValidationErrors for bad input.
func (s *Catalog) QueryProducts(ctx context.Context, identity kv.Identity, dto QueryDto) (*QueryResult, error) {
	if err := s.validate.Struct(dto); err != nil {
		return nil, err
	}
	size := dto.Size
	if size == 0 {
		size = s.pageSize
	}
	filters := catalog.Filters{
		SearchQuery:   dto.Search,
		CategoryID:    dto.CategoryID,
		IsClothing:    dto.Clothing,
		MinPrice:      dto.MinPrice,
		MaxPrice:      dto.MaxPrice,
		FavoritesOnly: dto.FavoritesOnly,
	}
	if dto.FavoritesOnly {
		err := s.favorites.With(ctx, identity, func(o *favorites.Overlay) error {
			filters.FavoriteIDs = o.Current()
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	products, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	page, err := catalog.Query(products, catalog.QueryRequest{
		Page:      dto.Page,
		Size:      size,
		Sort:      catalog.SortField(dto.Sort),
		Direction: catalog.SortDirection(dto.Direction),
		Filters:   filters,
	})
	if err != nil {
		return nil, err
	}
	s.queriesCounter.Add(ctx, 1, metric.WithAttributes(attribute.Bool("favorites_only", dto.FavoritesOnly)))

	result := &QueryResult{Page: page}
	if page.Empty() {
		result.Message = catalog.NoResultsMessage(filters, s.categoryName(ctx, dto.CategoryID))
	}
	return result, nil
}

func (s *Catalog) categoryName(ctx context.Context, id *int64) string {
	if id == nil {
		return ""
	}
	c, err := s.store.FindCategory(ctx, *id)
	if err != nil {
		return ""
	}
	return c.Name
}

// GetProduct returns a product by id.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *Catalog) GetProduct(ctx context.Context, id int64) (*catalog.Product, error) {
	return s.store.FindByID(ctx, id)
}

// NextReference suggests the reference for a new product.
func (s *Catalog) NextReference(ctx context.Context) (string, error) {
	products, err := s.store.List(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list products: %w", err)
	}
	return catalog.NextReference(products), nil
}

// CreateProduct validates and stores a new product. An empty reference is generated.
func (s *Catalog) CreateProduct(ctx context.Context, in store.ProductInput) (*catalog.Product, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Reference) == "" {
		ref, err := s.NextReference(ctx)
		if err != nil {
			return nil, err
		}
		in.Reference = ref
	}
	p, err := s.store.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.publishProduct(ctx, events.Created, p)
	return p, nil
}

func (s *Catalog) UpdateProduct(ctx context.Context, id int64, in store.ProductInput) (*catalog.Product, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	p, err := s.store.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.publishProduct(ctx, events.Updated, p)
	return p, nil
}

func (s *Catalog) PatchProduct(ctx context.Context, id int64, patch store.ProductPatch) (*catalog.Product, error) {
	if err := s.validate.Struct(patch); err != nil {
		return nil, err
	}
	p, err := s.store.Patch(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.publishProduct(ctx, events.Updated, p)
	return p, nil
}

// DeleteProduct removes a product. Favorite sets keep the id; queries no longer return it.
func (s *Catalog) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.publishProduct(ctx, events.Deleted, &catalog.Product{ID: id})
	return nil
}

func (s *Catalog) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *Catalog) CreateCategory(ctx context.Context, in store.CategoryInput) (*catalog.Category, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	c, err := s.store.CreateCategory(ctx, in)
	if err != nil {
		return nil, err
	}
	s.publishCategory(ctx, events.Created, c)
	return c, nil
}

func (s *Catalog) UpdateCategory(ctx context.Context, id int64, in store.CategoryInput) (*catalog.Category, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	c, err := s.store.UpdateCategory(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.publishCategory(ctx, events.Updated, c)
	return c, nil
}

func (s *Catalog) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.publishCategory(ctx, events.Deleted, &catalog.Category{ID: id})
	return nil
}

// ToggleFavorite flips the membership of an existing product in the favorites of identity.
func (s *Catalog) ToggleFavorite(ctx context.Context, identity kv.Identity, productID int64) (*ToggleResult, error) {
	if _, err := s.store.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	result := &ToggleResult{ProductID: productID}
	err := s.favorites.With(ctx, identity, func(o *favorites.Overlay) error {
		added, err := o.Toggle(ctx, productID)
		if err != nil {
			return err
		}
		result.IsFavorite = added
		result.Count = o.Count()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to toggle favorite: %w", err)
	}
	s.togglesCounter.Add(ctx, 1, metric.WithAttributes(attribute.Bool("added", result.IsFavorite)))
	s.logger.DebugContext(ctx, "Favorite toggled", "identity", identity.String(), "product_id", productID, "is_favorite", result.IsFavorite)
	return result, nil
}

// Favorites returns the favorite ids of identity and the matching products ordered by id.
func (s *Catalog) Favorites(ctx context.Context, identity kv.Identity) (*FavoritesView, error) {
	var ids catalog.IDSet
	err := s.favorites.With(ctx, identity, func(o *favorites.Overlay) error {
		ids = o.Current()
		return nil
	})
	if err != nil {
		return nil, err
	}
	products, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	view := &FavoritesView{IDs: ids.Sorted(), Count: len(ids), Products: []catalog.Product{}}
	for _, p := range products {
		if ids.Contains(p.ID) {
			view.Products = append(view.Products, p)
		}
	}
	return view, nil
}

func (s *Catalog) ClearFavorites(ctx context.Context, identity kv.Identity) error {
	return s.favorites.With(ctx, identity, func(o *favorites.Overlay) error {
		return o.Clear(ctx)
	})
}

func (s *Catalog) Cart(ctx context.Context, identity kv.Identity) (*CartView, error) {
	items, err := s.carts.Items(ctx, identity)
	if err != nil {
		return nil, err
	}
	return toCartView(items), nil
}

// AddToCart puts a product in the cart of identity at its current price.
// Returns ErrProductNotFound or ErrOutOfStock.
func (s *Catalog) AddToCart(ctx context.Context, identity kv.Identity, dto AddToCartDto) (*CartView, error) {
	if err := s.validate.Struct(dto); err != nil {
		return nil, err
	}
	product, err := s.store.FindByID(ctx, dto.ProductID)
	if err != nil {
		return nil, err
	}
	if _, err := s.carts.Add(ctx, identity, *product, dto.Quantity); err != nil {
		return nil, err
	}
	return s.Cart(ctx, identity)
}

func (s *Catalog) RemoveFromCart(ctx context.Context, identity kv.Identity, productID int64) (*CartView, error) {
	if err := s.carts.Remove(ctx, identity, productID); err != nil {
		return nil, err
	}
	return s.Cart(ctx, identity)
}

func (s *Catalog) ClearCart(ctx context.Context, identity kv.Identity) error {
	return s.carts.Clear(ctx, identity)
}

// Checkout places an order for the cart of identity and empties the cart.
// Returns ErrCartEmpty when there is nothing to check out. The cart is kept when the order cannot be stored.
func (s *Catalog) Checkout(ctx context.Context, identity kv.Identity, dto CheckoutDto) (*cart.Receipt, error) {
	if err := s.validate.Struct(dto); err != nil {
		return nil, err
	}
	receipt, err := s.carts.Checkout(ctx, identity, func(ctx context.Context, r *cart.Receipt) error {
		lines := make([]order.Line, 0, len(r.Items))
		for _, item := range r.Items {
			lines = append(lines, order.Line{
				ProductID: item.ProductID,
				Name:      item.Name,
				ImageURL:  item.ImageURL,
				UnitPrice: item.UnitPrice,
				Quantity:  item.Quantity,
			})
		}
		placed, err := s.orders.Place(ctx, order.NewOrder{
			UserID:         identity.UserID,
			DeliveryMethod: dto.DeliveryMethod,
			Lines:          lines,
			CreatedAt:      r.CheckedAt,
		})
		if err != nil {
			return fmt.Errorf("failed to place order: %w", err)
		}
		r.OrderID, r.Reference = placed.ID, placed.Reference
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.checkoutsCounter.Add(ctx, 1)
	s.logger.InfoContext(ctx, "Cart checked out", "identity", identity.String(), "order_id", receipt.OrderID, "total", receipt.Total.String())
	return &receipt, nil
}

func (s *Catalog) publishProduct(ctx context.Context, kind events.ChangeKind, p *catalog.Product) {
	event := events.ProductChangedEvent{
		Kind:       kind,
		ProductID:  p.ID,
		Name:       p.Name,
		Reference:  p.Reference,
		Price:      p.Price,
		Stock:      p.Stock,
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ProductChangedEvent", "product_id", p.ID, "kind", kind, "error", err)
	}
}

func (s *Catalog) publishCategory(ctx context.Context, kind events.ChangeKind, c *catalog.Category) {
	event := events.CategoryChangedEvent{
		Kind:       kind,
		CategoryID: c.ID,
		Name:       c.Name,
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish CategoryChangedEvent", "category_id", c.ID, "kind", kind, "error", err)
	}
}

func toCartView(items []cart.Item) *CartView {
	view := &CartView{Items: items, Total: decimal.Zero}
	if view.Items == nil {
		view.Items = []cart.Item{}
	}
	for _, item := range items {
		view.Total = view.Total.Add(item.LineTotal())
		view.Count += item.Quantity
	}
	return view
}

// IsNotFound reports whether err means a missing product, category, cart line or order.
func IsNotFound(err error) bool {
	return errors.Is(err, perrors.ErrProductNotFound) ||
		errors.Is(err, perrors.ErrCategoryNotFound) ||
		errors.Is(err, perrors.ErrCartItemNotFound) ||
		errors.Is(err, perrors.ErrOrderNotFound)
}
