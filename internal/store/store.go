// Package store provides the collection store: the authoritative products and categories.
package store

import (
	"context"

	"github.com/abgdnv/webstore/internal/catalog"
	"github.com/shopspring/decimal"
)

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type ProductStore interface {
	// List returns every product ordered by id.
	List(ctx context.Context) ([]catalog.Product, error)

	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id int64) (*catalog.Product, error)

	// Create adds a new product. Returns ErrCategoryNotFound for an unknown category.
	Create(ctx context.Context, in ProductInput) (*catalog.Product, error)

	// Update replaces every field of a product.
	// Returns ErrProductNotFound or ErrCategoryNotFound.
	Update(ctx context.Context, id int64, in ProductInput) (*catalog.Product, error)

	// Patch changes the fields set in patch.
	// Returns ErrProductNotFound or ErrCategoryNotFound.
	Patch(ctx context.Context, id int64, patch ProductPatch) (*catalog.Product, error)

	// Delete removes a product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Delete(ctx context.Context, id int64) error
}

// CategoryStore is an interface for category storage operations.
// Deleting a category detaches its products instead of deleting them.
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	FindCategory(ctx context.Context, id int64) (*catalog.Category, error)
	CreateCategory(ctx context.Context, in CategoryInput) (*catalog.Category, error)
	UpdateCategory(ctx context.Context, id int64, in CategoryInput) (*catalog.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

// Store is the full collection store.
type Store interface {
	ProductStore
	CategoryStore
}

// ProductInput holds every writable product field.
type ProductInput struct {
	Name           string          `json:"name"           validate:"required,max=200"`
	Description    string          `json:"description"    validate:"max=2000"`
	Price          decimal.Decimal `json:"price"          validate:"gte=0"`
	Stock          int             `json:"stock"          validate:"gte=0"`
	IsClothing     bool            `json:"isClothing"`
	CategoryID     *int64          `json:"categoryId"     validate:"omitempty,gt=0"`
	ImageURL       string          `json:"imageUrl"       validate:"max=500"`
	Reference      string          `json:"reference"      validate:"max=50"`
	Material       string          `json:"material"       validate:"max=200"`
	Printings      string          `json:"printings"      validate:"max=200"`
	Images         []string        `json:"images"         validate:"max=20,dive,max=500"`
	AvailableSizes []string        `json:"availableSizes" validate:"max=10,dive,oneof=XS S M L XL XXL"`
}

// ProductPatch holds the product fields to change. Nil fields are kept.
// A CategoryID of 0 removes the product from its category.
type ProductPatch struct {
	Name           *string          `json:"name"           validate:"omitempty,min=1,max=200"`
	Description    *string          `json:"description"    validate:"omitempty,max=2000"`
	Price          *decimal.Decimal `json:"price"          validate:"omitempty,gte=0"`
	Stock          *int             `json:"stock"          validate:"omitempty,gte=0"`
	IsClothing     *bool            `json:"isClothing"`
	CategoryID     *int64           `json:"categoryId"     validate:"omitempty,gte=0"`
	ImageURL       *string          `json:"imageUrl"       validate:"omitempty,max=500"`
	Reference      *string          `json:"reference"      validate:"omitempty,max=50"`
	Material       *string          `json:"material"       validate:"omitempty,max=200"`
	Printings      *string          `json:"printings"      validate:"omitempty,max=200"`
	Images         []string         `json:"images"         validate:"omitempty,max=20,dive,max=500"`
	AvailableSizes []string         `json:"availableSizes" validate:"omitempty,max=10,dive,oneof=XS S M L XL XXL"`
}

// InputOf returns the input that recreates p.
func InputOf(p catalog.Product) ProductInput {
	in := ProductInput{
		Name:           p.Name,
		Description:    p.Description,
		Price:          p.Price,
		Stock:          p.Stock,
		IsClothing:     p.IsClothing,
		ImageURL:       p.ImageURL,
		Reference:      p.Reference,
		Material:       p.Material,
		Printings:      p.Printings,
		Images:         p.Images,
		AvailableSizes: p.AvailableSizes,
	}
	if p.Category != nil {
		id := p.Category.ID
		in.CategoryID = &id
	}
	return in
}

// Apply returns the input of p with the patch applied.
func (pp ProductPatch) Apply(p catalog.Product) ProductInput {
	in := InputOf(p)
	setIf(&in.Name, pp.Name)
	setIf(&in.Description, pp.Description)
	setIf(&in.Price, pp.Price)
	setIf(&in.Stock, pp.Stock)
	setIf(&in.IsClothing, pp.IsClothing)
	setIf(&in.ImageURL, pp.ImageURL)
	setIf(&in.Reference, pp.Reference)
	setIf(&in.Material, pp.Material)
	setIf(&in.Printings, pp.Printings)
	if pp.Images != nil {
		in.Images = pp.Images
	}
	if pp.AvailableSizes != nil {
		in.AvailableSizes = pp.AvailableSizes
	}
	if pp.CategoryID != nil {
		if *pp.CategoryID == 0 {
			in.CategoryID = nil
		} else {
			id := *pp.CategoryID
			in.CategoryID = &id
		}
	}
	return in
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

type CategoryInput struct {
	Name        string `json:"name"        validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}
