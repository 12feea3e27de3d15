package catalog

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidInput is returned for queries that cannot be executed as given.
var ErrInvalidInput = errors.New("invalid query input")

const DefaultPageSize = 12

type SortField string

const (
	SortByID    SortField = "id"
	SortByName  SortField = "name"
	SortByPrice SortField = "price"
	SortByStock SortField = "stock"
)

// ParseSortField maps a case-insensitive field name to a SortField. Empty means SortByName.
func ParseSortField(s string) (SortField, error) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return SortByName, nil
	case SortByID, SortByName, SortByPrice, SortByStock:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown sort field %q", ErrInvalidInput, s)
	}
}

type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// ParseSortDirection accepts "asc" or "desc" in any case. Empty means Ascending.
func ParseSortDirection(s string) (SortDirection, error) {
	switch d := SortDirection(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return Ascending, nil
	case Ascending, Descending:
		return d, nil
	default:
		return "", fmt.Errorf("%w: unknown sort direction %q", ErrInvalidInput, s)
	}
}

// Filters narrows a query. Nil pointers and empty strings disable a criterion.
type Filters struct {
	SearchQuery   string
	CategoryID    *int64
	IsClothing    *bool
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	FavoritesOnly bool
	FavoriteIDs   IDSet
}

// PriceRange returns the effective bounds of the price filter. A nil max means
// unbounded. Only a max yields [0, max]; inverted bounds are swapped. ok is false
// when no price bound is set.
func (f Filters) PriceRange() (lo decimal.Decimal, hi *decimal.Decimal, ok bool) {
	switch {
	case f.MinPrice == nil && f.MaxPrice == nil:
		return decimal.Zero, nil, false
	case f.MinPrice == nil:
		upper := *f.MaxPrice
		return decimal.Zero, &upper, true
	case f.MaxPrice == nil:
		return *f.MinPrice, nil, true
	}
	lower, upper := *f.MinPrice, *f.MaxPrice
	if lower.GreaterThan(upper) {
		lower, upper = upper, lower
	}
	return lower, &upper, true
}

func (f Filters) validate() error {
	if f.MinPrice != nil && f.MinPrice.IsNegative() {
		return fmt.Errorf("%w: minPrice must not be negative", ErrInvalidInput)
	}
	if f.MaxPrice != nil && f.MaxPrice.IsNegative() {
		return fmt.Errorf("%w: maxPrice must not be negative", ErrInvalidInput)
	}
	return nil
}

// QueryRequest selects one page of the filtered and sorted collection.
// Zero Sort and Direction mean name ascending.
type QueryRequest struct {
	Page      int
	Size      int
	Sort      SortField
	Direction SortDirection
	Filters   Filters
}

// Page is one slice of a query result.
type Page struct {
	Content       []Product `json:"content"`
	TotalElements int       `json:"totalElements"`
	TotalPages    int       `json:"totalPages"`
	Size          int       `json:"size"`
	Number        int       `json:"number"`
	First         bool      `json:"first"`
	Last          bool      `json:"last"`
}

// Empty reports whether the page has no content.
func (p Page) Empty() bool {
	return len(p.Content) == 0
}

// Query filters, sorts and paginates products. The input slice is not modified.
func Query(products []Product, req QueryRequest) (Page, error) {
	if req.Page < 0 {
		return Page{}, fmt.Errorf("%w: page must be >= 0, got %d", ErrInvalidInput, req.Page)
	}
	if req.Size <= 0 {
		return Page{}, fmt.Errorf("%w: size must be > 0, got %d", ErrInvalidInput, req.Size)
	}
	field, err := ParseSortField(string(req.Sort))
	if err != nil {
		return Page{}, err
	}
	direction, err := ParseSortDirection(string(req.Direction))
	if err != nil {
		return Page{}, err
	}
	if err := req.Filters.validate(); err != nil {
		return Page{}, err
	}

	matched := Filter(products, req.Filters)
	SortProducts(matched, field, direction)
	return Paginate(matched, req.Page, req.Size), nil
}

// Filter returns the products matching every active criterion, in input order.
func Filter(products []Product, f Filters) []Product {
	if f.FavoritesOnly && len(f.FavoriteIDs) == 0 {
		return []Product{}
	}

	search := strings.ToLower(strings.TrimSpace(f.SearchQuery))
	minPrice, maxPrice, hasPrice := f.PriceRange()

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		if f.CategoryID != nil && p.CategoryID() != *f.CategoryID {
			continue
		}
		if f.IsClothing != nil && p.IsClothing != *f.IsClothing {
			continue
		}
		if hasPrice {
			if p.Price.LessThan(minPrice) {
				continue
			}
			if maxPrice != nil && p.Price.GreaterThan(*maxPrice) {
				continue
			}
		}
		if f.FavoritesOnly && !f.FavoriteIDs.Contains(p.ID) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// SortProducts sorts in place and keeps equal keys in their original order.
// Strings compare byte-wise, so upper case sorts before lower case.
func SortProducts(products []Product, field SortField, direction SortDirection) {
	compare := comparator(field)
	if direction == Descending {
		asc := compare
		compare = func(a, b Product) int { return -asc(a, b) }
	}
	slices.SortStableFunc(products, compare)
}

func comparator(field SortField) func(a, b Product) int {
	switch field {
	case SortByID:
		return func(a, b Product) int { return cmp.Compare(a.ID, b.ID) }
	case SortByPrice:
		return func(a, b Product) int { return a.Price.Cmp(b.Price) }
	case SortByStock:
		return func(a, b Product) int { return cmp.Compare(a.Stock, b.Stock) }
	default:
		return func(a, b Product) int { return strings.Compare(a.Name, b.Name) }
	}
}

// Paginate cuts page number of the given size out of products. A page past
// the end has no content.
func Paginate(products []Product, page, size int) Page {
	total := len(products)
	start, end, totalPages := Bounds(total, page, size)
	content := products[start:end:end]
	if len(content) == 0 {
		content = []Product{}
	}

	return Page{
		Content:       content,
		TotalElements: total,
		TotalPages:    totalPages,
		Size:          size,
		Number:        page,
		First:         page == 0,
		Last:          page >= totalPages-1,
	}
}

// Bounds returns the [start, end) window of page in a collection of total
// elements and the number of pages. size must be positive. A page past the end
// yields an empty window at total.
func Bounds(total, page, size int) (start, end, totalPages int) {
	totalPages = total / size
	if total%size != 0 {
		totalPages++
	}
	if page >= totalPages {
		return total, total, totalPages
	}
	start = page * size
	return start, start + min(size, total-start), totalPages
}
