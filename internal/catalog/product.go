// Package catalog holds the catalog domain types and the product query engine.
package catalog

import (
	"slices"

	"github.com/shopspring/decimal"
)

// CategoryRef is the category a product belongs to.
type CategoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Product is a catalog entry. Price is never negative and Stock never below zero.
type Product struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Price          decimal.Decimal `json:"price"`
	Stock          int             `json:"stock"`
	IsClothing     bool            `json:"isClothing"`
	Category       *CategoryRef    `json:"category,omitempty"`
	ImageURL       string          `json:"imageUrl,omitempty"`
	Reference      string          `json:"reference,omitempty"`
	Material       string          `json:"material,omitempty"`
	Printings      string          `json:"printings,omitempty"`
	Images         []string        `json:"images,omitempty"`
	AvailableSizes []string        `json:"availableSizes,omitempty"`
}

// CategoryID returns the id of the product's category, 0 when it has none.
func (p Product) CategoryID() int64 {
	if p.Category == nil {
		return 0
	}
	return p.Category.ID
}

// Clone returns a deep copy so that callers cannot alias slices owned by a store.
func (p Product) Clone() Product {
	c := p
	if p.Category != nil {
		ref := *p.Category
		c.Category = &ref
	}
	c.Images = slices.Clone(p.Images)
	c.AvailableSizes = slices.Clone(p.AvailableSizes)
	return c
}

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// IDSet is a set of product ids.
type IDSet map[int64]struct{}

// NewIDSet builds a set from ids.
func NewIDSet(ids ...int64) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Contains(id int64) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the ids in ascending order.
func (s IDSet) Sorted() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Clone returns an independent copy of the set.
func (s IDSet) Clone() IDSet {
	c := make(IDSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}
