package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/abgdnv/webstore/internal/catalog"
	"github.com/abgdnv/webstore/internal/errors"
)

// inMemory implements Store using in-memory maps.
type inMemory struct {
	mu             sync.RWMutex
	products       map[int64]catalog.Product
	categories     map[int64]catalog.Category
	nextID         int64
	nextCategoryID int64
}

// NewInMemoryStore creates an empty in-memory Store. Ids start at 1.
func NewInMemoryStore() Store {
	return &inMemory{
		products:       make(map[int64]catalog.Product),
		categories:     make(map[int64]catalog.Category),
		nextID:         1,
		nextCategoryID: 1,
	}
}

func (s *inMemory) List(_ context.Context) ([]catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]catalog.Product, 0, len(s.products))
	for _, id := range slices.Sorted(maps.Keys(s.products)) {
		list = append(list, s.resolve(s.products[id]))
	}
	return list, nil
}

func (s *inMemory) FindByID(_ context.Context, id int64) (*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, errors.ErrProductNotFound)
	}
	p = s.resolve(p)
	return &p, nil
}

func (s *inMemory) Create(_ context.Context, in ProductInput) (*catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.build(s.nextID, in)
	if err != nil {
		return nil, err
	}
	s.nextID++
	s.products[p.ID] = p
	p = s.resolve(p)
	return &p, nil
}

func (s *inMemory) Update(_ context.Context, id int64, in ProductInput) (*catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replace(id, in)
}

func (s *inMemory) Patch(_ context.Context, id int64, patch ProductPatch) (*catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, errors.ErrProductNotFound)
	}
	return s.replace(id, patch.Apply(current))
}

func (s *inMemory) replace(id int64, in ProductInput) (*catalog.Product, error) {
	if _, ok := s.products[id]; !ok {
		return nil, fmt.Errorf("product %d: %w", id, errors.ErrProductNotFound)
	}
	p, err := s.build(id, in)
	if err != nil {
		return nil, err
	}
	s.products[id] = p
	p = s.resolve(p)
	return &p, nil
}

func (s *inMemory) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return fmt.Errorf("product %d: %w", id, errors.ErrProductNotFound)
	}
	delete(s.products, id)
	return nil
}

// build turns an input into a stored product. The category name is resolved on read.
func (s *inMemory) build(id int64, in ProductInput) (catalog.Product, error) {
	p := catalog.Product{
		ID:             id,
		Name:           in.Name,
		Description:    in.Description,
		Price:          in.Price,
		Stock:          in.Stock,
		IsClothing:     in.IsClothing,
		ImageURL:       in.ImageURL,
		Reference:      in.Reference,
		Material:       in.Material,
		Printings:      in.Printings,
		Images:         slices.Clone(in.Images),
		AvailableSizes: slices.Clone(in.AvailableSizes),
	}
	if in.CategoryID != nil {
		if _, ok := s.categories[*in.CategoryID]; !ok {
			return catalog.Product{}, fmt.Errorf("category %d: %w", *in.CategoryID, errors.ErrCategoryNotFound)
		}
		p.Category = &catalog.CategoryRef{ID: *in.CategoryID}
	}
	return p, nil
}

// resolve returns a copy of p with the current category name.
func (s *inMemory) resolve(p catalog.Product) catalog.Product {
	p = p.Clone()
	if p.Category != nil {
		if c, ok := s.categories[p.Category.ID]; ok {
			p.Category.Name = c.Name
		} else {
			p.Category = nil
		}
	}
	return p
}

func (s *inMemory) ListCategories(_ context.Context) ([]catalog.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]catalog.Category, 0, len(s.categories))
	for _, id := range slices.Sorted(maps.Keys(s.categories)) {
		list = append(list, s.categories[id])
	}
	return list, nil
}

func (s *inMemory) FindCategory(_ context.Context, id int64) (*catalog.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return nil, fmt.Errorf("category %d: %w", id, errors.ErrCategoryNotFound)
	}
	return &c, nil
}

func (s *inMemory) CreateCategory(_ context.Context, in CategoryInput) (*catalog.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := catalog.Category{ID: s.nextCategoryID, Name: in.Name, Description: in.Description}
	s.nextCategoryID++
	s.categories[c.ID] = c
	return &c, nil
}

func (s *inMemory) UpdateCategory(_ context.Context, id int64, in CategoryInput) (*catalog.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return nil, fmt.Errorf("category %d: %w", id, errors.ErrCategoryNotFound)
	}
	c := catalog.Category{ID: id, Name: in.Name, Description: in.Description}
	s.categories[id] = c
	return &c, nil
}

func (s *inMemory) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return fmt.Errorf("category %d: %w", id, errors.ErrCategoryNotFound)
	}
	delete(s.categories, id)
	for pid, p := range s.products {
		if p.Category != nil && p.Category.ID == id {
			p.Category = nil
			s.products[pid] = p
		}
	}
	return nil
}
