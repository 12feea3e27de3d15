package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/abgdnv/webstore/internal/catalog"
	perrors "github.com/abgdnv/webstore/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const foreignKeyViolation = "23503"

const selectProduct = `
SELECT p.id, p.name, p.description, p.price, p.stock, p.is_clothing,
       p.category_id, c.name, p.image_url, p.reference, p.material, p.printings,
       p.images, p.available_sizes
FROM products p
LEFT JOIN categories c ON c.id = p.category_id`

// PgStore implements Store using PostgreSQL as the data store.
// The pool must have the decimal codec registered for NUMERIC prices.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of Store using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

// List returns every product ordered by id.
func (p *PgStore) List(ctx context.Context) ([]catalog.Product, error) {
	rows, err := p.db.Query(ctx, selectProduct+` ORDER BY p.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Product, error) {
		return scanProduct(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan products: %w", err)
	}
	return products, nil
}

// FindByID retrieves a product by its unique identifier.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) FindByID(ctx context.Context, id int64) (*catalog.Product, error) {
	return p.findByID(ctx, p.db, id)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (p *PgStore) findByID(ctx context.Context, q querier, id int64) (*catalog.Product, error) {
	product, err := scanProduct(q.QueryRow(ctx, selectProduct+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", id, perrors.ErrProductNotFound)
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return &product, nil
}

// Create adds a new product.
func (p *PgStore) Create(ctx context.Context, in ProductInput) (*catalog.Product, error) {
	var id int64
	err := p.db.QueryRow(ctx, `
		INSERT INTO products (name, description, price, stock, is_clothing, category_id,
		                      image_url, reference, material, printings, images, available_sizes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`, productArgs(in)...).Scan(&id)
	if err != nil {
		return nil, mapWriteError("create product", in, err)
	}
	return p.FindByID(ctx, id)
}

// Update replaces every field of a product.
func (p *PgStore) Update(ctx context.Context, id int64, in ProductInput) (*catalog.Product, error) {
	return p.update(ctx, p.db, id, in)
}

func (p *PgStore) update(ctx context.Context, q querier, id int64, in ProductInput) (*catalog.Product, error) {
	args := append([]any{id}, productArgs(in)...)
	tag, err := q.Exec(ctx, `
		UPDATE products SET name = $2, description = $3, price = $4, stock = $5,
		       is_clothing = $6, category_id = $7, image_url = $8, reference = $9,
		       material = $10, printings = $11, images = $12, available_sizes = $13,
		       updated_at = now()
		WHERE id = $1`, args...)
	if err != nil {
		return nil, mapWriteError("update product", in, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("product %d: %w", id, perrors.ErrProductNotFound)
	}
	return p.findByID(ctx, q, id)
}

// Patch reads the product under a row lock, applies patch and writes it back.
func (p *PgStore) Patch(ctx context.Context, id int64, patch ProductPatch) (*catalog.Product, error) {
	var result *catalog.Product
	err := pgx.BeginFunc(ctx, p.db, func(tx pgx.Tx) error {
		current, err := scanProduct(tx.QueryRow(ctx, selectProduct+` WHERE p.id = $1 FOR UPDATE OF p`, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("product %d: %w", id, perrors.ErrProductNotFound)
			}
			return fmt.Errorf("failed to lock product: %w", err)
		}
		result, err = p.update(ctx, tx, id, patch.Apply(current))
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes a product by its ID.
func (p *PgStore) Delete(ctx context.Context, id int64) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", id, perrors.ErrProductNotFound)
	}
	return nil
}

func (p *PgStore) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	rows, err := p.db.Query(ctx, `SELECT id, name, description FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	categories, err := pgx.CollectRows(rows, pgx.RowToStructByPos[catalog.Category])
	if err != nil {
		return nil, fmt.Errorf("failed to scan categories: %w", err)
	}
	return categories, nil
}

func (p *PgStore) FindCategory(ctx context.Context, id int64) (*catalog.Category, error) {
	var c catalog.Category
	err := p.db.QueryRow(ctx, `SELECT id, name, description FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("category %d: %w", id, perrors.ErrCategoryNotFound)
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return &c, nil
}

func (p *PgStore) CreateCategory(ctx context.Context, in CategoryInput) (*catalog.Category, error) {
	c := catalog.Category{Name: in.Name, Description: in.Description}
	err := p.db.QueryRow(ctx,
		`INSERT INTO categories (name, description) VALUES ($1, $2) RETURNING id`,
		in.Name, in.Description).Scan(&c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &c, nil
}

func (p *PgStore) UpdateCategory(ctx context.Context, id int64, in CategoryInput) (*catalog.Category, error) {
	tag, err := p.db.Exec(ctx,
		`UPDATE categories SET name = $2, description = $3 WHERE id = $1`,
		id, in.Name, in.Description)
	if err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("category %d: %w", id, perrors.ErrCategoryNotFound)
	}
	return &catalog.Category{ID: id, Name: in.Name, Description: in.Description}, nil
}

// DeleteCategory removes a category. Its products are detached by ON DELETE SET NULL.
func (p *PgStore) DeleteCategory(ctx context.Context, id int64) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("category %d: %w", id, perrors.ErrCategoryNotFound)
	}
	return nil
}

func productArgs(in ProductInput) []any {
	images, sizes := in.Images, in.AvailableSizes
	if images == nil {
		images = []string{}
	}
	if sizes == nil {
		sizes = []string{}
	}
	return []any{
		in.Name, in.Description, in.Price, in.Stock, in.IsClothing, in.CategoryID,
		in.ImageURL, in.Reference, in.Material, in.Printings, images, sizes,
	}
}

func scanProduct(row pgx.Row) (catalog.Product, error) {
	var (
		p            catalog.Product
		categoryID   *int64
		categoryName *string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.IsClothing,
		&categoryID, &categoryName, &p.ImageURL, &p.Reference, &p.Material, &p.Printings,
		&p.Images, &p.AvailableSizes)
	if err != nil {
		return catalog.Product{}, err
	}
	if categoryID != nil {
		p.Category = &catalog.CategoryRef{ID: *categoryID}
		if categoryName != nil {
			p.Category.Name = *categoryName
		}
	}
	if len(p.Images) == 0 {
		p.Images = nil
	}
	if len(p.AvailableSizes) == 0 {
		p.AvailableSizes = nil
	}
	return p, nil
}

func mapWriteError(op string, in ProductInput, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation && in.CategoryID != nil {
		return fmt.Errorf("category %d: %w", *in.CategoryID, perrors.ErrCategoryNotFound)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
