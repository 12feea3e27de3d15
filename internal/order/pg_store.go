package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abgdnv/webstore/internal/catalog"
	apperrors "github.com/abgdnv/webstore/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectOrder = `
SELECT id, reference, user_id, status, delivery_method, total, version,
       created_at, updated_at, delivered_at
FROM orders`

var orderColumns = map[SortField]string{
	SortByDate:   "created_at",
	SortByTotal:  "total",
	SortByID:     "id",
	SortByStatus: "status",
}

// PgStore implements Store using PostgreSQL as the data store.
// The pool must have the decimal codec registered for NUMERIC amounts.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of Store using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Create inserts the order and its lines in one transaction.
func (p *PgStore) Create(ctx context.Context, n NewOrder) (*Order, error) {
	o := n.Build()
	var created *Order
	err := pgx.BeginFunc(ctx, p.db, func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO orders (user_id, status, delivery_method, total, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)
			RETURNING id`,
			o.UserID, string(o.Status), o.DeliveryMethod, o.Total, o.Version, o.CreatedAt).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE orders SET reference = $2 WHERE id = $1`, id, ReferenceOf(id)); err != nil {
			return fmt.Errorf("failed to set order reference: %w", err)
		}

		batch := &pgx.Batch{}
		for i, l := range o.Lines {
			batch.Queue(`
				INSERT INTO order_lines (order_id, line_no, product_id, name, image_url, unit_price, quantity)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				id, i+1, l.ProductID, l.Name, l.ImageURL, l.UnitPrice, l.Quantity)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to create order lines: %w", err)
		}

		created, err = p.findByID(ctx, tx, id, "")
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// FindByID retrieves an order by its unique identifier.
// Returns ErrOrderNotFound if no order exists with the given ID.
func (p *PgStore) FindByID(ctx context.Context, id int64) (*Order, error) {
	return p.findByID(ctx, p.db, id, "")
}

func (p *PgStore) findByID(ctx context.Context, q querier, id int64, lock string) (*Order, error) {
	o, err := scanOrder(q.QueryRow(ctx, selectOrder+` WHERE id = $1`+lock, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %d: %w", id, apperrors.ErrOrderNotFound)
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}
	orders := []Order{o}
	if err := loadLines(ctx, q, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// List counts the matching orders first so the page window never leaves the result set.
func (p *PgStore) List(ctx context.Context, req ListRequest) (Page, error) {
	where, args := whereClause(req.Filter)

	var total int
	if err := p.db.QueryRow(ctx, `SELECT count(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return Page{}, fmt.Errorf("failed to count orders: %w", err)
	}
	start, end, totalPages := catalog.Bounds(total, req.Page, req.Size)
	page := Page{
		Orders:        []Order{},
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    totalPages,
	}
	if start == end {
		return page, nil
	}

	dir := "ASC"
	if req.Direction == catalog.Descending {
		dir = "DESC"
	}
	sql := fmt.Sprintf("%s%s ORDER BY %s %s, id %s LIMIT %d OFFSET %d",
		selectOrder, where, orderColumns[req.Sort], dir, dir, end-start, start)
	rows, err := p.db.Query(ctx, sql, args...)
	if err != nil {
		return Page{}, fmt.Errorf("failed to list orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Order, error) {
		return scanOrder(row)
	})
	if err != nil {
		return Page{}, fmt.Errorf("failed to scan orders: %w", err)
	}
	if err := loadLines(ctx, p.db, orders); err != nil {
		return Page{}, err
	}
	page.Orders = orders
	return page, nil
}

func whereClause(f Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Status != nil {
		args = append(args, string(*f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.UserID != nil {
		args = append(args, *f.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		args = append(args, kw)
		n := len(args)
		conds = append(conds, fmt.Sprintf("(reference ILIKE '%%' || $%d || '%%' OR id::text = $%d)", n, n))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// UpdateStatus locks the order row, applies change and writes the result back.
func (p *PgStore) UpdateStatus(ctx context.Context, id int64, change StatusChange) (*Order, Status, error) {
	var (
		updated *Order
		from    Status
	)
	err := pgx.BeginFunc(ctx, p.db, func(tx pgx.Tx) error {
		o, err := p.findByID(ctx, tx, id, " FOR UPDATE")
		if err != nil {
			return err
		}
		from = o.Status
		if err := o.Apply(change); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE orders SET status = $2, version = $3, updated_at = $4, delivered_at = $5
			WHERE id = $1`,
			id, string(o.Status), o.Version, o.UpdatedAt, o.DeliveredAt)
		if err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return updated, from, nil
}

// Delete removes an order. Its lines go with it by ON DELETE CASCADE.
func (p *PgStore) Delete(ctx context.Context, id int64) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %d: %w", id, apperrors.ErrOrderNotFound)
	}
	return nil
}

func (p *PgStore) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := p.db.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE status = 'pending'),
		       count(*) FILTER (WHERE status = 'confirmed'),
		       count(*) FILTER (WHERE status = 'delivered'),
		       count(*) FILTER (WHERE status = 'cancelled'),
		       COALESCE(sum(total) FILTER (WHERE status <> 'cancelled'), 0)
		FROM orders`).Scan(&s.TotalOrders, &s.PendingOrders, &s.ConfirmedOrders,
		&s.DeliveredOrders, &s.CancelledOrders, &s.TotalRevenue)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to compute order stats: %w", err)
	}
	return s, nil
}

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o      Order
		status string
	)
	err := row.Scan(&o.ID, &o.Reference, &o.UserID, &status, &o.DeliveryMethod, &o.Total,
		&o.Version, &o.CreatedAt, &o.UpdatedAt, &o.DeliveredAt)
	if err != nil {
		return Order{}, err
	}
	o.Status = Status(status)
	o.Lines = []Line{}
	return o, nil
}

// loadLines fills the lines of orders with one query.
func loadLines(ctx context.Context, q querier, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}
	index := make(map[int64]int, len(orders))
	ids := make([]int64, len(orders))
	for i, o := range orders {
		index[o.ID] = i
		ids[i] = o.ID
	}
	rows, err := q.Query(ctx, `
		SELECT order_id, product_id, name, image_url, unit_price, quantity
		FROM order_lines WHERE order_id = ANY($1)
		ORDER BY order_id, line_no`, ids)
	if err != nil {
		return fmt.Errorf("failed to find order lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			orderID int64
			l       Line
		)
		if err := rows.Scan(&orderID, &l.ProductID, &l.Name, &l.ImageURL, &l.UnitPrice, &l.Quantity); err != nil {
			return fmt.Errorf("failed to scan order line: %w", err)
		}
		o := &orders[index[orderID]]
		o.Lines = append(o.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read order lines: %w", err)
	}
	return nil
}
