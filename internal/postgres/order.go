package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tooswasher/storefront/internal/domain/order"
)

const (
	orderColumns = `id, user_id, total_amount, status, state, city, address, phone_number, created_at`

	insertOrderSQL = `INSERT INTO orders (user_id, total_amount, status, state, city, address, phone_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	// Conditional decrement: zero rows affected means not enough stock.
	decrementStockSQL = `UPDATE products SET stock = stock - $2 WHERE id = $1 AND stock >= $2`

	restoreStockSQL = `UPDATE products SET stock = stock + $2 WHERE id = $1`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, product_id, quantity, discount_id, discounted_price)
		VALUES ($1, $2, $3, $4, $5)`

	lockOrderItemsSQL = `SELECT product_id, quantity FROM order_items WHERE order_id = $1 FOR UPDATE`

	deleteOrderItemsSQL = `DELETE FROM order_items WHERE order_id = $1`

	updateOrderSQL = `UPDATE orders SET total_amount = $2, status = $3, state = $4,
			city = $5, address = $6, phone_number = $7
		WHERE id = $1`

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	getOrderByIDForUserSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND user_id = $2`

	getOrderItemsSQL = `SELECT order_id, product_id, quantity, discount_id, discounted_price
		FROM order_items WHERE order_id = ANY($1) ORDER BY product_id`

	deleteOrderSQL = `DELETE FROM orders WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. All
// mutations run in a single transaction together with their stock
// adjustments.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists an order with its lines, decrementing stock per line. A
// line whose product lacks stock aborts the whole transaction with
// InsufficientStockError.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	err = tx.QueryRow(ctx, insertOrderSQL,
		o.UserID, o.TotalAmount, string(o.Status), o.State, o.City, o.Address, o.PhoneNumber,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating order: %w", err)
	}

	if err := insertItems(ctx, tx, o.ID, o.Items); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetByID returns an order with its lines.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	return r.getOne(ctx, getOrderByIDSQL, id)
}

// GetByIDForUser returns an order only when it belongs to the given user.
func (r *OrderRepository) GetByIDForUser(ctx context.Context, id, userID int64) (*order.Order, error) {
	return r.getOne(ctx, getOrderByIDForUserSQL, id, userID)
}

// List returns orders matching the filter, newest first, with their lines.
func (r *OrderRepository) List(ctx context.Context, f order.Filter) ([]order.Order, error) {
	sql := `SELECT ` + orderColumns + ` FROM orders WHERE TRUE`
	args := []any{}
	if f.UserID != 0 {
		args = append(args, f.UserID)
		sql += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		sql += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		sql += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		sql += fmt.Sprintf(" AND created_at < $%d", len(args))
	}
	args = append(args, f.Limit, f.Offset)
	sql += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Update replaces an order's header and lines. The old lines' stock is
// restored before the new lines decrement it, all in one transaction.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := restoreItems(ctx, tx, o.ID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, deleteOrderItemsSQL, o.ID); err != nil {
		return fmt.Errorf("deleting order items: %w", err)
	}

	tag, err := tx.Exec(ctx, updateOrderSQL,
		o.ID, o.TotalAmount, string(o.Status), o.State, o.City, o.Address, o.PhoneNumber,
	)
	if err != nil {
		return fmt.Errorf("updating order %d: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}

	if err := insertItems(ctx, tx, o.ID, o.Items); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Delete removes an order and restores the stock of its lines.
func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := restoreItems(ctx, tx, id); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, deleteOrderSQL, id)
	if err != nil {
		return fmt.Errorf("deleting order %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *OrderRepository) getOne(ctx context.Context, sql string, args ...any) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("getting order: %w", err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order: %w", err)
	}

	orders := []order.Order{o}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *OrderRepository) attachItems(ctx context.Context, orders []order.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, len(orders))
	byID := make(map[int64]*order.Order, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		byID[orders[i].ID] = &orders[i]
	}

	rows, err := r.pool.Query(ctx, getOrderItemsSQL, ids)
	if err != nil {
		return fmt.Errorf("getting order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID int64
			item    order.Item
		)
		if err := rows.Scan(&orderID, &item.ProductID, &item.Quantity,
			&item.DiscountID, &item.DiscountedPrice); err != nil {
			return fmt.Errorf("scanning order item: %w", err)
		}
		o := byID[orderID]
		o.Items = append(o.Items, item)
	}
	return rows.Err()
}

// insertItems decrements stock and inserts each line within the transaction.
func insertItems(ctx context.Context, tx pgx.Tx, orderID int64, items []order.Item) error {
	for _, item := range items {
		tag, err := tx.Exec(ctx, decrementStockSQL, item.ProductID, item.Quantity)
		if err != nil {
			return fmt.Errorf("decrementing stock for product %d: %w", item.ProductID, err)
		}
		if tag.RowsAffected() == 0 {
			return &order.InsufficientStockError{ProductID: item.ProductID, Requested: item.Quantity}
		}

		_, err = tx.Exec(ctx, insertOrderItemSQL,
			orderID, item.ProductID, item.Quantity, item.DiscountID, item.DiscountedPrice,
		)
		if err != nil {
			return fmt.Errorf("inserting order item for product %d: %w", item.ProductID, err)
		}
	}
	return nil
}

// restoreItems locks the order's lines and returns their quantities to stock.
func restoreItems(ctx context.Context, tx pgx.Tx, orderID int64) error {
	rows, err := tx.Query(ctx, lockOrderItemsSQL, orderID)
	if err != nil {
		return fmt.Errorf("locking order items: %w", err)
	}

	type line struct {
		productID int64
		quantity  int
	}
	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (line, error) {
		var l line
		err := row.Scan(&l.productID, &l.quantity)
		return l, err
	})
	if err != nil {
		return fmt.Errorf("collecting order items: %w", err)
	}

	for _, l := range lines {
		if _, err := tx.Exec(ctx, restoreStockSQL, l.productID, l.quantity); err != nil {
			return fmt.Errorf("restoring stock for product %d: %w", l.productID, err)
		}
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.TotalAmount, (*string)(&o.Status),
		&o.State, &o.City, &o.Address, &o.PhoneNumber, &o.CreatedAt,
	)
	return o, err
}
