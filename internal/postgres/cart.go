package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tooswasher/storefront/internal/domain/cart"
)

const (
	listCartItemsSQL = `SELECT id, user_id, product_id, quantity
		FROM cart_items WHERE user_id = $1 ORDER BY id`

	getCartItemSQL = `SELECT id, user_id, product_id, quantity
		FROM cart_items WHERE user_id = $1 AND product_id = $2`

	putCartItemSQL = `INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity
		RETURNING id`

	removeCartItemSQL = `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`

	clearCartSQL = `DELETE FROM cart_items WHERE user_id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// ListByUser returns all lines in a user's cart ordered by insertion.
func (r *CartRepository) ListByUser(ctx context.Context, userID int64) ([]cart.Item, error) {
	rows, err := r.pool.Query(ctx, listCartItemsSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing cart items: %w", err)
	}
	return pgx.CollectRows(rows, scanCartItem)
}

// Get returns the cart line for one product.
func (r *CartRepository) Get(ctx context.Context, userID, productID int64) (*cart.Item, error) {
	rows, err := r.pool.Query(ctx, getCartItemSQL, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("getting cart item: %w", err)
	}

	item, err := pgx.CollectExactlyOneRow(rows, scanCartItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, fmt.Errorf("getting cart item: %w", err)
	}
	return &item, nil
}

// Put inserts a line or overwrites the quantity of an existing one.
func (r *CartRepository) Put(ctx context.Context, item *cart.Item) error {
	err := r.pool.QueryRow(ctx, putCartItemSQL,
		item.UserID, item.ProductID, item.Quantity,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("putting cart item: %w", err)
	}
	return nil
}

// Remove deletes one line from a user's cart.
func (r *CartRepository) Remove(ctx context.Context, userID, productID int64) error {
	tag, err := r.pool.Exec(ctx, removeCartItemSQL, userID, productID)
	if err != nil {
		return fmt.Errorf("removing cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrNotFound
	}
	return nil
}

// Clear empties a user's cart.
func (r *CartRepository) Clear(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx, clearCartSQL, userID)
	if err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	return nil
}

func scanCartItem(row pgx.CollectableRow) (cart.Item, error) {
	var item cart.Item
	err := row.Scan(&item.ID, &item.UserID, &item.ProductID, &item.Quantity)
	return item, err
}
