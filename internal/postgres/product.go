package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tooswasher/storefront/internal/domain/product"
)

const (
	productColumns = `id, name, description, price, stock, image, minimum_order, rate,
		category_id, owner_id`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products
		ORDER BY id LIMIT $1 OFFSET $2`

	listProductsByCategorySQL = `SELECT ` + productColumns + ` FROM products
		WHERE category_id = $1 ORDER BY id LIMIT $2 OFFSET $3`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	getProductsByIDsSQL = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	createProductSQL = `INSERT INTO products (name, description, price, stock, image,
			minimum_order, rate, category_id, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	updateProductSQL = `UPDATE products SET name = $2, description = $3, price = $4,
			stock = $5, image = $6, minimum_order = $7, rate = $8, category_id = $9,
			owner_id = $10
		WHERE id = $1`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns a page of the catalog ordered by ID.
func (r *ProductRepository) List(ctx context.Context, limit, offset int) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// ListByCategory returns a page of products within one category.
func (r *ProductRepository) ListByCategory(ctx context.Context, categoryID int64, limit, offset int) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsByCategorySQL, categoryID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing products by category: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []int64) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Create persists a new product and fills in its generated ID.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	err := r.pool.QueryRow(ctx, createProductSQL,
		p.Name, p.Description, p.Price, p.Stock, p.Image,
		p.MinimumOrder, p.Rate, p.CategoryID, p.OwnerID,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("creating product %q: %w", p.Name, err)
	}
	return nil
}

// Update replaces all mutable fields of a product, including stock.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.Image,
		p.MinimumOrder, p.Rate, p.CategoryID, p.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("updating product %d: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Delete removes a product. Referenced order lines block the delete.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return fmt.Errorf("deleting product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p     product.Product
		price decimal.Decimal
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &price, &p.Stock, &p.Image,
		&p.MinimumOrder, &p.Rate, &p.CategoryID, &p.OwnerID,
	)
	p.Price = price
	return p, err
}
