package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tooswasher/storefront/internal/domain/category"
)

const (
	listCategoriesSQL = `SELECT id, name, description, parent_id FROM categories ORDER BY id`

	getCategoryByIDSQL = `SELECT id, name, description, parent_id FROM categories WHERE id = $1`

	getCategoryByNameSQL = `SELECT id, name, description, parent_id FROM categories WHERE name = $1`

	createCategorySQL = `INSERT INTO categories (name, description, parent_id)
		VALUES ($1, $2, $3) RETURNING id`

	updateCategorySQL = `UPDATE categories SET name = $2, description = $3, parent_id = $4
		WHERE id = $1`

	deleteCategorySQL = `DELETE FROM categories WHERE id = $1`
)

var _ category.Repository = (*CategoryRepository)(nil)

// CategoryRepository implements category.Repository backed by PostgreSQL.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository returns a CategoryRepository that uses the given pool.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// List returns all categories ordered by ID.
func (r *CategoryRepository) List(ctx context.Context) ([]category.Category, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return pgx.CollectRows(rows, scanCategory)
}

// GetByID returns a single category by its identifier.
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*category.Category, error) {
	rows, err := r.pool.Query(ctx, getCategoryByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting category %d: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCategory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, category.ErrNotFound
		}
		return nil, fmt.Errorf("getting category %d: %w", id, err)
	}
	return &c, nil
}

// GetByName returns a single category by its unique name.
func (r *CategoryRepository) GetByName(ctx context.Context, name string) (*category.Category, error) {
	rows, err := r.pool.Query(ctx, getCategoryByNameSQL, name)
	if err != nil {
		return nil, fmt.Errorf("getting category %q: %w", name, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCategory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, category.ErrNotFound
		}
		return nil, fmt.Errorf("getting category %q: %w", name, err)
	}
	return &c, nil
}

// Create persists a new category and fills in its generated ID.
func (r *CategoryRepository) Create(ctx context.Context, c *category.Category) error {
	err := r.pool.QueryRow(ctx, createCategorySQL, c.Name, c.Description, c.ParentID).Scan(&c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return category.ErrNameTaken
		}
		return fmt.Errorf("creating category %q: %w", c.Name, err)
	}
	return nil
}

// Update replaces all mutable fields of a category.
func (r *CategoryRepository) Update(ctx context.Context, c *category.Category) error {
	tag, err := r.pool.Exec(ctx, updateCategorySQL, c.ID, c.Name, c.Description, c.ParentID)
	if err != nil {
		if isUniqueViolation(err) {
			return category.ErrNameTaken
		}
		return fmt.Errorf("updating category %d: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return category.ErrNotFound
	}
	return nil
}

// Delete removes a category. Products keep existing but lose the category.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteCategorySQL, id)
	if err != nil {
		return fmt.Errorf("deleting category %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return category.ErrNotFound
	}
	return nil
}

func scanCategory(row pgx.CollectableRow) (category.Category, error) {
	var c category.Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.ParentID)
	return c, err
}
