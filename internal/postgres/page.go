package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tooswasher/storefront/internal/domain/page"
)

const (
	listPagesSQL     = `SELECT id, name, body, is_in_menu FROM pages ORDER BY id`
	listMenuPagesSQL = `SELECT id, name, body, is_in_menu FROM pages WHERE is_in_menu ORDER BY id`

	getPageByIDSQL   = `SELECT id, name, body, is_in_menu FROM pages WHERE id = $1`
	getPageByNameSQL = `SELECT id, name, body, is_in_menu FROM pages WHERE name = $1`

	createPageSQL = `INSERT INTO pages (name, body, is_in_menu) VALUES ($1, $2, $3) RETURNING id`

	updatePageSQL = `UPDATE pages SET name = $2, body = $3, is_in_menu = $4 WHERE id = $1`

	deletePageSQL = `DELETE FROM pages WHERE id = $1`
)

var _ page.Repository = (*PageRepository)(nil)

// PageRepository implements page.Repository backed by PostgreSQL.
type PageRepository struct {
	pool *pgxpool.Pool
}

// NewPageRepository returns a PageRepository that uses the given pool.
func NewPageRepository(pool *pgxpool.Pool) *PageRepository {
	return &PageRepository{pool: pool}
}

// List returns all pages, or only the ones shown in the menu.
func (r *PageRepository) List(ctx context.Context, menuOnly bool) ([]page.Page, error) {
	sql := listPagesSQL
	if menuOnly {
		sql = listMenuPagesSQL
	}
	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	return pgx.CollectRows(rows, scanPage)
}

// GetByID returns a single page by its identifier.
func (r *PageRepository) GetByID(ctx context.Context, id int64) (*page.Page, error) {
	return r.getOne(ctx, getPageByIDSQL, id)
}

// GetByName returns a single page by its unique name.
func (r *PageRepository) GetByName(ctx context.Context, name string) (*page.Page, error) {
	return r.getOne(ctx, getPageByNameSQL, name)
}

// Create persists a new page and fills in its generated ID.
func (r *PageRepository) Create(ctx context.Context, p *page.Page) error {
	err := r.pool.QueryRow(ctx, createPageSQL, p.Name, p.Body, p.IsInMenu).Scan(&p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return page.ErrNameTaken
		}
		return fmt.Errorf("creating page %q: %w", p.Name, err)
	}
	return nil
}

// Update replaces all mutable fields of a page.
func (r *PageRepository) Update(ctx context.Context, p *page.Page) error {
	tag, err := r.pool.Exec(ctx, updatePageSQL, p.ID, p.Name, p.Body, p.IsInMenu)
	if err != nil {
		if isUniqueViolation(err) {
			return page.ErrNameTaken
		}
		return fmt.Errorf("updating page %d: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return page.ErrNotFound
	}
	return nil
}

// Delete removes a page.
func (r *PageRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deletePageSQL, id)
	if err != nil {
		return fmt.Errorf("deleting page %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return page.ErrNotFound
	}
	return nil
}

func (r *PageRepository) getOne(ctx context.Context, sql string, arg any) (*page.Page, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("getting page: %w", err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanPage)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, page.ErrNotFound
		}
		return nil, fmt.Errorf("getting page: %w", err)
	}
	return &p, nil
}

func scanPage(row pgx.CollectableRow) (page.Page, error) {
	var p page.Page
	err := row.Scan(&p.ID, &p.Name, &p.Body, &p.IsInMenu)
	return p, err
}
