package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tooswasher/storefront/internal/domain/option"
)

const (
	listOptionsSQL = `SELECT id, name, value FROM options ORDER BY name`

	getOptionByNameSQL = `SELECT id, name, value FROM options WHERE name = $1`

	setOptionSQL = `INSERT INTO options (name, value) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value
		RETURNING id`

	deleteOptionSQL = `DELETE FROM options WHERE name = $1`
)

var _ option.Repository = (*OptionRepository)(nil)

// OptionRepository implements option.Repository backed by PostgreSQL.
type OptionRepository struct {
	pool *pgxpool.Pool
}

// NewOptionRepository returns an OptionRepository that uses the given pool.
func NewOptionRepository(pool *pgxpool.Pool) *OptionRepository {
	return &OptionRepository{pool: pool}
}

// List returns all options ordered by name.
func (r *OptionRepository) List(ctx context.Context) ([]option.Option, error) {
	rows, err := r.pool.Query(ctx, listOptionsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing options: %w", err)
	}
	return pgx.CollectRows(rows, scanOption)
}

// GetByName returns a single option by its name.
func (r *OptionRepository) GetByName(ctx context.Context, name string) (*option.Option, error) {
	rows, err := r.pool.Query(ctx, getOptionByNameSQL, name)
	if err != nil {
		return nil, fmt.Errorf("getting option %q: %w", name, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOption)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, option.ErrNotFound
		}
		return nil, fmt.Errorf("getting option %q: %w", name, err)
	}
	return &o, nil
}

// Set creates the option or overwrites its value.
func (r *OptionRepository) Set(ctx context.Context, o *option.Option) error {
	err := r.pool.QueryRow(ctx, setOptionSQL, o.Name, o.Value).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("setting option %q: %w", o.Name, err)
	}
	return nil
}

// Delete removes an option by name.
func (r *OptionRepository) Delete(ctx context.Context, name string) error {
	tag, err := r.pool.Exec(ctx, deleteOptionSQL, name)
	if err != nil {
		return fmt.Errorf("deleting option %q: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return option.ErrNotFound
	}
	return nil
}

func scanOption(row pgx.CollectableRow) (option.Option, error) {
	var o option.Option
	err := row.Scan(&o.ID, &o.Name, &o.Value)
	return o, err
}
