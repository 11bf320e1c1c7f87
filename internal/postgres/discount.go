package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tooswasher/storefront/internal/domain/discount"
)

const (
	discountColumns = `id, code, percent, max_discount, product_id, customer_id, status,
		submitted_by_user_id, submitted_at`

	listDiscountCandidatesSQL = `SELECT ` + discountColumns + ` FROM discounts
		WHERE status = 'active'
		  AND (product_id IS NULL OR product_id = $1)
		  AND (customer_id IS NULL OR customer_id = $2)
		ORDER BY id`

	getDiscountByIDSQL = `SELECT ` + discountColumns + ` FROM discounts WHERE id = $1`

	createDiscountSQL = `INSERT INTO discounts (code, percent, max_discount, product_id,
			customer_id, status, submitted_by_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, submitted_at`

	updateDiscountSQL = `UPDATE discounts SET code = $2, percent = $3, max_discount = $4,
			product_id = $5, customer_id = $6, status = $7
		WHERE id = $1`

	deleteDiscountSQL = `DELETE FROM discounts WHERE id = $1`
)

var _ discount.Repository = (*DiscountRepository)(nil)

// DiscountRepository implements discount.Repository backed by PostgreSQL.
type DiscountRepository struct {
	pool *pgxpool.Pool
}

// NewDiscountRepository returns a DiscountRepository that uses the given pool.
func NewDiscountRepository(pool *pgxpool.Pool) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

// ListCandidates returns the active discounts compatible with a product and
// customer pair, ordered by ID so resolution ties are deterministic.
func (r *DiscountRepository) ListCandidates(ctx context.Context, productID, customerID int64) ([]discount.Discount, error) {
	rows, err := r.pool.Query(ctx, listDiscountCandidatesSQL, productID, customerID)
	if err != nil {
		return nil, fmt.Errorf("listing discount candidates: %w", err)
	}
	return pgx.CollectRows(rows, scanDiscount)
}

// GetByID returns a single discount by its identifier.
func (r *DiscountRepository) GetByID(ctx context.Context, id int64) (*discount.Discount, error) {
	rows, err := r.pool.Query(ctx, getDiscountByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting discount %d: %w", id, err)
	}

	d, err := pgx.CollectExactlyOneRow(rows, scanDiscount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, discount.ErrNotFound
		}
		return nil, fmt.Errorf("getting discount %d: %w", id, err)
	}
	return &d, nil
}

// List returns discounts matching the filter, ordered by ID.
func (r *DiscountRepository) List(ctx context.Context, f discount.Filter) ([]discount.Discount, error) {
	sql := `SELECT ` + discountColumns + ` FROM discounts WHERE TRUE`
	args := []any{}
	if f.Status != "" {
		args = append(args, string(f.Status))
		sql += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.ProductID != 0 {
		args = append(args, f.ProductID)
		sql += fmt.Sprintf(" AND product_id = $%d", len(args))
	}
	if f.CustomerID != 0 {
		args = append(args, f.CustomerID)
		sql += fmt.Sprintf(" AND customer_id = $%d", len(args))
	}
	if f.SubmittedBy != 0 {
		args = append(args, f.SubmittedBy)
		sql += fmt.Sprintf(" AND submitted_by_user_id = $%d", len(args))
	}
	args = append(args, f.Limit, f.Offset)
	sql += fmt.Sprintf(" ORDER BY id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing discounts: %w", err)
	}
	return pgx.CollectRows(rows, scanDiscount)
}

// Create persists a new discount and fills in its generated ID and timestamp.
func (r *DiscountRepository) Create(ctx context.Context, d *discount.Discount) error {
	err := r.pool.QueryRow(ctx, createDiscountSQL,
		nullString(d.Code), d.Percent, d.MaxDiscount, d.ProductID,
		d.CustomerID, string(d.Status), d.SubmittedByUserID,
	).Scan(&d.ID, &d.SubmittedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return discount.ErrCodeTaken
		}
		return fmt.Errorf("creating discount: %w", err)
	}
	return nil
}

// Update replaces all mutable fields of a discount.
func (r *DiscountRepository) Update(ctx context.Context, d *discount.Discount) error {
	tag, err := r.pool.Exec(ctx, updateDiscountSQL,
		d.ID, nullString(d.Code), d.Percent, d.MaxDiscount,
		d.ProductID, d.CustomerID, string(d.Status),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return discount.ErrCodeTaken
		}
		return fmt.Errorf("updating discount %d: %w", d.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return discount.ErrNotFound
	}
	return nil
}

// Delete removes a discount. Order lines that used it keep their prices.
func (r *DiscountRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteDiscountSQL, id)
	if err != nil {
		return fmt.Errorf("deleting discount %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return discount.ErrNotFound
	}
	return nil
}

func scanDiscount(row pgx.CollectableRow) (discount.Discount, error) {
	var (
		d    discount.Discount
		code *string
	)
	err := row.Scan(
		&d.ID, &code, &d.Percent, &d.MaxDiscount, &d.ProductID,
		&d.CustomerID, (*string)(&d.Status), &d.SubmittedByUserID, &d.SubmittedAt,
	)
	if code != nil {
		d.Code = *code
	}
	return d, err
}
