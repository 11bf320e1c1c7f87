package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase.
//
// Rate is the pack-size constraint: when non-zero, ordered quantities must be
// an exact multiple of it. Zero means unrestricted.
type Product struct {
	ID           int64
	Name         string
	Description  string
	Price        decimal.Decimal
	Stock        int
	Image        string
	MinimumOrder int
	Rate         float64
	CategoryID   *int64
	OwnerID      *int64
}

// Repository defines persistence operations for the product catalog. Stock
// mutations during order placement go through the order repository's
// transaction, not through Update.
type Repository interface {
	List(ctx context.Context, limit, offset int) ([]Product, error)
	ListByCategory(ctx context.Context, categoryID int64, limit, offset int) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	GetByIDs(ctx context.Context, ids []int64) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
}
