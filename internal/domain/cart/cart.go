package cart

import (
	"context"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a cart line does not exist.
	ErrNotFound = errors.New("cart item not found")
	// ErrEmpty is returned when checking out an empty cart.
	ErrEmpty = errors.New("cart is empty")
	// ErrInvalidQuantity is returned for non-positive quantities.
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	// ErrInsufficientStock is returned when the requested quantity exceeds
	// the product's available stock.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Item is one product line in a customer's cart.
type Item struct {
	ID        int64
	UserID    int64
	ProductID int64
	Quantity  int
}

// Repository defines persistence operations for cart lines. Each user holds
// at most one line per product.
type Repository interface {
	ListByUser(ctx context.Context, userID int64) ([]Item, error)
	Get(ctx context.Context, userID, productID int64) (*Item, error)
	Put(ctx context.Context, item *Item) error
	Remove(ctx context.Context, userID, productID int64) error
	Clear(ctx context.Context, userID int64) error
}
