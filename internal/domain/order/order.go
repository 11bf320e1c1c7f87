package order

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the fulfillment state of an order.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

// Valid reports whether s is one of the recognized statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Sentinel errors for order validation.
var (
	ErrNotFound   = fmt.Errorf("order not found")
	ErrEmptyItems = fmt.Errorf("items required")
	ErrForbidden  = fmt.Errorf("operation requires staff role")
)

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

// InvalidQuantityError indicates a line item quantity violates a product
// constraint (non-positive, below the minimum order, or off the pack size).
type InvalidQuantityError struct {
	ProductID int64
	Quantity  int
	Reason    string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %d for product %d: %s", e.Quantity, e.ProductID, e.Reason)
}

// InsufficientStockError indicates a product has fewer units than requested.
type InsufficientStockError struct {
	ProductID int64
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d", e.ProductID, e.Requested)
}

// DuplicateDiscountError indicates one discount was claimed by more than one
// line of the same order.
type DuplicateDiscountError struct {
	DiscountID int64
}

func (e *DuplicateDiscountError) Error() string {
	return fmt.Sprintf("discount %d applied more than once", e.DiscountID)
}

// InvalidStatusError indicates an unrecognized order status.
type InvalidStatusError struct {
	Status Status
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid order status %q", e.Status)
}

// Order represents a customer order with priced line items and shipping
// details. TotalAmount is the sum of the line totals after discounts.
type Order struct {
	ID          int64
	UserID      int64
	Items       []Item
	TotalAmount decimal.Decimal
	Status      Status
	State       string
	City        string
	Address     string
	PhoneNumber string
	CreatedAt   time.Time
}

// Item is a priced order line. DiscountedPrice is the line total after the
// discount; invalid when no discount applied.
type Item struct {
	ProductID       int64
	Quantity        int
	DiscountID      *int64
	DiscountedPrice decimal.NullDecimal
}

// Filter narrows List results. Zero values mean "no restriction".
type Filter struct {
	UserID int64
	Status Status
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

// Repository defines persistence operations for orders. Create and Update run
// in a single transaction that also adjusts product stock: each line performs
// a conditional decrement and reports InsufficientStockError when the product
// has fewer units than requested. Delete restores the stock of every line.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	GetByIDForUser(ctx context.Context, id, userID int64) (*Order, error)
	List(ctx context.Context, f Filter) ([]Order, error)
	Update(ctx context.Context, o *Order) error
	Delete(ctx context.Context, id int64) error
}
