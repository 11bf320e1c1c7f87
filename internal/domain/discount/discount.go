package discount

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a discount.
type Status string

const (
	StatusActive   Status = "active"
	StatusExpired  Status = "expired"
	StatusUsed     Status = "used"
	StatusDisabled Status = "disabled"
)

// Valid reports whether s is one of the recognized statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusExpired, StatusUsed, StatusDisabled:
		return true
	}
	return false
}

var (
	// ErrNotFound is returned when a requested discount does not exist.
	ErrNotFound = errors.New("discount not found")
	// ErrCodeNotFound is returned when a discount code does not match any
	// discount usable by the caller for the given product.
	ErrCodeNotFound = errors.New("discount code not found")
	// ErrCodeTaken is returned when creating a discount with an existing code.
	ErrCodeTaken = errors.New("discount code already in use")
	// ErrInvalidPercent is returned when percent is outside (0, 100].
	ErrInvalidPercent = errors.New("percent must be greater than 0 and at most 100")
	// ErrInvalidStatus is returned when an update uses an unknown status.
	ErrInvalidStatus = errors.New("invalid discount status")
)

// Discount reduces the price of a product line by a percentage.
//
// Scope is defined by the nullable targets: ProductID restricts it to one
// product, CustomerID to one customer; both nil means store-wide. A non-empty
// Code makes the discount claimable only by code; coded discounts never apply
// automatically.
type Discount struct {
	ID                int64
	Code              string // empty means no code
	Percent           decimal.Decimal
	MaxDiscount       decimal.Decimal // zero means no cap
	ProductID         *int64
	CustomerID        *int64
	Status            Status
	SubmittedByUserID *int64
	SubmittedAt       time.Time
}

var hundred = decimal.NewFromInt(100)

// Apply returns the line total after applying the discount. The deducted
// amount is Percent of the line total, capped at MaxDiscount when set, and
// the result is floored at zero and rounded to 2 decimal places.
func (d *Discount) Apply(lineTotal decimal.Decimal) decimal.Decimal {
	amount := lineTotal.Mul(d.Percent).Div(hundred)
	if d.MaxDiscount.IsPositive() && amount.GreaterThan(d.MaxDiscount) {
		amount = d.MaxDiscount
	}
	total := lineTotal.Sub(amount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return total.Round(2)
}

// Filter narrows List results. Zero values mean "no restriction".
type Filter struct {
	Status      Status
	ProductID   int64
	CustomerID  int64
	SubmittedBy int64
	Limit       int
	Offset      int
}

// Repository defines persistence operations for discounts.
//
// ListCandidates returns active discounts compatible with the given product
// and customer: every returned discount either targets them explicitly or
// leaves the corresponding scope open.
type Repository interface {
	ListCandidates(ctx context.Context, productID, customerID int64) ([]Discount, error)
	GetByID(ctx context.Context, id int64) (*Discount, error)
	List(ctx context.Context, f Filter) ([]Discount, error)
	Create(ctx context.Context, d *Discount) error
	Update(ctx context.Context, d *Discount) error
	Delete(ctx context.Context, id int64) error
}
