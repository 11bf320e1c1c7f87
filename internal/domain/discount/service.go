package discount

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Service encapsulates discount administration. Resolution during pricing is
// handled by Resolve and ResolveCode over repository candidates.
type Service struct {
	discounts Repository
}

// NewService creates a discount Service backed by the given repository.
func NewService(discounts Repository) *Service {
	return &Service{discounts: discounts}
}

// Create validates and stores a new discount. Status defaults to active.
func (s *Service) Create(ctx context.Context, d *Discount) (*Discount, error) {
	if err := validate(d); err != nil {
		return nil, err
	}
	if d.Status == "" {
		d.Status = StatusActive
	}
	if err := s.discounts.Create(ctx, d); err != nil {
		return nil, errors.Wrap(err, "create discount")
	}
	return d, nil
}

// Get returns a discount by ID.
func (s *Service) Get(ctx context.Context, id int64) (*Discount, error) {
	return s.discounts.GetByID(ctx, id)
}

// List returns discounts matching the filter.
func (s *Service) List(ctx context.Context, f Filter) ([]Discount, error) {
	if f.Limit <= 0 || f.Limit > 1000 {
		f.Limit = 100
	}
	return s.discounts.List(ctx, f)
}

// ResolveFor returns the discount that automatically applies to the product
// for the customer, or nil when none does.
func (s *Service) ResolveFor(ctx context.Context, productID, customerID int64) (*Discount, error) {
	candidates, err := s.discounts.ListCandidates(ctx, productID, customerID)
	if err != nil {
		return nil, errors.Wrap(err, "list candidates")
	}
	return Resolve(candidates, productID, customerID), nil
}

// Update validates and replaces a discount.
func (s *Service) Update(ctx context.Context, d *Discount) (*Discount, error) {
	if _, err := s.discounts.GetByID(ctx, d.ID); err != nil {
		return nil, err
	}
	if err := validate(d); err != nil {
		return nil, err
	}
	if err := s.discounts.Update(ctx, d); err != nil {
		return nil, errors.Wrap(err, "update discount")
	}
	return d, nil
}

// Delete removes a discount. Order lines keep their recorded prices.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.discounts.GetByID(ctx, id); err != nil {
		return err
	}
	return s.discounts.Delete(ctx, id)
}

func validate(d *Discount) error {
	if !d.Percent.IsPositive() || d.Percent.GreaterThan(hundred) {
		return ErrInvalidPercent
	}
	if d.MaxDiscount.LessThan(decimal.Zero) {
		return ErrInvalidPercent
	}
	if d.Status != "" && !d.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}
