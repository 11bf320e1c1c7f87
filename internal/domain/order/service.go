package order

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tooswasher/storefront/internal/domain/discount"
	"github.com/tooswasher/storefront/internal/domain/product"
	"github.com/tooswasher/storefront/internal/domain/user"
)

// ErrDuplicateItems is returned when an order lists the same product twice.
var ErrDuplicateItems = fmt.Errorf("duplicate product in items")

// ItemRequest is an unpriced order line. DiscountCode, when set, claims a
// coded discount for this line instead of automatic resolution.
type ItemRequest struct {
	ProductID    int64
	Quantity     int
	DiscountCode string
}

// CreateRequest holds the input for placing an order. Empty shipping fields
// fall back to the customer's profile.
type CreateRequest struct {
	UserID      int64
	Items       []ItemRequest
	State       string
	City        string
	Address     string
	PhoneNumber string
}

// UpdateRequest holds a partial order update. Nil fields mean "leave
// unchanged"; a non-nil Items slice replaces all lines and re-prices the
// order.
type UpdateRequest struct {
	Status      *Status
	Items       []ItemRequest
	State       *string
	City        *string
	Address     *string
	PhoneNumber *string
}

// Service encapsulates order pricing and lifecycle business logic.
type Service struct {
	products  product.Repository
	discounts discount.Repository
	users     user.Repository
	orders    Repository
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	products product.Repository,
	discounts discount.Repository,
	users user.Repository,
	orders Repository,
) *Service {
	return &Service{
		products:  products,
		discounts: discounts,
		users:     users,
		orders:    orders,
	}
}

// Create validates and prices the requested lines, fills shipping details
// from the customer profile, and persists the order. Stock is decremented
// inside the repository transaction, so a concurrent order for the last units
// fails there rather than overselling.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Order, error) {
	items, total, err := s.priceItems(ctx, req.UserID, req.Items)
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	o := &Order{
		UserID:      req.UserID,
		Items:       items,
		TotalAmount: total,
		Status:      StatusPending,
		State:       fallback(req.State, u.State),
		City:        fallback(req.City, u.City),
		Address:     fallback(req.Address, u.Address),
		PhoneNumber: fallback(req.PhoneNumber, u.PhoneNumber),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return o, nil
}

// Get returns an order. Non-admin callers only see their own orders; an order
// belonging to someone else reads as not found.
func (s *Service) Get(ctx context.Context, id, actorID int64, admin bool) (*Order, error) {
	if admin {
		return s.orders.GetByID(ctx, id)
	}
	return s.orders.GetByIDForUser(ctx, id, actorID)
}

// List returns orders matching the filter. Non-admin callers are always
// scoped to their own orders.
func (s *Service) List(ctx context.Context, f Filter, actorID int64, admin bool) ([]Order, error) {
	if !admin {
		f.UserID = actorID
	}
	if f.Limit <= 0 || f.Limit > 1000 {
		f.Limit = 100
	}
	return s.orders.List(ctx, f)
}

// Update applies a partial update. A replaced item set is re-validated and
// re-priced from scratch; the repository transaction restores the old lines'
// stock before decrementing for the new ones. Non-staff owners may only patch
// shipping fields and cancel; fulfillment statuses and item changes are
// staff operations.
func (s *Service) Update(ctx context.Context, id, actorID int64, admin bool, req UpdateRequest) (*Order, error) {
	o, err := s.Get(ctx, id, actorID, admin)
	if err != nil {
		return nil, err
	}

	if req.Status != nil && !req.Status.Valid() {
		return nil, &InvalidStatusError{Status: *req.Status}
	}
	if !admin {
		if req.Items != nil {
			return nil, ErrForbidden
		}
		if req.Status != nil && *req.Status != StatusCancelled {
			return nil, ErrForbidden
		}
	}

	if req.Status != nil {
		o.Status = *req.Status
	}
	if req.State != nil {
		o.State = *req.State
	}
	if req.City != nil {
		o.City = *req.City
	}
	if req.Address != nil {
		o.Address = *req.Address
	}
	if req.PhoneNumber != nil {
		o.PhoneNumber = *req.PhoneNumber
	}
	if req.Items != nil {
		items, total, err := s.priceItems(ctx, o.UserID, req.Items)
		if err != nil {
			return nil, err
		}
		o.Items = items
		o.TotalAmount = total
	}

	if err := s.orders.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	return o, nil
}

// Delete removes an order and restores the stock of its lines.
func (s *Service) Delete(ctx context.Context, id, actorID int64, admin bool) error {
	if _, err := s.Get(ctx, id, actorID, admin); err != nil {
		return err
	}
	return s.orders.Delete(ctx, id)
}

// priceItems validates every line against the product constraints, resolves
// at most one discount per line, and returns the priced lines with the order
// total. Each discount may be claimed by only one line.
func (s *Service) priceItems(ctx context.Context, userID int64, reqs []ItemRequest) ([]Item, decimal.Decimal, error) {
	if len(reqs) == 0 {
		return nil, decimal.Zero, ErrEmptyItems
	}

	ids := make([]int64, len(reqs))
	seen := make(map[int64]struct{}, len(reqs))
	for i, r := range reqs {
		if r.Quantity <= 0 {
			return nil, decimal.Zero, &InvalidQuantityError{
				ProductID: r.ProductID, Quantity: r.Quantity,
				Reason: "must be greater than 0",
			}
		}
		if _, ok := seen[r.ProductID]; ok {
			return nil, decimal.Zero, ErrDuplicateItems
		}
		seen[r.ProductID] = struct{}{}
		ids[i] = r.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("get products: %w", err)
	}
	productMap := make(map[int64]product.Product, len(fetched))
	for _, p := range fetched {
		productMap[p.ID] = p
	}

	items := make([]Item, 0, len(reqs))
	total := decimal.Zero
	usedDiscounts := make(map[int64]struct{})
	for _, r := range reqs {
		p, ok := productMap[r.ProductID]
		if !ok {
			return nil, decimal.Zero, &ProductNotFoundError{ProductID: r.ProductID}
		}
		// Advisory check so the caller sees the stock problem first; the
		// repository's conditional decrement remains authoritative.
		if p.Stock < r.Quantity {
			return nil, decimal.Zero, &InsufficientStockError{
				ProductID: r.ProductID, Requested: r.Quantity,
			}
		}
		if r.Quantity < p.MinimumOrder {
			return nil, decimal.Zero, &InvalidQuantityError{
				ProductID: r.ProductID, Quantity: r.Quantity,
				Reason: fmt.Sprintf("below minimum order of %d", p.MinimumOrder),
			}
		}
		if !QuantityMatchesRate(r.Quantity, p.Rate) {
			return nil, decimal.Zero, &InvalidQuantityError{
				ProductID: r.ProductID, Quantity: r.Quantity,
				Reason: fmt.Sprintf("must be a multiple of %g", p.Rate),
			}
		}

		candidates, err := s.discounts.ListCandidates(ctx, r.ProductID, userID)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("list discount candidates: %w", err)
		}
		var d *discount.Discount
		if r.DiscountCode != "" {
			d, err = discount.ResolveCode(candidates, r.DiscountCode)
			if err != nil {
				return nil, decimal.Zero, err
			}
		} else {
			d = discount.Resolve(candidates, r.ProductID, userID)
		}

		item := Item{ProductID: r.ProductID, Quantity: r.Quantity}
		lineTotal := p.Price.Mul(decimal.NewFromInt(int64(r.Quantity)))
		if d != nil {
			if _, used := usedDiscounts[d.ID]; used {
				return nil, decimal.Zero, &DuplicateDiscountError{DiscountID: d.ID}
			}
			usedDiscounts[d.ID] = struct{}{}

			lineTotal = d.Apply(lineTotal)
			item.DiscountID = &d.ID
			item.DiscountedPrice = decimal.NullDecimal{Decimal: lineTotal, Valid: true}
		}
		total = total.Add(lineTotal)
		items = append(items, item)
	}

	return items, total.Round(2), nil
}

func fallback(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
