package cart

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/tooswasher/storefront/internal/domain/order"
	"github.com/tooswasher/storefront/internal/domain/product"
)

// OrderPlacer places an order from priced-out line requests. Implemented by
// the order service.
type OrderPlacer interface {
	Create(ctx context.Context, req order.CreateRequest) (*order.Order, error)
}

// Service encapsulates cart business logic. Quantities are validated against
// live stock on every mutation; the authoritative check still happens inside
// the order transaction at checkout.
type Service struct {
	carts    Repository
	products product.Repository
	orders   OrderPlacer
}

// NewService creates a cart Service with the required dependencies.
func NewService(carts Repository, products product.Repository, orders OrderPlacer) *Service {
	return &Service{carts: carts, products: products, orders: orders}
}

// List returns all lines in the user's cart.
func (s *Service) List(ctx context.Context, userID int64) ([]Item, error) {
	return s.carts.ListByUser(ctx, userID)
}

// Add puts a product in the cart, merging with an existing line for the same
// product by summing quantities.
func (s *Service) Add(ctx context.Context, userID, productID int64, quantity int) (*Item, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	item := &Item{UserID: userID, ProductID: productID, Quantity: quantity}
	if existing, err := s.carts.Get(ctx, userID, productID); err == nil {
		item.ID = existing.ID
		item.Quantity += existing.Quantity
	} else if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "get cart item")
	}

	if item.Quantity > p.Stock {
		return nil, ErrInsufficientStock
	}
	if err := s.carts.Put(ctx, item); err != nil {
		return nil, errors.Wrap(err, "put cart item")
	}
	return item, nil
}

// SetQuantity replaces the quantity of an existing line.
func (s *Service) SetQuantity(ctx context.Context, userID, productID int64, quantity int) (*Item, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	item, err := s.carts.Get(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if quantity > p.Stock {
		return nil, ErrInsufficientStock
	}

	item.Quantity = quantity
	if err := s.carts.Put(ctx, item); err != nil {
		return nil, errors.Wrap(err, "put cart item")
	}
	return item, nil
}

// Remove deletes one line from the cart.
func (s *Service) Remove(ctx context.Context, userID, productID int64) error {
	return s.carts.Remove(ctx, userID, productID)
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	return s.carts.Clear(ctx, userID)
}

// Checkout places an order from the cart contents and clears the cart on
// success. Discounts resolve automatically per line during pricing.
func (s *Service) Checkout(ctx context.Context, userID int64) (*order.Order, error) {
	items, err := s.carts.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart")
	}
	if len(items) == 0 {
		return nil, ErrEmpty
	}

	reqs := make([]order.ItemRequest, len(items))
	for i, it := range items {
		reqs[i] = order.ItemRequest{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	o, err := s.orders.Create(ctx, order.CreateRequest{UserID: userID, Items: reqs})
	if err != nil {
		return nil, err
	}

	if err := s.carts.Clear(ctx, userID); err != nil {
		return nil, errors.Wrap(err, "clear cart")
	}
	return o, nil
}
