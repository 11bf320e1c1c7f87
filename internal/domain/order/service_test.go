package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tooswasher/storefront/internal/domain/discount"
	"github.com/tooswasher/storefront/internal/domain/product"
	"github.com/tooswasher/storefront/internal/domain/user"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID   map[int64]*product.Product
	getErr error
}

func (m *mockProductRepo) List(_ context.Context, _, _ int) ([]product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) ListByCategory(_ context.Context, _ int64, _, _ int) ([]product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id int64) (*product.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []int64) ([]product.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) Create(_ context.Context, _ *product.Product) error { return nil }
func (m *mockProductRepo) Update(_ context.Context, _ *product.Product) error { return nil }
func (m *mockProductRepo) Delete(_ context.Context, _ int64) error            { return nil }

type mockDiscountRepo struct {
	candidates []discount.Discount
	err        error
}

func (m *mockDiscountRepo) ListCandidates(_ context.Context, productID, customerID int64) ([]discount.Discount, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []discount.Discount
	for _, d := range m.candidates {
		if d.ProductID != nil && *d.ProductID != productID {
			continue
		}
		if d.CustomerID != nil && *d.CustomerID != customerID {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (m *mockDiscountRepo) GetByID(_ context.Context, _ int64) (*discount.Discount, error) {
	return nil, discount.ErrNotFound
}

func (m *mockDiscountRepo) List(_ context.Context, _ discount.Filter) ([]discount.Discount, error) {
	return nil, nil
}

func (m *mockDiscountRepo) Create(_ context.Context, _ *discount.Discount) error { return nil }
func (m *mockDiscountRepo) Update(_ context.Context, _ *discount.Discount) error { return nil }
func (m *mockDiscountRepo) Delete(_ context.Context, _ int64) error              { return nil }

type mockUserRepo struct {
	byID map[int64]*user.User
}

func (m *mockUserRepo) Create(_ context.Context, _ *user.User) error { return nil }

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (*user.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) GetByUsername(_ context.Context, _ string) (*user.User, error) {
	return nil, user.ErrNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, _ string) (*user.User, error) {
	return nil, user.ErrNotFound
}

func (m *mockUserRepo) GetByResetToken(_ context.Context, _ string) (*user.User, error) {
	return nil, user.ErrNotFound
}

func (m *mockUserRepo) Update(_ context.Context, _ *user.User) error           { return nil }
func (m *mockUserRepo) List(_ context.Context, _ user.Filter) ([]user.User, error) { return nil, nil }
func (m *mockUserRepo) Delete(_ context.Context, _ int64) error                { return nil }

type mockOrderRepo struct {
	byID      map[int64]*Order
	lastOrder *Order
	err       error
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	m.lastOrder = o
	return m.err
}

func (m *mockOrderRepo) GetByID(_ context.Context, id int64) (*Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) GetByIDForUser(_ context.Context, id, userID int64) (*Order, error) {
	o, ok := m.byID[id]
	if !ok || o.UserID != userID {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) List(_ context.Context, _ Filter) ([]Order, error) { return nil, nil }

func (m *mockOrderRepo) Update(_ context.Context, o *Order) error {
	m.lastOrder = o
	return m.err
}

func (m *mockOrderRepo) Delete(_ context.Context, _ int64) error { return m.err }

// --- Helpers ---

const testUserID = int64(42)

func i64ptr(v int64) *int64 { return &v }

func newTestProduct(id int64, price string) product.Product {
	return product.Product{
		ID:           id,
		Name:         "Widget",
		Price:        decimal.RequireFromString(price),
		Stock:        100,
		MinimumOrder: 1,
	}
}

func newProductRepo(products ...product.Product) *mockProductRepo {
	byID := make(map[int64]*product.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return &mockProductRepo{byID: byID}
}

func newUserRepo() *mockUserRepo {
	return &mockUserRepo{byID: map[int64]*user.User{
		testUserID: {
			ID:          testUserID,
			Username:    "customer",
			State:       "CA",
			City:        "Oakland",
			Address:     "1 Main St",
			PhoneNumber: "555-0100",
		},
	}}
}

func newService(products *mockProductRepo, discounts *mockDiscountRepo, orders *mockOrderRepo) *Service {
	return NewService(products, discounts, newUserRepo(), orders)
}

// --- Tests ---

func TestCreate_EmptyItems(t *testing.T) {
	svc := newService(newProductRepo(), &mockDiscountRepo{}, &mockOrderRepo{})

	_, err := svc.Create(context.Background(), CreateRequest{UserID: testUserID})
	require.ErrorIs(t, err, ErrEmptyItems)
}

func TestCreate_InvalidQuantity(t *testing.T) {
	p1 := newTestProduct(1, "10.00")
	svc := newService(newProductRepo(p1), &mockDiscountRepo{}, &mockOrderRepo{})

	_, err := svc.Create(context.Background(), CreateRequest{
		UserID: testUserID,
		Items:  []ItemRequest{{ProductID: 1, Quantity: 0}},
	})

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, int64(1), iqErr.ProductID)
}

func TestCreate_DuplicateItems(t *testing.T) {
	p1 := newTestProduct(1, "10.00")
	svc := newService(newProductRepo(p1), &mockDiscountRepo{}, &mockOrderRepo{})

	_, err := svc.Create(context.Background(), CreateRequest{
		UserID: testUserID,
		Items: []ItemRequest{
			{ProductID: 1, Quantity: 1},
			{ProductID: 1, Quantity: 2},
		},
	})
	require.ErrorIs(t, err, ErrDuplicateItems)
}

func TestCreate_ProductNotFound(t *testing.T) {
	svc := newService(newProductRepo(), &mockDiscountRepo{}, &mockOrderRepo{})

	_, err := svc.Create(context.Background(), CreateRequest{
		UserID: testUserID,
		Items:  []ItemRequest{{ProductID: 99, Quantity: 1}},
	})

	var pnfErr *ProductNotFoundError
	require.ErrorAs(t, err, &pnfErr)
	assert.Equal(t, int64(99), pnfErr.ProductID)
}

func TestCreate_BelowMinimumOrder(t *testing.T) {
	p1 := newTestProduct(1, "10.00")
	p1.MinimumOrder = 5
	svc := newService(newProductRepo(p1), &mockDiscountRepo{}, &mockOrderRepo{})

	_, err := svc.Create(context.Background(), CreateRequest{
		UserID: testUserID,
		Items:  []ItemRequest{{ProductID: 1, Quantity: 3}},
	})

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Contains(t, iqErr.Reason, "minimum order")
}

func TestCreate_QuantityOffPackSize(t *testing.T) {
	p1 := newTestProduct(1, "10.00")
	p1.Rate = 3
	svc := newService(newProductRepo(p1), &mockDiscountRepo{}, &mockOrderRepo{})

	_, err := svc.Create(context.Background(), CreateRequest{
		UserID: testUserID,
		Items:  []ItemRequest{{ProductID: 1, Quantity: 4}},
	})

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Contains(t, iqErr.Reason, "multiple of 3")
}

func TestCreate_StockCheckedBeforeQuantityRules(t *testing.T) {
	p1 := newTestProduct(1, "10.00")
	p1.Stock = 2
	p1.Rate = 3
	svc := newService(newProductRepo(p1), &mockDiscountRepo{}, &mockOrderRepo{})

	// Quantity 4 is both off-pack and beyond stock; stock wins.
	_, err := svc.Create(context.Background(), CreateRequest{
		UserID: testUserID,
		Items:  []ItemRequest{{ProductID: 1, Quantity: 4}},
	})

	var isErr *InsufficientStockError
	require.ErrorAs(t, err, &isErr)
	assert.Equal(t, int64(1), isErr.ProductID)
	assert.Equal(t, 4, isErr.Requested)
}

func TestCreate_NoDiscount(t *testing.T) {
	p1 := newTestProduct(1, "10.00")
	p2 := newTestProduct(2, "20.00")
	orders := &mockOrderRepo{}
	svc := newService(newProductRepo(p1, p2), &mockDiscountRepo{}, orders)

	o, err := svc.Create(context.Background(), CreateRequest{
		UserID: testUserID,
		Items: []ItemRequest{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		},
	})

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("40.00").Equal(o.TotalAmount))
	assert.Equal(t, StatusPending, o.Status)
	require.Len(t, o.Items, 2)
	assert.Nil(t, o.Items[0].DiscountID)
	assert.False(t, o.Items[0].DiscountedPrice.Valid)
	assert.Same(t, o, orders.lastOrder)
}

func TestCreate_AutomaticDiscountWithCap(t *testing.T) {
	p1 := newTestProduct(1, "100.00")
	discounts := &mockDiscountRepo{candidates: []discount.Discount{{
		ID:          7,
		Percent:     decimal.NewFromInt(50),
		MaxDiscount: decimal.NewFromInt(30),
		ProductID:   i64ptr(1),
		Status:      discount.StatusActive,
	}}}
	svc := newService(newProductRepo(p1), discounts, &mockOrderRepo{})

	o, err := svc.Create(context.Background(), CreateRequest{
		UserID: testUserID,
		Items:  []ItemRequest{{ProductID: 1, Quantity: 2}},
	})

	require.NoError(t, err)
	// 50% of 200.00 is 100.00, capped at 30.00.
	assert.True(t, decimal.RequireFromString("170.00").Equal(o.TotalAmount))
	require.NotNil(t, o.Items[0].DiscountID)
	assert.Equal(t, int64(7), *o.Items[0].DiscountID)
	require.True(t, o.Items[0].DiscountedPrice.Valid)
	assert.True(t, decimal.RequireFromString("170.00").Equal(o.Items[0].DiscountedPrice.Decimal))
}

func TestCreate_MostSpecificDiscountWins(t *testing.T) {
	p1 := newTestProduct(1, "100.00")
	discounts := &mockDiscountRepo{candidates: []discount.Discount{
		{ID: 1, Percent: decimal.NewFromInt(5), Status: discount.StatusActive},
		{ID: 2, Percent: decimal.NewFromInt(10), ProductID: i64ptr(1), Status: discount.StatusActive},
		{ID: 3, Percent: decimal.NewFromInt(20), ProductID: i64ptr(1), CustomerID: i64ptr(testUserID), Status: discount.StatusActive},
	}}
	svc := newService(newProductRepo(p1), discounts, &mockOrderRepo{})

	o, err := svc.Create(context.Background(), CreateRequest{
		UserID: testUserID,
		Items:  []ItemRequest{{ProductID: 1, Quantity: 1}},
	})

	require.NoError(t, err)
	require.NotNil(t, o.Items[0].DiscountID)
	assert.Equal(t, int64(3), *o.Items[0].DiscountID)
	assert.True(t, decimal.RequireFromString("80.00").Equal(o.TotalAmount))
}

func TestCreate_DiscountCode(t *testing.T) {
	p1 := newTestProduct(1, "50.00")
	discounts := &mockDiscountRepo{candidates: []discount.Discount{{
		ID:      4,
		Code:    "SUMMER10",
		Percent: decimal.NewFromInt(10),
		Status:  discount.StatusActive,
	}}}
	svc := newService(newProductRepo(p1), discounts, &mockOrderRepo{})

	o, err := svc.Create(context.Background(), CreateRequest{
		UserID: testUserID,
		Items:  []ItemRequest{{ProductID: 1, Quantity: 1, DiscountCode: "summer10"}},
	})

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("45.00").Equal(o.TotalAmount))
}

func TestCreate_UnknownDiscountCode(t *testing.T) {
	p1 := newTestProduct(1, "50.00")
	svc := newService(newProductRepo(p1), &mockDiscountRepo{}, &mockOrderRepo{})

	_, err := svc.Create(context.Background(), CreateRequest{
		UserID: testUserID,
		Items:  []ItemRequest{{ProductID: 1, Quantity: 1, DiscountCode: "BOGUS"}},
	})
	assert.ErrorIs(t, err, discount.ErrCodeNotFound)
}

func TestCreate_DuplicateDiscountAborts(t *testing.T) {
	p1 := newTestProduct(1, "10.00")
	p2 := newTestProduct(2, "20.00")
	// One customer-wide discount resolves for both lines.
	discounts := &mockDiscountRepo{candidates: []discount.Discount{{
		ID:         9,
		Percent:    decimal.NewFromInt(10),
		CustomerID: i64ptr(testUserID),
		Status:     discount.StatusActive,
	}}}
	orders := &mockOrderRepo{}
	svc := newService(newProductRepo(p1, p2), discounts, orders)

	_, err := svc.Create(context.Background(), CreateRequest{
		UserID: testUserID,
		Items: []ItemRequest{
			{ProductID: 1, Quantity: 1},
			{ProductID: 2, Quantity: 1},
		},
	})

	var dupErr *DuplicateDiscountError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, int64(9), dupErr.DiscountID)
	assert.Nil(t, orders.lastOrder, "nothing should be persisted")
}

func TestCreate_ShippingDefaultsFromProfile(t *testing.T) {
	p1 := newTestProduct(1, "10.00")
	svc := newService(newProductRepo(p1), &mockDiscountRepo{}, &mockOrderRepo{})

	o, err := svc.Create(context.Background(), CreateRequest{
		UserID: testUserID,
		Items:  []ItemRequest{{ProductID: 1, Quantity: 1}},
		City:   "Berkeley",
	})

	require.NoError(t, err)
	assert.Equal(t, "Berkeley", o.City)
	assert.Equal(t, "CA", o.State)
	assert.Equal(t, "1 Main St", o.Address)
	assert.Equal(t, "555-0100", o.PhoneNumber)
}

func TestCreate_RepoError(t *testing.T) {
	p1 := newTestProduct(1, "10.00")
	svc := newService(newProductRepo(p1), &mockDiscountRepo{}, &mockOrderRepo{err: errors.New("db write failed")})

	_, err := svc.Create(context.Background(), CreateRequest{
		UserID: testUserID,
		Items:  []ItemRequest{{ProductID: 1, Quantity: 1}},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create order")
}

func TestGet_OwnershipScoping(t *testing.T) {
	orders := &mockOrderRepo{byID: map[int64]*Order{
		5: {ID: 5, UserID: testUserID, Status: StatusPending},
	}}
	svc := newService(newProductRepo(), &mockDiscountRepo{}, orders)

	t.Run("owner sees own order", func(t *testing.T) {
		o, err := svc.Get(context.Background(), 5, testUserID, false)
		require.NoError(t, err)
		assert.Equal(t, int64(5), o.ID)
	})

	t.Run("someone else's order reads as not found", func(t *testing.T) {
		_, err := svc.Get(context.Background(), 5, 99, false)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("admin sees any order", func(t *testing.T) {
		o, err := svc.Get(context.Background(), 5, 99, true)
		require.NoError(t, err)
		assert.Equal(t, int64(5), o.ID)
	})
}

func TestUpdate_InvalidStatus(t *testing.T) {
	orders := &mockOrderRepo{byID: map[int64]*Order{
		5: {ID: 5, UserID: testUserID, Status: StatusPending},
	}}
	svc := newService(newProductRepo(), &mockDiscountRepo{}, orders)

	bad := Status("Teleported")
	_, err := svc.Update(context.Background(), 5, testUserID, false, UpdateRequest{Status: &bad})

	var isErr *InvalidStatusError
	require.ErrorAs(t, err, &isErr)
	assert.Equal(t, bad, isErr.Status)
}

func TestUpdate_StatusAndShipping(t *testing.T) {
	orders := &mockOrderRepo{byID: map[int64]*Order{
		5: {ID: 5, UserID: testUserID, Status: StatusPending, City: "Oakland"},
	}}
	svc := newService(newProductRepo(), &mockDiscountRepo{}, orders)

	shipped := StatusShipped
	city := "Fresno"
	o, err := svc.Update(context.Background(), 5, testUserID, true, UpdateRequest{
		Status: &shipped,
		City:   &city,
	})

	require.NoError(t, err)
	assert.Equal(t, StatusShipped, o.Status)
	assert.Equal(t, "Fresno", o.City)
	assert.Same(t, o, orders.lastOrder)
}

func TestUpdate_ReplaceItemsReprices(t *testing.T) {
	p1 := newTestProduct(1, "10.00")
	p2 := newTestProduct(2, "25.00")
	orders := &mockOrderRepo{byID: map[int64]*Order{
		5: {
			ID: 5, UserID: testUserID, Status: StatusPending,
			Items:       []Item{{ProductID: 1, Quantity: 1}},
			TotalAmount: decimal.RequireFromString("10.00"),
		},
	}}
	svc := newService(newProductRepo(p1, p2), &mockDiscountRepo{}, orders)

	o, err := svc.Update(context.Background(), 5, testUserID, true, UpdateRequest{
		Items: []ItemRequest{{ProductID: 2, Quantity: 2}},
	})

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("50.00").Equal(o.TotalAmount))
	require.Len(t, o.Items, 1)
	assert.Equal(t, int64(2), o.Items[0].ProductID)
}

func TestUpdate_CustomerLimitedToShippingAndCancel(t *testing.T) {
	p1 := newTestProduct(1, "10.00")
	orders := &mockOrderRepo{byID: map[int64]*Order{
		5: {ID: 5, UserID: testUserID, Status: StatusPending, City: "Oakland"},
	}}
	svc := newService(newProductRepo(p1), &mockDiscountRepo{}, orders)
	ctx := context.Background()

	shipped := StatusShipped
	_, err := svc.Update(ctx, 5, testUserID, false, UpdateRequest{Status: &shipped})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Update(ctx, 5, testUserID, false, UpdateRequest{
		Items: []ItemRequest{{ProductID: 1, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrForbidden)

	city := "Fresno"
	o, err := svc.Update(ctx, 5, testUserID, false, UpdateRequest{City: &city})
	require.NoError(t, err)
	assert.Equal(t, "Fresno", o.City)

	cancelled := StatusCancelled
	o, err = svc.Update(ctx, 5, testUserID, false, UpdateRequest{Status: &cancelled})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, o.Status)
}

func TestDelete_OwnershipScoping(t *testing.T) {
	orders := &mockOrderRepo{byID: map[int64]*Order{
		5: {ID: 5, UserID: testUserID, Status: StatusPending},
	}}
	svc := newService(newProductRepo(), &mockDiscountRepo{}, orders)

	err := svc.Delete(context.Background(), 5, 99, false)
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.Delete(context.Background(), 5, testUserID, false)
	assert.NoError(t, err)
}
