package discount

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func i64(v int64) *int64 { return &v }

func active(id int64, productID, customerID *int64) Discount {
	return Discount{
		ID:         id,
		Percent:    decimal.NewFromInt(10),
		ProductID:  productID,
		CustomerID: customerID,
		Status:     StatusActive,
	}
}

func TestResolve_Precedence(t *testing.T) {
	storeWide := active(1, nil, nil)
	productWide := active(2, i64(7), nil)
	customerWide := active(3, nil, i64(42))
	exact := active(4, i64(7), i64(42))

	tests := []struct {
		name       string
		candidates []Discount
		wantID     int64
	}{
		{
			name:       "exact match beats everything",
			candidates: []Discount{storeWide, productWide, customerWide, exact},
			wantID:     4,
		},
		{
			name:       "customer-wide beats product-wide",
			candidates: []Discount{storeWide, productWide, customerWide},
			wantID:     3,
		},
		{
			name:       "product-wide beats store-wide",
			candidates: []Discount{storeWide, productWide},
			wantID:     2,
		},
		{
			name:       "store-wide is the fallback",
			candidates: []Discount{storeWide},
			wantID:     1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.candidates, 7, 42)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestResolve_NoMatch(t *testing.T) {
	assert.Nil(t, Resolve(nil, 7, 42))

	otherProduct := active(1, i64(99), nil)
	otherCustomer := active(2, nil, i64(99))
	assert.Nil(t, Resolve([]Discount{otherProduct, otherCustomer}, 7, 42))
}

func TestResolve_SkipsInactiveAndCoded(t *testing.T) {
	expired := active(1, i64(7), i64(42))
	expired.Status = StatusExpired

	coded := active(2, i64(7), i64(42))
	coded.Code = "SECRET"

	fallback := active(3, nil, nil)

	got := Resolve([]Discount{expired, coded, fallback}, 7, 42)
	require.NotNil(t, got)
	assert.Equal(t, int64(3), got.ID)
}

func TestResolve_FirstWinsWithinTier(t *testing.T) {
	a := active(1, i64(7), nil)
	b := active(2, i64(7), nil)

	got := Resolve([]Discount{a, b}, 7, 42)
	require.NotNil(t, got)
	assert.Equal(t, int64(1), got.ID)
}

func TestResolveCode(t *testing.T) {
	coded := active(1, i64(7), nil)
	coded.Code = "SUMMER10"

	t.Run("case-insensitive match", func(t *testing.T) {
		got, err := ResolveCode([]Discount{coded}, "summer10")
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.ID)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := ResolveCode([]Discount{coded}, "WINTER10")
		assert.ErrorIs(t, err, ErrCodeNotFound)
	})

	t.Run("inactive coded discount is invisible", func(t *testing.T) {
		used := coded
		used.Status = StatusUsed
		_, err := ResolveCode([]Discount{used}, "SUMMER10")
		assert.ErrorIs(t, err, ErrCodeNotFound)
	})

	t.Run("codeless candidates never match", func(t *testing.T) {
		_, err := ResolveCode([]Discount{active(2, nil, nil)}, "")
		assert.ErrorIs(t, err, ErrCodeNotFound)
	})
}

func TestApply(t *testing.T) {
	tests := []struct {
		name      string
		percent   int64
		max       int64
		lineTotal string
		want      string
	}{
		{"uncapped", 50, 0, "200", "100"},
		{"cap limits the deduction", 50, 30, "200", "170"},
		{"cap above deduction is inert", 50, 500, "200", "100"},
		{"full discount floors at zero", 100, 0, "59.99", "0"},
		{"rounds to cents", 10, 0, "9.99", "8.99"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Discount{
				Percent:     decimal.NewFromInt(tt.percent),
				MaxDiscount: decimal.NewFromInt(tt.max),
			}
			got := d.Apply(decimal.RequireFromString(tt.lineTotal))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"got %s, want %s", got, tt.want)
		})
	}
}
