package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zippycart/storefront/internal/domain/cart"
)

type mockRegistry struct {
	coupons map[string]*Coupon
	err     error
	lookups int
}

func (m *mockRegistry) FindByCode(_ context.Context, code string) (*Coupon, error) {
	m.lookups++
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.coupons[code]
	if !ok {
		return nil, ErrNotFound
	}
	out := *c
	return &out, nil
}

func (m *mockRegistry) List(_ context.Context) ([]Coupon, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]Coupon, 0, len(m.coupons))
	for _, c := range m.coupons {
		out = append(out, *c)
	}
	return out, nil
}

func item(id string, price int64, qty int, selected bool) cart.Item {
	return cart.Item{
		ProductID: id,
		UnitPrice: decimal.NewFromInt(price),
		Quantity:  qty,
		Selected:  selected,
	}
}

func TestValidator_Validate(t *testing.T) {
	fixedNow := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	future := fixedNow.Add(30 * 24 * time.Hour)
	past := fixedNow.Add(-24 * time.Hour)

	global := &Coupon{
		Code:         "SAVE20",
		DiscountType: DiscountPercentage,
		Value:        decimal.NewFromInt(20),
		Target:       GlobalTarget{},
		MinOrder:     decimal.NewFromInt(1000),
		ExpiresAt:    future,
		UsageLimit:   100,
		UsedCount:    45,
	}

	tests := []struct {
		name       string
		coupon     *Coupon
		code       string
		items      []cart.Item
		wantReason Reason
	}{
		{
			name:   "valid global coupon over minimum",
			coupon: global,
			code:   "SAVE20",
			items:  []cart.Item{item("p1", 600, 2, true)},
		},
		{
			name:       "unknown code",
			coupon:     global,
			code:       "BOGUS",
			items:      []cart.Item{item("p1", 600, 2, true)},
			wantReason: ReasonUnknownCode,
		},
		{
			name: "expired coupon",
			coupon: &Coupon{
				Code: "OLD", DiscountType: DiscountPercentage, Value: decimal.NewFromInt(10),
				Target: GlobalTarget{}, ExpiresAt: past,
			},
			code:       "OLD",
			items:      []cart.Item{item("p1", 600, 2, true)},
			wantReason: ReasonExpired,
		},
		{
			name: "exhausted coupon",
			coupon: &Coupon{
				Code: "FULL", DiscountType: DiscountPercentage, Value: decimal.NewFromInt(10),
				Target: GlobalTarget{}, ExpiresAt: future, UsageLimit: 50, UsedCount: 50,
			},
			code:       "FULL",
			items:      []cart.Item{item("p1", 600, 2, true)},
			wantReason: ReasonExhausted,
		},
		{
			name: "exhausted wins over minimum order",
			coupon: &Coupon{
				Code: "FULL", DiscountType: DiscountPercentage, Value: decimal.NewFromInt(10),
				Target: GlobalTarget{}, ExpiresAt: future,
				MinOrder: decimal.NewFromInt(100_000), UsageLimit: 50, UsedCount: 50,
			},
			code:       "FULL",
			items:      []cart.Item{item("p1", 600, 2, true)},
			wantReason: ReasonExhausted,
		},
		{
			name: "zero usage limit means unlimited",
			coupon: &Coupon{
				Code: "FREE", DiscountType: DiscountPercentage, Value: decimal.NewFromInt(5),
				Target: GlobalTarget{}, ExpiresAt: future, UsageLimit: 0, UsedCount: 1_000_000,
			},
			code:  "FREE",
			items: []cart.Item{item("p1", 600, 2, true)},
		},
		{
			name:       "selected subtotal below minimum",
			coupon:     global,
			code:       "SAVE20",
			items:      []cart.Item{item("p1", 400, 2, true)},
			wantReason: ReasonBelowMinimum,
		},
		{
			name:   "deselected items do not count toward the minimum",
			coupon: global,
			code:   "SAVE20",
			items: []cart.Item{
				item("p1", 800, 1, true),
				item("p2", 5000, 1, false),
			},
			wantReason: ReasonBelowMinimum,
		},
		{
			name:   "subtotal exactly at minimum passes",
			coupon: global,
			code:   "SAVE20",
			items:  []cart.Item{item("p1", 500, 2, true)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewStaticRegistry(*tt.coupon)
			v := NewValidator(registry).WithNow(func() time.Time { return fixedNow })

			got, err := v.Validate(context.Background(), tt.code, tt.items)
			if tt.wantReason == "" {
				require.NoError(t, err)
				require.NotNil(t, got)
				assert.Equal(t, tt.coupon.Code, got.Code)
				return
			}

			require.Error(t, err)
			rej, ok := AsRejection(err)
			require.True(t, ok, "expected a rejection, got %v", err)
			assert.Equal(t, tt.wantReason, rej.Reason)
			assert.Nil(t, got)
		})
	}
}

func TestValidator_Targeting(t *testing.T) {
	fixedNow := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	future := fixedNow.Add(30 * 24 * time.Hour)

	categoryCoupon := Coupon{
		Code: "TECH500", DiscountType: DiscountFixed, Value: decimal.NewFromInt(500),
		Target: CategoryTarget{Category: "electronics"}, MinOrder: decimal.NewFromInt(5000),
		ExpiresAt: future, UsageLimit: 50, UsedCount: 12,
	}
	vendorCoupon := Coupon{
		Code: "VEND99", DiscountType: DiscountPercentage, Value: decimal.NewFromInt(15),
		Target: VendorTarget{Vendor: "Global Partners"}, ExpiresAt: future, UsageLimit: 200,
	}

	electronics := cart.Item{ProductID: "p1", UnitPrice: decimal.NewFromInt(6000), Quantity: 1, Selected: true, Category: "Electronics", Vendor: "TechNova"}
	fashion := cart.Item{ProductID: "p2", UnitPrice: decimal.NewFromInt(6000), Quantity: 1, Selected: true, Category: "fashion", Vendor: "global partners"}
	partner := cart.Item{ProductID: "p3", UnitPrice: decimal.NewFromInt(900), Quantity: 1, Selected: true, Category: "sports", Vendor: "Global Partners"}

	tests := []struct {
		name       string
		coupon     Coupon
		items      []cart.Item
		wantReason Reason
	}{
		{
			name:   "category target matches case-insensitively",
			coupon: categoryCoupon,
			items:  []cart.Item{electronics},
		},
		{
			name:       "no selected item in category",
			coupon:     categoryCoupon,
			items:      []cart.Item{fashion},
			wantReason: ReasonCategoryMismatch,
		},
		{
			name:   "deselected matching item does not satisfy targeting",
			coupon: categoryCoupon,
			items: []cart.Item{
				fashion,
				{ProductID: "p9", UnitPrice: decimal.NewFromInt(100), Quantity: 1, Selected: false, Category: "electronics"},
			},
			wantReason: ReasonCategoryMismatch,
		},
		{
			name:   "vendor target matches exactly",
			coupon: vendorCoupon,
			items:  []cart.Item{partner},
		},
		{
			name:       "vendor match is case-sensitive",
			coupon:     vendorCoupon,
			items:      []cart.Item{fashion},
			wantReason: ReasonVendorMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewStaticRegistry(tt.coupon)
			v := NewValidator(registry).WithNow(func() time.Time { return fixedNow })

			_, err := v.Validate(context.Background(), tt.coupon.Code, tt.items)
			if tt.wantReason == "" {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			rej, ok := AsRejection(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantReason, rej.Reason)
		})
	}
}

func TestValidator_CaseInsensitiveCode(t *testing.T) {
	fixedNow := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	registry := NewStaticRegistry(Coupon{
		Code: "SAVE20", DiscountType: DiscountPercentage, Value: decimal.NewFromInt(20),
		Target: GlobalTarget{}, ExpiresAt: fixedNow.Add(time.Hour),
	})
	v := NewValidator(registry).WithNow(func() time.Time { return fixedNow })

	got, err := v.Validate(context.Background(), "save20", []cart.Item{item("p1", 100, 1, true)})
	require.NoError(t, err)
	assert.Equal(t, "SAVE20", got.Code)
}

// Validation must be repeatable: the same inputs give the same verdict and
// no usage is consumed along the way.
func TestValidator_IsPure(t *testing.T) {
	fixedNow := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	registry := NewStaticRegistry(Coupon{
		Code: "SAVE20", DiscountType: DiscountPercentage, Value: decimal.NewFromInt(20),
		Target: GlobalTarget{}, ExpiresAt: fixedNow.Add(time.Hour),
		UsageLimit: 10, UsedCount: 9,
	})
	v := NewValidator(registry).WithNow(func() time.Time { return fixedNow })
	items := []cart.Item{item("p1", 100, 1, true)}

	for i := 0; i < 5; i++ {
		got, err := v.Validate(context.Background(), "SAVE20", items)
		require.NoError(t, err)
		assert.Equal(t, 9, got.UsedCount, "validation must not consume usage")
	}
}

func TestValidator_RegistryFailure(t *testing.T) {
	boom := errors.New("connection refused")
	v := NewValidator(&mockRegistry{err: boom})

	_, err := v.Validate(context.Background(), "SAVE20", []cart.Item{item("p1", 100, 1, true)})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	_, isRejection := AsRejection(err)
	assert.False(t, isRejection, "infrastructure failures are not policy rejections")
}

func TestRejection_Messages(t *testing.T) {
	assert.Equal(t, `coupon "NOPE" is not a valid code`,
		(&Rejection{Reason: ReasonUnknownCode, Code: "NOPE"}).Error())
	assert.Equal(t, "minimum order of ₹1000 required",
		(&Rejection{Reason: ReasonBelowMinimum, Code: "SAVE20", MinOrder: decimal.NewFromInt(1000)}).Error())
	assert.Equal(t, `coupon "TECH500" is only valid for electronics items`,
		(&Rejection{Reason: ReasonCategoryMismatch, Code: "TECH500", Target: "electronics"}).Error())
}
