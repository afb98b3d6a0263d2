package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zippycart/storefront/internal/domain/cart"
	"github.com/zippycart/storefront/internal/domain/catalog"
	"github.com/zippycart/storefront/internal/domain/coupon"
)

type mockOrderRepo struct {
	orders    []Order
	appendErr error
}

func (m *mockOrderRepo) Append(_ context.Context, o *Order) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.orders = append(m.orders, *o)
	return nil
}

func (m *mockOrderRepo) Recent(_ context.Context, limit int) ([]Order, error) {
	out := make([]Order, 0, limit)
	for i := len(m.orders) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.orders[i])
	}
	return out, nil
}

var fixedCommitTime = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

func newTestLog(repo Repository) (*Log, *cart.Store) {
	cat := catalog.NewStaticRepository(
		catalog.Product{ID: "p1", Name: "Earbuds", Price: decimal.NewFromInt(500), Category: "electronics", Vendor: "TechNova"},
		catalog.Product{ID: "p2", Name: "Jacket", Price: decimal.NewFromInt(1200), Category: "fashion", Vendor: "UrbanThreads"},
	)
	cartStore := cart.NewStore(cat)
	l := NewLog(repo, cartStore, zap.NewNop())
	l.newID = func() string { return "order-1" }
	l.now = func() time.Time { return fixedCommitTime }
	return l, cartStore
}

func TestLog_Commit(t *testing.T) {
	ctx := context.Background()
	repo := &mockOrderRepo{}
	l, cartStore := newTestLog(repo)

	require.NoError(t, cartStore.AddItem(ctx, "p1", 2)) // 1000
	require.NoError(t, cartStore.AddItem(ctx, "p2", 1)) // 1200
	cartStore.ToggleSelected("p2")

	o, err := l.Commit(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, "order-1", o.ID)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "p1", o.Items[0].ProductID)
	assert.True(t, decimal.NewFromInt(1000).Equal(o.Subtotal))
	assert.True(t, o.Discount.IsZero())
	assert.True(t, decimal.NewFromInt(1000).Equal(o.Total))
	assert.Equal(t, fixedCommitTime, o.CreatedAt)

	// Committed items left the cart; the deselected one stayed.
	items := cartStore.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p2", items[0].ProductID)

	require.Len(t, repo.orders, 1)
}

func TestLog_CommitWithCoupon(t *testing.T) {
	ctx := context.Background()
	repo := &mockOrderRepo{}
	l, cartStore := newTestLog(repo)

	require.NoError(t, cartStore.AddItem(ctx, "p1", 3)) // 1500

	applied := &coupon.Coupon{
		Code: "SAVE20", DiscountType: coupon.DiscountPercentage,
		Value: decimal.NewFromInt(20), Target: coupon.GlobalTarget{},
	}

	o, err := l.Commit(ctx, applied)
	require.NoError(t, err)

	assert.Equal(t, "SAVE20", o.CouponCode)
	assert.True(t, decimal.NewFromInt(300).Equal(o.Discount))
	assert.True(t, decimal.NewFromInt(1200).Equal(o.Total))
}

func TestLog_CommitNothingSelected(t *testing.T) {
	ctx := context.Background()
	repo := &mockOrderRepo{}
	l, cartStore := newTestLog(repo)

	_, err := l.Commit(ctx, nil)
	assert.ErrorIs(t, err, ErrNothingSelected)

	require.NoError(t, cartStore.AddItem(ctx, "p1", 1))
	cartStore.ToggleSelected("p1")

	_, err = l.Commit(ctx, nil)
	assert.ErrorIs(t, err, ErrNothingSelected)
	assert.Empty(t, repo.orders)
}

func TestLog_CommitAppendFailureLeavesCartIntact(t *testing.T) {
	ctx := context.Background()
	repo := &mockOrderRepo{appendErr: errors.New("disk full")}
	l, cartStore := newTestLog(repo)

	require.NoError(t, cartStore.AddItem(ctx, "p1", 2))

	_, err := l.Commit(ctx, nil)
	require.Error(t, err)

	items := cartStore.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestLog_Recent(t *testing.T) {
	ctx := context.Background()
	repo := &mockOrderRepo{}
	l, cartStore := newTestLog(repo)

	ids := []string{"order-1", "order-2", "order-3"}
	next := 0
	l.newID = func() string { id := ids[next]; next++; return id }

	for i := 0; i < 3; i++ {
		require.NoError(t, cartStore.AddItem(ctx, "p1", 1))
		_, err := l.Commit(ctx, nil)
		require.NoError(t, err)
	}

	recent, err := l.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "order-3", recent[0].ID)
	assert.Equal(t, "order-2", recent[1].ID)
}
