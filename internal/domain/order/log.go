package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/zippycart/storefront/internal/domain/cart"
	"github.com/zippycart/storefront/internal/domain/coupon"
)

// Log turns the cart's selected items into immutable orders. Commit is the
// only place where another component destroys cart items: committed items are
// removed from the cart, unselected ones stay.
type Log struct {
	repo Repository
	cart *cart.Store
	lg   *zap.Logger

	newID func() string
	now   func() time.Time
}

// NewLog creates an order log writing through the given repository.
func NewLog(repo Repository, cartStore *cart.Store, lg *zap.Logger) *Log {
	return &Log{
		repo:  repo,
		cart:  cartStore,
		lg:    lg,
		newID: func() string { return uuid.New().String() },
		now:   time.Now,
	}
}

// Commit snapshots the selected cart items into a new Order, appends it to
// the log, and removes those items from the cart. The applied coupon is
// optional; it must already be validated. The cart is only mutated after the
// append succeeds, so a persistence failure leaves the cart intact.
func (l *Log) Commit(ctx context.Context, applied *coupon.Coupon) (*Order, error) {
	items := cart.Selected(l.cart.Items())
	if len(items) == 0 {
		return nil, ErrNothingSelected
	}

	subtotal := cart.Subtotal(items)

	discount := decimal.Zero
	code := ""
	if applied != nil {
		var err error
		discount, err = coupon.Discount(applied, subtotal)
		if err != nil {
			return nil, errors.Wrap(err, "compute discount")
		}
		code = applied.Code
	}

	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	o := &Order{
		ID:         l.newID(),
		Items:      items,
		Subtotal:   subtotal.Round(2),
		CouponCode: code,
		Discount:   discount,
		Total:      total.Round(2),
		CreatedAt:  l.now(),
	}

	if err := l.repo.Append(ctx, o); err != nil {
		return nil, errors.Wrap(err, "append order")
	}

	l.cart.RemoveSelected()

	l.lg.Info("order committed",
		zap.String("order_id", o.ID),
		zap.Int("items", len(o.Items)),
		zap.String("total", o.Total.String()),
		zap.String("coupon", code),
	)
	return o, nil
}

// Recent returns up to limit orders, newest first.
func (l *Log) Recent(ctx context.Context, limit int) ([]Order, error) {
	return l.repo.Recent(ctx, limit)
}
