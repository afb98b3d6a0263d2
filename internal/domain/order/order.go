// Package order records finalized carts as immutable orders and drives the
// checkout handoff.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/zippycart/storefront/internal/domain/cart"
)

// ErrNothingSelected is returned when checkout is attempted with no items
// marked for purchase.
var ErrNothingSelected = errors.New("no items selected for checkout")

// Order is a finalized cart. It is immutable once created: the item slice is
// a snapshot taken at commit time and nothing mutates an Order afterwards.
type Order struct {
	ID         string          `json:"id"`
	Items      []cart.Item     `json:"items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	CouponCode string          `json:"coupon_code,omitempty"`
	Discount   decimal.Decimal `json:"discount"`
	Total      decimal.Decimal `json:"total"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Repository is the append-only persistence channel for orders.
type Repository interface {
	Append(ctx context.Context, o *Order) error
	// Recent returns up to limit orders, newest first.
	Recent(ctx context.Context, limit int) ([]Order, error)
}
