package order

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/zippycart/storefront/internal/domain/cart"
	"github.com/zippycart/storefront/internal/domain/coupon"
)

// Checkout orchestrates the three-step handoff between the cart/coupon core
// and the rest of the application: read the selected subtotal, validate the
// coupon, commit the order. No other coupling is permitted.
type Checkout struct {
	cart      *cart.Store
	validator *coupon.Validator
	usage     coupon.UsageRecorder
	log       *Log
}

// NewCheckout wires the checkout flow. usage may be nil when the registry has
// no usage accounting (offline demo registries).
func NewCheckout(cartStore *cart.Store, validator *coupon.Validator, usage coupon.UsageRecorder, log *Log) *Checkout {
	return &Checkout{
		cart:      cartStore,
		validator: validator,
		usage:     usage,
		log:       log,
	}
}

// Complete finalizes the selected cart items, applying the coupon code when
// one is given. Validation rejections come back unwrapped as *coupon.Rejection
// so the UI can surface the specific reason.
//
// The usage counter is incremented at confirmation, after validation and
// before the order append; the recorder's conditional increment is the
// authoritative guard against racing past the usage limit.
func (c *Checkout) Complete(ctx context.Context, code string) (*Order, error) {
	items := c.cart.Items()
	if len(cart.Selected(items)) == 0 {
		return nil, ErrNothingSelected
	}

	var applied *coupon.Coupon
	if code != "" {
		var err error
		applied, err = c.validator.Validate(ctx, code, items)
		if err != nil {
			return nil, err
		}
		if c.usage != nil {
			if err := c.usage.IncrementUses(ctx, applied.Code); err != nil {
				if errors.Is(err, coupon.ErrExhausted) {
					return nil, &coupon.Rejection{Reason: coupon.ReasonExhausted, Code: code}
				}
				return nil, errors.Wrap(err, "record coupon use")
			}
		}
	}

	return c.log.Commit(ctx, applied)
}
