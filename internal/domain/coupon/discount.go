package coupon

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Discount calculates the discount amount a validated coupon grants on the
// given selected subtotal. A percentage coupon takes value% of the subtotal;
// a fixed coupon takes its value capped at the subtotal, so the discount
// never exceeds what is being paid. Results are clamped at zero and rounded
// to 2 decimal places.
func Discount(c *Coupon, subtotal decimal.Decimal) (decimal.Decimal, error) {
	switch c.DiscountType {
	case DiscountPercentage:
		amount := subtotal.Mul(c.Value).Div(hundred)
		return floorAtZero(amount).Round(2), nil
	case DiscountFixed:
		amount := decimal.Min(c.Value, subtotal)
		return floorAtZero(amount).Round(2), nil
	default:
		return decimal.Zero, errors.Errorf("unsupported discount type: %q", c.DiscountType)
	}
}

// floorAtZero clamps negative values to zero.
func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
