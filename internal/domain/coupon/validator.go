package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/zippycart/storefront/internal/domain/cart"
)

// Validator evaluates a candidate code against a cart snapshot and the coupon
// registry. It is pure: it performs no writes, so the shopper can re-validate
// the same code any number of times while editing the cart without consuming
// usage. Incrementing the usage counter is the checkout collaborator's job, at
// order confirmation.
type Validator struct {
	registry Registry
	now      func() time.Time
}

// NewValidator creates a Validator backed by the given registry.
func NewValidator(registry Registry) *Validator {
	return &Validator{registry: registry, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (v *Validator) WithNow(now func() time.Time) *Validator {
	v.now = now
	return v
}

// Validate checks the code against the cart snapshot. Rules run in a fixed
// order and the first failure wins: lookup, expiry, usage cap, minimum order
// value, targeting. Cheap checks come first so pricier ones are skipped.
//
// Policy failures are returned as a *Rejection; any other error is a registry
// failure. Only items selected for checkout count toward the minimum order
// value and targeting rules.
func (v *Validator) Validate(ctx context.Context, code string, items []cart.Item) (*Coupon, error) {
	c, err := v.registry.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &Rejection{Reason: ReasonUnknownCode, Code: code}
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	if v.now().After(c.ExpiresAt) {
		return nil, &Rejection{Reason: ReasonExpired, Code: code}
	}

	// An exhausted coupon stays exhausted regardless of date.
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return nil, &Rejection{Reason: ReasonExhausted, Code: code}
	}

	selected := cart.Selected(items)
	subtotal := cart.SelectedSubtotal(items)
	if subtotal.LessThan(c.MinOrder) {
		return nil, &Rejection{Reason: ReasonBelowMinimum, Code: code, MinOrder: c.MinOrder}
	}

	switch t := c.Target.(type) {
	case GlobalTarget:
		// Always applicable.
	case CategoryTarget:
		if !anyCategory(selected, t.Category) {
			return nil, &Rejection{Reason: ReasonCategoryMismatch, Code: code, Target: t.Category}
		}
	case VendorTarget:
		if !anyVendor(selected, t.Vendor) {
			return nil, &Rejection{Reason: ReasonVendorMismatch, Code: code, Target: t.Vendor}
		}
	default:
		return nil, errors.Errorf("unsupported coupon target: %T", t)
	}

	return c, nil
}

func anyCategory(items []cart.Item, category string) bool {
	for _, it := range items {
		if strings.EqualFold(it.Category, category) {
			return true
		}
	}
	return false
}

func anyVendor(items []cart.Item, vendor string) bool {
	for _, it := range items {
		if it.Vendor == vendor {
			return true
		}
	}
	return false
}
