package coupon

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// StaticRegistry is an in-memory coupon registry for offline use and tests.
// Unlike the stores, a registry may be shared across sessions, so it is
// safe for concurrent use.
type StaticRegistry struct {
	mu      sync.RWMutex
	byCode  map[string]*Coupon
	ordered []string
}

var (
	_ Registry      = (*StaticRegistry)(nil)
	_ UsageRecorder = (*StaticRegistry)(nil)
)

// NewStaticRegistry builds a registry from the given coupons. Codes are keyed
// case-insensitively; a later duplicate replaces an earlier one.
func NewStaticRegistry(coupons ...Coupon) *StaticRegistry {
	r := &StaticRegistry{byCode: make(map[string]*Coupon, len(coupons))}
	for i := range coupons {
		c := coupons[i]
		key := strings.ToUpper(c.Code)
		if _, ok := r.byCode[key]; !ok {
			r.ordered = append(r.ordered, key)
		}
		r.byCode[key] = &c
	}
	return r
}

// FindByCode returns a copy of the matching coupon, or ErrNotFound.
func (r *StaticRegistry) FindByCode(_ context.Context, code string) (*Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byCode[strings.ToUpper(code)]
	if !ok {
		return nil, ErrNotFound
	}
	out := *c
	return &out, nil
}

// List returns copies of all registered coupons.
func (r *StaticRegistry) List(_ context.Context) ([]Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Coupon, 0, len(r.ordered))
	for _, key := range r.ordered {
		out = append(out, *r.byCode[key])
	}
	return out, nil
}

// IncrementUses bumps the usage counter, guarding the usage-limit invariant.
func (r *StaticRegistry) IncrementUses(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byCode[strings.ToUpper(code)]
	if !ok {
		return ErrNotFound
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return ErrExhausted
	}
	c.UsedCount++
	return nil
}

// DemoCoupons returns the built-in promotional codes used by the demo
// storefront and the offline registry.
func DemoCoupons() []Coupon {
	return []Coupon{
		{
			Code:         "ZIPPY20",
			DiscountType: DiscountPercentage,
			Value:        decimal.NewFromInt(20),
			Target:       GlobalTarget{},
			MinOrder:     decimal.NewFromInt(1000),
			ExpiresAt:    time.Date(2027, 12, 31, 23, 59, 59, 0, time.UTC),
			UsageLimit:   100,
			UsedCount:    45,
		},
		{
			Code:         "TECH500",
			DiscountType: DiscountFixed,
			Value:        decimal.NewFromInt(500),
			Target:       CategoryTarget{Category: "electronics"},
			MinOrder:     decimal.NewFromInt(5000),
			ExpiresAt:    time.Date(2027, 2, 15, 23, 59, 59, 0, time.UTC),
			UsageLimit:   50,
			UsedCount:    12,
		},
		{
			Code:         "VEND99",
			DiscountType: DiscountPercentage,
			Value:        decimal.NewFromInt(15),
			Target:       VendorTarget{Vendor: "Global Partners"},
			MinOrder:     decimal.Zero,
			ExpiresAt:    time.Date(2027, 6, 1, 23, 59, 59, 0, time.UTC),
			UsageLimit:   200,
			UsedCount:    8,
		},
	}
}
