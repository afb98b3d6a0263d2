// Package coupon implements discount codes and their eligibility rules.
package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage applies a percentage-based discount to the subtotal.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed applies a fixed monetary discount capped at the subtotal.
	DiscountFixed DiscountType = "fixed"
)

var (
	// ErrNotFound is returned by registries when no coupon matches a code.
	ErrNotFound = errors.New("coupon not found")
	// ErrExhausted is returned when a usage increment would exceed the
	// coupon's usage limit.
	ErrExhausted = errors.New("coupon usage limit reached")
)

// Target restricts which cart contents a coupon applies to. It is a sealed
// variant: exactly GlobalTarget, CategoryTarget and VendorTarget implement it,
// so a type switch over all three is exhaustive.
type Target interface {
	isTarget()
}

// GlobalTarget applies to any cart.
type GlobalTarget struct{}

// CategoryTarget requires at least one selected item in the given category
// (matched case-insensitively).
type CategoryTarget struct {
	Category string
}

// VendorTarget requires at least one selected item from the given vendor.
type VendorTarget struct {
	Vendor string
}

func (GlobalTarget) isTarget()   {}
func (CategoryTarget) isTarget() {}
func (VendorTarget) isTarget()   {}

// Target kind names as stored in the registry.
const (
	TargetKindGlobal   = "global"
	TargetKindCategory = "category"
	TargetKindVendor   = "vendor"
)

// ParseTarget maps a stored (kind, value) pair to a Target variant.
func ParseTarget(kind, value string) (Target, error) {
	switch kind {
	case TargetKindGlobal, "":
		return GlobalTarget{}, nil
	case TargetKindCategory:
		if value == "" {
			return nil, errors.New("category target requires a value")
		}
		return CategoryTarget{Category: value}, nil
	case TargetKindVendor:
		if value == "" {
			return nil, errors.New("vendor target requires a value")
		}
		return VendorTarget{Vendor: value}, nil
	default:
		return nil, errors.Errorf("unsupported coupon target kind: %q", kind)
	}
}

// TargetColumns maps a Target variant back to its stored (kind, value) pair.
func TargetColumns(t Target) (kind, value string, err error) {
	switch tt := t.(type) {
	case GlobalTarget:
		return TargetKindGlobal, "", nil
	case CategoryTarget:
		return TargetKindCategory, tt.Category, nil
	case VendorTarget:
		return TargetKindVendor, tt.Vendor, nil
	default:
		return "", "", errors.Errorf("unsupported coupon target: %T", t)
	}
}

// Coupon is a discount code with its eligibility constraints. Coupons are
// created and edited by an external admin channel; this package only reads
// them, except for the guarded usage increment at order confirmation.
type Coupon struct {
	Code         string
	DiscountType DiscountType
	Value        decimal.Decimal
	Target       Target
	MinOrder     decimal.Decimal
	ExpiresAt    time.Time
	UsageLimit   int
	UsedCount    int
}

// Registry provides read access to the known coupons.
type Registry interface {
	// FindByCode looks up a coupon case-insensitively. Returns ErrNotFound
	// when the code is unknown.
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	// List returns all registered coupons.
	List(ctx context.Context) ([]Coupon, error)
}

// UsageRecorder is the separate write channel for usage accounting. The
// validator never calls it; the checkout collaborator does, once per
// confirmed order. Implementations must guard used_count < usage_limit and
// return ErrExhausted when the increment would break it.
type UsageRecorder interface {
	IncrementUses(ctx context.Context, code string) error
}
