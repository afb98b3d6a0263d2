package coupon

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Reason identifies why a coupon was rejected. The values are stable and
// machine-readable; the Rejection message is what the shopper sees.
type Reason string

const (
	ReasonUnknownCode      Reason = "UNKNOWN_CODE"
	ReasonExpired          Reason = "EXPIRED"
	ReasonExhausted        Reason = "EXHAUSTED"
	ReasonBelowMinimum     Reason = "BELOW_MINIMUM"
	ReasonCategoryMismatch Reason = "CATEGORY_MISMATCH"
	ReasonVendorMismatch   Reason = "VENDOR_MISMATCH"
)

// Rejection is the typed verdict for a coupon that failed validation. It is
// an expected, recoverable outcome returned as an error value so the caller
// cannot forget to handle it. Messages carry enough detail for the shopper to
// self-correct.
type Rejection struct {
	Reason Reason
	// Code is the code as entered by the shopper.
	Code string
	// MinOrder is the required minimum, set for ReasonBelowMinimum.
	MinOrder decimal.Decimal
	// Target is the required category or vendor, set for targeting mismatches.
	Target string
}

func (r *Rejection) Error() string {
	switch r.Reason {
	case ReasonUnknownCode:
		return fmt.Sprintf("coupon %q is not a valid code", r.Code)
	case ReasonExpired:
		return fmt.Sprintf("coupon %q has expired", r.Code)
	case ReasonExhausted:
		return fmt.Sprintf("coupon %q has reached its usage limit", r.Code)
	case ReasonBelowMinimum:
		return fmt.Sprintf("minimum order of ₹%s required", r.MinOrder.Round(2))
	case ReasonCategoryMismatch:
		return fmt.Sprintf("coupon %q is only valid for %s items", r.Code, r.Target)
	case ReasonVendorMismatch:
		return fmt.Sprintf("coupon %q is only valid on items from %s", r.Code, r.Target)
	default:
		return fmt.Sprintf("coupon %q rejected: %s", r.Code, r.Reason)
	}
}

// AsRejection unwraps a validation rejection from err, if there is one.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}
