// Package bond prices fixed-coupon bonds off the curve library: yield from
// dirty price, asset swap spreads, and the flat hazard rate implied by a
// price observed below the risk-free value.
package bond

import (
	"errors"
	"time"
)

// Cashflow is a single dated cash payment for a bond.
//
// Amounts are in currency units, not price-per-100.
type Cashflow struct {
	Date      time.Time
	Coupon    float64
	Principal float64
}

func (c Cashflow) Amount() float64 {
	return c.Coupon + c.Principal
}

// ErrPriceOutOfRange is returned when an observed price lies outside the
// band the valuation model can reproduce, such as a bond price at or above
// the risk-free value, at or below the recovery floor, or non-positive.
var ErrPriceOutOfRange = errors.New("price outside model range")
