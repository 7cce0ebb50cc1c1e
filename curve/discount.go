package curve

import (
	"math"
	"time"
)

func expNeg(p float64) float64 { return math.Exp(-p) }

// DiscountFactors presents a calibrated zero curve as discount factors for
// one currency.
type DiscountFactors struct {
	currency string
	curve    *NodalCurve
}

// NewDiscountFactors wraps a calibrated curve as a discount factor view.
func NewDiscountFactors(currency string, c *NodalCurve) *DiscountFactors {
	return &DiscountFactors{currency: currency, curve: c}
}

// Currency returns the currency the factors discount.
func (d *DiscountFactors) Currency() string { return d.currency }

// Curve returns the underlying zero curve.
func (d *DiscountFactors) Curve() *NodalCurve { return d.curve }

// ValuationDate returns the date at which the discount factor is 1.
func (d *DiscountFactors) ValuationDate() time.Time { return d.curve.Base() }

// DayCount returns the convention mapping dates onto curve time.
func (d *DiscountFactors) DayCount() string { return d.curve.DayCount() }

// TimeOf converts a date into curve time.
func (d *DiscountFactors) TimeOf(date time.Time) float64 { return d.curve.TimeOf(date) }

// DiscountFactor returns the factor discounting a payment on date back to
// the valuation date.
func (d *DiscountFactors) DiscountFactor(date time.Time) float64 {
	return d.curve.DiscountAt(d.curve.TimeOf(date))
}

// DiscountFactorAt returns the factor at curve time t.
func (d *DiscountFactors) DiscountFactorAt(t float64) float64 {
	return d.curve.DiscountAt(t)
}

// ZeroRate returns the continuously compounded zero rate for date.
func (d *DiscountFactors) ZeroRate(date time.Time) float64 {
	return d.curve.RateAt(d.curve.TimeOf(date))
}

// NodeTimes returns the knot times of the underlying curve.
func (d *DiscountFactors) NodeTimes() []float64 { return d.curve.NodeTimes() }
