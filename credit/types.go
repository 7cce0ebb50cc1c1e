// Package credit calibrates survival-probability curves from CDS market
// quotes and prices the standard single-name contract against them.
//
// The curve parameterization is shared with package curve: knot values are
// average hazard rates, so exp(-y(t)*t) is the survival probability to t.
// Quotes arrive in one of three conventions and are standardized to a
// (coupon, points-upfront) pair before the curve is solved node by node.
package credit

import (
	"errors"
	"time"

	"github.com/meenmo/curvelib/curve"
)

// QuoteConvention identifies how a CDS market quote is expressed.
type QuoteConvention string

const (
	// QuoteParSpread quotes the running premium that makes the contract
	// worth zero upfront.
	QuoteParSpread QuoteConvention = "PAR_SPREAD"
	// QuoteQuotedSpread quotes a flat-hazard spread paired with a standard
	// running coupon.
	QuoteQuotedSpread QuoteConvention = "QUOTED_SPREAD"
	// QuotePointsUpfront quotes the upfront payment per unit notional paired
	// with a standard running coupon.
	QuotePointsUpfront QuoteConvention = "POINTS_UPFRONT"
)

// ArbitrageHandling selects what the calibrator does when a solved node
// implies a negative forward hazard rate.
type ArbitrageHandling string

const (
	// ArbitrageIgnore keeps the solved value as-is.
	ArbitrageIgnore ArbitrageHandling = "IGNORE"
	// ArbitrageFail aborts the calibration.
	ArbitrageFail ArbitrageHandling = "FAIL"
	// ArbitrageZeroHazard clamps the node so the forward hazard is zero,
	// carrying the previous knot's survival probability flat.
	ArbitrageZeroHazard ArbitrageHandling = "ZERO_HAZARD_RATE"
)

// AccrualOnDefault selects the premium-leg treatment of accrued coupon for
// defaults inside an accrual period.
type AccrualOnDefault string

const (
	// AccruedNone pays no accrued-on-default.
	AccruedNone AccrualOnDefault = "NONE"
	// AccruedMidpoint pays half the period coupon against the probability of
	// default within the period, discounted at the period payment date.
	AccruedMidpoint AccrualOnDefault = "MIDPOINT"
)

var (
	// ErrNilCurve is returned when a required curve input is missing.
	ErrNilCurve = errors.New("nil discount curve provided")
	// ErrArbitrage is returned under ArbitrageFail when a quote set implies
	// a negative forward hazard rate.
	ErrArbitrage = errors.New("negative forward hazard rate")
	// ErrUnknownConvention is returned for quote conventions the calibrator
	// does not recognize.
	ErrUnknownConvention = errors.New("unrecognized quote convention")
)

// DiscountCurve is the risk-free discounting input to CDS pricing and
// calibration. *curve.DiscountFactors satisfies it.
type DiscountCurve interface {
	Currency() string
	DayCount() string
	ValuationDate() time.Time
	DiscountFactor(date time.Time) float64
	DiscountFactorAt(t float64) float64
	NodeTimes() []float64
}

// RecoveryRates supplies the assumed recovery of par on default.
type RecoveryRates interface {
	RecoveryRate(date time.Time) float64
}

// ConstantRecovery is the usual fixed recovery assumption.
type ConstantRecovery float64

// RecoveryRate returns the constant rate regardless of date.
func (r ConstantRecovery) RecoveryRate(time.Time) float64 { return float64(r) }

// LegalEntitySurvivalProbabilities is a calibrated credit curve for one
// reference entity in one currency.
type LegalEntitySurvivalProbabilities struct {
	legalEntityID string
	currency      string
	curve         *curve.NodalCurve
}

// NewLegalEntitySurvivalProbabilities wraps a calibrated hazard curve.
func NewLegalEntitySurvivalProbabilities(legalEntityID, currency string, c *curve.NodalCurve) LegalEntitySurvivalProbabilities {
	return LegalEntitySurvivalProbabilities{legalEntityID: legalEntityID, currency: currency, curve: c}
}

// LegalEntityID returns the reference entity identifier.
func (s LegalEntitySurvivalProbabilities) LegalEntityID() string { return s.legalEntityID }

// Currency returns the currency the curve was calibrated in.
func (s LegalEntitySurvivalProbabilities) Currency() string { return s.currency }

// Curve returns the underlying hazard curve.
func (s LegalEntitySurvivalProbabilities) Curve() *curve.NodalCurve { return s.curve }

// ValuationDate returns the curve anchor date.
func (s LegalEntitySurvivalProbabilities) ValuationDate() time.Time { return s.curve.Base() }

// SurvivalProbability returns the probability of no default before date.
func (s LegalEntitySurvivalProbabilities) SurvivalProbability(date time.Time) float64 {
	return s.curve.DiscountAt(s.curve.TimeOf(date))
}

// SurvivalProbabilityAt returns the probability of no default before curve
// time t.
func (s LegalEntitySurvivalProbabilities) SurvivalProbabilityAt(t float64) float64 {
	return s.curve.DiscountAt(t)
}
