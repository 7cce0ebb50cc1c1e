package bond

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/curvelib/solver"
	"github.com/meenmo/curvelib/utils"
)

// YieldInput holds the parameters needed to imply a yield from a bond's
// dirty price.
type YieldInput struct {
	// SettlementDate is the date the price settles.
	SettlementDate time.Time
	// DirtyPrice is the full invoice price, in the same units as the
	// cashflow amounts.
	DirtyPrice float64
	// CouponFrequency is coupons per year (1 = annual, 2 = semi-annual).
	CouponFrequency int
	// Cashflows are the remaining cash flows *after* settlement.
	Cashflows []Cashflow
	// Finder overrides the root-finder controls; the zero value falls back
	// to solver.Default.
	Finder solver.RootFinder
}

// YieldResult is the output of ComputeYield.
type YieldResult struct {
	// Yield is the annualised yield in decimal, compounded at the coupon
	// frequency.
	Yield float64
	// AccruedInterest is the coupon accrued from the previous coupon date
	// to settlement.
	AccruedInterest float64
	// CleanPrice is DirtyPrice minus AccruedInterest.
	CleanPrice float64
}

// initial Newton guess, mid-range for investment-grade paper
const yieldGuess = 0.025

// ComputeYield solves for the yield y such that the dirty-price function
// (ACT/ACT ICMA discounting) equals the observed dirty price.
//
// The solver uses Newton-Raphson with analytic first derivative.
func ComputeYield(in YieldInput) (YieldResult, error) {
	if in.SettlementDate.IsZero() {
		return YieldResult{}, fmt.Errorf("ComputeYield: SettlementDate is required")
	}
	if len(in.Cashflows) == 0 {
		return YieldResult{}, fmt.Errorf("ComputeYield: Cashflows are required")
	}
	if in.CouponFrequency <= 0 {
		return YieldResult{}, fmt.Errorf("ComputeYield: CouponFrequency must be positive")
	}
	if in.DirtyPrice <= 0 {
		return YieldResult{}, fmt.Errorf("ComputeYield: DirtyPrice %v: %w", in.DirtyPrice, ErrPriceOutOfRange)
	}
	if !in.Cashflows[0].Date.After(in.SettlementDate) {
		return YieldResult{}, fmt.Errorf("ComputeYield: first cashflow %s does not follow settlement %s",
			in.Cashflows[0].Date.Format("2006-01-02"), in.SettlementDate.Format("2006-01-02"))
	}

	// Derive previous coupon date: first cashflow minus one coupon period.
	monthsPerPeriod := 12 / in.CouponFrequency
	prevCoupon := utils.AddMonth(in.Cashflows[0].Date, -monthsPerPeriod)

	// Accrued interest: coupon × (days from last coupon to settlement) / (days in period).
	daysAccrued := utils.Days(prevCoupon, in.SettlementDate)
	daysPeriod := utils.Days(prevCoupon, in.Cashflows[0].Date)
	accrued := in.Cashflows[0].Coupon * daysAccrued / daysPeriod

	rf := in.Finder
	if rf.MaxIterations == 0 {
		rf = solver.Default
	}

	freq := float64(in.CouponFrequency)
	t1 := utils.Days(in.SettlementDate, in.Cashflows[0].Date) / daysPeriod
	yield, err := rf.Newton(func(y float64) (float64, float64) {
		price, deriv := dirtyPriceAndDeriv(y, freq, t1, in.Cashflows)
		return price - in.DirtyPrice, deriv
	}, yieldGuess)
	if err != nil {
		return YieldResult{}, fmt.Errorf("ComputeYield: %w", err)
	}

	return YieldResult{
		Yield:           yield,
		AccruedInterest: accrued,
		CleanPrice:      in.DirtyPrice - accrued,
	}, nil
}

// dirtyPriceAndDeriv returns (price, dPrice/dy) using ACT/ACT ICMA.
//
//	t_1  = days(settlement, cf[0]) / days(prevCoupon, cf[0])   (fractional first period)
//	t_k  = t_1 + (k − 1)                                       (coupon-period steps)
//	price = Σ CF_k / (1+y/f)^t_k
//	dP/dy = Σ −t_k · CF_k / (f · (1+y/f)^(t_k+1))
func dirtyPriceAndDeriv(y, freq, t1 float64, cfs []Cashflow) (float64, float64) {
	base := 1 + y/freq

	var price, deriv float64
	for i, cf := range cfs {
		t := t1 + float64(i)
		amt := cf.Amount()
		price += amt / math.Pow(base, t)
		deriv += -t * amt / (freq * math.Pow(base, t+1))
	}

	return price, deriv
}
