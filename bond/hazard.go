package bond

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/meenmo/curvelib/credit"
	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/solver"
	"github.com/meenmo/curvelib/utils"
)

// HazardRateInput holds the parameters needed to imply a flat hazard rate
// from an observed bond price.
type HazardRateInput struct {
	// ValuationDate must equal the discount curve's valuation date.
	ValuationDate time.Time
	// Cashflows are the bond's remaining cash flows, in currency units.
	Cashflows []Cashflow
	// RecoveryRate is the fraction of principal recovered at default.
	RecoveryRate float64
	// Discount supplies risk-free discount factors.
	Discount credit.DiscountCurve
	// DirtyPrice is the observed full price, in the same units as the
	// cashflow amounts.
	DirtyPrice float64
	// Finder overrides the root-finder controls; the zero value falls back
	// to solver.Default.
	Finder solver.RootFinder
}

// hazardGuessFloor keeps the initial bracket away from zero when the
// observed price sits only a hair below the risk-free value.
const hazardGuessFloor = 1e-4

// riskyBond is a bond schedule reduced to curve coordinates: cashflow
// times and amounts after valuation, the recovery base, and the
// default-leg integration grid.
type riskyBond struct {
	times     []float64
	amounts   []float64
	principal float64
	grid      []float64
}

func resolveRiskyBond(in HazardRateInput) (riskyBond, error) {
	dc := in.Discount.DayCount()

	var rb riskyBond
	maturity := 0.0
	for _, cf := range in.Cashflows {
		t := utils.YearFraction(in.ValuationDate, cf.Date, dc)
		if t <= 0 {
			continue
		}
		rb.times = append(rb.times, t)
		rb.amounts = append(rb.amounts, cf.Amount())
		rb.principal += cf.Principal
		if t > maturity {
			maturity = t
		}
	}
	if len(rb.times) == 0 {
		return riskyBond{}, fmt.Errorf("no cashflows after valuation date %s",
			in.ValuationDate.Format("2006-01-02"))
	}

	rb.grid = defaultLegGrid(maturity, in.Discount.NodeTimes())
	return rb, nil
}

// defaultLegGrid splits [0, maturity] at the discount curve's knots, where
// the piecewise-constant forward rate changes.
func defaultLegGrid(maturity float64, discKnots []float64) []float64 {
	grid := []float64{0, maturity}
	for _, t := range discKnots {
		if t > 0 && t < maturity {
			grid = append(grid, t)
		}
	}
	sort.Float64s(grid)

	out := grid[:1]
	for _, t := range grid[1:] {
		if t-out[len(out)-1] > 1e-12 {
			out = append(out, t)
		}
	}
	return out
}

// riskyPriceAt values the bond under a flat hazard rate: each cashflow is
// discounted and survival-weighted, and recovery of principal is paid at
// default.
func riskyPriceAt(rb riskyBond, disc credit.DiscountCurve, recovery, lambda float64) float64 {
	pv := 0.0
	for i, t := range rb.times {
		pv += rb.amounts[i] * disc.DiscountFactorAt(t) * math.Exp(-lambda*t)
	}
	if recoveryAmount := recovery * rb.principal; recoveryAmount > 0 {
		pv += recoveryAmount * defaultLegPV(rb.grid, disc, lambda)
	}
	return pv
}

// defaultLegPV is the expected discounted value of one unit paid at
// default before the end of the grid. Per interval the closed form is
// λ·Δ·B(t0)·Q(t0)·(1−e^(−(λ+f)Δ))/((λ+f)Δ); the last factor goes through
// utils.Expm1Ratio so intervals where hazard and forward rate sum near
// zero do not cancel.
func defaultLegPV(grid []float64, disc credit.DiscountCurve, lambda float64) float64 {
	total := 0.0
	for i := 0; i+1 < len(grid); i++ {
		t0, t1 := grid[i], grid[i+1]
		dt := t1 - t0
		b0 := disc.DiscountFactorAt(t0)
		b1 := disc.DiscountFactorAt(t1)
		fwd := math.Log(b0/b1) / dt
		q0 := math.Exp(-lambda * t0)
		total += lambda * dt * b0 * q0 * utils.Expm1Ratio((lambda+fwd)*dt)
	}
	return total
}

// RiskyPrice values the bond's remaining cashflows under a flat hazard
// rate lambda, with recovery of principal paid at default.
func RiskyPrice(in HazardRateInput, lambda float64) (float64, error) {
	if in.Discount == nil {
		return 0, fmt.Errorf("RiskyPrice: %w", credit.ErrNilCurve)
	}
	if len(in.Cashflows) == 0 {
		return 0, fmt.Errorf("RiskyPrice: Cashflows are required")
	}
	if in.RecoveryRate < 0 || in.RecoveryRate >= 1 {
		return 0, fmt.Errorf("RiskyPrice: recovery rate %v outside [0, 1)", in.RecoveryRate)
	}
	if !in.ValuationDate.Equal(in.Discount.ValuationDate()) {
		return 0, fmt.Errorf("RiskyPrice: valuation date %s does not match discount curve date %s",
			in.ValuationDate.Format("2006-01-02"), in.Discount.ValuationDate().Format("2006-01-02"))
	}

	rb, err := resolveRiskyBond(in)
	if err != nil {
		return 0, fmt.Errorf("RiskyPrice: %w", err)
	}
	return riskyPriceAt(rb, in.Discount, in.RecoveryRate, lambda), nil
}

// ImpliedHazardRate solves for the flat hazard rate at which the bond's
// risky value equals its observed dirty price.
//
// The price must lie strictly between the recovery floor (the value as the
// hazard rate grows without bound) and the risk-free value (the value at
// zero hazard); a price outside that band returns ErrPriceOutOfRange.
func ImpliedHazardRate(in HazardRateInput) (float64, error) {
	if in.Discount == nil {
		return 0, fmt.Errorf("ImpliedHazardRate: %w", credit.ErrNilCurve)
	}
	if len(in.Cashflows) == 0 {
		return 0, fmt.Errorf("ImpliedHazardRate: Cashflows are required")
	}
	if in.RecoveryRate < 0 || in.RecoveryRate >= 1 {
		return 0, fmt.Errorf("ImpliedHazardRate: recovery rate %v outside [0, 1)", in.RecoveryRate)
	}
	if !in.ValuationDate.Equal(in.Discount.ValuationDate()) {
		return 0, fmt.Errorf("ImpliedHazardRate: valuation date %s does not match discount curve date %s",
			in.ValuationDate.Format("2006-01-02"), in.Discount.ValuationDate().Format("2006-01-02"))
	}
	if in.DirtyPrice <= 0 {
		return 0, fmt.Errorf("ImpliedHazardRate: DirtyPrice %v: %w", in.DirtyPrice, ErrPriceOutOfRange)
	}

	rb, err := resolveRiskyBond(in)
	if err != nil {
		return 0, fmt.Errorf("ImpliedHazardRate: %w", err)
	}

	riskFree := 0.0
	for i, t := range rb.times {
		riskFree += rb.amounts[i] * in.Discount.DiscountFactorAt(t)
	}
	floor := in.RecoveryRate * rb.principal
	if in.DirtyPrice >= riskFree {
		return 0, fmt.Errorf("ImpliedHazardRate: price %v at or above risk-free value %v: %w",
			in.DirtyPrice, riskFree, ErrPriceOutOfRange)
	}
	if in.DirtyPrice <= floor {
		return 0, fmt.Errorf("ImpliedHazardRate: price %v at or below recovery floor %v: %w",
			in.DirtyPrice, floor, ErrPriceOutOfRange)
	}

	rf := in.Finder
	if rf.MaxIterations == 0 {
		rf = solver.Default
	}

	// First-order guess: the price discount relative to risk-free, spread
	// over the remaining life and the loss fraction.
	maturity := rb.grid[len(rb.grid)-1]
	guess := -math.Log(in.DirtyPrice/riskFree) / (maturity * (1 - in.RecoveryRate))
	if guess < hazardGuessFloor {
		guess = hazardGuessFloor
	}

	lambda, err := rf.SolveFrom(func(l float64) float64 {
		return riskyPriceAt(rb, in.Discount, in.RecoveryRate, l) - in.DirtyPrice
	}, guess)
	if err != nil {
		return 0, fmt.Errorf("ImpliedHazardRate: %w", err)
	}
	return lambda, nil
}

// EquivalentCDSSpread maps a flat hazard rate to the par spread of a CDS
// maturing with the bond, priced off the same discount curve. An empty
// formula defaults to credit.AccruedMidpoint.
func EquivalentCDSSpread(lambda, recovery float64, maturity time.Time, disc credit.DiscountCurve, conv credit.Convention, formula credit.AccrualOnDefault) (float64, error) {
	if disc == nil {
		return 0, fmt.Errorf("EquivalentCDSSpread: %w", credit.ErrNilCurve)
	}
	if recovery < 0 || recovery >= 1 {
		return 0, fmt.Errorf("EquivalentCDSSpread: recovery rate %v outside [0, 1)", recovery)
	}
	valuation := disc.ValuationDate()
	t := utils.YearFraction(valuation, maturity, disc.DayCount())
	if t <= 0 {
		return 0, fmt.Errorf("EquivalentCDSSpread: maturity %s not after valuation %s",
			maturity.Format("2006-01-02"), valuation.Format("2006-01-02"))
	}

	flat, err := curve.New("bond-implied", valuation, disc.DayCount(),
		[]curve.Node{{Time: t, Label: "flat", Date: maturity}}, []float64{lambda})
	if err != nil {
		return 0, fmt.Errorf("EquivalentCDSSpread: %w", err)
	}
	surv := credit.NewLegalEntitySurvivalProbabilities("bond-implied", disc.Currency(), flat)

	cds, err := conv.ResolveToDate(valuation, maturity, surv.LegalEntityID(), 0)
	if err != nil {
		return 0, fmt.Errorf("EquivalentCDSSpread: %w", err)
	}
	if formula == "" {
		formula = credit.AccruedMidpoint
	}

	spread, err := credit.ParSpread(disc, surv, cds, credit.ConstantRecovery(recovery), formula)
	if err != nil {
		return 0, fmt.Errorf("EquivalentCDSSpread: %w", err)
	}
	return spread, nil
}
