package credit

import (
	"fmt"
	"math"
	"sort"

	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/utils"
)

const sensBump = 1e-6

// riskyAnnuity returns the premium leg PV per unit coupon, discounted to the
// curve base.
func riskyAnnuity(disc DiscountCurve, sc *curve.NodalCurve, cds CDS, formula AccrualOnDefault) float64 {
	ann := 0.0
	for _, p := range cds.Periods {
		tPay := sc.TimeOf(p.Pay)
		if tPay <= 0 {
			continue
		}
		tEnd := sc.TimeOf(p.End)
		b := disc.DiscountFactorAt(tPay)
		ann += p.Accrual * b * sc.DiscountAt(tEnd)

		if formula == AccruedMidpoint {
			tStart := math.Max(sc.TimeOf(p.Start), 0)
			ann += 0.5 * p.Accrual * b * (sc.DiscountAt(tStart) - sc.DiscountAt(tEnd))
		}
	}
	return ann
}

// protectionPV integrates the default-payment leg per unit notional, before
// loss-given-default. The integrand is piecewise constant-hazard and
// constant-forward between the union of the two curves' knots, where the
// interval contributes h/(h+f) * (B0*Q0 - B1*Q1) in closed form.
func protectionPV(disc DiscountCurve, sc *curve.NodalCurve, cds CDS) float64 {
	start := math.Max(sc.TimeOf(cds.ProtectionStart), 0)
	end := sc.TimeOf(cds.Maturity)
	if end <= start {
		return 0
	}

	grid := unionGrid(start, end, disc.NodeTimes(), sc.NodeTimes())
	pv := 0.0
	for k := 0; k+1 < len(grid); k++ {
		u0, u1 := grid[k], grid[k+1]
		dt := u1 - u0
		b0 := disc.DiscountFactorAt(u0)
		b1 := disc.DiscountFactorAt(u1)
		q0 := sc.DiscountAt(u0)
		q1 := sc.DiscountAt(u1)
		h := math.Log(q0/q1) / dt
		f := math.Log(b0/b1) / dt
		pv += h * dt * b0 * q0 * utils.Expm1Ratio((h+f)*dt)
	}
	return pv
}

func unionGrid(start, end float64, knotSets ...[]float64) []float64 {
	grid := []float64{start}
	for _, ks := range knotSets {
		for _, t := range ks {
			if t > start && t < end {
				grid = append(grid, t)
			}
		}
	}
	grid = append(grid, end)
	sort.Float64s(grid)

	out := grid[:1]
	for _, t := range grid[1:] {
		if t-out[len(out)-1] > 1e-12 {
			out = append(out, t)
		}
	}
	return out
}

func parSpreadFromCurve(disc DiscountCurve, sc *curve.NodalCurve, cds CDS, lgd float64, formula AccrualOnDefault) (float64, error) {
	ann := riskyAnnuity(disc, sc, cds, formula)
	if ann <= 0 {
		return 0, fmt.Errorf("ParSpread: risky annuity %v is not positive for maturity %s",
			ann, cds.Maturity.Format("2006-01-02"))
	}
	return lgd * protectionPV(disc, sc, cds) / ann, nil
}

func pointsUpfrontFromCurve(disc DiscountCurve, sc *curve.NodalCurve, cds CDS, lgd float64, formula AccrualOnDefault) float64 {
	return lgd*protectionPV(disc, sc, cds) - cds.Coupon*riskyAnnuity(disc, sc, cds, formula)
}

// ParSpread returns the running premium that prices the CDS to zero upfront.
func ParSpread(disc DiscountCurve, surv LegalEntitySurvivalProbabilities, cds CDS, rec RecoveryRates, formula AccrualOnDefault) (float64, error) {
	if disc == nil {
		return 0, fmt.Errorf("ParSpread: %w", ErrNilCurve)
	}
	lgd := 1 - rec.RecoveryRate(cds.Maturity)
	return parSpreadFromCurve(disc, surv.Curve(), cds, lgd, formula)
}

// PointsUpfront returns the upfront payment per unit notional a protection
// buyer pays on top of the running coupon. Negative values flow to the
// buyer.
func PointsUpfront(disc DiscountCurve, surv LegalEntitySurvivalProbabilities, cds CDS, rec RecoveryRates, formula AccrualOnDefault) (float64, error) {
	if disc == nil {
		return 0, fmt.Errorf("PointsUpfront: %w", ErrNilCurve)
	}
	lgd := 1 - rec.RecoveryRate(cds.Maturity)
	return pointsUpfrontFromCurve(disc, surv.Curve(), cds, lgd, formula), nil
}

// CleanPrice returns 1 minus points upfront, the clean price per unit
// notional of the quoted contract.
func CleanPrice(disc DiscountCurve, surv LegalEntitySurvivalProbabilities, cds CDS, rec RecoveryRates, formula AccrualOnDefault) (float64, error) {
	puf, err := PointsUpfront(disc, surv, cds, rec, formula)
	if err != nil {
		return 0, err
	}
	return 1 - puf, nil
}

// RiskyAnnuity returns the premium leg PV per unit coupon.
func RiskyAnnuity(disc DiscountCurve, surv LegalEntitySurvivalProbabilities, cds CDS, formula AccrualOnDefault) (float64, error) {
	if disc == nil {
		return 0, fmt.Errorf("RiskyAnnuity: %w", ErrNilCurve)
	}
	return riskyAnnuity(disc, surv.Curve(), cds, formula), nil
}

// ProtectionLegPV returns the protection leg PV per unit notional after
// loss-given-default.
func ProtectionLegPV(disc DiscountCurve, surv LegalEntitySurvivalProbabilities, cds CDS, rec RecoveryRates) (float64, error) {
	if disc == nil {
		return 0, fmt.Errorf("ProtectionLegPV: %w", ErrNilCurve)
	}
	lgd := 1 - rec.RecoveryRate(cds.Maturity)
	return lgd * protectionPV(disc, surv.Curve(), cds), nil
}

// parSpreadSensitivities bumps each knot of the hazard curve and differences
// the instrument's par spread.
func parSpreadSensitivities(disc DiscountCurve, sc *curve.NodalCurve, cds CDS, lgd float64, formula AccrualOnDefault) ([]float64, error) {
	out := make([]float64, sc.NodeCount())
	for j := range out {
		up, err := parSpreadFromCurve(disc, sc.WithValue(j, sc.Value(j)+sensBump), cds, lgd, formula)
		if err != nil {
			return nil, err
		}
		dn, err := parSpreadFromCurve(disc, sc.WithValue(j, sc.Value(j)-sensBump), cds, lgd, formula)
		if err != nil {
			return nil, err
		}
		out[j] = (up - dn) / (2 * sensBump)
	}
	return out, nil
}

// pointsUpfrontSensitivities bumps each knot of the hazard curve and
// differences the instrument's points upfront.
func pointsUpfrontSensitivities(disc DiscountCurve, sc *curve.NodalCurve, cds CDS, lgd float64, formula AccrualOnDefault) []float64 {
	out := make([]float64, sc.NodeCount())
	for j := range out {
		up := pointsUpfrontFromCurve(disc, sc.WithValue(j, sc.Value(j)+sensBump), cds, lgd, formula)
		dn := pointsUpfrontFromCurve(disc, sc.WithValue(j, sc.Value(j)-sensBump), cds, lgd, formula)
		out[j] = (up - dn) / (2 * sensBump)
	}
	return out
}
