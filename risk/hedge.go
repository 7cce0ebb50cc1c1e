package risk

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// HedgeRatios solves for the amounts of each hedge instrument that offset
// the target instrument's curve sensitivities, so that
// target − Σ ratio·hedge is insensitive to small curve moves.
//
// target holds one entry per curve knot; hedges holds one sensitivity
// vector per hedge instrument over the same knots. A square system is
// solved exactly by LU decomposition. With fewer hedges than knots the
// normal equations AᵀA x = Aᵀb give the least-squares hedge, and an exact
// hedge is not guaranteed. With more hedges than knots no unique hedge
// exists and ErrUnderDetermined is returned.
//
// Callers scale the ratios by -notional to obtain hedge notionals.
func HedgeRatios(target []float64, hedges [][]float64) ([]float64, error) {
	n := len(target)
	m := len(hedges)
	if n == 0 {
		return nil, fmt.Errorf("HedgeRatios: target has no sensitivities")
	}
	if m == 0 {
		return nil, fmt.Errorf("HedgeRatios: no hedge instruments")
	}
	if m > n {
		return nil, fmt.Errorf("HedgeRatios: %d hedges against %d knots: %w", m, n, ErrUnderDetermined)
	}
	for j, h := range hedges {
		if len(h) != n {
			return nil, fmt.Errorf("HedgeRatios: hedge %d has %d sensitivities, want %d", j, len(h), n)
		}
	}

	// Knot × instrument layout: column j is hedge j's sensitivity vector.
	a := mat.NewDense(n, m, nil)
	for j, h := range hedges {
		for i, v := range h {
			a.Set(i, j, v)
		}
	}
	b := mat.NewVecDense(n, append([]float64(nil), target...))

	var x mat.VecDense
	var lu mat.LU
	if m == n {
		lu.Factorize(a)
		if err := lu.SolveVecTo(&x, false, b); err != nil {
			return nil, fmt.Errorf("HedgeRatios: singular hedge system: %w", err)
		}
	} else {
		var ata mat.Dense
		ata.Mul(a.T(), a)
		var atb mat.VecDense
		atb.MulVec(a.T(), b)
		lu.Factorize(&ata)
		if err := lu.SolveVecTo(&x, false, &atb); err != nil {
			return nil, fmt.Errorf("HedgeRatios: degenerate hedge sensitivities: %w", err)
		}
	}

	out := make([]float64, m)
	for j := range out {
		out[j] = x.AtVec(j)
	}
	return out, nil
}

// HedgeRatiosFor solves hedge ratios from named sensitivities, requiring
// the target and every hedge to reference the same curve.
func HedgeRatiosFor(target ParameterSensitivity, hedges []ParameterSensitivity) ([]float64, error) {
	rows := make([][]float64, len(hedges))
	for j, h := range hedges {
		if h.CurveName != target.CurveName {
			return nil, fmt.Errorf("HedgeRatiosFor: hedge %d references curve %q, target references %q",
				j, h.CurveName, target.CurveName)
		}
		rows[j] = h.Values
	}
	return HedgeRatios(target.Values, rows)
}
