// Package rates bootstraps zero-coupon discount curves from money-market
// deposits and par swap quotes.
//
// Nodes are solved one at a time, shortest maturity first. Deposits pin
// their knot in closed form; each swap knot is solved by Newton-Raphson with
// the derivative taken analytically through the curve interpolation, so the
// working curve only ever extends by one knot at a time.
package rates

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/curvelib/calendar"
	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/solver"
	"github.com/meenmo/curvelib/utils"
)

const (
	// Stub periods shorter than this are folded into their neighbor when
	// rolling swap schedules back from maturity.
	stubToleranceDays = 7

	jacobianBump = 1e-6
)

// Options controls optional bootstrap outputs.
type Options struct {
	// ComputeJacobian attaches the inverse quote-by-parameter sensitivity
	// matrix to the calibrated curve for later quote-space risk transforms.
	ComputeJacobian bool
}

// Bootstrapper calibrates discount curves. The zero value uses the default
// root finder.
type Bootstrapper struct {
	Finder solver.RootFinder
}

// Bootstrap solves the curve defined by def through the quoted nodes, in
// order of maturity. The returned discount factors are anchored at the
// nodes' spot date; when that is later than the valuation date the curve is
// re-anchored after solving.
func (b Bootstrapper) Bootstrap(def CurveDefinition, nodes []NodeDefinition, valuation time.Time, opts Options) (*curve.DiscountFactors, error) {
	rf := b.Finder
	if rf.MaxIterations == 0 {
		rf = solver.Default
	}

	if len(nodes) == 0 {
		return nil, fmt.Errorf("Bootstrap: curve %q has no nodes", def.Name)
	}
	spotLag := nodes[0].NodeSpotLag()
	for _, nd := range nodes {
		if nd.NodeCurrency() != def.Currency {
			return nil, fmt.Errorf("Bootstrap: node %q currency %q does not match curve currency %q",
				nd.NodeLabel(), nd.NodeCurrency(), def.Currency)
		}
		if nd.NodeSpotLag() != spotLag {
			return nil, fmt.Errorf("Bootstrap: node %q spot lag %d differs from %d",
				nd.NodeLabel(), nd.NodeSpotLag(), spotLag)
		}
	}

	resolved, err := resolveNodes(def, nodes, valuation)
	if err != nil {
		return nil, err
	}

	meta := make([]curve.Node, len(resolved))
	for i, r := range resolved {
		if r.time <= 0 {
			return nil, fmt.Errorf("Bootstrap: node %q matures at or before the valuation date", r.label)
		}
		if i > 0 && r.time <= resolved[i-1].time {
			return nil, fmt.Errorf("Bootstrap: node %q maturity does not extend the curve (t=%v after t=%v)",
				r.label, r.time, resolved[i-1].time)
		}
		meta[i] = curve.Node{Time: r.time, Label: r.label, Date: r.maturity}
	}

	values := make([]float64, len(resolved))
	for i, r := range resolved {
		if r.deposit {
			values[i] = math.Log1p(r.rate*r.accrual) / r.time
			continue
		}

		guess := r.rate
		if i > 0 {
			guess = values[i-1]
		}
		vals := make([]float64, i+1)
		copy(vals, values[:i])
		vals[i] = guess
		working, err := curve.New(def.Name, valuation, def.DayCount, meta[:i+1], vals)
		if err != nil {
			return nil, fmt.Errorf("Bootstrap: node %q: %w", r.label, err)
		}

		x, err := solveSwapKnot(rf, working, i, r)
		if err != nil {
			return nil, fmt.Errorf("Bootstrap: node %q: %w", r.label, err)
		}
		values[i] = x
	}

	solved, err := curve.New(def.Name, valuation, def.DayCount, meta, values)
	if err != nil {
		return nil, fmt.Errorf("Bootstrap: %w", err)
	}

	var jac *curve.CalibrationJacobian
	if opts.ComputeJacobian {
		jac, err = quoteJacobian(def, resolved, solved)
		if err != nil {
			return nil, err
		}
	}

	result := solved
	spot := calendar.AddBusinessDays(def.Calendar, valuation, spotLag)
	if !spot.Equal(valuation) {
		shift := utils.YearFraction(valuation, spot, def.DayCount)
		result, err = solved.ShiftedBy(shift, spot)
		if err != nil {
			return nil, fmt.Errorf("Bootstrap: re-anchor at spot: %w", err)
		}
		if jac != nil {
			jac, err = shiftJacobian(jac, solved, shift)
			if err != nil {
				return nil, fmt.Errorf("Bootstrap: re-anchor at spot: %w", err)
			}
		}
	}
	if jac != nil {
		result = result.WithJacobian(jac)
	}
	return curve.NewDiscountFactors(def.Currency, result), nil
}

// shiftJacobian re-expresses an inverse quote jacobian in the parameters of
// the curve re-anchored shift later. A knot surviving at original time t
// carries y' = (y*t - p(shift))/(t - shift), so each row mixes in the quote
// derivatives of p(shift) through every original parameter; rows for knots
// the shift interpolates away are dropped with them.
func shiftJacobian(jac *curve.CalibrationJacobian, solved *curve.NodalCurve, shift float64) (*curve.CalibrationJacobian, error) {
	times := solved.NodeTimes()
	quotes := jac.TotalQuotes()
	m := jac.Matrix()

	dps := make([]float64, quotes)
	for k := range times {
		w := shift * solved.ParameterGradient(shift, k)
		if w == 0 {
			continue
		}
		for j := 0; j < quotes; j++ {
			dps[j] += w * m.At(k, j)
		}
	}

	surviving := 0
	for _, t := range times {
		if t > shift {
			surviving++
		}
	}
	out := mat.NewDense(surviving, quotes, nil)
	row := 0
	for i, t := range times {
		if t <= shift {
			continue
		}
		for j := 0; j < quotes; j++ {
			out.Set(row, j, (t*m.At(i, j)-dps[j])/(t-shift))
		}
		row++
	}
	return curve.NewCalibrationJacobian(jac.Blocks(), out)
}

// solveSwapKnot finds the zero rate at knot i that reprices the swap to par.
// Cashflows paying at or before the previous knot do not depend on the
// unknown, so their PV is computed once up front; if the carried-over guess
// already reprices the node within tolerance the solve is skipped.
func solveSwapKnot(rf solver.RootFinder, working *curve.NodalCurve, i int, r bootNode) (float64, error) {
	prevTime := 0.0
	if i > 0 {
		prevTime = working.NodeTimes()[i-1]
	}

	headPV := 0.0
	var tail []periodTime
	for _, p := range r.periods {
		if p.t <= prevTime {
			headPV += p.accrual * working.DiscountAt(p.t)
			continue
		}
		tail = append(tail, p)
	}
	last := r.periods[len(r.periods)-1]

	fdf := func(x float64) (float64, float64) {
		cur := working.WithValue(i, x)
		annuity := headPV
		dAnnuity := 0.0
		for _, p := range tail {
			df := cur.DiscountAt(p.t)
			g := cur.ParameterGradient(p.t, i)
			annuity += p.accrual * df
			dAnnuity += p.accrual * (-p.t * g * df)
		}
		dfLast := cur.DiscountAt(last.t)
		dDfLast := -last.t * cur.ParameterGradient(last.t, i) * dfLast

		f := r.rate*annuity + dfLast - 1.0
		return f, r.rate*dAnnuity + dDfLast
	}

	guess := working.Value(i)
	if f0, _ := fdf(guess); math.Abs(f0) < rf.Tolerance {
		return guess, nil
	}
	return rf.Newton(fdf, guess)
}

// quoteMeasure reprices a node's market quote off the curve: the implied
// simple rate for deposits, the par fixed rate for swaps.
func quoteMeasure(r bootNode, c *curve.NodalCurve) float64 {
	if r.deposit {
		return (1.0/c.DiscountAt(r.time) - 1.0) / r.accrual
	}
	annuity := 0.0
	for _, p := range r.periods {
		annuity += p.accrual * c.DiscountAt(p.t)
	}
	last := r.periods[len(r.periods)-1]
	return (1.0 - c.DiscountAt(last.t)) / annuity
}

// quoteJacobian builds the inverse of the quote-by-parameter sensitivity
// matrix by central finite differences over cheap single-knot bumps.
func quoteJacobian(def CurveDefinition, resolved []bootNode, c *curve.NodalCurve) (*curve.CalibrationJacobian, error) {
	n := c.NodeCount()
	s := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		up := c.WithValue(j, c.Value(j)+jacobianBump)
		dn := c.WithValue(j, c.Value(j)-jacobianBump)
		for i, r := range resolved {
			s.Set(i, j, (quoteMeasure(r, up)-quoteMeasure(r, dn))/(2*jacobianBump))
		}
	}

	var inv mat.Dense
	if err := inv.Inverse(s); err != nil {
		return nil, fmt.Errorf("Bootstrap: quote jacobian for curve %q is singular: %w", def.Name, err)
	}
	return curve.NewCalibrationJacobian([]curve.CurveBlock{{Name: def.Name, ParameterCount: n}}, &inv)
}

// bootNode is a node definition resolved onto concrete dates and curve times.
type bootNode struct {
	label    string
	rate     float64
	time     float64
	maturity time.Time
	deposit  bool
	accrual  float64      // deposit accrual fraction
	periods  []periodTime // swap fixed periods
}

type periodTime struct {
	t       float64
	accrual float64
}

func resolveNodes(def CurveDefinition, nodes []NodeDefinition, valuation time.Time) ([]bootNode, error) {
	out := make([]bootNode, 0, len(nodes))
	for _, nd := range nodes {
		switch n := nd.(type) {
		case DepositDefinition:
			r, err := resolveDeposit(def, n, valuation)
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		case SwapDefinition:
			r, err := resolveSwap(def, n, valuation)
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		default:
			return nil, fmt.Errorf("Bootstrap: node %q has unsupported type %T", nd.NodeLabel(), nd)
		}
	}
	return out, nil
}

func resolveDeposit(def CurveDefinition, d DepositDefinition, valuation time.Time) (bootNode, error) {
	spot := calendar.AddBusinessDays(d.Calendar, valuation, d.SpotLagDays)
	end, err := utils.AddTenor(spot, d.Tenor)
	if err != nil {
		return bootNode{}, fmt.Errorf("Bootstrap: node %q: %w", d.Label, err)
	}
	end = calendar.Adjust(d.Calendar, end)

	return bootNode{
		label:    d.Label,
		rate:     d.Rate,
		time:     utils.YearFraction(valuation, end, def.DayCount),
		maturity: end,
		deposit:  true,
		accrual:  utils.YearFraction(spot, end, d.DayCount),
	}, nil
}

func resolveSwap(def CurveDefinition, s SwapDefinition, valuation time.Time) (bootNode, error) {
	if s.FixedFreqMonths <= 0 {
		return bootNode{}, fmt.Errorf("Bootstrap: node %q: unsupported fixed frequency %d", s.Label, s.FixedFreqMonths)
	}
	spot := calendar.AddBusinessDays(s.Calendar, valuation, s.SpotLagDays)
	maturity, err := utils.AddTenor(spot, s.Tenor)
	if err != nil {
		return bootNode{}, fmt.Errorf("Bootstrap: node %q: %w", s.Label, err)
	}

	// Roll unadjusted dates back from maturity so intermediate dates align
	// with it; a sub-week front stub is folded into the first period.
	var unadjusted []time.Time
	for cur := maturity; cur.After(spot); cur = utils.AddMonth(cur, -s.FixedFreqMonths) {
		unadjusted = append([]time.Time{cur}, unadjusted...)
	}
	if len(unadjusted) == 0 {
		return bootNode{}, fmt.Errorf("Bootstrap: node %q: maturity %s not after spot %s",
			s.Label, maturity.Format("2006-01-02"), spot.Format("2006-01-02"))
	}
	if len(unadjusted) > 1 && utils.Days(spot, unadjusted[0]) <= stubToleranceDays {
		unadjusted = unadjusted[1:]
	}
	unadjusted = append([]time.Time{spot}, unadjusted...)

	periods := make([]periodTime, 0, len(unadjusted)-1)
	var lastPay time.Time
	for i := 0; i < len(unadjusted)-1; i++ {
		start := calendar.Adjust(s.Calendar, unadjusted[i])
		end := calendar.Adjust(s.Calendar, unadjusted[i+1])
		periods = append(periods, periodTime{
			t:       utils.YearFraction(valuation, end, def.DayCount),
			accrual: utils.YearFraction(start, end, s.FixedDayCount),
		})
		lastPay = end
	}

	return bootNode{
		label:    s.Label,
		rate:     s.Rate,
		time:     utils.YearFraction(valuation, lastPay, def.DayCount),
		maturity: lastPay,
		periods:  periods,
	}, nil
}
