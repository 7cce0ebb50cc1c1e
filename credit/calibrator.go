package credit

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/solver"
	"github.com/meenmo/curvelib/utils"
)

// Quote is one CDS market quote in its native convention.
type Quote struct {
	Convention QuoteConvention
	Value      float64
}

// CDSNode is one calibration instrument of a credit curve.
type CDSNode struct {
	Label string
	Tenor string
	Quote Quote
}

// CurveDefinition describes a credit curve to calibrate: the reference
// entity, the contract convention shared by all nodes, and the standard
// running coupon used by quoted-spread and points-upfront quotes.
type CurveDefinition struct {
	Name          string
	LegalEntityID string
	Currency      string
	DayCount      string // maps dates onto curve time
	Coupon        float64
	Convention    Convention
	Nodes         []CDSNode
}

// CalibrationInput is the standardized problem handed to a CalibrateFunc:
// one instrument per knot, each solving for the points upfront of its
// contractual coupon.
type CalibrationInput struct {
	Name          string
	DayCount      string
	ValuationDate time.Time
	Labels        []string // optional, for diagnostics
	Instruments   []CDS
	PointsUpfront []float64
	Discount      DiscountCurve
	Recovery      RecoveryRates
	Handling      ArbitrageHandling
	Formula       AccrualOnDefault
	Finder        solver.RootFinder
}

// CalibrateFunc turns a standardized calibration input into a hazard curve.
// BootstrapCreditCurve is the default; alternatives can be swapped in for
// experimentation without touching quote handling.
type CalibrateFunc func(CalibrationInput) (*curve.NodalCurve, error)

// Calibrator drives credit-curve calibration.
type Calibrator struct {
	Finder   solver.RootFinder
	Handling ArbitrageHandling
	Formula  AccrualOnDefault
	Build    CalibrateFunc // nil uses BootstrapCreditCurve
}

// NewCalibrator returns a Calibrator with the standard settings: default
// root finder, arbitrage ignored, midpoint accrual-on-default.
func NewCalibrator() Calibrator {
	return Calibrator{
		Finder:   solver.Default,
		Handling: ArbitrageIgnore,
		Formula:  AccruedMidpoint,
	}
}

// Options controls optional calibration outputs.
type Options struct {
	// ComputeJacobian attaches the inverse quote-by-parameter sensitivity
	// matrix to the calibrated curve.
	ComputeJacobian bool
}

type standardizedNode struct {
	label    string
	cds      CDS // carries the solving coupon
	puf      float64
	scale    float64
	lgd      float64
	time     float64
	maturity time.Time
}

// Calibrate solves the survival curve defined by def against the given
// discounting and recovery assumptions.
func (cal Calibrator) Calibrate(def CurveDefinition, disc DiscountCurve, rec RecoveryRates, valuation time.Time, opts Options) (LegalEntitySurvivalProbabilities, error) {
	var zero LegalEntitySurvivalProbabilities

	if disc == nil {
		return zero, fmt.Errorf("Calibrate: curve %q: %w", def.Name, ErrNilCurve)
	}
	if len(def.Nodes) == 0 {
		return zero, fmt.Errorf("Calibrate: curve %q has no nodes", def.Name)
	}
	if def.Currency != disc.Currency() {
		return zero, fmt.Errorf("Calibrate: curve %q currency %q does not match discount currency %q",
			def.Name, def.Currency, disc.Currency())
	}
	if def.Convention.Currency != def.Currency {
		return zero, fmt.Errorf("Calibrate: curve %q convention currency %q does not match curve currency %q",
			def.Name, def.Convention.Currency, def.Currency)
	}
	if def.DayCount != disc.DayCount() {
		return zero, fmt.Errorf("Calibrate: curve %q day count %q does not match discount day count %q",
			def.Name, def.DayCount, disc.DayCount())
	}
	if !disc.ValuationDate().Equal(valuation) {
		return zero, fmt.Errorf("Calibrate: curve %q valuation %s does not match discount curve anchor %s",
			def.Name, valuation.Format("2006-01-02"), disc.ValuationDate().Format("2006-01-02"))
	}

	convention := def.Nodes[0].Quote.Convention
	for _, nd := range def.Nodes {
		if nd.Quote.Convention != convention {
			return zero, fmt.Errorf("Calibrate: curve %q node %q convention %q differs from %q",
				def.Name, nd.Label, nd.Quote.Convention, convention)
		}
	}
	switch convention {
	case QuoteParSpread, QuoteQuotedSpread, QuotePointsUpfront:
	default:
		return zero, fmt.Errorf("Calibrate: curve %q node %q: %w: %q",
			def.Name, def.Nodes[0].Label, ErrUnknownConvention, convention)
	}

	rf := cal.Finder
	if rf.MaxIterations == 0 {
		rf = solver.Default
	}
	build := cal.Build
	if build == nil {
		build = BootstrapCreditCurve
	}

	std := make([]standardizedNode, len(def.Nodes))
	for i, nd := range def.Nodes {
		s, err := cal.standardizeNode(def, nd, disc, rec, valuation, rf, build)
		if err != nil {
			return zero, fmt.Errorf("Calibrate: curve %q node %q: %w", def.Name, nd.Label, err)
		}
		if i > 0 && s.time <= std[i-1].time {
			return zero, fmt.Errorf("Calibrate: curve %q node %q does not extend the curve (t=%v after t=%v)",
				def.Name, nd.Label, s.time, std[i-1].time)
		}
		std[i] = s
	}

	in := CalibrationInput{
		Name:          def.Name,
		DayCount:      def.DayCount,
		ValuationDate: valuation,
		Discount:      disc,
		Recovery:      rec,
		Handling:      cal.Handling,
		Formula:       cal.Formula,
		Finder:        rf,
	}
	for _, s := range std {
		in.Labels = append(in.Labels, s.label)
		in.Instruments = append(in.Instruments, s.cds)
		in.PointsUpfront = append(in.PointsUpfront, s.puf)
	}

	solved, err := build(in)
	if err != nil {
		return zero, fmt.Errorf("Calibrate: curve %q: %w", def.Name, err)
	}

	if opts.ComputeJacobian {
		jac, err := quoteJacobian(def.Name, convention, std, disc, solved, cal.Formula)
		if err != nil {
			return zero, fmt.Errorf("Calibrate: curve %q: %w", def.Name, err)
		}
		solved = solved.WithJacobian(jac)
	}

	return NewLegalEntitySurvivalProbabilities(def.LegalEntityID, def.Currency, solved), nil
}

// standardizeNode resolves one node's contract and converts its quote into
// the (coupon, points upfront) pair the bootstrap solves against, plus the
// jacobian row scale for quoted spreads.
func (cal Calibrator) standardizeNode(def CurveDefinition, nd CDSNode, disc DiscountCurve, rec RecoveryRates, valuation time.Time, rf solver.RootFinder, build CalibrateFunc) (standardizedNode, error) {
	coupon := def.Coupon
	if nd.Quote.Convention == QuoteParSpread {
		coupon = nd.Quote.Value
	}
	cds, err := def.Convention.Resolve(valuation, nd.Tenor, def.LegalEntityID, coupon)
	if err != nil {
		return standardizedNode{}, err
	}

	rr := rec.RecoveryRate(cds.Maturity)
	if rr < 0 || rr >= 1 {
		return standardizedNode{}, fmt.Errorf("recovery rate %v outside [0, 1)", rr)
	}

	s := standardizedNode{
		label:    nd.Label,
		cds:      cds,
		scale:    1.0,
		lgd:      1 - rr,
		time:     utils.YearFraction(valuation, cds.Maturity, def.DayCount),
		maturity: cds.Maturity,
	}

	switch nd.Quote.Convention {
	case QuoteParSpread:
		// Par contracts have zero upfront by definition.
	case QuotePointsUpfront:
		s.puf = nd.Quote.Value
	case QuoteQuotedSpread:
		// Calibrate a single-node curve to the quoted spread traded flat,
		// then read off the standard-coupon upfront and the change of
		// measure between spread and upfront on that curve.
		auxCDS := cds
		auxCDS.Coupon = nd.Quote.Value
		aux := CalibrationInput{
			Name:          def.Name + "/" + nd.Label,
			DayCount:      def.DayCount,
			ValuationDate: valuation,
			Labels:        []string{nd.Label},
			Instruments:   []CDS{auxCDS},
			PointsUpfront: []float64{0},
			Discount:      disc,
			Recovery:      rec,
			Handling:      cal.Handling,
			Formula:       cal.Formula,
			Finder:        rf,
		}
		auxCurve, err := build(aux)
		if err != nil {
			return standardizedNode{}, fmt.Errorf("quoted spread conversion: %w", err)
		}

		s.puf = pointsUpfrontFromCurve(disc, auxCurve, cds, s.lgd, cal.Formula)
		sSens, err := parSpreadSensitivities(disc, auxCurve, cds, s.lgd, cal.Formula)
		if err != nil {
			return standardizedNode{}, fmt.Errorf("quoted spread conversion: %w", err)
		}
		pSens := pointsUpfrontSensitivities(disc, auxCurve, cds, s.lgd, cal.Formula)
		if pSens[0] == 0 {
			return standardizedNode{}, fmt.Errorf("quoted spread conversion: upfront insensitive to hazard")
		}
		s.scale = sSens[0] / pSens[0]
	default:
		return standardizedNode{}, fmt.Errorf("%w: %q", ErrUnknownConvention, nd.Quote.Convention)
	}

	return s, nil
}

// BootstrapCreditCurve is the default CalibrateFunc: knots are solved left
// to right, each by bracketing the hazard around the carried-over guess and
// matching the instrument's points upfront.
func BootstrapCreditCurve(in CalibrationInput) (*curve.NodalCurve, error) {
	if in.Discount == nil {
		return nil, fmt.Errorf("BootstrapCreditCurve: %w", ErrNilCurve)
	}
	n := len(in.Instruments)
	if n == 0 {
		return nil, fmt.Errorf("BootstrapCreditCurve: no instruments")
	}
	if len(in.PointsUpfront) != n {
		return nil, fmt.Errorf("BootstrapCreditCurve: %d instruments but %d upfronts", n, len(in.PointsUpfront))
	}

	rf := in.Finder
	if rf.MaxIterations == 0 {
		rf = solver.Default
	}
	handling := in.Handling
	if handling == "" {
		handling = ArbitrageIgnore
	}
	switch handling {
	case ArbitrageIgnore, ArbitrageFail, ArbitrageZeroHazard:
	default:
		return nil, fmt.Errorf("BootstrapCreditCurve: unknown arbitrage handling %q", handling)
	}
	formula := in.Formula
	if formula == "" {
		formula = AccruedMidpoint
	}

	label := func(i int) string {
		if i < len(in.Labels) {
			return in.Labels[i]
		}
		return in.Instruments[i].Maturity.Format("2006-01-02")
	}

	meta := make([]curve.Node, n)
	for i, inst := range in.Instruments {
		t := utils.YearFraction(in.ValuationDate, inst.Maturity, in.DayCount)
		if t <= 0 {
			return nil, fmt.Errorf("BootstrapCreditCurve: instrument %q matures at or before the valuation date", label(i))
		}
		if i > 0 && t <= meta[i-1].Time {
			return nil, fmt.Errorf("BootstrapCreditCurve: instrument %q maturity does not extend the curve", label(i))
		}
		meta[i] = curve.Node{Time: t, Label: label(i), Date: inst.Maturity}
	}

	values := make([]float64, n)
	prevTime, prevValue := 0.0, 0.0
	for i, inst := range in.Instruments {
		lgd := 1 - in.Recovery.RecoveryRate(inst.Maturity)
		if lgd <= 0 {
			return nil, fmt.Errorf("BootstrapCreditCurve: instrument %q has no loss given default", label(i))
		}

		guess := prevValue
		if i == 0 {
			guess = (inst.Coupon + in.PointsUpfront[i]/meta[i].Time) / lgd
			if guess < 1e-4 {
				guess = 1e-4
			}
		}

		vals := make([]float64, i+1)
		copy(vals, values[:i])
		vals[i] = guess
		working, err := curve.New(in.Name, in.ValuationDate, in.DayCount, meta[:i+1], vals)
		if err != nil {
			return nil, fmt.Errorf("BootstrapCreditCurve: instrument %q: %w", label(i), err)
		}

		target := in.PointsUpfront[i]
		g := func(x float64) float64 {
			return pointsUpfrontFromCurve(in.Discount, working.WithValue(i, x), inst, lgd, formula) - target
		}
		x, err := rf.SolveFrom(g, guess)
		if err != nil {
			return nil, fmt.Errorf("BootstrapCreditCurve: instrument %q: %w", label(i), err)
		}

		x, err = applyArbitrageHandling(handling, prevTime, prevValue, meta[i].Time, x)
		if err != nil {
			return nil, fmt.Errorf("BootstrapCreditCurve: instrument %q: %w", label(i), err)
		}
		values[i] = x
		prevTime, prevValue = meta[i].Time, x
	}

	return curve.New(in.Name, in.ValuationDate, in.DayCount, meta, values)
}

// applyArbitrageHandling enforces the negative-forward-hazard policy on a
// freshly solved knot. prevTime/prevValue are zero for the first knot.
func applyArbitrageHandling(h ArbitrageHandling, prevTime, prevValue, t, solved float64) (float64, error) {
	forward := (solved*t - prevValue*prevTime) / (t - prevTime)
	if forward >= 0 {
		return solved, nil
	}
	switch h {
	case ArbitrageIgnore:
		return solved, nil
	case ArbitrageFail:
		return 0, fmt.Errorf("%w: forward %v over (%v, %v]", ErrArbitrage, forward, prevTime, t)
	case ArbitrageZeroHazard:
		return prevValue * prevTime / t, nil
	default:
		return 0, fmt.Errorf("unknown arbitrage handling %q", h)
	}
}

// quoteJacobian builds the inverse sensitivity matrix of the calibrated
// curve: each instrument's native measure (par spread, or points upfront
// scaled into spread units for quoted-spread curves) differenced against
// each knot.
func quoteJacobian(name string, convention QuoteConvention, std []standardizedNode, disc DiscountCurve, c *curve.NodalCurve, formula AccrualOnDefault) (*curve.CalibrationJacobian, error) {
	n := c.NodeCount()
	m := mat.NewDense(n, n, nil)
	for i, s := range std {
		var row []float64
		if convention == QuoteParSpread {
			var err error
			row, err = parSpreadSensitivities(disc, c, s.cds, s.lgd, formula)
			if err != nil {
				return nil, err
			}
		} else {
			row = pointsUpfrontSensitivities(disc, c, s.cds, s.lgd, formula)
		}
		for j := 0; j < n; j++ {
			m.Set(i, j, s.scale*row[j])
		}
	}

	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return nil, fmt.Errorf("quote jacobian for curve %q is singular: %w", name, err)
	}
	return curve.NewCalibrationJacobian([]curve.CurveBlock{{Name: name, ParameterCount: n}}, &inv)
}
