package credit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/curvelib/curve"
)

func parSpreadDefinition(nodes ...CDSNode) CurveDefinition {
	return CurveDefinition{
		Name:          "ACME-CDS",
		LegalEntityID: "ACME",
		Currency:      "USD",
		DayCount:      "ACT/365F",
		Coupon:        0.01,
		Convention:    testConvention(),
		Nodes:         nodes,
	}
}

func parNode(label, tenor string, spread float64) CDSNode {
	return CDSNode{Label: label, Tenor: tenor, Quote: Quote{Convention: QuoteParSpread, Value: spread}}
}

func TestCalibrateSingleNodeRepricesParSpread(t *testing.T) {
	t.Parallel()

	disc := flatDiscount(t, 0.01)
	rec := ConstantRecovery(0.4)
	def := parSpreadDefinition(parNode("5Y", "5Y", 0.01))

	surv, err := NewCalibrator().Calibrate(def, disc, rec, asOf, Options{})
	require.NoError(t, err)

	assert.Equal(t, "ACME", surv.LegalEntityID())
	assert.Equal(t, "USD", surv.Currency())
	require.Equal(t, 1, surv.Curve().NodeCount())

	cds, err := def.Convention.Resolve(asOf, "5Y", "ACME", 0.01)
	require.NoError(t, err)
	spread, err := ParSpread(disc, surv, cds, rec, AccruedMidpoint)
	require.NoError(t, err)
	assert.InDelta(t, 0.01, spread, 1e-10)
}

func TestCalibrateMultiNodeRepricing(t *testing.T) {
	t.Parallel()

	disc := flatDiscount(t, 0.01)
	rec := ConstantRecovery(0.4)
	quotes := []struct {
		label, tenor string
		spread       float64
	}{
		{"1Y", "1Y", 0.005},
		{"3Y", "3Y", 0.008},
		{"5Y", "5Y", 0.012},
	}
	def := parSpreadDefinition(
		parNode(quotes[0].label, quotes[0].tenor, quotes[0].spread),
		parNode(quotes[1].label, quotes[1].tenor, quotes[1].spread),
		parNode(quotes[2].label, quotes[2].tenor, quotes[2].spread),
	)

	surv, err := NewCalibrator().Calibrate(def, disc, rec, asOf, Options{})
	require.NoError(t, err)
	require.Equal(t, 3, surv.Curve().NodeCount())

	for _, q := range quotes {
		cds, err := def.Convention.Resolve(asOf, q.tenor, "ACME", q.spread)
		require.NoError(t, err)
		spread, err := ParSpread(disc, surv, cds, rec, AccruedMidpoint)
		require.NoError(t, err)
		assert.InDelta(t, q.spread, spread, 1e-10, "node %s", q.label)
	}

	// Survival probabilities at the knots must decrease strictly.
	prev := 1.0
	for _, nd := range surv.Curve().Nodes() {
		p := surv.SurvivalProbabilityAt(nd.Time)
		assert.Less(t, p, prev, "survival must fall at %s", nd.Label)
		assert.Greater(t, p, 0.0)
		prev = p
	}
}

func TestQuotedSpreadMatchesParSpreadSingleNode(t *testing.T) {
	t.Parallel()

	disc := flatDiscount(t, 0.01)
	rec := ConstantRecovery(0.4)

	parDef := parSpreadDefinition(parNode("5Y", "5Y", 0.01))
	qsDef := parSpreadDefinition(CDSNode{
		Label: "5Y", Tenor: "5Y",
		Quote: Quote{Convention: QuoteQuotedSpread, Value: 0.01},
	})

	parSurv, err := NewCalibrator().Calibrate(parDef, disc, rec, asOf, Options{})
	require.NoError(t, err)
	qsSurv, err := NewCalibrator().Calibrate(qsDef, disc, rec, asOf, Options{})
	require.NoError(t, err)

	// With one node, a quoted spread at the standard coupon pins the same
	// flat hazard as a par spread of the same value.
	assert.InDelta(t, parSurv.Curve().Value(0), qsSurv.Curve().Value(0), 1e-9)
}

func TestPointsUpfrontRoundTrip(t *testing.T) {
	t.Parallel()

	disc := flatDiscount(t, 0.01)
	rec := ConstantRecovery(0.4)

	parDef := parSpreadDefinition(
		parNode("1Y", "1Y", 0.005),
		parNode("3Y", "3Y", 0.008),
		parNode("5Y", "5Y", 0.012),
	)
	parSurv, err := NewCalibrator().Calibrate(parDef, disc, rec, asOf, Options{})
	require.NoError(t, err)

	// Quote the same curve as standard-coupon points upfront and calibrate
	// again: the knots must come back.
	pufDef := parSpreadDefinition()
	for _, nd := range parDef.Nodes {
		cds, err := parDef.Convention.Resolve(asOf, nd.Tenor, "ACME", parDef.Coupon)
		require.NoError(t, err)
		puf, err := PointsUpfront(disc, parSurv, cds, rec, AccruedMidpoint)
		require.NoError(t, err)
		pufDef.Nodes = append(pufDef.Nodes, CDSNode{
			Label: nd.Label, Tenor: nd.Tenor,
			Quote: Quote{Convention: QuotePointsUpfront, Value: puf},
		})
	}

	pufSurv, err := NewCalibrator().Calibrate(pufDef, disc, rec, asOf, Options{})
	require.NoError(t, err)
	require.Equal(t, parSurv.Curve().NodeCount(), pufSurv.Curve().NodeCount())
	for i := 0; i < parSurv.Curve().NodeCount(); i++ {
		assert.InDelta(t, parSurv.Curve().Value(i), pufSurv.Curve().Value(i), 1e-9, "knot %d", i)
	}
}

func invertedQuotes() CurveDefinition {
	// A steeply inverted spread curve forces cumulative default probability
	// to fall between the first two knots.
	return parSpreadDefinition(
		parNode("1Y", "1Y", 0.030),
		parNode("2Y", "2Y", 0.005),
	)
}

func TestArbitrageIgnoreKeepsNegativeForward(t *testing.T) {
	t.Parallel()

	disc := flatDiscount(t, 0.01)
	rec := ConstantRecovery(0.4)

	cal := NewCalibrator()
	cal.Handling = ArbitrageIgnore
	surv, err := cal.Calibrate(invertedQuotes(), disc, rec, asOf, Options{})
	require.NoError(t, err)

	c := surv.Curve()
	p0 := c.Value(0) * c.NodeTimes()[0]
	p1 := c.Value(1) * c.NodeTimes()[1]
	assert.Less(t, p1, p0, "cumulative hazard must fall under IGNORE")

	// Survival rises between the knots, the arbitrage the policy tolerates.
	assert.Greater(t,
		surv.SurvivalProbabilityAt(c.NodeTimes()[1]),
		surv.SurvivalProbabilityAt(c.NodeTimes()[0]))
}

func TestArbitrageFailRejects(t *testing.T) {
	t.Parallel()

	disc := flatDiscount(t, 0.01)
	rec := ConstantRecovery(0.4)

	cal := NewCalibrator()
	cal.Handling = ArbitrageFail
	_, err := cal.Calibrate(invertedQuotes(), disc, rec, asOf, Options{})
	assert.ErrorIs(t, err, ErrArbitrage)
}

func TestArbitrageZeroHazardClamps(t *testing.T) {
	t.Parallel()

	disc := flatDiscount(t, 0.01)
	rec := ConstantRecovery(0.4)

	cal := NewCalibrator()
	cal.Handling = ArbitrageZeroHazard
	surv, err := cal.Calibrate(invertedQuotes(), disc, rec, asOf, Options{})
	require.NoError(t, err)

	c := surv.Curve()
	p0 := c.Value(0) * c.NodeTimes()[0]
	p1 := c.Value(1) * c.NodeTimes()[1]
	assert.InDelta(t, p0, p1, 1e-12, "survival must be carried flat")
}

func TestApplyArbitrageHandling(t *testing.T) {
	t.Parallel()

	// Positive forward passes through under every policy.
	for _, h := range []ArbitrageHandling{ArbitrageIgnore, ArbitrageFail, ArbitrageZeroHazard} {
		v, err := applyArbitrageHandling(h, 1.0, 0.02, 2.0, 0.025)
		require.NoError(t, err)
		assert.Equal(t, 0.025, v)
	}

	// solved*t < prev*prevTime: negative forward.
	v, err := applyArbitrageHandling(ArbitrageIgnore, 1.0, 0.02, 2.0, 0.005)
	require.NoError(t, err)
	assert.Equal(t, 0.005, v)

	_, err = applyArbitrageHandling(ArbitrageFail, 1.0, 0.02, 2.0, 0.005)
	assert.ErrorIs(t, err, ErrArbitrage)

	v, err = applyArbitrageHandling(ArbitrageZeroHazard, 1.0, 0.02, 2.0, 0.005)
	require.NoError(t, err)
	assert.InDelta(t, 0.01, v, 1e-15)
}

func TestCalibrateJacobianIdentity(t *testing.T) {
	t.Parallel()

	disc := flatDiscount(t, 0.01)
	rec := ConstantRecovery(0.4)
	def := parSpreadDefinition(
		parNode("1Y", "1Y", 0.005),
		parNode("3Y", "3Y", 0.008),
		parNode("5Y", "5Y", 0.012),
	)

	surv, err := NewCalibrator().Calibrate(def, disc, rec, asOf, Options{ComputeJacobian: true})
	require.NoError(t, err)

	jac, ok := surv.Curve().Jacobian()
	require.True(t, ok, "jacobian must be attached")
	require.Equal(t, []curve.CurveBlock{{Name: "ACME-CDS", ParameterCount: 3}}, jac.Blocks())

	// Pushing an instrument's own parameter sensitivity through the
	// jacobian must single out that instrument's quote.
	for i, nd := range def.Nodes {
		cds, err := def.Convention.Resolve(asOf, nd.Tenor, "ACME", nd.Quote.Value)
		require.NoError(t, err)
		sens, err := parSpreadSensitivities(disc, surv.Curve(), cds, 0.6, AccruedMidpoint)
		require.NoError(t, err)

		out, err := jac.Apply(sens)
		require.NoError(t, err)
		for k := range out {
			want := 0.0
			if k == i {
				want = 1.0
			}
			assert.InDelta(t, want, out[k], 1e-4, "quote sensitivity (%d,%d)", i, k)
		}
	}
}

func TestCalibrateQuotedSpreadCurveWithJacobian(t *testing.T) {
	t.Parallel()

	disc := flatDiscount(t, 0.01)
	rec := ConstantRecovery(0.4)
	def := parSpreadDefinition(
		CDSNode{Label: "1Y", Tenor: "1Y", Quote: Quote{Convention: QuoteQuotedSpread, Value: 0.006}},
		CDSNode{Label: "5Y", Tenor: "5Y", Quote: Quote{Convention: QuoteQuotedSpread, Value: 0.011}},
	)

	surv, err := NewCalibrator().Calibrate(def, disc, rec, asOf, Options{ComputeJacobian: true})
	require.NoError(t, err)
	require.Equal(t, 2, surv.Curve().NodeCount())

	prev := 1.0
	for _, nd := range surv.Curve().Nodes() {
		p := surv.SurvivalProbabilityAt(nd.Time)
		assert.Less(t, p, prev)
		prev = p
	}

	jac, ok := surv.Curve().Jacobian()
	require.True(t, ok)
	assert.Equal(t, 2, jac.TotalQuotes())
}

func TestCalibrateCustomBuildStrategy(t *testing.T) {
	t.Parallel()

	disc := flatDiscount(t, 0.01)
	rec := ConstantRecovery(0.4)

	calls := 0
	cal := NewCalibrator()
	cal.Build = func(in CalibrationInput) (*curve.NodalCurve, error) {
		calls++
		return BootstrapCreditCurve(in)
	}

	_, err := cal.Calibrate(parSpreadDefinition(parNode("5Y", "5Y", 0.01)), disc, rec, asOf, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	// Quoted spreads calibrate a nested auxiliary curve through the same
	// strategy, so the build runs once more.
	calls = 0
	qsDef := parSpreadDefinition(CDSNode{
		Label: "5Y", Tenor: "5Y",
		Quote: Quote{Convention: QuoteQuotedSpread, Value: 0.01},
	})
	_, err = cal.Calibrate(qsDef, disc, rec, asOf, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCalibrateValidation(t *testing.T) {
	t.Parallel()

	disc := flatDiscount(t, 0.01)
	rec := ConstantRecovery(0.4)
	cal := NewCalibrator()

	_, err := cal.Calibrate(parSpreadDefinition(), disc, rec, asOf, Options{})
	assert.Error(t, err, "empty node list")

	_, err = cal.Calibrate(parSpreadDefinition(parNode("5Y", "5Y", 0.01)), nil, rec, asOf, Options{})
	assert.ErrorIs(t, err, ErrNilCurve)

	ccy := parSpreadDefinition(parNode("5Y", "5Y", 0.01))
	ccy.Currency = "EUR"
	_, err = cal.Calibrate(ccy, disc, rec, asOf, Options{})
	assert.Error(t, err, "currency mismatch")

	dc := parSpreadDefinition(parNode("5Y", "5Y", 0.01))
	dc.DayCount = "ACT/360"
	_, err = cal.Calibrate(dc, disc, rec, asOf, Options{})
	assert.Error(t, err, "day count mismatch")

	_, err = cal.Calibrate(parSpreadDefinition(parNode("5Y", "5Y", 0.01)), disc, rec, asOf.AddDate(0, 0, 1), Options{})
	assert.Error(t, err, "valuation mismatch")

	mixed := parSpreadDefinition(
		parNode("1Y", "1Y", 0.005),
		CDSNode{Label: "5Y", Tenor: "5Y", Quote: Quote{Convention: QuotePointsUpfront, Value: 0.01}},
	)
	_, err = cal.Calibrate(mixed, disc, rec, asOf, Options{})
	assert.Error(t, err, "mixed conventions")

	weird := parSpreadDefinition(CDSNode{Label: "5Y", Tenor: "5Y", Quote: Quote{Convention: "UPSIDE_DOWN", Value: 0.01}})
	_, err = cal.Calibrate(weird, disc, rec, asOf, Options{})
	assert.ErrorIs(t, err, ErrUnknownConvention)

	shuffled := parSpreadDefinition(
		parNode("5Y", "5Y", 0.012),
		parNode("1Y", "1Y", 0.005),
	)
	_, err = cal.Calibrate(shuffled, disc, rec, asOf, Options{})
	assert.Error(t, err, "nodes out of maturity order")

	badRec := ConstantRecovery(1.0)
	_, err = cal.Calibrate(parSpreadDefinition(parNode("5Y", "5Y", 0.01)), disc, badRec, asOf, Options{})
	assert.Error(t, err, "recovery outside [0,1)")
}

func TestSurvivalProbabilityBounds(t *testing.T) {
	t.Parallel()

	disc := flatDiscount(t, 0.01)
	rec := ConstantRecovery(0.4)
	def := parSpreadDefinition(parNode("1Y", "1Y", 0.02), parNode("5Y", "5Y", 0.025))

	surv, err := NewCalibrator().Calibrate(def, disc, rec, asOf, Options{})
	require.NoError(t, err)

	assert.Equal(t, 1.0, surv.SurvivalProbabilityAt(0))
	for _, tt := range []float64{0.5, 1, 2, 5, 8} {
		p := surv.SurvivalProbabilityAt(tt)
		assert.True(t, p > 0 && p <= 1, "P(%v) = %v out of bounds", tt, p)
		assert.False(t, math.IsNaN(p))
	}
}
