package rates

import (
	"math"
	"testing"
	"time"

	"github.com/meenmo/curvelib/calendar"
)

var valuation = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

func usdDef() CurveDefinition {
	return CurveDefinition{
		Name:     "USD-DISC",
		Currency: "USD",
		DayCount: "ACT/365F",
		Calendar: calendar.USD,
	}
}

func usdNodes(spotLag int) []NodeDefinition {
	return []NodeDefinition{
		DepositDefinition{
			Label: "1M", Currency: "USD", Tenor: "1M", Rate: 0.005,
			DayCount: "ACT/360", Calendar: calendar.USD, SpotLagDays: spotLag,
		},
		SwapDefinition{
			Label: "2Y", Currency: "USD", Tenor: "2Y", Rate: 0.010,
			FixedFreqMonths: 6, FixedDayCount: "30/360", Calendar: calendar.USD, SpotLagDays: spotLag,
		},
		SwapDefinition{
			Label: "5Y", Currency: "USD", Tenor: "5Y", Rate: 0.015,
			FixedFreqMonths: 6, FixedDayCount: "30/360", Calendar: calendar.USD, SpotLagDays: spotLag,
		},
	}
}

func TestBootstrapSampleCurve(t *testing.T) {
	t.Parallel()

	df, err := Bootstrapper{}.Bootstrap(usdDef(), usdNodes(0), valuation, Options{})
	if err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}

	c := df.Curve()
	if c.NodeCount() != 3 {
		t.Fatalf("node count = %d, want 3", c.NodeCount())
	}
	if got := df.DiscountFactor(valuation); got != 1.0 {
		t.Errorf("DF(valuation) = %v, want 1", got)
	}

	prev := 1.0
	for _, nd := range c.Nodes() {
		d := df.DiscountFactor(nd.Date)
		if d >= prev {
			t.Errorf("DF not strictly decreasing at %s: %v >= %v", nd.Label, d, prev)
		}
		if d <= 0 || d > 1 {
			t.Errorf("DF at %s out of range: %v", nd.Label, d)
		}
		prev = d
	}

	for i := 0; i < c.NodeCount(); i++ {
		if v := c.Value(i); v <= 0 || v > 0.05 {
			t.Errorf("zero rate at knot %d implausible: %v", i, v)
		}
	}
}

func TestBootstrapRepricesNodes(t *testing.T) {
	t.Parallel()

	def := usdDef()
	nodes := usdNodes(0)

	df, err := Bootstrapper{}.Bootstrap(def, nodes, valuation, Options{})
	if err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}

	resolved, err := resolveNodes(def, nodes, valuation)
	if err != nil {
		t.Fatalf("resolveNodes failed: %v", err)
	}

	for _, r := range resolved {
		got := quoteMeasure(r, df.Curve())
		if math.Abs(got-r.rate) > 1e-10 {
			t.Errorf("node %s reprices to %.12f, quoted %.12f", r.label, got, r.rate)
		}
	}
}

func TestBootstrapDepositClosedForm(t *testing.T) {
	t.Parallel()

	def := usdDef()
	dep := DepositDefinition{
		Label: "3M", Currency: "USD", Tenor: "3M", Rate: 0.02,
		DayCount: "ACT/360", Calendar: calendar.USD, SpotLagDays: 0,
	}

	df, err := Bootstrapper{}.Bootstrap(def, []NodeDefinition{dep}, valuation, Options{})
	if err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}

	resolved, err := resolveNodes(def, []NodeDefinition{dep}, valuation)
	if err != nil {
		t.Fatalf("resolveNodes failed: %v", err)
	}
	r := resolved[0]

	wantRate := math.Log1p(r.rate*r.accrual) / r.time
	if got := df.Curve().Value(0); math.Abs(got-wantRate) > 1e-15 {
		t.Errorf("knot rate = %v, want %v", got, wantRate)
	}
	wantDF := 1.0 / (1.0 + r.rate*r.accrual)
	if got := df.DiscountFactor(r.maturity); math.Abs(got-wantDF) > 1e-14 {
		t.Errorf("DF(maturity) = %v, want %v", got, wantDF)
	}
}

func TestBootstrapSpotShift(t *testing.T) {
	t.Parallel()

	df, err := Bootstrapper{}.Bootstrap(usdDef(), usdNodes(2), valuation, Options{})
	if err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}

	spot := calendar.AddBusinessDays(calendar.USD, valuation, 2)
	if !df.ValuationDate().Equal(spot) {
		t.Errorf("curve anchored at %v, want spot %v", df.ValuationDate(), spot)
	}
	if got := df.DiscountFactor(spot); got != 1.0 {
		t.Errorf("DF(spot) = %v, want 1", got)
	}
	if df.Curve().NodeCount() != 3 {
		t.Errorf("node count = %d, want 3", df.Curve().NodeCount())
	}

	prev := 1.0
	for _, nd := range df.Curve().Nodes() {
		d := df.DiscountFactor(nd.Date)
		if d >= prev {
			t.Errorf("DF not strictly decreasing at %s", nd.Label)
		}
		prev = d
	}
}

func TestBootstrapJacobianIdentity(t *testing.T) {
	t.Parallel()

	def := usdDef()
	nodes := usdNodes(0)

	df, err := Bootstrapper{}.Bootstrap(def, nodes, valuation, Options{ComputeJacobian: true})
	if err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	jac, ok := df.Curve().Jacobian()
	if !ok {
		t.Fatal("jacobian not attached")
	}

	resolved, err := resolveNodes(def, nodes, valuation)
	if err != nil {
		t.Fatalf("resolveNodes failed: %v", err)
	}

	// The parameter sensitivity of node i's own quote, pushed through the
	// jacobian, must return the i-th unit vector in quote space.
	c := df.Curve()
	const h = 1e-6
	for i, r := range resolved {
		sens := make([]float64, c.NodeCount())
		for j := 0; j < c.NodeCount(); j++ {
			up := quoteMeasure(r, c.WithValue(j, c.Value(j)+h))
			dn := quoteMeasure(r, c.WithValue(j, c.Value(j)-h))
			sens[j] = (up - dn) / (2 * h)
		}
		out, err := jac.Apply(sens)
		if err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		for k := range out {
			want := 0.0
			if k == i {
				want = 1.0
			}
			if math.Abs(out[k]-want) > 1e-5 {
				t.Errorf("quote sensitivity (%d,%d) = %v, want %v", i, k, out[k], want)
			}
		}
	}
}

func TestBootstrapJacobianSpotShifted(t *testing.T) {
	t.Parallel()

	def := usdDef()
	nodes := usdNodes(2)

	df, err := Bootstrapper{}.Bootstrap(def, nodes, valuation, Options{ComputeJacobian: true})
	if err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	jac, ok := df.Curve().Jacobian()
	if !ok {
		t.Fatal("jacobian not attached")
	}
	n := df.Curve().NodeCount()
	m := jac.Matrix()
	if r, c := m.Dims(); r != n || c != len(nodes) {
		t.Fatalf("jacobian is %dx%d, want %dx%d", r, c, n, len(nodes))
	}

	// The attached matrix refers to the spot-anchored parameters, so each
	// column must reproduce how those knot rates move when the corresponding
	// quote is bumped and the whole curve is bootstrapped again.
	const h = 1e-6
	for j := range nodes {
		up, err := Bootstrapper{}.Bootstrap(def, bumpRate(nodes, j, h), valuation, Options{})
		if err != nil {
			t.Fatalf("Bootstrap with node %d bumped up failed: %v", j, err)
		}
		dn, err := Bootstrapper{}.Bootstrap(def, bumpRate(nodes, j, -h), valuation, Options{})
		if err != nil {
			t.Fatalf("Bootstrap with node %d bumped down failed: %v", j, err)
		}
		for i := 0; i < n; i++ {
			fd := (up.Curve().Value(i) - dn.Curve().Value(i)) / (2 * h)
			if got := m.At(i, j); math.Abs(got-fd) > 1e-4 {
				t.Errorf("jacobian (%d,%d) = %v, bumped re-bootstrap gives %v", i, j, got, fd)
			}
		}
	}
}

func bumpRate(nodes []NodeDefinition, i int, delta float64) []NodeDefinition {
	out := make([]NodeDefinition, len(nodes))
	copy(out, nodes)
	switch n := out[i].(type) {
	case DepositDefinition:
		n.Rate += delta
		out[i] = n
	case SwapDefinition:
		n.Rate += delta
		out[i] = n
	}
	return out
}

func TestBootstrapValidation(t *testing.T) {
	t.Parallel()

	boot := Bootstrapper{}
	def := usdDef()

	if _, err := boot.Bootstrap(def, nil, valuation, Options{}); err == nil {
		t.Error("expected error for empty node list")
	}

	mixedCcy := usdNodes(0)
	mixedCcy[1] = SwapDefinition{
		Label: "2Y", Currency: "EUR", Tenor: "2Y", Rate: 0.010,
		FixedFreqMonths: 6, FixedDayCount: "30/360", Calendar: calendar.USD, SpotLagDays: 0,
	}
	if _, err := boot.Bootstrap(def, mixedCcy, valuation, Options{}); err == nil {
		t.Error("expected error for mixed currencies")
	}

	mixedLag := usdNodes(0)
	mixedLag[2] = SwapDefinition{
		Label: "5Y", Currency: "USD", Tenor: "5Y", Rate: 0.015,
		FixedFreqMonths: 6, FixedDayCount: "30/360", Calendar: calendar.USD, SpotLagDays: 2,
	}
	if _, err := boot.Bootstrap(def, mixedLag, valuation, Options{}); err == nil {
		t.Error("expected error for mixed spot lags")
	}

	outOfOrder := usdNodes(0)
	outOfOrder[0], outOfOrder[2] = outOfOrder[2], outOfOrder[0]
	if _, err := boot.Bootstrap(def, outOfOrder, valuation, Options{}); err == nil {
		t.Error("expected error for nodes out of maturity order")
	}

	if _, err := boot.Bootstrap(def, []NodeDefinition{fakeNode{}}, valuation, Options{}); err == nil {
		t.Error("expected error for unsupported node type")
	}
}

type fakeNode struct{}

func (fakeNode) NodeLabel() string    { return "fake" }
func (fakeNode) NodeCurrency() string { return "USD" }
func (fakeNode) NodeSpotLag() int     { return 0 }
