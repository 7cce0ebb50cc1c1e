// Package curve defines the nodal zero-rate curve shared by discount and
// survival-probability calibration.
//
// A curve is a set of knots (time, zero rate) anchored at a base date.
// Between knots the quantity y(t)*t is interpolated linearly, which makes
// discount factors exp(-y(t)*t) log-linear in time; outside the knot range
// the zero rate extrapolates flat. Curves are immutable: bump-style edits go
// through WithValue, which returns a copy sharing the time grid.
package curve

import (
	"fmt"
	"sort"
	"time"

	"github.com/meenmo/curvelib/utils"
)

// Node is the metadata attached to one curve knot.
type Node struct {
	Time  float64
	Label string
	Date  time.Time
}

// NodalCurve is an immutable zero-rate curve over a fixed knot grid.
type NodalCurve struct {
	name     string
	base     time.Time
	dayCount string
	times    []float64
	values   []float64
	nodes    []Node
	jacobian *CalibrationJacobian
}

// New builds a curve from knot metadata and zero-rate values. Knot times must
// be strictly ascending and non-negative, with one value per node.
func New(name string, base time.Time, dayCount string, nodes []Node, values []float64) (*NodalCurve, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("New: curve %q needs at least one node", name)
	}
	if len(values) != len(nodes) {
		return nil, fmt.Errorf("New: curve %q has %d nodes but %d values", name, len(nodes), len(values))
	}

	times := make([]float64, len(nodes))
	ns := make([]Node, len(nodes))
	copy(ns, nodes)
	for i, nd := range ns {
		times[i] = nd.Time
	}
	if times[0] < 0 {
		return nil, fmt.Errorf("New: curve %q first node time %v is negative", name, times[0])
	}
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return nil, fmt.Errorf("New: curve %q node times not strictly ascending at index %d (%v after %v)",
				name, i, times[i], times[i-1])
		}
	}

	vals := make([]float64, len(values))
	copy(vals, values)

	return &NodalCurve{
		name:     name,
		base:     base,
		dayCount: dayCount,
		times:    times,
		values:   vals,
		nodes:    ns,
	}, nil
}

// Name returns the curve identifier.
func (c *NodalCurve) Name() string { return c.name }

// Base returns the anchor date at which t = 0.
func (c *NodalCurve) Base() time.Time { return c.base }

// DayCount returns the convention used to map dates onto curve time.
func (c *NodalCurve) DayCount() string { return c.dayCount }

// NodeCount returns the number of knots.
func (c *NodalCurve) NodeCount() int { return len(c.times) }

// NodeTimes returns a copy of the knot times.
func (c *NodalCurve) NodeTimes() []float64 {
	out := make([]float64, len(c.times))
	copy(out, c.times)
	return out
}

// Nodes returns a copy of the knot metadata.
func (c *NodalCurve) Nodes() []Node {
	out := make([]Node, len(c.nodes))
	copy(out, c.nodes)
	return out
}

// Value returns the zero rate at knot i.
func (c *NodalCurve) Value(i int) float64 { return c.values[i] }

// Values returns a copy of the knot zero rates.
func (c *NodalCurve) Values() []float64 {
	out := make([]float64, len(c.values))
	copy(out, c.values)
	return out
}

// TimeOf converts a date into curve time using the curve day count.
func (c *NodalCurve) TimeOf(date time.Time) float64 {
	return utils.YearFraction(c.base, date, c.dayCount)
}

// pAt interpolates y(t)*t linearly between knots, flat zero rate outside.
func (c *NodalCurve) pAt(t float64) float64 {
	n := len(c.times)
	if t <= c.times[0] {
		return c.values[0] * t
	}
	if t >= c.times[n-1] {
		return c.values[n-1] * t
	}

	j := sort.SearchFloat64s(c.times, t)
	if c.times[j] == t {
		return c.values[j] * t
	}
	t0, t1 := c.times[j-1], c.times[j]
	p0 := c.values[j-1] * t0
	p1 := c.values[j] * t1
	return p0 + (p1-p0)*(t-t0)/(t1-t0)
}

// RateAt returns the continuously compounded zero rate at curve time t.
func (c *NodalCurve) RateAt(t float64) float64 {
	n := len(c.times)
	if t <= c.times[0] {
		return c.values[0]
	}
	if t >= c.times[n-1] {
		return c.values[n-1]
	}
	return c.pAt(t) / t
}

// DiscountAt returns exp(-y(t)*t). For t <= 0 it returns 1.
func (c *NodalCurve) DiscountAt(t float64) float64 {
	if t <= 0 {
		return 1.0
	}
	return expNeg(c.pAt(t))
}

// ParameterGradient returns the sensitivity of the interpolated zero rate at
// time t to the value at knot i. At most the two knots bracketing t carry a
// non-zero weight; in the flat extrapolation regions only the boundary knot
// does.
func (c *NodalCurve) ParameterGradient(t float64, i int) float64 {
	n := len(c.times)
	if t <= c.times[0] {
		if i == 0 {
			return 1
		}
		return 0
	}
	if t >= c.times[n-1] {
		if i == n-1 {
			return 1
		}
		return 0
	}

	j := sort.SearchFloat64s(c.times, t)
	if c.times[j] == t {
		if i == j {
			return 1
		}
		return 0
	}
	t0, t1 := c.times[j-1], c.times[j]
	dt := t1 - t0
	switch i {
	case j - 1:
		return t0 * (t1 - t) / (t * dt)
	case j:
		return t1 * (t - t0) / (t * dt)
	default:
		return 0
	}
}

// WithValue returns a copy of the curve with the value at knot i replaced.
// The copy shares the knot grid and metadata with the receiver.
func (c *NodalCurve) WithValue(i int, v float64) *NodalCurve {
	vals := make([]float64, len(c.values))
	copy(vals, c.values)
	vals[i] = v
	return &NodalCurve{
		name:     c.name,
		base:     c.base,
		dayCount: c.dayCount,
		times:    c.times,
		values:   vals,
		nodes:    c.nodes,
		jacobian: c.jacobian,
	}
}

// WithJacobian returns a copy of the curve carrying the calibration jacobian.
func (c *NodalCurve) WithJacobian(j *CalibrationJacobian) *NodalCurve {
	out := *c
	out.jacobian = j
	return &out
}

// Jacobian returns the calibration jacobian attached to the curve, if any.
func (c *NodalCurve) Jacobian() (*CalibrationJacobian, bool) {
	if c.jacobian == nil {
		return nil, false
	}
	return c.jacobian, true
}

// ShiftedBy re-anchors the curve at a later base date, given as a shift in
// curve time. Knots at or before the shift are interpolated away and the
// survivors are re-expressed so that for every t beyond the new base
//
//	DF_shifted(t - shift) = DF(t) / DF(shift)
//
// Any attached calibration jacobian is dropped, since it refers to the
// original parameterization.
func (c *NodalCurve) ShiftedBy(shift float64, newBase time.Time) (*NodalCurve, error) {
	if shift < 0 {
		return nil, fmt.Errorf("ShiftedBy: curve %q cannot shift backwards by %v", c.name, shift)
	}
	if shift == 0 {
		out := *c
		out.base = newBase
		out.jacobian = nil
		return &out, nil
	}

	ps := c.pAt(shift)
	var nodes []Node
	var values []float64
	for i, t := range c.times {
		if t <= shift {
			continue
		}
		nd := c.nodes[i]
		nd.Time = t - shift
		nodes = append(nodes, nd)
		values = append(values, (c.values[i]*t-ps)/(t-shift))
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("ShiftedBy: shift %v leaves curve %q without nodes (last knot %v)",
			shift, c.name, c.times[len(c.times)-1])
	}
	return New(c.name, newBase, c.dayCount, nodes, values)
}
