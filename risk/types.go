// Package risk maps curve-parameter sensitivities onto tradable quantities:
// hedge ratios against a set of hedge instruments, and market-quote
// sensitivities through the calibration jacobians attached to curves.
package risk

import (
	"errors"

	"github.com/meenmo/curvelib/credit"
	"github.com/meenmo/curvelib/curve"
)

var (
	// ErrUnderDetermined is returned when a hedge system has more hedge
	// instruments than curve knots, so no unique hedge exists.
	ErrUnderDetermined = errors.New("hedge system under-determined")
	// ErrMissingJacobian is returned when a sensitivity transform needs a
	// curve's calibration jacobian and the curve does not carry one.
	ErrMissingJacobian = errors.New("curve carries no calibration jacobian")
)

// ParameterSensitivity is the sensitivity of one value (a trade PV, a par
// rate) to each parameter of one curve, in parameter order.
type ParameterSensitivity struct {
	CurveName string
	Currency  string
	Values    []float64
}

type groupEntry struct {
	c        *curve.NodalCurve
	currency string
}

// CurveGroup indexes calibrated curves by name for sensitivity lookups.
type CurveGroup struct {
	entries map[string]groupEntry
}

func NewCurveGroup() *CurveGroup {
	return &CurveGroup{entries: map[string]groupEntry{}}
}

// AddDiscount registers a discount curve under its curve name.
func (g *CurveGroup) AddDiscount(d *curve.DiscountFactors) {
	g.entries[d.Curve().Name()] = groupEntry{c: d.Curve(), currency: d.Currency()}
}

// AddCredit registers a calibrated credit curve under its curve name.
func (g *CurveGroup) AddCredit(s credit.LegalEntitySurvivalProbabilities) {
	g.entries[s.Curve().Name()] = groupEntry{c: s.Curve(), currency: s.Currency()}
}

// Curve returns the curve registered under name.
func (g *CurveGroup) Curve(name string) (*curve.NodalCurve, bool) {
	e, ok := g.entries[name]
	return e.c, ok
}

func (g *CurveGroup) lookup(name string) (groupEntry, bool) {
	e, ok := g.entries[name]
	return e, ok
}
