// Package solver provides the one-dimensional root finders shared by the
// curve calibrators: Newton-Raphson where an analytic derivative is cheap,
// and a bracket-then-interpolate hybrid where only the function is available.
package solver

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNonConvergence is returned when the iteration cap is reached before
	// the residual drops below tolerance.
	ErrNonConvergence = errors.New("root finder did not converge")
	// ErrNoBracket is returned when no sign change can be found within the
	// expanding search window.
	ErrNoBracket = errors.New("no sign change bracketed")
)

const (
	derivativeFloor = 1e-15

	// Initial bracket around a guess g is [bracketLo*g, bracketHi*g].
	bracketLo       = 0.8
	bracketHi       = 1.25
	bracketGrow     = 1.6
	bracketMaxSteps = 60
)

// RootFinder holds the convergence controls shared by all solve modes.
type RootFinder struct {
	Tolerance     float64 // threshold on |f(x)|
	MaxIterations int
}

// Default is the configuration used by the calibrators unless overridden.
var Default = RootFinder{Tolerance: 1e-12, MaxIterations: 100}

// Newton solves f(x) = 0 by Newton-Raphson. fdf evaluates the function and
// its analytic derivative at once, since callers typically share work
// between the two.
func (rf RootFinder) Newton(fdf func(float64) (float64, float64), guess float64) (float64, error) {
	x := guess
	for iter := 0; iter < rf.MaxIterations; iter++ {
		fx, d := fdf(x)
		if math.Abs(fx) < rf.Tolerance {
			return x, nil
		}
		if math.Abs(d) < derivativeFloor {
			return 0, fmt.Errorf("Newton: %w: derivative %.3e vanished at x=%v (iteration %d)",
				ErrNonConvergence, d, x, iter)
		}
		x -= fx / d
	}
	return 0, fmt.Errorf("Newton: %w after %d iterations", ErrNonConvergence, rf.MaxIterations)
}

// BracketAround searches for a sign change of f near guess. It starts from
// [0.8g, 1.25g] and grows the endpoint with the smaller residual outward
// until the interval straddles a root.
func (rf RootFinder) BracketAround(f func(float64) float64, guess float64) (float64, float64, error) {
	a := bracketLo * guess
	b := bracketHi * guess
	if a == b {
		a, b = guess-0.05, guess+0.05
	}
	if a > b {
		a, b = b, a
	}

	fa, fb := f(a), f(b)
	for i := 0; i < bracketMaxSteps; i++ {
		if fa == 0 {
			return a, a, nil
		}
		if fb == 0 {
			return b, b, nil
		}
		if fa*fb < 0 {
			return a, b, nil
		}
		if math.Abs(fa) < math.Abs(fb) {
			a += bracketGrow * (a - b)
			fa = f(a)
		} else {
			b += bracketGrow * (b - a)
			fb = f(b)
		}
	}
	return 0, 0, fmt.Errorf("BracketAround: %w around guess %v (last window [%v, %v])",
		ErrNoBracket, guess, a, b)
}

// Solve finds a root of f inside [a, b], which must straddle a sign change.
// It iterates regula falsi with the Illinois modification, so a stagnant
// endpoint cannot stall convergence.
func (rf RootFinder) Solve(f func(float64) float64, a, b float64) (float64, error) {
	fa, fb := f(a), f(b)
	if fa == 0 {
		return a, nil
	}
	if fb == 0 {
		return b, nil
	}
	if fa*fb > 0 {
		return 0, fmt.Errorf("Solve: %w: f(%v)=%.6e and f(%v)=%.6e have the same sign",
			ErrNoBracket, a, fa, b, fb)
	}

	side := 0
	for iter := 0; iter < rf.MaxIterations; iter++ {
		x := (a*fb - b*fa) / (fb - fa)
		fx := f(x)
		if math.Abs(fx) < rf.Tolerance {
			return x, nil
		}
		if fx*fa < 0 {
			b, fb = x, fx
			if side == -1 {
				fa /= 2
			}
			side = -1
		} else {
			a, fa = x, fx
			if side == 1 {
				fb /= 2
			}
			side = 1
		}
		if math.Abs(b-a) < rf.Tolerance*math.Max(1, math.Abs(a)) {
			return x, nil
		}
	}
	return 0, fmt.Errorf("Solve: %w after %d iterations", ErrNonConvergence, rf.MaxIterations)
}

// SolveFrom brackets a root around guess and solves within the bracket.
func (rf RootFinder) SolveFrom(f func(float64) float64, guess float64) (float64, error) {
	a, b, err := rf.BracketAround(f, guess)
	if err != nil {
		return 0, err
	}
	if a == b {
		return a, nil
	}
	return rf.Solve(f, a, b)
}
