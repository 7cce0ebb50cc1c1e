package solver

import (
	"errors"
	"math"
	"testing"
)

func TestNewtonQuadratic(t *testing.T) {
	t.Parallel()

	fdf := func(x float64) (float64, float64) { return x*x - 4, 2 * x }

	root, err := Default.Newton(fdf, 3.0)
	if err != nil {
		t.Fatalf("Newton failed: %v", err)
	}
	if math.Abs(root-2.0) > 1e-10 {
		t.Errorf("root = %v, want 2", root)
	}
}

func TestNewtonVanishingDerivative(t *testing.T) {
	t.Parallel()

	fdf := func(x float64) (float64, float64) { return x*x + 1, 2 * x }

	_, err := Default.Newton(fdf, 0.0)
	if !errors.Is(err, ErrNonConvergence) {
		t.Errorf("expected ErrNonConvergence, got %v", err)
	}
}

func TestNewtonIterationCap(t *testing.T) {
	t.Parallel()

	rf := RootFinder{Tolerance: 1e-12, MaxIterations: 3}
	// Newton on atan diverges from a guess this far out.
	fdf := func(x float64) (float64, float64) { return math.Atan(x), 1 / (1 + x*x) }

	_, err := rf.Newton(fdf, 5.0)
	if !errors.Is(err, ErrNonConvergence) {
		t.Errorf("expected ErrNonConvergence, got %v", err)
	}
}

func TestBracketAroundExpands(t *testing.T) {
	t.Parallel()

	// Root at 10, guess at 1: the initial window [0.8, 1.25] must expand.
	f := func(x float64) float64 { return x - 10 }

	a, b, err := Default.BracketAround(f, 1.0)
	if err != nil {
		t.Fatalf("BracketAround failed: %v", err)
	}
	if f(a)*f(b) > 0 {
		t.Errorf("window [%v, %v] does not straddle the root", a, b)
	}
}

func TestBracketAroundNoRoot(t *testing.T) {
	t.Parallel()

	f := func(x float64) float64 { return x*x + 1 }

	_, _, err := Default.BracketAround(f, 1.0)
	if !errors.Is(err, ErrNoBracket) {
		t.Errorf("expected ErrNoBracket, got %v", err)
	}
}

func TestSolveExponential(t *testing.T) {
	t.Parallel()

	// f(x) = e^-x - 0.5, root at ln 2.
	f := func(x float64) float64 { return math.Exp(-x) - 0.5 }

	root, err := Default.Solve(f, 0.0, 2.0)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if math.Abs(root-math.Ln2) > 1e-10 {
		t.Errorf("root = %v, want %v", root, math.Ln2)
	}
}

func TestSolveRejectsBadBracket(t *testing.T) {
	t.Parallel()

	f := func(x float64) float64 { return x }

	_, err := Default.Solve(f, 1.0, 2.0)
	if !errors.Is(err, ErrNoBracket) {
		t.Errorf("expected ErrNoBracket, got %v", err)
	}
}

func TestSolveFrom(t *testing.T) {
	t.Parallel()

	// Hazard-style objective: decreasing in x, root at 0.02.
	f := func(x float64) float64 { return math.Exp(-5*x) - math.Exp(-5*0.02) }

	root, err := Default.SolveFrom(f, 0.015)
	if err != nil {
		t.Fatalf("SolveFrom failed: %v", err)
	}
	if math.Abs(root-0.02) > 1e-10 {
		t.Errorf("root = %v, want 0.02", root)
	}
}
