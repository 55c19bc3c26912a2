package sgp4

import (
	"math"
	"testing"
)

func TestSolveKeplerConverges(t *testing.T) {
	for _, ecc := range []float64{0, 0.01, 0.1, 0.3, 0.5, 0.7, 0.8, 0.89} {
		for _, argp := range []float64{0, 1.0, 2.5, 4.0} {
			axnl := ecc * math.Cos(argp)
			aynl := ecc * math.Sin(argp)
			for k := 0; k < 64; k++ {
				u := float64(k) * twoPi / 64
				_, _, iterations := solveKepler(u, axnl, aynl)
				if iterations > keplerMaxIteration {
					t.Fatalf("e=%v u=%v: %d iterations", ecc, u, iterations)
				}
				// Newton from the final iterate must be below the tolerance.
				eo1 := keplerRoot(u, axnl, aynl)
				s, c := math.Sincos(eo1)
				residual := u - aynl*c + axnl*s - eo1
				if math.Abs(residual) > 1e-11 {
					t.Errorf("e=%v u=%v: residual %g after %d iterations", ecc, u, residual, iterations)
				}
			}
		}
	}
}

// keplerRoot repeats the solver iteration and returns the final iterate.
func keplerRoot(u, axnl, aynl float64) float64 {
	eo1 := u
	tem5 := 9999.9
	for i := 0; math.Abs(tem5) >= keplerTolerance && i < keplerMaxIteration; i++ {
		s, c := math.Sincos(eo1)
		tem5 = (u - aynl*c + axnl*s - eo1) / (1.0 - c*axnl - s*aynl)
		if math.Abs(tem5) >= keplerMaxStep {
			tem5 = math.Copysign(keplerMaxStep, tem5)
		}
		eo1 += tem5
	}
	return eo1
}

func TestSolveKeplerCircular(t *testing.T) {
	s, c, iterations := solveKepler(1.25, 0, 0)
	if iterations > 2 {
		t.Errorf("circular orbit took %d iterations", iterations)
	}
	if math.Abs(s-math.Sin(1.25)) > 1e-15 || math.Abs(c-math.Cos(1.25)) > 1e-15 {
		t.Errorf("got (%v, %v), want sincos(1.25)", s, c)
	}
}

func TestSolveKeplerIterationCap(t *testing.T) {
	// Near-parabolic input does not converge; the solver stops at the cap
	// without reporting an error.
	_, _, iterations := solveKepler(1e-3, 0.999999, 0)
	if iterations != keplerMaxIteration {
		t.Errorf("iterations = %d, want %d", iterations, keplerMaxIteration)
	}
}
