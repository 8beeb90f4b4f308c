package outbreakgo

import "math"

// RootStepFunc performs one iteration of a root finding scheme. Given the
// current iterate it returns the proposed next iterate together with the
// signed residual evaluated at the current one. Newton steps compute the
// update from an analytic derivative; secant steps keep the two previous
// iterates in the enclosing closure.
type RootStepFunc func(x float64) (next, residual float64)

// FindRoot iterates step until the absolute residual falls below eps, the
// iterate stops changing, or maxiter iterations have been performed. Each
// proposed iterate is clamped into [xmin, xmax]. It returns the final
// iterate and residual; the error is nil on convergence, ErrRootStalled when
// the iterate repeated itself without reaching eps, and ErrRootIterLimit
// when the iteration cap was reached while the iterate was still moving.
func FindRoot(step RootStepFunc, eps float64, maxiter uint32, xmin, xmax, x float64) (float64, float64, error) {
	var diff float64
	oldx := math.NaN()
	samex := false
	var iter uint32
	for {
		x, diff = step(x)
		if x == oldx {
			samex = true
		} else {
			samex = false
			oldx = x
		}
		if x > xmax {
			x = xmax
		} else if x < xmin {
			x = xmin
		}
		if math.Abs(diff) < eps {
			return x, diff, nil
		}
		iter++
		if iter >= maxiter {
			break
		}
	}
	if samex {
		return x, diff, ErrRootStalled
	}
	return x, diff, ErrRootIterLimit
}
