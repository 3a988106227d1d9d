// Package special provides numerically stable special functions for the
// standard normal distribution, together with Owen's T function. These are
// the scalar primitives the pushforward and Hessian formulas are built on.
package special

import "math"

// logRootTwoPi is log(sqrt(2 * pi)).
const logRootTwoPi = 0.9189385332046727417803297364056176398614

// Ndtr returns the cumulative distribution function of the standard normal
// distribution evaluated at x.
func Ndtr(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

// LogNdtr returns the log of the standard normal CDF at x. Unlike
// log(Ndtr(x)), which underflows to -Inf once Ndtr(x) is subnormal, LogNdtr
// stays accurate in the lower tail by switching to the asymptotic expansion
//
//	log Φ(x) = -x²/2 - log(-x) - log√(2π) + log1p(Σ (-1)ᵏ (2k-1)!!/x²ᵏ)
//
// once x is far enough below zero.
func LogNdtr(x float64) float64 {
	switch {
	case x > 6:
		// log(1 - Φ(-x)) with Φ(-x) tiny
		return math.Log1p(-Ndtr(-x))

	case x > -14:
		return math.Log(Ndtr(x))

	default:
		x2 := x * x
		series := -1/x2 + 3/(x2*x2) - 15/(x2*x2*x2) + 105/(x2*x2*x2*x2)
		return -0.5*x2 - math.Log(-x) - logRootTwoPi + math.Log1p(series)
	}
}

// LogProb returns the log density of the standard normal distribution at x.
func LogProb(x float64) float64 {
	return -0.5*x*x - logRootTwoPi
}

// Pdf returns the density of the standard normal distribution at x.
func Pdf(x float64) float64 {
	return math.Exp(LogProb(x))
}
