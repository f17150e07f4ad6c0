package estimate

import "math"

// Abramowitz and Stegun 7.1.26 coefficients.
const (
	asA1 = 0.254829592
	asA2 = -0.284496736
	asA3 = 1.421413741
	asA4 = -1.453152027
	asA5 = 1.061405429
	asP  = 0.3275911
)

// NormalCDF returns the standard normal cumulative probability of x using the
// Abramowitz and Stegun erf approximation (max absolute error 1.5e-7).
func NormalCDF(x float64) float64 {
	sign := 1.0
	if x < 0 {
		sign = -1
	}
	ax := math.Abs(x) / math.Sqrt2
	t := 1 / (1 + asP*ax)
	y := 1 - (((((asA5*t+asA4)*t)+asA3)*t+asA2)*t+asA1)*t*math.Exp(-ax*ax)
	return clamp01(0.5 * (1 + sign*y))
}

func clamp01(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
