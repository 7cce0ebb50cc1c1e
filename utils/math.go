package utils

import "math"

// Expm1Ratio computes (1 - exp(-x)) / x without cancellation near x = 0.
//
// The ratio shows up when integrating a constant hazard or forward rate over
// an interval; the series branch keeps it accurate when the interval or the
// rate is tiny.
func Expm1Ratio(x float64) float64 {
	if math.Abs(x) < 1e-8 {
		return 1 - x/2 + x*x/6
	}
	return -math.Expm1(-x) / x
}
