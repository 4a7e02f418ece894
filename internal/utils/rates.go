package utils

import "math"

// SafeDiv returns 0 when the denominator is 0: no volume means no rate.
func SafeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// RoundCents rounds half away from zero to two decimals.
func RoundCents(f float64) float64 { return math.Round(f*100) / 100 }
