// Package money holds the rounding rules every monetary amount goes through.
package money

import (
	"math"

	"github.com/shopspring/decimal"
)

// Epsilon nudges values such as 1.005, whose binary form sits just below the
// half cent, over the rounding boundary.
const Epsilon = 2.220446049250313e-16

// Round2 rounds n half-up to two decimals. NaN and infinities become 0.
func Round2(n float64) float64 {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return math.Floor((n+Epsilon)*100+0.5) / 100
}

// LineTotal resolves a line's total. A positive explicit override wins;
// otherwise price × quantity, with a non-positive quantity treated as 1.
func LineTotal(price float64, quantity int, override *float64) float64 {
	if override != nil && !math.IsNaN(*override) && !math.IsInf(*override, 0) && *override > 0 {
		return Round2(*override)
	}
	if quantity <= 0 {
		quantity = 1
	}
	return Round2(price * float64(quantity))
}

// Sum adds values without intermediate float drift, then rounds.
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		total = total.Add(decimal.NewFromFloat(v))
	}
	f, _ := total.Float64()
	return Round2(f)
}

// Percent returns round2(base × rate / 100).
func Percent(base, rate float64) float64 {
	return Round2(base * rate / 100)
}

// Format renders an amount with two fixed decimals.
func Format(v float64) string {
	return decimal.NewFromFloat(Round2(v)).StringFixed(2)
}
