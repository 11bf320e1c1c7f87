package order

import "math"

// QuantityMatchesRate reports whether a quantity is an exact multiple of the
// product's pack size. A rate of zero (or less) means unrestricted.
func QuantityMatchesRate(quantity int, rate float64) bool {
	if rate <= 0 {
		return true
	}
	return math.Mod(float64(quantity), rate) == 0
}
