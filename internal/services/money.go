package services

import "math"

// Monetary amounts cross the API as floats in major units and are stored as
// int64 cents. Conversion happens only at these two boundaries.

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func fromCents(amount int64) float64 {
	return float64(amount) / 100
}
