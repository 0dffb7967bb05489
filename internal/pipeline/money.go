package pipeline

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round2 rounds a monetary value to cents, half away from zero.
// Non-finite input collapses to 0.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// sumDecimal adds amounts without accumulating float error.
func sumDecimal(values []float64) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total
}

func toFloat2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
