package calculation

import (
	"github.com/shopspring/decimal"
)

var (
	one = decimal.NewFromInt(1)
	two = decimal.NewFromInt(2)
)

// roundCents rounds half-up to the cent. Only applied to final amounts.
func roundCents(d decimal.Decimal) decimal.Decimal {
	// decimal.Round rounds half away from zero, which is half-up for the
	// non-negative amounts this is used on
	return d.Round(2)
}

// floorZero clamps negative values to zero
func floorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// clamp limits d to [lo, hi]
func clamp(d, lo, hi decimal.Decimal) decimal.Decimal {
	return decimal.Max(lo, decimal.Min(d, hi))
}

func periodsDecimal(p int) decimal.Decimal {
	return decimal.NewFromInt(int64(p))
}
