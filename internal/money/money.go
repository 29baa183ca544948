// Package money holds the integer minor-unit arithmetic shared by the ledgers.
//
// Amounts are int64 counts of the smallest currency unit. Rates are decimal
// fractions (0.10 is ten percent) and are applied with round-half-up, the only
// rounding rule used anywhere money meets a rate.
package money

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotWholeAmount is returned when a value carries a fractional minor unit.
var ErrNotWholeAmount = errors.New("money: amount must be a whole number of minor units")

// ErrOverflow is returned when an amount does not fit in int64.
var ErrOverflow = errors.New("money: amount out of range")

// ClampNonNegative returns max(x, 0).
func ClampNonNegative(x int64) int64 {
	if x < 0 {
		return 0
	}
	return x
}

// Sum adds the supplied amounts.
func Sum(xs ...int64) int64 {
	var total int64
	for _, x := range xs {
		total += x
	}
	return total
}

// Add returns a+b, or ErrOverflow when the result does not fit in int64.
func Add(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// Mul returns a*b for non-negative operands, or ErrOverflow.
func Mul(a, b int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, ErrOverflow
	}
	if a != 0 && b > math.MaxInt64/a {
		return 0, ErrOverflow
	}
	return a * b, nil
}

// Clamp restricts x to [min, max]. A nil min means 0, a nil max means unbounded.
func Clamp(x int64, min, max *int64) int64 {
	lo := int64(0)
	if min != nil {
		lo = *min
	}
	hi := int64(math.MaxInt64)
	if max != nil {
		hi = *max
	}
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// ApplyRate returns round-half-up(base * rate), or ErrOverflow when the
// product does not fit in int64.
func ApplyRate(base int64, rate decimal.Decimal) (int64, error) {
	// Round(0) rounds half away from zero, which is half-up for the
	// non-negative amounts the ledgers deal in.
	return FromDecimal(decimal.NewFromInt(base).Mul(rate).Round(0))
}

// HasScale reports whether d carries at most places fractional digits.
func HasScale(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}

// FromDecimal converts a decimal amount into minor units, rejecting fractions.
func FromDecimal(d decimal.Decimal) (int64, error) {
	if !d.Equal(d.Truncate(0)) {
		return 0, ErrNotWholeAmount
	}
	if d.GreaterThan(decimal.NewFromInt(math.MaxInt64)) || d.LessThan(decimal.NewFromInt(math.MinInt64)) {
		return 0, ErrOverflow
	}
	return d.IntPart(), nil
}

// Percent renders a fraction rate as a percentage, e.g. 0.05 -> 5.
func Percent(rate decimal.Decimal) decimal.Decimal {
	return rate.Mul(decimal.NewFromInt(100))
}

// ParseAmount parses a textual amount such as "5000000" into minor units.
// Fractional values are rejected.
func ParseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, ErrNotWholeAmount
	}
	return FromDecimal(d)
}
