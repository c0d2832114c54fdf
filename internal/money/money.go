// Package money pins the single rounding policy used for every monetary
// figure in the system: two decimal places, always rounded down. The legacy
// bookkeeping truncated and never rounded up, so a member can never be
// over-credited by a rounding step.
package money

import "github.com/shopspring/decimal"

// Round quantizes an amount to whole cents, truncating toward zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.RoundDown(2)
}

// FromInt returns an exact decimal for a whole amount of units.
func FromInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}

// Parse reads a user- or config-supplied amount like "0.35".
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	return Round(d), nil
}

// IsPositive reports whether d is strictly greater than zero.
func IsPositive(d decimal.Decimal) bool {
	return d.Sign() > 0
}
