// Package money holds the integer minor-unit arithmetic shared by the pricing engines.
// Amounts are int64 minor units; rates are decimals where 0.1 means 10%.
package money

import "github.com/shopspring/decimal"

// Percent builds a rate from a whole percentage, e.g. Percent(15) is 0.15.
func Percent(p int64) decimal.Decimal {
	return decimal.New(p, -2)
}

// Apply returns amount × rate truncated toward zero.
func Apply(amount int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(rate).Truncate(0).IntPart()
}

// Prorate returns the share of amount that part represents of whole, truncated.
// A zero whole yields zero.
func Prorate(amount, part, whole int64) int64 {
	if whole == 0 {
		return 0
	}
	num := decimal.NewFromInt(amount).Mul(decimal.NewFromInt(part))
	q, _ := num.QuoRem(decimal.NewFromInt(whole), 0)
	return q.IntPart()
}

// EffectiveRate reports amount/base rounded to four places, zero for an empty base.
func EffectiveRate(amount, base int64) decimal.Decimal {
	if base == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(amount).DivRound(decimal.NewFromInt(base), 4)
}

// FormatRate renders a rate as a percentage string ("7.5%").
func FormatRate(rate decimal.Decimal) string {
	return rate.Shift(2).String() + "%"
}
