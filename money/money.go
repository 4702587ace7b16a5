// Package money fixes the decimal arithmetic rules shared by every
// accounting component: ten fractional digits, rounded half-up.
package money

import "github.com/shopspring/decimal"

// Scale is the number of fractional digits carried by every amount,
// price and cost in the ledger.
const Scale = 10

// Round rounds d to Scale digits. shopspring rounds half away from
// zero, which is half-up for the non-negative values the ledger holds.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// Div divides a by b at the ledger scale.
func Div(a, b decimal.Decimal) decimal.Decimal {
	return a.DivRound(b, Scale)
}

// MustParse converts a decimal literal, panicking on bad input. Only
// for constants and tests.
func MustParse(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}
