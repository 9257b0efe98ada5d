// Package money holds the numeric rules shared by pricing and promo handling.
// Amounts are integers in the smallest currency unit.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.New(5, -1)
)

var symbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
	"INR": "₹",
}

// Format renders minor units with two decimals, e.g. 1234 EUR -> "€12.34".
func Format(amount int64, currency string) string {
	value := decimal.New(amount, -2).StringFixed(2)

	code := strings.ToUpper(strings.TrimSpace(currency))
	symbol, ok := symbols[code]
	if !ok {
		if code == "" {
			return value
		}
		return code + " " + value
	}

	if strings.HasPrefix(value, "-") {
		return "-" + symbol + strings.TrimPrefix(value, "-")
	}
	return symbol + value
}

// DiscountPercent returns round(100 * (original - total) / original), rounding halves
// upward. A zero original yields 0. The result is negative when total exceeds original.
func DiscountPercent(total, original int64) int {
	if original == 0 {
		return 0
	}

	ratio := decimal.NewFromInt(original - total).
		Mul(hundred).
		Div(decimal.NewFromInt(original))

	return int(ratio.Add(half).Floor().IntPart())
}

// ClampPercent limits a percentage to [0, 100].
func ClampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// NonNegative returns amount, or 0 when it is below zero.
func NonNegative(amount int64) int64 {
	if amount < 0 {
		return 0
	}
	return amount
}
