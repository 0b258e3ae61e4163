package models

import "github.com/shopspring/decimal"

// Money is a decimal currency amount; JSON encodes as a quoted string
type Money = decimal.Decimal

// Zero is the zero amount
var Zero = decimal.Zero

// NewMoney builds an amount from a float literal, rounded to cents
func NewMoney(v float64) Money {
	return decimal.NewFromFloat(v).Round(2)
}

// RoundCents rounds half away from zero to two decimal places
func RoundCents(m Money) Money {
	return m.Round(2)
}

// ComputeTotals returns subtotal, tax and total for the given lines.
// tax = round2(subtotal * rate) and total = subtotal + tax.
func ComputeTotals(lines []LineItem, rate decimal.Decimal) (Money, Money, Money) {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Total())
	}
	subtotal = RoundCents(subtotal)
	tax := RoundCents(subtotal.Mul(rate))
	return subtotal, tax, subtotal.Add(tax)
}
