// Package money provides decimal-exact arithmetic for order totals.
// Prices travel as JSON numbers but are summed as decimals so that a cart
// with many line items never accumulates float drift.
package money

import "github.com/shopspring/decimal"

// FromFloat converts a JSON-decoded price into an exact decimal.
func FromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// LineTotal returns unit price times quantity.
func LineTotal(unitPrice float64, quantity int) decimal.Decimal {
	return decimal.NewFromFloat(unitPrice).Mul(decimal.NewFromInt(int64(quantity)))
}

// Format renders an amount with two decimal places, the form persisted on
// order rows and echoed to the gateway.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}
