// Package pricing computes the charge breakdown for a ticket purchase.
// All functions are pure.  Each stage is rounded half-up to two decimals
// independently before the final sum; the order matters, because rounding
// once at the end produces different totals for some subtotals.
package pricing

import "github.com/shopspring/decimal"

var (
	serviceFeeRate = decimal.NewFromFloat(0.10)
	taxRate        = decimal.NewFromFloat(0.07)
)

// Subtotal is unit price times quantity.
func Subtotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// ServiceFee is 10% of the subtotal, rounded half-up to two decimals.
func ServiceFee(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(serviceFeeRate).Round(2)
}

// Tax is 7% of the subtotal, rounded half-up to two decimals.
func Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(taxRate).Round(2)
}

// Total sums the subtotal with the independently rounded fee and tax.
func Total(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Add(ServiceFee(subtotal)).Add(Tax(subtotal)).Round(2)
}
