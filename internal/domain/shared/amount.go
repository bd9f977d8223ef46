package shared

import "github.com/shopspring/decimal"

// LineAmounts prices one sale line. Gross and discount are rounded to scale
// separately and net is their difference, so line totals add up exactly to
// the invoice built from them.
func LineAmounts(qty, unitPrice, discount decimal.Decimal, scale int32) (gross, roundedDiscount, net decimal.Decimal) {
	gross = qty.Mul(unitPrice).Round(scale)
	roundedDiscount = discount.Round(scale)
	return gross, roundedDiscount, gross.Sub(roundedDiscount)
}
