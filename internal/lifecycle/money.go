package lifecycle

import "github.com/shopspring/decimal"

// PricedLine is a unit price applied to a requested quantity.
type PricedLine struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// QuoteTotal sums unit price times quantity over all lines and rounds the
// result to cents. Rounding happens once, on the sum.
func QuoteTotal(lines []PricedLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total.Round(2)
}
