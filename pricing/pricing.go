// Package pricing computes the cart totals shown on the review and
// confirmation screens and persisted into finalized bookings.
package pricing

import (
	"github.com/shopspring/decimal"
)

// Deposit is the flat refundable deposit applied to every booking.
var Deposit = decimal.NewFromInt(50)

var taxRate = decimal.RequireFromString("0.10")

// Line is one priced cart entry.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int64
}

// Totals is the pricing breakdown of a cart. All fields are rounded to two
// decimal places; intermediate arithmetic is exact.
type Totals struct {
	Base    decimal.Decimal `json:"base"`
	Tax     decimal.Decimal `json:"tax"`
	Deposit decimal.Decimal `json:"deposit"`
	Total   decimal.Decimal `json:"total"`
}

// Quote prices a cart: base is the sum of unit price times quantity, tax is a
// flat 10% of base, deposit is fixed. Rounding happens only on the output
// fields so the result is independent of line order.
func Quote(lines []Line) Totals {
	base := decimal.Zero
	for _, l := range lines {
		base = base.Add(l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity)))
	}
	tax := base.Mul(taxRate).Round(2)
	return Totals{
		Base:    base.Round(2),
		Tax:     tax,
		Deposit: Deposit.Round(2),
		Total:   base.Add(tax).Add(Deposit).Round(2),
	}
}

// IsZero reports whether no totals have been computed. Used by the
// confirmation screen to decide whether to fall back to recomputing.
func (t Totals) IsZero() bool {
	return t.Base.IsZero() && t.Tax.IsZero() && t.Deposit.IsZero() && t.Total.IsZero()
}
