package booking

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/semanticallynull/rentalflow-backend/pricing"
)

type Status string

const (
	StatusConfirmed Status = "confirmed"
)

// LineItem is a catalog item expanded into the booking snapshot. Unlike the
// session's bare id list, it carries everything needed to render the booking
// without touching the catalog again.
type LineItem struct {
	ItemID    string          `json:"itemId"`
	Brand     string          `json:"brand"`
	Model     string          `json:"model"`
	ImageURL  string          `json:"image,omitempty"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// Booking is the immutable record created when a session is finalized. Its
// cart and totals are frozen at finalization time and do not track later
// catalog price changes.
type Booking struct {
	ID         string `json:"id"`
	CustomerID string `json:"customerId"`
	SessionID  string `json:"sessionId"`
	Status     Status `json:"status"`

	PickupAt  *time.Time `json:"pickupAt,omitempty"`
	DropoffAt *time.Time `json:"dropoffAt,omitempty"`

	Items  []LineItem     `json:"items"`
	AddOns []string       `json:"addons,omitempty"`
	Totals pricing.Totals `json:"totals"`

	CreatedAt time.Time `json:"createdAt"`
}

// EffectiveTotals returns the stored totals verbatim when present, and only
// recomputes from the line items when the stored snapshot lacks them. The
// recompute path exists for compatibility with older records.
func (b Booking) EffectiveTotals() pricing.Totals {
	if !b.Totals.IsZero() {
		return b.Totals
	}
	lines := make([]pricing.Line, 0, len(b.Items))
	for _, it := range b.Items {
		lines = append(lines, pricing.Line{UnitPrice: it.UnitPrice, Quantity: int64(it.Quantity)})
	}
	return pricing.Quote(lines)
}

// PaymentSummary records that the customer opted to keep a payment method on
// file. Only non-sensitive card identity is stored; the primary account
// number and CVV never reach this backend.
type PaymentSummary struct {
	ID         string `json:"id"`
	CustomerID string `json:"customerId"`
	SessionID  string `json:"sessionId"`
	BookingID  string `json:"bookingId"`

	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`

	CardBrand  string `json:"cardBrand,omitempty"`
	CardLast4  string `json:"cardLast4,omitempty"`
	CardExpiry string `json:"cardExpiry,omitempty"`

	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
