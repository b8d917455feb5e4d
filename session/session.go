// Package session holds the draft booking a customer accumulates while
// moving through the screen flow. A session is created when items are first
// selected and becomes a booking exactly once, at finalization.
package session

import (
	"time"
)

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusBooked     Status = "booked"
)

// SelectedItem is one catalog item in the draft selection. Single-select
// screens express deselection by forcing quantity to zero, so entries with a
// zero quantity are kept but ignored by pricing and finalization.
type SelectedItem struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// Session is the draft-booking aggregate. It is owned by the flow instance
// that created it; writers merge only the fields they own and last write
// wins. This is acceptable for a single user on a single device and is not
// guarded further.
type Session struct {
	ID         string `json:"id"`
	CustomerID string `json:"customerId"`
	Status     Status `json:"status"`

	Items     []SelectedItem `json:"items"`
	PickupAt  *time.Time     `json:"pickupAt,omitempty"`
	DropoffAt *time.Time     `json:"dropoffAt,omitempty"`
	AddOns    []string       `json:"addons"`

	// BookingID links to the booking created at finalization, empty before.
	BookingID string `json:"bookingId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ActiveItemIDs returns the ids selected with a quantity of at least one, in
// selection order.
func (s Session) ActiveItemIDs() []string {
	var ids []string
	for _, it := range s.Items {
		if it.Quantity >= 1 {
			ids = append(ids, it.ItemID)
		}
	}
	return ids
}

// Quantity returns the selected quantity for an item id, zero if unselected.
func (s Session) Quantity(itemID string) int {
	for _, it := range s.Items {
		if it.ItemID == itemID {
			return it.Quantity
		}
	}
	return 0
}
