package customer

import (
	"time"
)

// Profile is the customer record, keyed by the identity provider's subject
// id. Every field beyond the id is optional; screens that collect a subset
// merge-update it and never overwrite fields they did not collect.
type Profile struct {
	ID string `json:"id"`

	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`

	AddressLine1 string `json:"addressLine1,omitempty"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city,omitempty"`
	PostalCode   string `json:"postalCode,omitempty"`
	Country      string `json:"country,omitempty"`

	// References to uploaded identity documents, never the documents
	// themselves.
	LicenseNumber   string `json:"licenseNumber,omitempty"`
	LicenseImageRef string `json:"licenseImageRef,omitempty"`
	IDDocumentRef   string `json:"idDocumentRef,omitempty"`

	// StripeID is the payment processor's customer handle, set lazily the
	// first time a payment method is saved.
	StripeID string `json:"stripeId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Fields is a partial profile payload. Zero-valued fields are absent from
// the stored update, which is what makes upserts merge rather than
// overwrite.
type Fields struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`

	AddressLine1 string `json:"addressLine1,omitempty"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city,omitempty"`
	PostalCode   string `json:"postalCode,omitempty"`
	Country      string `json:"country,omitempty"`

	LicenseNumber   string `json:"licenseNumber,omitempty"`
	LicenseImageRef string `json:"licenseImageRef,omitempty"`
	IDDocumentRef   string `json:"idDocumentRef,omitempty"`
}
