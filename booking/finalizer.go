package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/semanticallynull/rentalflow-backend/catalog"
	"github.com/semanticallynull/rentalflow-backend/customer"
	"github.com/semanticallynull/rentalflow-backend/internal/docstore"
	"github.com/semanticallynull/rentalflow-backend/internal/events"
	"github.com/semanticallynull/rentalflow-backend/pricing"
	"github.com/semanticallynull/rentalflow-backend/session"
)

var (
	// ErrValidation covers missing required checkout fields and unaccepted
	// agreements. The message names the field so the UI can prompt.
	ErrValidation = errors.New("validation failed")
	// ErrAlreadyBooked rejects a second finalization of the same session.
	ErrAlreadyBooked = errors.New("session already booked")
	// ErrNotAuthorized rejects finalization by anyone but the session owner.
	ErrNotAuthorized = errors.New("not authorized for this session")
)

// CardSummary is the non-sensitive card identity saved with a payment
// summary. The finalizer never receives a primary account number or CVV;
// real card processing happens upstream, outside this backend.
type CardSummary struct {
	Brand  string `json:"brand"`
	Last4  string `json:"last4"`
	Expiry string `json:"expiry"`
}

// FinalizeInput is the checkout screen's submission.
type FinalizeInput struct {
	SessionID string

	Profile customer.Fields

	AgreeTerms        bool
	AgreeRentalPolicy bool

	SavePayment bool
	Card        *CardSummary
	Currency    string
}

// Finalizer promotes a draft session into a permanent booking in a single
// atomic batch.
type Finalizer struct {
	store    docstore.Store
	sessions *session.Repository
	resolver *catalog.Resolver
	events   events.Publisher
	logger   *slog.Logger
}

func NewFinalizer(store docstore.Store, sessions *session.Repository, resolver *catalog.Resolver, pub events.Publisher, logger *slog.Logger) *Finalizer {
	if pub == nil {
		pub = events.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Finalizer{store: store, sessions: sessions, resolver: resolver, events: pub, logger: logger}
}

// Finalize checks every precondition, reprices the cart from authoritative
// catalog records, and commits the booking, the session status flip, the
// profile upsert and the optional payment summary as one batch. Either every
// write lands or none does. Returns the new booking id.
func (f *Finalizer) Finalize(ctx context.Context, customerID string, in FinalizeInput) (string, error) {
	s, err := f.sessions.Get(ctx, in.SessionID)
	if err != nil {
		return "", err
	}
	if s.CustomerID != customerID {
		return "", ErrNotAuthorized
	}
	if s.Status != session.StatusInProgress {
		return "", ErrAlreadyBooked
	}
	if err := validate(s, in); err != nil {
		return "", err
	}

	// Authoritative pricing pass: earlier screens' cached prices are not
	// trusted.
	resolved, err := f.resolver.Resolve(ctx, s.ActiveItemIDs())
	if err != nil {
		return "", err
	}

	lines := make([]pricing.Line, 0, len(resolved.Items))
	items := make([]LineItem, 0, len(resolved.Items))
	for _, it := range resolved.Items {
		qty := s.Quantity(it.ID)
		lines = append(lines, pricing.Line{UnitPrice: it.DailyPrice, Quantity: int64(qty)})
		items = append(items, LineItem{
			ItemID:    it.ID,
			Brand:     it.Brand,
			Model:     it.Model,
			ImageURL:  it.ImageURL,
			UnitPrice: it.DailyPrice,
			Quantity:  qty,
		})
	}
	totals := pricing.Quote(lines)

	now := time.Now().UTC()
	bookingID := uuid.NewString()
	b := Booking{
		CustomerID: customerID,
		SessionID:  s.ID,
		Status:     StatusConfirmed,
		PickupAt:   s.PickupAt,
		DropoffAt:  s.DropoffAt,
		Items:      items,
		AddOns:     s.AddOns,
		Totals:     totals,
		CreatedAt:  now,
	}
	bookingDoc, err := docstore.Marshal(b)
	if err != nil {
		return "", err
	}
	delete(bookingDoc, "id")

	profileDoc, err := customer.UpsertDoc(in.Profile)
	if err != nil {
		return "", err
	}

	writes := []docstore.Write{
		{Kind: docstore.WriteSetMerge, Collection: customer.Collection, ID: customerID, Fields: profileDoc},
		{Kind: docstore.WriteAdd, Collection: Collection, ID: bookingID, Fields: bookingDoc},
		{Kind: docstore.WriteUpdate, Collection: session.Collection, ID: s.ID, Fields: docstore.Document{
			"status":    string(session.StatusBooked),
			"bookingId": bookingID,
			"updatedAt": now,
		}},
	}

	if in.SavePayment {
		currency := in.Currency
		if currency == "" {
			currency = "EUR"
		}
		summary := PaymentSummary{
			CustomerID: customerID,
			SessionID:  s.ID,
			BookingID:  bookingID,
			Amount:     totals.Total,
			Currency:   currency,
			Status:     "saved",
			CreatedAt:  now,
		}
		if in.Card != nil {
			summary.CardBrand = in.Card.Brand
			summary.CardLast4 = in.Card.Last4
			summary.CardExpiry = in.Card.Expiry
		}
		summaryDoc, err := docstore.Marshal(summary)
		if err != nil {
			return "", err
		}
		delete(summaryDoc, "id")
		writes = append(writes, docstore.Write{
			Kind:       docstore.WriteAdd,
			Collection: PaymentsCollection,
			ID:         uuid.NewString(),
			Fields:     summaryDoc,
		})
	}

	if err := f.store.BatchWrite(ctx, writes); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			// Session vanished between the read and the write.
			return "", session.ErrNotFound
		}
		return "", fmt.Errorf("finalize booking: %w", err)
	}

	if err := f.events.PublishBookingConfirmed(ctx, events.BookingConfirmed{
		BookingID:  bookingID,
		SessionID:  s.ID,
		CustomerID: customerID,
		Total:      totals.Total.StringFixed(2),
		Currency:   in.Currency,
		CreatedAt:  now,
	}); err != nil {
		f.logger.WarnContext(ctx, "failed to publish booking confirmed event", "bookingId", bookingID, "error", err)
	}

	return bookingID, nil
}

func validate(s session.Session, in FinalizeInput) error {
	if len(s.ActiveItemIDs()) == 0 {
		return fmt.Errorf("%w: no items selected", ErrValidation)
	}
	if !in.AgreeTerms || !in.AgreeRentalPolicy {
		return fmt.Errorf("%w: both agreements must be accepted", ErrValidation)
	}
	if strings.TrimSpace(in.Profile.FirstName) == "" || strings.TrimSpace(in.Profile.LastName) == "" {
		return fmt.Errorf("%w: first and last name are required", ErrValidation)
	}
	return nil
}
