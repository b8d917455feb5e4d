package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/semanticallynull/rentalflow-backend/internal/docstore"
)

// Collection names for finalized bookings and saved payment summaries.
const (
	Collection         = "bookings"
	PaymentsCollection = "payments"
)

var ErrNotFound = errors.New("booking not found")

type Repository struct {
	store docstore.Store
}

func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store}
}

// Get fetches a finalized booking.
func (r *Repository) Get(ctx context.Context, id string) (Booking, error) {
	doc, err := r.store.Get(ctx, Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return Booking{}, ErrNotFound
	}
	if err != nil {
		return Booking{}, err
	}
	return decode(doc)
}

// ListByCustomer returns a customer's bookings, newest first. The ordered
// query needs a composite index on the backend; when it is missing the
// repository transparently re-issues the query unordered and sorts here.
func (r *Repository) ListByCustomer(ctx context.Context, customerID string) ([]Booking, error) {
	filters := []docstore.Filter{{Field: "customerId", Value: customerID}}

	docs, err := r.store.Query(ctx, Collection, filters, &docstore.OrderBy{Field: "createdAt", Desc: true}, 0)
	if errors.Is(err, docstore.ErrIndexUnavailable) {
		docs, err = r.store.Query(ctx, Collection, filters, nil, 0)
		if err != nil {
			return nil, err
		}
		sort.SliceStable(docs, func(i, j int) bool {
			return fmt.Sprint(docs[i]["createdAt"]) > fmt.Sprint(docs[j]["createdAt"])
		})
	} else if err != nil {
		return nil, err
	}

	bookings := make([]Booking, 0, len(docs))
	for _, doc := range docs {
		b, err := decode(doc)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}

// Subscribe streams the booking's state to onChange, starting with its
// current state, until the returned stop function is called. Bookings are
// effectively immutable so in practice this fires once.
func (r *Repository) Subscribe(ctx context.Context, id string, onChange func(Booking), onError func(error)) (func(), error) {
	return r.store.Subscribe(ctx, Collection, id,
		func(doc docstore.Document) {
			b, err := decode(doc)
			if err != nil {
				if onError != nil {
					onError(err)
				}
				return
			}
			onChange(b)
		},
		onError,
	)
}

func decode(doc docstore.Document) (Booking, error) {
	var b Booking
	if err := docstore.Unmarshal(doc, &b); err != nil {
		return Booking{}, fmt.Errorf("decode booking: %w", err)
	}
	return b, nil
}
