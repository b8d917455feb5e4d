package customer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/semanticallynull/rentalflow-backend/internal/docstore"
)

// Collection is the document collection customer profiles live in.
const Collection = "customers"

var ErrNotFound = errors.New("customer not found")

type Repository struct {
	store docstore.Store
}

func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store}
}

// Get fetches a profile by identity subject id.
func (r *Repository) Get(ctx context.Context, id string) (Profile, error) {
	doc, err := r.store.Get(ctx, Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}

	var p Profile
	if err := docstore.Unmarshal(doc, &p); err != nil {
		return Profile{}, fmt.Errorf("decode customer %s: %w", id, err)
	}
	return p, nil
}

// Upsert merge-writes the supplied fields into the profile, creating it if
// absent. Empty fields are left untouched.
func (r *Repository) Upsert(ctx context.Context, id string, fields Fields) error {
	doc, err := UpsertDoc(fields)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, Collection, id, doc)
}

// SetStripeID records the payment processor's customer handle.
func (r *Repository) SetStripeID(ctx context.Context, id, stripeID string) error {
	return r.store.Set(ctx, Collection, id, docstore.Document{
		"stripeId":  stripeID,
		"updatedAt": time.Now().UTC(),
	})
}

// UpsertDoc converts a partial payload into the merge document written at
// upsert time. Exposed so the booking finalizer can include the same write
// in its atomic batch.
func UpsertDoc(fields Fields) (docstore.Document, error) {
	doc, err := docstore.Marshal(fields)
	if err != nil {
		return nil, err
	}
	doc["updatedAt"] = time.Now().UTC()
	return doc, nil
}
