package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/semanticallynull/rentalflow-backend/internal/docstore"
)

// Collection is the document collection sessions live in.
const Collection = "sessions"

var ErrNotFound = errors.New("session not found")

type Repository struct {
	store docstore.Store
}

func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store}
}

// Create opens a new in-progress session for a customer. Each initial item id
// is selected with quantity one.
func (r *Repository) Create(ctx context.Context, customerID string, itemIDs []string) (Session, error) {
	now := time.Now().UTC()
	items := make([]SelectedItem, 0, len(itemIDs))
	for _, id := range itemIDs {
		items = append(items, SelectedItem{ItemID: id, Quantity: 1})
	}

	s := Session{
		CustomerID: customerID,
		Status:     StatusInProgress,
		Items:      items,
		AddOns:     []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	doc, err := docstore.Marshal(s)
	if err != nil {
		return Session{}, err
	}
	delete(doc, "id")

	id, err := r.store.Add(ctx, Collection, doc)
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	s.ID = id
	return s, nil
}

// Get fetches the current aggregate state.
func (r *Repository) Get(ctx context.Context, id string) (Session, error) {
	doc, err := r.store.Get(ctx, Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}

	var s Session
	if err := docstore.Unmarshal(doc, &s); err != nil {
		return Session{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return s, nil
}

// SetDates merge-updates the chosen rental period.
func (r *Repository) SetDates(ctx context.Context, id string, pickup, dropoff time.Time) error {
	return r.update(ctx, id, docstore.Document{
		"pickupAt":  pickup.UTC(),
		"dropoffAt": dropoff.UTC(),
	})
}

// SetAddons replaces the selected add-on labels. Labels are trimmed and
// deduplicated; the update is not additive.
func (r *Repository) SetAddons(ctx context.Context, id string, labels []string) error {
	seen := make(map[string]bool, len(labels))
	deduped := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		deduped = append(deduped, l)
	}
	return r.update(ctx, id, docstore.Document{"addons": deduped})
}

// SetItems replaces the item selection. The aggregate accepts any list it is
// given; single-select screens enforce their constraint before calling.
func (r *Repository) SetItems(ctx context.Context, id string, items []SelectedItem) error {
	encoded := make([]docstore.Document, 0, len(items))
	for _, it := range items {
		encoded = append(encoded, docstore.Document{"itemId": it.ItemID, "quantity": it.Quantity})
	}
	return r.update(ctx, id, docstore.Document{"items": encoded})
}

func (r *Repository) update(ctx context.Context, id string, fields docstore.Document) error {
	fields["updatedAt"] = time.Now().UTC()
	err := r.store.Update(ctx, Collection, id, fields)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
