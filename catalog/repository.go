package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/semanticallynull/rentalflow-backend/internal/docstore"
)

const collection = "items"

var (
	ErrNotFound = errors.New("item not found")
	// ErrNoItems indicates none of a session's selected item ids resolved.
	ErrNoItems = errors.New("no items found for this session")
)

type Repository struct {
	store docstore.Store
}

func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store}
}

// ListFilter narrows the catalog listing by browse facets. Zero values mean
// no constraint.
type ListFilter struct {
	Category    string
	MinCapacity int
}

// List returns the catalog, filtered client-side by the two browse facets.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Item, error) {
	docs, err := r.store.Query(ctx, collection, nil, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	items := make([]Item, 0, len(docs))
	for _, doc := range docs {
		item := itemFromDoc(doc)
		if filter.Category != "" && item.Category != filter.Category {
			continue
		}
		if filter.MinCapacity > 0 && item.Capacity < filter.MinCapacity {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// GetItem fetches and normalizes a single catalog item.
func (r *Repository) GetItem(ctx context.Context, id string) (Item, error) {
	doc, err := r.store.Get(ctx, collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, err
	}
	return itemFromDoc(doc), nil
}

func itemFromDoc(doc docstore.Document) Item {
	return Item{
		ID:         stringField(doc, "id"),
		Brand:      stringField(doc, "brand"),
		Model:      stringField(doc, "model"),
		ImageURL:   stringField(doc, "image"),
		DailyPrice: NormalizePrice(doc["price"]),
		Capacity:   intField(doc, "capacity"),
		Battery:    stringField(doc, "battery"),
		Category:   stringField(doc, "category"),
		AddOns:     NormalizeAddOns(doc["addons"]),
	}
}

func stringField(doc docstore.Document, key string) string {
	s, _ := doc[key].(string)
	return s
}

func intField(doc docstore.Document, key string) int {
	switch t := doc[key].(type) {
	case float64:
		return int(t)
	case int:
		return t
	case int64:
		return int(t)
	default:
		return 0
	}
}
