// Package docstore abstracts the hosted document database the booking flow
// reads and writes. Repositories depend on the Store interface only; the
// concrete backend is either Postgres (production) or an in-memory store
// (tests, local development).
package docstore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates the referenced document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrIndexUnavailable indicates an ordered query cannot be served because
	// the backing index is missing. Callers fall back to an unordered fetch
	// and sort client-side.
	ErrIndexUnavailable = errors.New("composite index unavailable")
)

// Document is a single stored record. Reads always carry the document id
// under the "id" key.
type Document map[string]any

// Filter is an equality constraint on a top-level document field.
type Filter struct {
	Field string
	Value any
}

// OrderBy sorts query results by a top-level document field.
type OrderBy struct {
	Field string
	Desc  bool
}

// WriteKind discriminates the operations accepted by BatchWrite.
type WriteKind int

const (
	// WriteAdd inserts a new document with a caller-generated id.
	WriteAdd WriteKind = iota
	// WriteUpdate merges fields into an existing document; the whole batch
	// fails if the document is absent.
	WriteUpdate
	// WriteSetMerge upserts, merging fields into the document if it exists.
	WriteSetMerge
)

// Write is one operation of an atomic batch.
type Write struct {
	Kind       WriteKind
	Collection string
	ID         string
	Fields     Document
}

// Store is the capability surface required of the document database.
type Store interface {
	// Get fetches a single document, or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)
	// Add inserts a new document, assigning its id and creation timestamp.
	Add(ctx context.Context, collection string, doc Document) (string, error)
	// Update merges fields into an existing document, or ErrNotFound.
	Update(ctx context.Context, collection, id string, fields Document) error
	// Set upserts, merging fields into any existing document.
	Set(ctx context.Context, collection, id string, fields Document) error
	// Query returns documents matching all equality filters. An ordered query
	// may fail with ErrIndexUnavailable; limit <= 0 means no limit.
	Query(ctx context.Context, collection string, filters []Filter, order *OrderBy, limit int) ([]Document, error)
	// Subscribe invokes onChange with the current document state and again on
	// every subsequent change, until the returned stop function is called or
	// ctx is cancelled.
	Subscribe(ctx context.Context, collection, id string, onChange func(Document), onError func(error)) (func(), error)
	// BatchWrite applies all writes atomically: either every operation is
	// visible afterwards or none is.
	BatchWrite(ctx context.Context, writes []Write) error
}
