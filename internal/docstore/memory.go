package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Memory is an in-process Store used by tests and local development. It
// mirrors the hosted backend's semantics: atomic batches, change
// notifications, and ordered queries that require a registered index when
// combined with filters.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document
	indexes     map[string]bool
	watchers    map[string][]*watcher

	// BatchHook, when set, is invoked before each write of a batch is staged.
	// Returning an error aborts the whole batch. Used to inject mid-batch
	// failures in tests.
	BatchHook func(Write) error

	nextWatcherID int
}

type watcher struct {
	id       int
	onChange func(Document)
	onError  func(error)
	done     chan struct{}
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string]map[string]Document),
		indexes:     make(map[string]bool),
		watchers:    make(map[string][]*watcher),
	}
}

// AddIndex registers a composite index so that ordered, filtered queries on
// the given collection/field succeed.
func (m *Memory) AddIndex(collection, field string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexes[collection+"/"+field] = true
}

func (m *Memory) Get(_ context.Context, collection, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDoc(doc, id), nil
}

func (m *Memory) Add(_ context.Context, collection string, doc Document) (string, error) {
	m.mu.Lock()
	id := uuid.NewString()
	m.putLocked(collection, id, withCreatedAt(cloneDoc(doc, id)))
	m.mu.Unlock()

	m.notify(collection, id)
	return id, nil
}

func (m *Memory) Update(_ context.Context, collection, id string, fields Document) error {
	m.mu.Lock()
	existing, ok := m.collections[collection][id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	m.putLocked(collection, id, mergeDoc(existing, fields))
	m.mu.Unlock()

	m.notify(collection, id)
	return nil
}

func (m *Memory) Set(_ context.Context, collection, id string, fields Document) error {
	m.mu.Lock()
	existing := m.collections[collection][id]
	m.putLocked(collection, id, mergeDoc(existing, fields))
	m.mu.Unlock()

	m.notify(collection, id)
	return nil
}

func (m *Memory) Query(_ context.Context, collection string, filters []Filter, order *OrderBy, limit int) ([]Document, error) {
	m.mu.RLock()

	// An ordered query over a filtered set needs a composite index, exactly
	// like the hosted backend.
	if order != nil && len(filters) > 0 && !m.indexes[collection+"/"+order.Field] {
		m.mu.RUnlock()
		return nil, ErrIndexUnavailable
	}

	var out []Document
	for id, doc := range m.collections[collection] {
		if matchesFilters(doc, filters) {
			out = append(out, cloneDoc(doc, id))
		}
	}
	m.mu.RUnlock()

	if order != nil {
		sort.SliceStable(out, func(i, j int) bool {
			if order.Desc {
				return lessValues(out[j][order.Field], out[i][order.Field])
			}
			return lessValues(out[i][order.Field], out[j][order.Field])
		})
	} else {
		// Stable iteration order for callers that sort client-side.
		sort.SliceStable(out, func(i, j int) bool {
			return fmt.Sprint(out[i]["id"]) < fmt.Sprint(out[j]["id"])
		})
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Subscribe(ctx context.Context, collection, id string, onChange func(Document), onError func(error)) (func(), error) {
	m.mu.Lock()
	m.nextWatcherID++
	w := &watcher{
		id:       m.nextWatcherID,
		onChange: onChange,
		onError:  onError,
		done:     make(chan struct{}),
	}
	key := collection + "/" + id
	m.watchers[key] = append(m.watchers[key], w)
	current, exists := m.collections[collection][id]
	if exists {
		current = cloneDoc(current, id)
	}
	m.mu.Unlock()

	if exists {
		onChange(current)
	}

	stop := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		select {
		case <-w.done:
			return
		default:
		}
		close(w.done)
		ws := m.watchers[key]
		for i, candidate := range ws {
			if candidate.id == w.id {
				m.watchers[key] = append(ws[:i], ws[i+1:]...)
				break
			}
		}
	}

	go func() {
		select {
		case <-ctx.Done():
			stop()
		case <-w.done:
		}
	}()

	return stop, nil
}

func (m *Memory) BatchWrite(_ context.Context, writes []Write) error {
	m.mu.Lock()

	// Stage every write against a scratch view first so a failure leaves the
	// store untouched.
	staged := make(map[string]map[string]Document)
	stagedGet := func(collection, id string) (Document, bool) {
		if doc, ok := staged[collection][id]; ok {
			return doc, true
		}
		doc, ok := m.collections[collection][id]
		return doc, ok
	}
	stagedPut := func(collection, id string, doc Document) {
		if staged[collection] == nil {
			staged[collection] = make(map[string]Document)
		}
		staged[collection][id] = doc
	}

	for _, w := range writes {
		if m.BatchHook != nil {
			if err := m.BatchHook(w); err != nil {
				m.mu.Unlock()
				return err
			}
		}
		switch w.Kind {
		case WriteAdd:
			stagedPut(w.Collection, w.ID, withCreatedAt(cloneDoc(w.Fields, w.ID)))
		case WriteUpdate:
			existing, ok := stagedGet(w.Collection, w.ID)
			if !ok {
				m.mu.Unlock()
				return fmt.Errorf("%w: %s/%s", ErrNotFound, w.Collection, w.ID)
			}
			stagedPut(w.Collection, w.ID, mergeDoc(existing, w.Fields))
		case WriteSetMerge:
			existing, _ := stagedGet(w.Collection, w.ID)
			stagedPut(w.Collection, w.ID, mergeDoc(existing, w.Fields))
		}
	}

	var changed [][2]string
	for collection, docs := range staged {
		for id, doc := range docs {
			m.putLocked(collection, id, doc)
			changed = append(changed, [2]string{collection, id})
		}
	}
	m.mu.Unlock()

	for _, c := range changed {
		m.notify(c[0], c[1])
	}
	return nil
}

func (m *Memory) putLocked(collection, id string, doc Document) {
	if m.collections[collection] == nil {
		m.collections[collection] = make(map[string]Document)
	}
	doc["id"] = id
	m.collections[collection][id] = doc
}

func (m *Memory) notify(collection, id string) {
	m.mu.RLock()
	doc := m.collections[collection][id]
	ws := append([]*watcher(nil), m.watchers[collection+"/"+id]...)
	snapshot := cloneDoc(doc, id)
	m.mu.RUnlock()

	for _, w := range ws {
		select {
		case <-w.done:
		default:
			w.onChange(cloneDoc(snapshot, id))
		}
	}
}

func withCreatedAt(doc Document) Document {
	if _, ok := doc["createdAt"]; !ok {
		doc["createdAt"] = time.Now().UTC().Format(time.RFC3339Nano)
	}
	return doc
}

func mergeDoc(existing, fields Document) Document {
	out := make(Document, len(existing)+len(fields))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func cloneDoc(doc Document, id string) Document {
	out := make(Document, len(doc)+1)
	for k, v := range doc {
		out[k] = deepClone(v)
	}
	out["id"] = id
	return out
}

func deepClone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return t
		}
		var out map[string]any
		if err := json.Unmarshal(b, &out); err != nil {
			return t
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepClone(e)
		}
		return out
	default:
		return v
	}
}

func matchesFilters(doc Document, filters []Filter) bool {
	for _, f := range filters {
		if fmt.Sprint(doc[f.Field]) != fmt.Sprint(f.Value) {
			return false
		}
	}
	return true
}

func lessValues(a, b any) bool {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		return af < bf
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}
