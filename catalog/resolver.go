package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Resolver fetches the full records for a set of selected item ids. Lookups
// run concurrently; the output preserves the order of the input id list.
type Resolver struct {
	repo   *Repository
	logger *slog.Logger
}

func NewResolver(repo *Repository, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{repo: repo, logger: logger}
}

// Resolved is the outcome of resolving a batch of item ids.
type Resolved struct {
	// Items holds one entry per input id that exists in the catalog, in
	// input order. Ids absent from the catalog are skipped.
	Items []Item
	// AddOns is the deduplicated union of the add-on labels of every
	// resolved item.
	AddOns []string
}

type lookupResult struct {
	item Item
	err  error
}

// Resolve looks up every id concurrently. A missing id is skipped and logged,
// not an error; only total absence of any resolvable item (when at least one
// was requested) fails, with ErrNoItems. Any other storage failure aborts the
// batch.
func (r *Resolver) Resolve(ctx context.Context, ids []string) (Resolved, error) {
	if len(ids) == 0 {
		return Resolved{}, nil
	}

	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	results := make(map[string]lookupResult, len(unique))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, id := range unique {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			item, err := r.repo.GetItem(ctx, id)
			mu.Lock()
			results[id] = lookupResult{item: item, err: err}
			mu.Unlock()
		}(id)
	}
	wg.Wait()

	var resolved Resolved
	var addons []string
	for _, id := range unique {
		res := results[id]
		if errors.Is(res.err, ErrNotFound) {
			r.logger.WarnContext(ctx, "selected item missing from catalog", "itemId", id)
			continue
		}
		if res.err != nil {
			return Resolved{}, res.err
		}
		resolved.Items = append(resolved.Items, res.item)
		addons = append(addons, res.item.AddOns...)
	}

	if len(resolved.Items) == 0 {
		return Resolved{}, ErrNoItems
	}
	resolved.AddOns = dedupeLabels(addons)
	return resolved, nil
}
