// Package catalog serves the rentable inventory: listing, lookup and the
// normalization of legacy field encodings found in stored item records.
package catalog

import (
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Item represents a rentable unit as presented to the booking flow, with its
// stored fields already normalized.
type Item struct {
	// ID is the document id of the item in the catalog collection.
	ID string `json:"id"`
	// Brand and Model identify the unit to the customer (e.g. "Thule", "Chariot Sport 2").
	Brand string `json:"brand"`
	Model string `json:"model"`
	// ImageURL is a reference to a hosted image of the item.
	ImageURL string `json:"image"`
	// DailyPrice is the normalized per-day rental price. Stored values vary
	// between numbers and currency-formatted strings.
	DailyPrice decimal.Decimal `json:"price"`
	// Capacity is the passenger capacity.
	Capacity int `json:"capacity"`
	// Battery describes the battery fitted to the unit, free text.
	Battery string `json:"battery"`
	// Category is the browse facet the item is listed under.
	Category string `json:"category"`
	// AddOns are the optional-extra labels offered with this item.
	AddOns []string `json:"addons"`
}

// NormalizePrice coerces a stored price value into a decimal. Strings are
// stripped of everything but digits, '.' and '-' before parsing; anything
// unparseable or missing normalizes to zero.
func NormalizePrice(v any) decimal.Decimal {
	switch t := v.(type) {
	case nil:
		return decimal.Zero
	case float64:
		return clampPrice(decimal.NewFromFloat(t))
	case int:
		return clampPrice(decimal.NewFromInt(int64(t)))
	case int64:
		return clampPrice(decimal.NewFromInt(t))
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return decimal.Zero
		}
		return clampPrice(d)
	case decimal.Decimal:
		return clampPrice(t)
	case string:
		var b strings.Builder
		for _, r := range t {
			if (r >= '0' && r <= '9') || r == '.' || r == '-' {
				b.WriteRune(r)
			}
		}
		d, err := decimal.NewFromString(b.String())
		if err != nil {
			return decimal.Zero
		}
		return clampPrice(d)
	default:
		return decimal.Zero
	}
}

func clampPrice(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// NormalizeAddOns coerces the stored add-on field into an ordered,
// deduplicated list of trimmed labels. Four encodings occur in stored data:
// a native list, a map of labels, a JSON-encoded list, and a comma-separated
// bracketed string.
func NormalizeAddOns(v any) []string {
	var labels []string
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok {
				labels = append(labels, s)
			}
		}
	case []string:
		labels = t
	case map[string]any:
		var keys []string
		for k := range t {
			keys = append(keys, k)
		}
		// Map iteration order is random; keep output deterministic.
		sort.Strings(keys)
		for _, k := range keys {
			if s, ok := t[k].(string); ok {
				labels = append(labels, s)
			}
		}
	case string:
		var decoded []string
		if err := json.Unmarshal([]byte(t), &decoded); err == nil {
			labels = decoded
			break
		}
		trimmed := strings.TrimSpace(t)
		trimmed = strings.TrimPrefix(trimmed, "[")
		trimmed = strings.TrimSuffix(trimmed, "]")
		labels = strings.Split(trimmed, ",")
	default:
		return nil
	}
	return dedupeLabels(labels)
}

func dedupeLabels(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	var out []string
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
