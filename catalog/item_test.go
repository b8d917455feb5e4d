package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"currency formatted string", "$1,234.50", "1234.5"},
		{"plain numeric string", "72", "72"},
		{"number", float64(72), "72"},
		{"missing", nil, "0"},
		{"euro suffix", "45.00 €", "45"},
		{"garbage", "call us", "0"},
		{"negative clamped", "-10", "0"},
		{"int", 30, "30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePrice(tt.in)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"NormalizePrice(%v) = %s, want %s", tt.in, got, tt.want)
		})
	}
}

func TestNormalizeAddOns(t *testing.T) {
	want := []string{"Cooler", "Rain Cover"}

	tests := []struct {
		name string
		in   any
	}{
		{"native list", []any{"Cooler", "Rain Cover"}},
		{"map of labels", map[string]any{"a": "Cooler", "b": "Rain Cover"}},
		{"json encoded list", `["Cooler","Rain Cover"]`},
		{"bracketed comma string", "[Cooler, Rain Cover]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, want, NormalizeAddOns(tt.in))
		})
	}
}

func TestNormalizeAddOnsDedupesAndTrims(t *testing.T) {
	got := NormalizeAddOns([]any{" Cooler ", "Cooler", "", "Rain Cover"})
	assert.Equal(t, []string{"Cooler", "Rain Cover"}, got)
}

func TestNormalizeAddOnsUnknownShape(t *testing.T) {
	assert.Nil(t, NormalizeAddOns(42))
	assert.Nil(t, NormalizeAddOns(nil))
}
