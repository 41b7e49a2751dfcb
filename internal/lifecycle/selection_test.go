package lifecycle

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionSet_Toggle(t *testing.T) {
	s := NewSelectionSet()

	assert.True(t, s.Toggle("a"))
	assert.True(t, s.Toggle("b"))
	assert.Equal(t, 1, s.Quantity("a"))
	require.NoError(t, s.SetQuantity("a", 10))

	assert.False(t, s.Toggle("a"))
	assert.False(t, s.Contains("a"))
	assert.Zero(t, s.Quantity("a"))
	assert.Equal(t, 1, s.Len())

	// Re-selecting starts from a fresh quantity.
	assert.True(t, s.Toggle("a"))
	assert.Equal(t, 1, s.Quantity("a"))
	assert.Equal(t, []Line{{ItemID: "b", Quantity: 1}, {ItemID: "a", Quantity: 1}}, s.Lines())
}

func TestSelectionSet_SetQuantityRequiresSelection(t *testing.T) {
	s := NewSelectionSet()
	err := s.SetQuantity("missing", 3)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Zero(t, s.Len())
}

func TestSelectionSet_Clear(t *testing.T) {
	s := NewSelectionSet()
	s.Toggle("a")
	s.Toggle("b")
	s.Remove("a")
	s.Remove("zzz")
	assert.Equal(t, 1, s.Len())

	s.Clear()
	assert.Zero(t, s.Len())
	assert.Empty(t, s.Lines())
}

func TestSelectionFromRequest(t *testing.T) {
	s, err := SelectionFromRequest([]string{"a", "b"}, map[string]int{"a": 10, "b": 5})
	require.NoError(t, err)
	assert.Equal(t, []Line{{ItemID: "a", Quantity: 10}, {ItemID: "b", Quantity: 5}}, s.Lines())

	tests := []struct {
		name  string
		ids   []string
		qty   map[string]int
		field string
	}{
		{"missing quantity", []string{"a", "b"}, map[string]int{"a": 1}, "quantities"},
		{"orphan quantity", []string{"a"}, map[string]int{"a": 1, "c": 2}, "quantities"},
		{"duplicate id", []string{"a", "a"}, map[string]int{"a": 1}, "selection"},
		{"empty id", []string{""}, map[string]int{}, "selection"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SelectionFromRequest(tt.ids, tt.qty)
			assertValidation(t, err, tt.field)
		})
	}
}

func TestQuoteTotal(t *testing.T) {
	tests := []struct {
		name  string
		lines []PricedLine
		want  string
	}{
		{"office supplies", []PricedLine{
			{UnitPrice: decimal.RequireFromString("2.00"), Quantity: 10},
			{UnitPrice: decimal.RequireFromString("3.00"), Quantity: 5},
		}, "35.00"},
		{"rounds once on the sum", []PricedLine{
			{UnitPrice: decimal.RequireFromString("0.005"), Quantity: 1},
			{UnitPrice: decimal.RequireFromString("0.005"), Quantity: 1},
		}, "0.01"},
		{"empty", nil, "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QuoteTotal(tt.lines).StringFixed(2))
		})
	}
}
