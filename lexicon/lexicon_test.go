package lexicon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Shape(t *testing.T) {
	c := Default()
	require.Len(t, c.Commodities, 4)
	require.Len(t, c.Indices, 4)
	assert.Equal(t, "Metals", c.Commodities[0].Category)
	assert.Equal(t, "Other", c.Indices[3].Category)
	assert.Equal(t, 42, c.Len())
}

func TestDefault_ReturnsCopy(t *testing.T) {
	c := Default()
	c.Commodities[0].Entries[0].Ticker = "XXX"
	assert.Equal(t, "GC=F", Default().Commodities[0].Entries[0].Ticker)
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		commodities []string
		indices     []string
	}{
		{"by name ignoring case", "gold", []string{"Metals"}, nil},
		{"by ticker", "^ftse", nil, []string{"Europe"}},
		{"substring across listings", "s&p", nil, []string{"US", "Other"}},
		{"oil matches energy only", "oil", []string{"Energy"}, nil},
		{"no match", "dogecoin", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Default().Filter(tt.query)
			var cats []string
			for _, g := range got.Commodities {
				cats = append(cats, g.Category)
			}
			assert.Equal(t, tt.commodities, cats)
			cats = nil
			for _, g := range got.Indices {
				cats = append(cats, g.Category)
			}
			assert.Equal(t, tt.indices, cats)
		})
	}
}

func TestFilter_KeepsEntryOrder(t *testing.T) {
	got := Default().Filter("cattle")
	require.Len(t, got.Commodities, 1)
	assert.Equal(t, []Entry{{"Live Cattle", "LE=F"}, {"Feeder Cattle", "GF=F"}}, got.Commodities[0].Entries)
}

func TestLookup(t *testing.T) {
	e, ok := Default().Lookup("cl=f")
	require.True(t, ok)
	assert.Equal(t, "Crude Oil", e.Name)

	_, ok = Default().Lookup("AAPL")
	assert.False(t, ok)
}

func TestHints_MentionFormats(t *testing.T) {
	h := Hints()
	require.Len(t, h, 3)
	assert.Contains(t, h[0].Text, "AAPL")
	assert.Contains(t, h[1].Text, "EURUSD=X")
}

func TestNormalizeTicker(t *testing.T) {
	assert.Equal(t, "EURUSD=X", NormalizeTicker("  eurusd=x "))
}
