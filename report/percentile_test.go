package report

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentile(t *testing.T) {
	data := []float64{40, 10, 30, 20, 50}
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 10},
		{50, 30},
		{100, 50},
		{25, 20},
		{10, 14}, // rank 0.4 between 10 and 20
		{150, 50},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Percentile(data, tt.p), 1e-9, "p=%v", tt.p)
	}
	// input order is preserved
	assert.Equal(t, []float64{40, 10, 30, 20, 50}, data)
	assert.True(t, math.IsNaN(Percentile(nil, 50)))
}

func TestPercentileSection(t *testing.T) {
	sec, ok := PercentileSection([]float64{1, 2, 3, 4, 5}, []float64{0.5, 0.95})

	assert.True(t, ok)
	assert.Equal(t, "Requested Percentiles", sec.Heading)
	assert.Equal(t, []Row{
		{Label: "50th Percentile", Value: "3.00"},
		{Label: "95th Percentile", Value: "4.80"},
	}, sec.Rows)

	_, ok = PercentileSection(nil, []float64{0.5})
	assert.False(t, ok)
	_, ok = PercentileSection([]float64{1}, nil)
	assert.False(t, ok)
}

func TestMarkdown_PlainWriterUnchanged(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, "**Buy** the dip.", Markdown(&buf, "  **Buy** the dip.\n"))
	assert.Empty(t, Markdown(&buf, "   "))
}
