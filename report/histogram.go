package report

import (
	"fmt"
	"math"
)

// DefaultBins is the bucket count used when none is configured.
const DefaultBins = 20

// Bin is one histogram bucket. Every bin is half-open [Lower, Upper)
// except the last, which also holds Upper.
type Bin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
	Label string  `json:"label"`
}

// Histogram buckets data into bins equal-width intervals spanning the
// observed minimum and maximum. NaN and infinite samples are ignored.
// Constant data lands entirely in the first bin. It returns nil when no
// finite sample remains.
func Histogram(data []float64, bins int) []Bin {
	if bins <= 0 {
		bins = DefaultBins
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	n := 0
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		n++
	}
	if n == 0 {
		return nil
	}

	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		lower := lo + float64(i)*width
		upper := lo + float64(i+1)*width
		if i == bins-1 {
			upper = hi
		}
		out[i] = Bin{Lower: lower, Upper: upper, Label: fmt.Sprintf("%.2f-%.2f", lower, upper)}
	}

	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[binIndex(out, v, lo, width)].Count++
	}
	return out
}

// binIndex estimates the bucket arithmetically, then settles it against the
// stored edges so that counts always agree with the labels.
func binIndex(bins []Bin, v, lo, width float64) int {
	last := len(bins) - 1
	if width == 0 {
		return 0
	}
	i := int((v - lo) / width)
	if i > last {
		i = last
	}
	if i < 0 {
		i = 0
	}
	for i > 0 && v < bins[i].Lower {
		i--
	}
	for i < last && v >= bins[i].Upper {
		i++
	}
	return i
}

// Total sums the bucket counts.
func Total(bins []Bin) int {
	n := 0
	for _, b := range bins {
		n += b.Count
	}
	return n
}
