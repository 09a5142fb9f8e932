package report

import (
	"math"
	"slices"
	"strconv"
)

// Percentile returns the p-th percentile (0 <= p <= 100) of data using
// linear interpolation between closest ranks. data need not be sorted.
// NaN is returned for an empty sample.
func Percentile(data []float64, p float64) float64 {
	n := len(data)
	if n == 0 {
		return math.NaN()
	}
	sorted := slices.Clone(data)
	slices.Sort(sorted)

	rank := math.Max(0, math.Min(100, p)) / 100 * float64(n-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	return sorted[lower] + (sorted[upper]-sorted[lower])*(rank-float64(lower))
}

// PercentileSection reads the requested thresholds, given as fractions in
// (0, 1), off the simulated sample. It returns false when there is nothing
// to show.
func PercentileSection(data []float64, thresholds []float64) (Section, bool) {
	if len(data) == 0 || len(thresholds) == 0 {
		return Section{}, false
	}
	rows := make([]Row, 0, len(thresholds))
	for _, q := range thresholds {
		label := strconv.FormatFloat(math.Round(q*1000)/10, 'f', -1, 64) + "th Percentile"
		rows = append(rows, Row{Label: label, Value: Fixed(Percentile(data, q*100), 2)})
	}
	return Section{Heading: "Requested Percentiles", Rows: rows}, true
}
