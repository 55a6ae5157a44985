package dsp

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Basic statistical summaries used across feature extraction, backed by gonum

// Mean calculates the arithmetic mean of a slice
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the population standard deviation of a slice
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	mean := stat.Mean(data, nil)
	sum := 0.0
	for _, v := range data {
		diff := v - mean
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(data)))
}

// Percentile calculates the p-th percentile (p between 0 and 100) with
// linear interpolation between closest ranks
func Percentile(data []float64, p float64) float64 {
	if len(data) == 0 || p < 0 || p > 100 {
		return 0.0
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := p / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))

	if lower == upper {
		return sorted[lower]
	}

	frac := rank - float64(lower)
	return sorted[lower]*(1.0-frac) + sorted[upper]*frac
}

// Flatten concatenates a matrix's rows into one slice
func Flatten(matrix [][]float64) []float64 {
	total := 0
	for _, row := range matrix {
		total += len(row)
	}

	flat := make([]float64, 0, total)
	for _, row := range matrix {
		flat = append(flat, row...)
	}
	return flat
}
