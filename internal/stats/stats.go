// Package stats holds the shared numeric helpers used by feature
// derivation and model evaluation. NaN is the explicit "unknown" value
// throughout the pipeline, so every helper here states how it treats it.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean returns the arithmetic mean. NaN when the slice is empty.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// MeanSkipNaN averages only the defined values. NaN when none are defined.
func MeanSkipNaN(values []float64) float64 {
	sum := 0.0
	n := 0
	for _, v := range values {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// Median returns the median of the values. Even lengths average the
// two middle elements. NaN when empty.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Slope returns the least-squares slope of values against their index.
// NaN with fewer than 2 points — a trend over one game is undefined.
func Slope(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return math.NaN()
	}
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	_, slope := stat.LinearRegression(xs, values, nil, false)
	return slope
}

// Variance returns the sample variance. Zero with fewer than 2 points.
func Variance(values []float64) float64 {
	if len(values) <= 1 {
		return 0
	}
	mean := Mean(values)
	sumSquares := 0.0
	for _, v := range values {
		sumSquares += (v - mean) * (v - mean)
	}
	return sumSquares / float64(len(values)-1)
}
