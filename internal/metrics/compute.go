// Package metrics computes performance statistics over backtest history
// and distribution summaries over Monte Carlo batches.
package metrics

import (
	"math"
	"sort"

	"leap-portfolio-lab/internal/domain"
)

// Mean calculates the arithmetic mean. Zero for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// SampleStddev calculates sample standard deviation (n-1 denominator).
func SampleStddev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mean := Mean(values)
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// Percentile uses linear interpolation between closest ranks.
// sorted must be pre-sorted ASC. p is a fraction (0.05 = 5th percentile).
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 || p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// PercentChanges returns v[i]/v[i-1] - 1 for i >= 1.
// Steps from a zero value are undefined and skipped. A step from a negative
// value is kept as computed, so its sign follows the ratio.
func PercentChanges(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		out = append(out, values[i]/values[i-1]-1)
	}
	return out
}

// Summarize computes the distribution summary of values.
func Summarize(values []float64) domain.Distribution {
	n := len(values)
	if n == 0 {
		return domain.Distribution{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	return domain.Distribution{
		Count:  n,
		Mean:   Mean(values),
		Median: Percentile(sorted, 0.50),
		Stddev: SampleStddev(values),
		P5:     Percentile(sorted, 0.05),
		P95:    Percentile(sorted, 0.95),
		Min:    sorted[0],
		Max:    sorted[n-1],
	}
}
