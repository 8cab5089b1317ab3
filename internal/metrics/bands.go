package metrics

import (
	"errors"
	"fmt"
	"sort"

	"leap-portfolio-lab/internal/domain"
)

// ErrRaggedSeries is returned when series passed to PercentileBands differ in length.
var ErrRaggedSeries = errors.New("series lengths differ")

// PercentileBands computes per-time-step lower/upper percentiles across series.
// All series must have the same length. lo and hi are fractions (0.05, 0.95).
func PercentileBands(series [][]float64, lo, hi float64) (domain.Band, error) {
	if len(series) == 0 {
		return domain.Band{}, nil
	}

	steps := len(series[0])
	for i, s := range series {
		if len(s) != steps {
			return domain.Band{}, fmt.Errorf("%w: series %d has %d steps, want %d", ErrRaggedSeries, i, len(s), steps)
		}
	}

	band := domain.Band{
		Lower: make([]float64, steps),
		Upper: make([]float64, steps),
	}
	column := make([]float64, len(series))
	for t := 0; t < steps; t++ {
		for i, s := range series {
			column[i] = s[t]
		}
		sort.Float64s(column)
		band.Lower[t] = Percentile(column, lo)
		band.Upper[t] = Percentile(column, hi)
	}
	return band, nil
}
