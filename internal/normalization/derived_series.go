// Package normalization fills derived columns of a price table.
package normalization

import (
	"math"

	"leap-portfolio-lab/internal/domain"
)

// Derived series parameters.
const (
	VolatilityWindow  = 21
	AnnualizationDays = 252
	DefaultVolatility = 0.20
)

// RollingVolatility computes annualized volatility of daily percent returns.
//
// Formulas:
//   - return[t] = close[t]/close[t-1] - 1, undefined for t=0
//   - vol[t] = sample stddev of the last window returns * sqrt(252),
//     undefined until window returns are available
//   - leading undefined values take the first defined value
//   - when nothing is defined every value is DefaultVolatility
func RollingVolatility(closes []float64, window int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if window < 2 {
		window = 2
	}

	returns := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		returns[i] = closes[i]/closes[i-1] - 1
	}

	// First full window covers returns[1..window].
	for i := window; i < len(closes); i++ {
		out[i] = sampleStddev(returns[i-window+1:i+1]) * math.Sqrt(AnnualizationDays)
	}

	backfill(out)
	for i, v := range out {
		if math.IsNaN(v) {
			out[i] = DefaultVolatility
		}
	}
	return out
}

// MovingAverage computes the simple moving average of closes over window rows.
// Leading undefined values take the first defined value. When the series is
// shorter than window the average is never defined and every value is zero,
// which the wheel overlay reads as "no signal".
func MovingAverage(closes []float64, window int) []float64 {
	out := make([]float64, len(closes))
	if window < 1 {
		window = 1
	}
	if len(closes) < window {
		return out
	}

	for i := range out {
		out[i] = math.NaN()
	}
	sum := 0.0
	for i, c := range closes {
		sum += c
		if i >= window {
			sum -= closes[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}

	backfill(out)
	return out
}

// Prepare returns a copy of table with derived columns filled.
// Volatility is recomputed when any row lacks a positive value.
// Moving averages are only filled when the wheel overlay is enabled.
func Prepare(table domain.PriceTable, cfg domain.Config) domain.PriceTable {
	out := table.Clone()
	if len(out) == 0 {
		return out
	}

	closes := out.Closes()

	if needsVolatility(out) {
		vols := RollingVolatility(closes, VolatilityWindow)
		for i := range out {
			out[i].Volatility = vols[i]
		}
	}

	if cfg.Wheel.Enabled {
		short := MovingAverage(closes, cfg.Wheel.MAShort)
		long := MovingAverage(closes, cfg.Wheel.MALong)
		for i := range out {
			out[i].MAShort = short[i]
			out[i].MALong = long[i]
		}
	}

	return out
}

func needsVolatility(table domain.PriceTable) bool {
	for _, row := range table {
		if !(row.Volatility > 0) {
			return true
		}
	}
	return false
}

// backfill replaces leading NaN values with the first non-NaN value.
func backfill(values []float64) {
	first := -1
	for i, v := range values {
		if !math.IsNaN(v) {
			first = i
			break
		}
	}
	if first <= 0 {
		return
	}
	for i := 0; i < first; i++ {
		values[i] = values[first]
	}
}

func sampleStddev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)

	ss := 0.0
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}
