package metrics

import (
	"math"
	"time"

	"leap-portfolio-lab/internal/domain"
)

// TradingDaysPerYear annualizes daily Sharpe ratios.
const TradingDaysPerYear = 252

// DaysPerYear converts calendar spans to years for CAGR.
const DaysPerYear = 365.25

// TotalReturn returns (end - start) / start * 100. Zero when start is not positive.
func TotalReturn(start, end float64) float64 {
	if start <= 0 {
		return 0
	}
	return (end - start) / start * 100
}

// CAGR returns the compound annual growth rate in percent.
//
// years = (endDate - startDate) / 365.25 days. When years is not positive the
// total return is returned unchanged. A non-positive terminal value is -100%.
func CAGR(start, end float64, startDate, endDate time.Time) float64 {
	if start <= 0 {
		return 0
	}
	years := float64(domain.DaysBetween(startDate, endDate)) / DaysPerYear
	if years <= 0 {
		return TotalReturn(start, end)
	}
	if end <= 0 {
		return -100
	}
	return (math.Pow(end/start, 1/years) - 1) * 100
}

// SharpeRatio returns mean/stddev of daily percent changes * sqrt(252).
// Zero when fewer than two changes exist or the stddev is zero.
func SharpeRatio(values []float64) float64 {
	changes := PercentChanges(values)
	sd := SampleStddev(changes)
	if sd == 0 || math.IsNaN(sd) {
		return 0
	}
	return Mean(changes) / sd * math.Sqrt(TradingDaysPerYear)
}

// MaxDrawdown returns the largest fractional drop from a running peak, in [0, 1].
func MaxDrawdown(values []float64) float64 {
	peak := 0.0
	worst := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		dd := (peak - v) / peak
		if dd > worst {
			worst = dd
		}
	}
	return math.Min(worst, 1)
}

// TotalValues extracts the total value series from history.
func TotalValues(history []domain.Snapshot) []float64 {
	out := make([]float64, len(history))
	for i, s := range history {
		out[i] = s.TotalValue
	}
	return out
}

// BenchmarkValues extracts the benchmark value series from history.
func BenchmarkValues(history []domain.Snapshot) []float64 {
	out := make([]float64, len(history))
	for i, s := range history {
		out[i] = s.BenchmarkValue
	}
	return out
}

// ApplyPerformance fills the summary statistics of res from its history.
// MaxDrawdown is taken from the per-snapshot drawdowns.
func ApplyPerformance(res *domain.Result) {
	if len(res.History) == 0 {
		return
	}
	values := TotalValues(res.History)
	start := res.Config.InitialCapital
	end := values[len(values)-1]

	res.TotalReturn = TotalReturn(start, end)
	res.CAGR = CAGR(start, end, res.Config.StartDate, res.Config.EndDate)
	res.SharpeRatio = SharpeRatio(values)

	worst := 0.0
	for _, s := range res.History {
		if s.Drawdown > worst {
			worst = s.Drawdown
		}
	}
	res.MaxDrawdown = worst * 100
}
