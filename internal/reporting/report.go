package reporting

import (
	"time"

	"leap-portfolio-lab/internal/domain"
)

// Report represents a single backtest report.
type Report struct {
	// Metadata
	GeneratedAt time.Time

	// Headline numbers
	Summary domain.ResultSummary

	// Trade activity (sorted by action, asset)
	Activity []ActivityRow

	// Monte Carlo distribution, nil for single runs
	MonteCarlo *domain.MonteCarloStats
}

// ActivityRow aggregates trades sharing an action and asset.
type ActivityRow struct {
	Action domain.TradeAction
	Asset  domain.TradeAsset
	Count  int
	Value  float64 // sum of trade values, rounded to cents
}

// IndexReport lists stored results side by side.
type IndexReport struct {
	GeneratedAt time.Time
	Results     []*domain.ResultSummary // newest first
}
