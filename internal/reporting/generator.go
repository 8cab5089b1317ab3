package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"leap-portfolio-lab/internal/domain"
	"leap-portfolio-lab/internal/storage"
)

// Generator produces reports from stored data.
type Generator struct {
	resultStore storage.ResultStore
	tradeStore  storage.TradeStore
	now         func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(resultStore storage.ResultStore, tradeStore storage.TradeStore) *Generator {
	return &Generator{
		resultStore: resultStore,
		tradeStore:  tradeStore,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces the report of a stored result.
func (g *Generator) Generate(ctx context.Context, resultID string) (*Report, error) {
	summary, err := g.resultStore.GetByID(ctx, resultID)
	if err != nil {
		return nil, fmt.Errorf("load result %s: %w", resultID, err)
	}

	trades, err := g.tradeStore.GetByResultID(ctx, resultID)
	if err != nil {
		return nil, fmt.Errorf("load trades %s: %w", resultID, err)
	}

	return &Report{
		GeneratedAt: g.now(),
		Summary:     *summary,
		Activity:    BuildActivity(trades),
	}, nil
}

// GenerateIndex lists up to limit stored results, newest first.
func (g *Generator) GenerateIndex(ctx context.Context, limit int) (*IndexReport, error) {
	results, err := g.resultStore.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	return &IndexReport{GeneratedAt: g.now(), Results: results}, nil
}

// FromResult builds a report straight from an in-memory result.
func FromResult(res *domain.Result, generatedAt time.Time) *Report {
	return &Report{
		GeneratedAt: generatedAt,
		Summary:     *domain.NewResultSummary(res, nil, generatedAt),
		Activity:    BuildActivity(res.Trades),
		MonteCarlo:  res.MonteCarlo,
	}
}

// BuildActivity groups trades by (action, asset).
func BuildActivity(trades []domain.Trade) []ActivityRow {
	type key struct {
		action domain.TradeAction
		asset  domain.TradeAsset
	}
	counts := make(map[key]int)
	values := make(map[key][]float64)
	for _, t := range trades {
		k := key{t.Action, t.Asset}
		counts[k]++
		values[k] = append(values[k], t.Value)
	}

	rows := make([]ActivityRow, 0, len(counts))
	for k, n := range counts {
		rows = append(rows, ActivityRow{
			Action: k.action,
			Asset:  k.asset,
			Count:  n,
			Value:  sumValues(values[k]),
		})
	}

	// Sort by (action, asset)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Action != rows[j].Action {
			return rows[i].Action < rows[j].Action
		}
		return rows[i].Asset < rows[j].Asset
	})
	return rows
}
