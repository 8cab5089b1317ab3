package reporting

import (
	"fmt"
	"strings"
	"time"

	"leap-portfolio-lab/internal/domain"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder
	s := r.Summary

	// Header
	sb.WriteString("# Backtest Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Result: `%s`\n\n", s.ResultID))
	sb.WriteString(fmt.Sprintf("Symbol: %s | Period: %s to %s | Mode: %s\n\n",
		s.Symbol, s.StartDate.Format(domain.DateLayout), s.EndDate.Format(domain.DateLayout), mode(&s)))

	// Performance
	sb.WriteString("## Performance\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Initial Capital | %s |\n", Money(s.InitialCapital)))
	sb.WriteString(fmt.Sprintf("| Final Value | %s |\n", Money(s.FinalValue)))
	sb.WriteString(fmt.Sprintf("| Final Benchmark | %s |\n", Money(s.FinalBenchmark)))
	sb.WriteString(fmt.Sprintf("| Total Return | %s |\n", Percent(s.TotalReturn)))
	sb.WriteString(fmt.Sprintf("| CAGR | %s |\n", Percent(s.CAGR)))
	sb.WriteString(fmt.Sprintf("| Max Drawdown | %s |\n", Percent(s.MaxDrawdown)))
	sb.WriteString(fmt.Sprintf("| Sharpe Ratio | %.4f |\n", s.SharpeRatio))
	sb.WriteString(fmt.Sprintf("| Trades | %d |\n", s.TradeCount))
	sb.WriteString("\n")

	// Allocation
	cfg := s.Config
	sb.WriteString("## Allocation\n\n")
	sb.WriteString(fmt.Sprintf("Equity %s | LEAP %s | Cash %s",
		Percent(cfg.EquityAllocation), Percent(cfg.LeapAllocation),
		Percent(100-cfg.EquityAllocation-cfg.LeapAllocation)))
	if cfg.Wheel.Enabled {
		sb.WriteString(fmt.Sprintf(" | Wheel collateral %s", Money(cfg.Wheel.Allocation)))
	}
	sb.WriteString("\n\n")

	// Trade Activity
	sb.WriteString("## Trade Activity\n\n")
	if len(r.Activity) > 0 {
		sb.WriteString("| Action | Asset | Count | Value |\n")
		sb.WriteString("|--------|-------|-------|-------|\n")
		for _, a := range r.Activity {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %s |\n", a.Action, a.Asset, a.Count, Money(a.Value)))
		}
	} else {
		sb.WriteString("No trades recorded.\n")
	}
	sb.WriteString("\n")

	// Monte Carlo
	if mc := r.MonteCarlo; mc != nil {
		sb.WriteString("## Monte Carlo Distribution\n\n")
		sb.WriteString(fmt.Sprintf("Runs: %d | Failed: %d\n\n", mc.Runs, mc.FailedRuns))
		sb.WriteString("| Statistic | Portfolio | Benchmark |\n")
		sb.WriteString("|-----------|-----------|-----------|\n")
		p, b := mc.PortfolioSummary, mc.BenchmarkSummary
		rows := []struct {
			name string
			p, b float64
		}{
			{"Mean", p.Mean, b.Mean},
			{"Median", p.Median, b.Median},
			{"Stddev", p.Stddev, b.Stddev},
			{"P5", p.P5, b.P5},
			{"P95", p.P95, b.P95},
			{"Min", p.Min, b.Min},
			{"Max", p.Max, b.Max},
		}
		for _, row := range rows {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", row.name, Money(row.p), Money(row.b)))
		}
		sb.WriteString("\n")

		if len(mc.Failures) > 0 {
			sb.WriteString("### Failed Runs\n\n")
			for _, f := range mc.Failures {
				sb.WriteString(fmt.Sprintf("- run %d: %s\n", f.Run, f.Error))
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// RenderIndexMarkdown renders stored results as a comparison table.
func RenderIndexMarkdown(r *IndexReport) string {
	var sb strings.Builder

	sb.WriteString("# Backtest Results\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	if len(r.Results) == 0 {
		sb.WriteString("No results stored.\n")
		return sb.String()
	}

	sb.WriteString("| Result | Symbol | Period | Mode | Final | Benchmark | Return | CAGR | MaxDD | Sharpe |\n")
	sb.WriteString("|--------|--------|--------|------|-------|-----------|--------|------|-------|--------|\n")
	for _, s := range r.Results {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s..%s | %s | %s | %s | %s | %s | %s | %.4f |\n",
			shortID(s.ResultID), s.Symbol,
			s.StartDate.Format(domain.DateLayout), s.EndDate.Format(domain.DateLayout),
			mode(s), Money(s.FinalValue), Money(s.FinalBenchmark),
			Percent(s.TotalReturn), Percent(s.CAGR), Percent(s.MaxDrawdown), s.SharpeRatio))
	}
	sb.WriteString("\n")

	return sb.String()
}

func mode(s *domain.ResultSummary) string {
	switch {
	case s.Runs > 1:
		return fmt.Sprintf("monte carlo (%d runs)", s.Runs)
	case s.IsSimulation:
		return "synthetic"
	default:
		return "historical"
	}
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
