package reporting

import (
	"fmt"
	"strings"

	"leap-portfolio-lab/internal/domain"
)

// RenderTradesCSV renders the trade log as CSV string.
func RenderTradesCSV(trades []domain.Trade) string {
	var sb strings.Builder

	// Header
	sb.WriteString("date,action,asset,quantity,price,value,reason\n")

	// Rows
	for _, t := range trades {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%.4f,%s,%s,%s\n",
			t.Date.Format(domain.DateLayout),
			t.Action,
			t.Asset,
			t.Quantity,
			Money(t.Price),
			Money(t.Value),
			csvField(t.Reason),
		))
	}

	return sb.String()
}

// RenderHistoryCSV renders daily snapshots as CSV string.
// Greeks columns are empty for days without an open option position.
func RenderHistoryCSV(history []domain.Snapshot) string {
	var sb strings.Builder

	// Header
	sb.WriteString("date,equity_value,leap_value,wheel_put_value,wheel_call_value,cash_value,")
	sb.WriteString("total_value,benchmark_value,equity_price,drawdown,")
	sb.WriteString("delta,gamma,theta,vega\n")

	// Rows
	for _, s := range history {
		greeks := ",,,"
		if s.Greeks != nil {
			greeks = fmt.Sprintf("%.4f,%.6f,%.4f,%.4f", s.Greeks.Delta, s.Greeks.Gamma, s.Greeks.Theta, s.Greeks.Vega)
		}
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%s,%s,%s,%s,%.6f,%s\n",
			s.Date.Format(domain.DateLayout),
			Money(s.EquityValue),
			Money(s.LeapValue),
			Money(s.WheelPutValue),
			Money(s.WheelCallValue),
			Money(s.CashValue),
			Money(s.TotalValue),
			Money(s.BenchmarkValue),
			Money(s.EquityPrice),
			s.Drawdown,
			greeks,
		))
	}

	return sb.String()
}

// csvField quotes s when it contains a separator, quote or newline.
func csvField(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
