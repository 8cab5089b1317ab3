package backtest

import (
	"leap-portfolio-lab/internal/domain"
	"leap-portfolio-lab/internal/pricing"
)

// snapshot appends the end-of-day state.
func (s *state) snapshot(row domain.PriceRow) {
	equity := s.pf.EquityValue(row.Close)
	leap := s.pf.Leap.Value()
	put := s.pf.WheelPut.Value()
	call := s.pf.WheelCall.Value()
	total := s.pf.Cash + equity + leap - put - call

	if total > s.peak {
		s.peak = total
	}
	drawdown := 0.0
	if s.peak > 0 {
		drawdown = (s.peak - total) / s.peak
		if drawdown > 1 {
			drawdown = 1
		}
	}

	s.history = append(s.history, domain.Snapshot{
		Date:           row.Date,
		EquityValue:    equity,
		LeapValue:      leap,
		WheelPutValue:  put,
		WheelCallValue: call,
		CashValue:      s.pf.Cash,
		TotalValue:     total,
		BenchmarkValue: s.benchmarkShares * row.Close,
		EquityPrice:    row.Close,
		Drawdown:       drawdown,
		Greeks:         s.greeks(row),
	})
}

// greeks aggregates position sensitivities in share-equivalent units.
// Shares contribute delta only; short wheel legs are subtracted.
func (s *state) greeks(row domain.PriceRow) *domain.Greeks {
	g := &domain.Greeks{Delta: s.pf.EquityShares}
	rate := s.cfg.RiskFreeRate

	add := func(leg *domain.OptionPosition, sign float64) {
		if leg == nil {
			return
		}
		t := leg.YearsToExpiry(row.Date)
		var lg pricing.Greeks
		if leg.Kind == domain.OptionPut {
			lg = pricing.PutGreeks(row.Close, leg.Strike, t, rate, row.Volatility)
		} else {
			lg = pricing.CallGreeks(row.Close, leg.Strike, t, rate, row.Volatility)
		}
		scale := sign * leg.Contracts * domain.ContractMultiplier
		g.Delta += scale * lg.Delta
		g.Gamma += scale * lg.Gamma
		g.Theta += scale * lg.Theta
		g.Vega += scale * lg.Vega
	}

	add(s.pf.Leap, 1)
	add(s.pf.WheelPut, -1)
	add(s.pf.WheelCall, -1)
	return g
}
