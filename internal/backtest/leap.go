package backtest

import (
	"fmt"

	"leap-portfolio-lab/internal/domain"
	"leap-portfolio-lab/internal/pricing"
)

// markOption prices leg at the row's spot, substituting intrinsic value at or past expiry.
func markOption(leg *domain.OptionPosition, row domain.PriceRow, rate float64) float64 {
	t := leg.YearsToExpiry(row.Date)
	if leg.Kind == domain.OptionPut {
		return pricing.PutPrice(row.Close, leg.Strike, t, rate, row.Volatility)
	}
	return pricing.CallPrice(row.Close, leg.Strike, t, rate, row.Volatility)
}

// openLeap sizes and buys a new LEAP for budget dollars.
// Skips when the budget, premium or resulting contract count is too small,
// and clips the purchase to available cash.
func (s *state) openLeap(row domain.PriceRow, budget float64) {
	if budget <= 0 || s.pf.Leap != nil {
		return
	}

	days := s.cfg.LeapExpirationMonths * DaysPerMonth
	expiry := row.Date.AddDate(0, 0, days)
	t := float64(days) / 365.0

	strike := pricing.FindStrikeForDelta(row.Close, t, s.cfg.RiskFreeRate, row.Volatility, s.cfg.LeapDelta)
	premium := pricing.CallPrice(row.Close, strike, t, s.cfg.RiskFreeRate, row.Volatility)
	if premium <= 0 {
		return
	}

	contracts := budget / (domain.ContractMultiplier * premium)
	if contracts < MinLeapContracts {
		return
	}

	cost := contracts * domain.ContractMultiplier * premium
	if cost > s.pf.Cash {
		if s.pf.Cash <= 0 {
			return
		}
		cost = s.pf.Cash
		contracts = cost / (domain.ContractMultiplier * premium)
	}

	s.pf.Cash -= cost
	s.pf.Leap = &domain.OptionPosition{
		Kind:         domain.OptionCall,
		Strike:       strike,
		Expiry:       expiry,
		Contracts:    contracts,
		EntryPrice:   premium,
		CurrentPrice: premium,
	}
	s.record(row.Date, domain.ActionBuy, domain.AssetLeap, contracts, premium, cost,
		fmt.Sprintf("Open LEAP %s Strike %.2f", expiry.Format("2006-01"), strike))
}

// closeLeap sells the whole LEAP at its current mark.
func (s *state) closeLeap(row domain.PriceRow, reason string) {
	leap := s.pf.Leap
	if leap == nil {
		return
	}
	value := leap.Value()
	s.pf.Cash += value
	s.record(row.Date, domain.ActionSell, domain.AssetLeap, leap.Contracts, leap.CurrentPrice, value, reason)
	s.pf.Leap = nil
}

// checkLeapExit applies the expiry and tiered profit/loss rules.
// Returns true when it closed the LEAP and rebalanced.
func (s *state) checkLeapExit(row domain.PriceRow) bool {
	leap := s.pf.Leap
	if leap == nil {
		return false
	}

	days := leap.DaysToExpiry(row.Date)
	if days <= LeapCloseDays {
		s.closeLeap(row, domain.ReasonExpirationApproaching)
		s.rebalance(row, domain.ReasonPostExpiration)
		return true
	}

	pnl, ok := leap.PnLPercent()
	if !ok {
		return false
	}

	reason := exitReason(s.cfg, days, pnl)
	if reason == "" {
		return false
	}
	s.closeLeap(row, reason)
	s.rebalance(row, domain.ReasonRollingAfterPnL)
	return true
}

// exitReason returns the limit that pnl breaches for the tier selected by days, or "".
func exitReason(cfg domain.Config, days int, pnl float64) string {
	var profit, loss float64
	var tier string
	switch {
	case days > 180:
		profit, loss, tier = cfg.ProfitLimit6m, cfg.LossLimit6m, ">6m"
	case days > 90:
		profit, loss, tier = cfg.ProfitLimit3m, cfg.LossLimit3m, "3-6m"
	default:
		profit, loss, tier = cfg.ProfitLimit0m, cfg.LossLimit0m, "<3m"
	}

	switch {
	case pnl >= profit:
		return fmt.Sprintf("Profit Limit (%s)", tier)
	case pnl <= -loss:
		return fmt.Sprintf("Loss Limit (%s)", tier)
	}
	return ""
}
