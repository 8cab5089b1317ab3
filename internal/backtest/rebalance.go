package backtest

import (
	"fmt"
	"math"

	"leap-portfolio-lab/internal/domain"
)

// checkRebalance evaluates the drift and price-move triggers and rebalances on the first hit.
func (s *state) checkRebalance(row domain.PriceRow) {
	total := s.pf.NetValue(row.Close)
	if total <= 0 {
		return
	}

	eqPct := s.pf.EquityValue(row.Close) / total * 100
	leapPct := s.pf.Leap.Value() / total * 100
	eqDrift := math.Abs(eqPct - s.cfg.EquityAllocation)
	leapDrift := math.Abs(leapPct - s.cfg.LeapAllocation)

	if eqDrift > s.cfg.RebalanceDelta || leapDrift > s.cfg.RebalanceDelta {
		s.rebalance(row, fmt.Sprintf("Allocation Drift (Eq: %.1f%%, Leap: %.1f%%)", eqDrift, leapDrift))
		return
	}

	if s.lastRebalancePrice <= 0 {
		return
	}
	move := (row.Close - s.lastRebalancePrice) / s.lastRebalancePrice * 100
	switch {
	case move >= s.cfg.EquityUpTrigger:
		s.rebalance(row, fmt.Sprintf("Equity Up %.1f%%", move))
	case move <= -s.cfg.EquityDownTrigger:
		s.rebalance(row, fmt.Sprintf("Equity Down %.1f%%", move))
	}
}

// rebalance trades equity and the LEAP toward their target weights of net value.
// Wheel legs are never traded here.
func (s *state) rebalance(row domain.PriceRow, trigger string) {
	reason := domain.RebalanceReason(trigger)
	price := row.Close

	total := s.pf.NetValue(price)
	targetEquity := total * s.cfg.EquityAllocation / 100
	targetLeap := total * s.cfg.LeapAllocation / 100

	eqDiff := targetEquity - s.pf.EquityValue(price)
	if math.Abs(eqDiff) > EquityTradeThreshold {
		if eqDiff > 0 {
			cost := math.Min(eqDiff, s.pf.Cash)
			if cost > 0 {
				qty := cost / price
				s.pf.EquityShares += qty
				s.pf.Cash -= cost
				s.record(row.Date, domain.ActionBuy, domain.AssetEquity, qty, price, cost, reason)
			}
		} else {
			qty := math.Min(-eqDiff/price, s.pf.EquityShares)
			if qty > 0 {
				proceeds := qty * price
				s.pf.EquityShares -= qty
				s.pf.Cash += proceeds
				s.record(row.Date, domain.ActionSell, domain.AssetEquity, qty, price, proceeds, reason)
			}
		}
	}

	if leap := s.pf.Leap; leap != nil {
		s.adjustLeap(row, leap, targetLeap-leap.Value(), reason)
	} else {
		s.openLeap(row, targetLeap)
	}

	s.lastRebalancePrice = price
}

// adjustLeap buys or sells contracts of the open LEAP at its current mark.
// Entry price is left unchanged when adding contracts.
func (s *state) adjustLeap(row domain.PriceRow, leap *domain.OptionPosition, diff float64, reason string) {
	if math.Abs(diff) <= LeapTradeThreshold || leap.CurrentPrice <= 0 {
		return
	}
	unit := domain.ContractMultiplier * leap.CurrentPrice

	if diff > 0 {
		cost := math.Min(diff, s.pf.Cash)
		if cost <= 0 {
			return
		}
		contracts := cost / unit
		leap.Contracts += contracts
		s.pf.Cash -= cost
		s.record(row.Date, domain.ActionBuy, domain.AssetLeap, contracts, leap.CurrentPrice, cost, reason)
		return
	}

	contracts := math.Min(-diff/unit, leap.Contracts)
	proceeds := contracts * unit
	leap.Contracts -= contracts
	s.pf.Cash += proceeds
	s.record(row.Date, domain.ActionSell, domain.AssetLeap, contracts, leap.CurrentPrice, proceeds, reason)
	if leap.Contracts <= dust {
		s.pf.Leap = nil
	}
}
