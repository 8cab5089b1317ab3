package backtest

import (
	"math"

	"leap-portfolio-lab/internal/domain"
	"leap-portfolio-lab/internal/pricing"
)

// runWheel settles expired wheel legs, then opens new ones on the moving-average signal.
func (s *state) runWheel(row domain.PriceRow) {
	s.settleWheelPut(row)
	s.settleWheelCall(row)

	if row.MAShort <= 0 || row.MALong <= 0 {
		return
	}

	switch {
	case row.MAShort > row.MALong && s.pf.WheelPut == nil:
		s.sellWheelPut(row)
	case row.MAShort < row.MALong && s.pf.WheelCall == nil && s.pf.EquityShares > 0:
		s.sellWheelCall(row)
	}
}

// settleWheelPut assigns an in-the-money put or expires it worthless.
func (s *state) settleWheelPut(row domain.PriceRow) {
	put := s.pf.WheelPut
	if put == nil || put.DaysToExpiry(row.Date) > 0 {
		return
	}
	s.pf.WheelPut = nil

	if row.Close >= put.Strike {
		s.record(row.Date, domain.ActionExpire, domain.AssetWheelPut, put.Contracts, 0, 0, domain.ReasonWheelExpiredWorthless)
		return
	}

	shares := put.Contracts * domain.ContractMultiplier
	cost := shares * put.Strike
	s.pf.EquityShares += shares
	s.pf.Cash -= cost
	s.record(row.Date, domain.ActionAssign, domain.AssetWheelPut, shares, put.Strike, cost, domain.ReasonWheelPutAssigned)
}

// settleWheelCall delivers shares for an in-the-money call or expires it worthless.
// Shares sold since the call was written are settled in cash at intrinsic value.
func (s *state) settleWheelCall(row domain.PriceRow) {
	call := s.pf.WheelCall
	if call == nil || call.DaysToExpiry(row.Date) > 0 {
		return
	}
	s.pf.WheelCall = nil

	if row.Close <= call.Strike {
		s.record(row.Date, domain.ActionExpire, domain.AssetWheelCall, call.Contracts, 0, 0, domain.ReasonWheelExpiredWorthless)
		return
	}

	owed := call.Contracts * domain.ContractMultiplier
	delivered := math.Min(owed, s.pf.EquityShares)
	if delivered > 0 {
		proceeds := delivered * call.Strike
		s.pf.EquityShares -= delivered
		s.pf.Cash += proceeds
		s.record(row.Date, domain.ActionAssign, domain.AssetWheelCall, delivered, call.Strike, proceeds, domain.ReasonWheelCallAssigned)
	}
	if uncovered := owed - delivered; uncovered > 0 {
		intrinsic := row.Close - call.Strike
		cost := uncovered * intrinsic
		s.pf.Cash -= cost
		s.record(row.Date, domain.ActionAssign, domain.AssetWheelCall, uncovered, intrinsic, cost, domain.ReasonWheelCallCashSettled)
	}
}

// sellWheelPut writes a cash-secured put at 95% of spot sized from the wheel allocation.
func (s *state) sellWheelPut(row domain.PriceRow) {
	strike := row.Close * WheelPutStrikeRatio
	contracts := math.Floor(s.cfg.Wheel.Allocation / (strike * domain.ContractMultiplier))
	if contracts < 1 {
		return
	}
	s.pf.WheelPut = s.writeLeg(row, domain.OptionPut, domain.AssetWheelPut, strike, contracts, domain.ReasonWheelSellPut)
}

// sellWheelCall writes a covered call at 105% of spot on whole lots of held shares.
func (s *state) sellWheelCall(row domain.PriceRow) {
	strike := row.Close * WheelCallStrikeRatio
	contracts := math.Floor(s.pf.EquityShares / domain.ContractMultiplier)
	if contracts < 1 {
		return
	}
	s.pf.WheelCall = s.writeLeg(row, domain.OptionCall, domain.AssetWheelCall, strike, contracts, domain.ReasonWheelSellCall)
}

// writeLeg credits the premium of a new short leg and returns the position.
func (s *state) writeLeg(row domain.PriceRow, kind domain.OptionKind, asset domain.TradeAsset, strike, contracts float64, reason string) *domain.OptionPosition {
	t := float64(WheelTenorDays) / 365.0
	var premium float64
	if kind == domain.OptionPut {
		premium = pricing.PutPrice(row.Close, strike, t, s.cfg.RiskFreeRate, row.Volatility)
	} else {
		premium = pricing.CallPrice(row.Close, strike, t, s.cfg.RiskFreeRate, row.Volatility)
	}

	credit := contracts * domain.ContractMultiplier * premium
	s.pf.Cash += credit
	s.record(row.Date, domain.ActionSell, asset, contracts, premium, credit, reason)

	return &domain.OptionPosition{
		Kind:         kind,
		Strike:       strike,
		Expiry:       row.Date.AddDate(0, 0, WheelTenorDays),
		Contracts:    contracts,
		EntryPrice:   premium,
		CurrentPrice: premium,
	}
}
