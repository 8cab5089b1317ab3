// Package backtest runs the day-by-day portfolio simulation.
//
// One Engine.Run call is a pure, sequential pass over a price table. No I/O,
// no randomness: identical config and table give identical results.
package backtest

import (
	"fmt"
	"time"

	"leap-portfolio-lab/internal/domain"
	"leap-portfolio-lab/internal/idhash"
	"leap-portfolio-lab/internal/metrics"
)

// Trading constants.
const (
	// MinLeapContracts is the smallest LEAP position the sizing rule opens.
	MinLeapContracts = 0.01

	// EquityTradeThreshold suppresses equity rebalance trades at or below this dollar size.
	EquityTradeThreshold = 100.0

	// LeapTradeThreshold suppresses LEAP rebalance trades at or below this dollar size.
	LeapTradeThreshold = 500.0

	// LeapCloseDays force-closes the LEAP when this many days or fewer remain.
	LeapCloseDays = 5

	// DaysPerMonth converts LEAP tenor months to calendar days.
	DaysPerMonth = 30

	// WheelTenorDays is the life of each wheel leg.
	WheelTenorDays = 30

	// WheelPutStrikeRatio and WheelCallStrikeRatio place wheel strikes relative to spot.
	WheelPutStrikeRatio  = 0.95
	WheelCallStrikeRatio = 1.05

	// dust is the contract count below which a position is treated as closed.
	dust = 1e-9
)

// Engine simulates one portfolio configuration over a price table.
type Engine struct {
	cfg domain.Config
}

// NewEngine validates cfg and creates an engine.
func NewEngine(cfg domain.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() domain.Config {
	return e.cfg
}

// Run simulates every row of table in order and returns the result.
//
// An empty table yields a zero-valued result. A table with non-positive
// closes or non-increasing dates fails with domain.ErrInvalidPriceTable.
// Volatility and moving averages are read from the rows as given.
func (e *Engine) Run(table domain.PriceTable) (*domain.Result, error) {
	res := &domain.Result{
		Config:  e.cfg,
		Trades:  []domain.Trade{},
		History: []domain.Snapshot{},
	}
	if len(table) == 0 {
		res.ID = idhash.ComputeResultID(e.cfg, table)
		return res, nil
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("run backtest: %w", err)
	}

	s := newState(e.cfg, table[0])
	s.initialAllocation(table[0])

	for _, row := range table {
		s.step(row)
	}

	res.ID = idhash.ComputeResultID(e.cfg, table)
	res.Trades = s.trades
	res.History = s.history
	metrics.ApplyPerformance(res)
	return res, nil
}

// state is the mutable lifetime state of one run.
type state struct {
	cfg domain.Config
	pf  domain.Portfolio

	trades  []domain.Trade
	history []domain.Snapshot

	lastRebalancePrice float64
	lastWithdrawal     monthKey
	withdrawn          bool
	peak               float64
	benchmarkShares    float64
}

type monthKey struct {
	year  int
	month time.Month
}

func newState(cfg domain.Config, first domain.PriceRow) *state {
	return &state{
		cfg:                cfg,
		pf:                 domain.Portfolio{Cash: cfg.InitialCapital},
		trades:             make([]domain.Trade, 0, 64),
		lastRebalancePrice: first.Close,
		benchmarkShares:    cfg.InitialCapital / first.Close,
	}
}

// initialAllocation buys equity and opens the LEAP on the first row.
func (s *state) initialAllocation(row domain.PriceRow) {
	capital := s.pf.Cash
	targetEquity := capital * s.cfg.EquityAllocation / 100
	targetLeap := capital * s.cfg.LeapAllocation / 100

	if targetEquity > 0 {
		qty := targetEquity / row.Close
		s.pf.EquityShares = qty
		s.pf.Cash -= targetEquity
		s.record(row.Date, domain.ActionBuy, domain.AssetEquity, qty, row.Close, targetEquity, domain.ReasonInitialAllocation)
	}

	s.openLeap(row, targetLeap)
}

// step runs one day of the state machine.
func (s *state) step(row domain.PriceRow) {
	s.reprice(row)
	s.withdraw(row)

	if !s.checkLeapExit(row) {
		s.checkRebalance(row)
	}

	if s.cfg.Wheel.Enabled {
		s.runWheel(row)
	}

	s.snapshot(row)
}

// reprice marks all option legs to the day's spot and volatility.
func (s *state) reprice(row domain.PriceRow) {
	for _, leg := range []*domain.OptionPosition{s.pf.Leap, s.pf.WheelPut, s.pf.WheelCall} {
		if leg == nil {
			continue
		}
		leg.CurrentPrice = markOption(leg, row, s.cfg.RiskFreeRate)
	}
}

// withdraw debits the monthly withdrawal on the first simulated day of each calendar month.
func (s *state) withdraw(row domain.PriceRow) {
	amount := s.cfg.MonthlyWithdrawal
	if amount <= 0 {
		return
	}
	key := monthKey{year: row.Date.Year(), month: row.Date.Month()}
	if s.withdrawn && key == s.lastWithdrawal {
		return
	}

	reason := domain.ReasonMonthlySpending
	if s.pf.Cash < amount {
		reason = domain.ReasonMonthlySpendingMargin
	}
	s.pf.Cash -= amount
	s.record(row.Date, domain.ActionWithdraw, domain.AssetCash, 1, amount, amount, reason)

	// The benchmark spends the same amount by selling shares.
	s.benchmarkShares -= amount / row.Close

	s.lastWithdrawal = key
	s.withdrawn = true
}

func (s *state) record(date time.Time, action domain.TradeAction, asset domain.TradeAsset, qty, price, value float64, reason string) {
	s.trades = append(s.trades, domain.Trade{
		Date:     date,
		Action:   action,
		Asset:    asset,
		Quantity: qty,
		Price:    price,
		Value:    value,
		Reason:   reason,
	})
}
