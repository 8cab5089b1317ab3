package domain

import (
	"fmt"
	"time"
)

// Config holds every parameter of a single backtest.
// Allocations, triggers and limits are percentages (5 means 5%).
type Config struct {
	Symbol         string    `json:"symbol"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	InitialCapital float64   `json:"initial_capital"`

	// Target weights of net asset value. Cash is the remainder.
	EquityAllocation float64 `json:"equity_allocation"`
	LeapAllocation   float64 `json:"leap_allocation"`

	// LEAP selection
	LeapDelta            float64 `json:"leap_delta"`
	LeapExpirationMonths int     `json:"leap_expiration_months"`

	// Rebalance triggers
	RebalanceDelta    float64 `json:"rebalance_delta"`
	EquityDownTrigger float64 `json:"equity_down_trigger"`
	EquityUpTrigger   float64 `json:"equity_up_trigger"`

	// LEAP profit/loss limits, tiered by remaining life
	ProfitLimit6m float64 `json:"profit_limit_6m"` // > 180 days left
	LossLimit6m   float64 `json:"loss_limit_6m"`
	ProfitLimit3m float64 `json:"profit_limit_3m"` // 90..180 days left
	LossLimit3m   float64 `json:"loss_limit_3m"`
	ProfitLimit0m float64 `json:"profit_limit_0m"` // < 90 days left
	LossLimit0m   float64 `json:"loss_limit_0m"`

	MonthlyWithdrawal float64 `json:"monthly_withdrawal"` // dollars per calendar month
	RiskFreeRate      float64 `json:"risk_free_rate"`     // annualized, decimal

	Wheel      WheelConfig      `json:"wheel"`
	Simulation SimulationConfig `json:"simulation"`
}

// WheelConfig controls the optional cash-secured put / covered call overlay.
type WheelConfig struct {
	Enabled    bool    `json:"enabled"`
	MAShort    int     `json:"ma_short"`
	MALong     int     `json:"ma_long"`
	Allocation float64 `json:"allocation"` // dollars reserved for put collateral
}

// SimulationConfig selects synthetic price paths instead of historical data.
// Custom mode applies when both Drift and Volatility are set.
type SimulationConfig struct {
	Enabled    bool     `json:"enabled"`
	Scenario   string   `json:"scenario"`
	Runs       int      `json:"runs"`
	Drift      *float64 `json:"drift,omitempty"`
	Volatility *float64 `json:"volatility,omitempty"`
	Seed       uint64   `json:"seed"`
}

// Default configuration values.
const (
	DefaultRiskFreeRate         = 0.04
	DefaultLeapDelta            = 0.7
	DefaultLeapExpirationMonths = 12
	DefaultWheelMAShort         = 20
	DefaultWheelMALong          = 50
)

// DefaultConfig returns a config populated with default values.
// Dates, symbol and capital still need to be set by the caller.
func DefaultConfig() Config {
	return Config{
		InitialCapital:       100000,
		EquityAllocation:     60,
		LeapAllocation:       20,
		LeapDelta:            DefaultLeapDelta,
		LeapExpirationMonths: DefaultLeapExpirationMonths,
		RebalanceDelta:       5,
		EquityDownTrigger:    10,
		EquityUpTrigger:      15,
		ProfitLimit6m:        50,
		LossLimit6m:          30,
		ProfitLimit3m:        30,
		LossLimit3m:          20,
		ProfitLimit0m:        10,
		LossLimit0m:          10,
		RiskFreeRate:         DefaultRiskFreeRate,
		Wheel: WheelConfig{
			MAShort: DefaultWheelMAShort,
			MALong:  DefaultWheelMALong,
		},
		Simulation: SimulationConfig{
			Scenario: ScenarioNeutral,
			Runs:     1,
		},
	}
}

// CustomDrift reports whether the simulation uses caller-supplied drift and volatility.
func (s SimulationConfig) CustomDrift() bool {
	return s.Drift != nil && s.Volatility != nil
}

// MonteCarlo reports whether the config asks for more than one synthetic run.
func (c Config) MonteCarlo() bool {
	return c.Simulation.Enabled && c.Simulation.Runs > 1
}

// Validate checks ranges and cross-field constraints.
// All failures wrap ErrInvalidConfig.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return invalidf("initial_capital must be positive, got %v", c.InitialCapital)
	}
	if err := percentRange("equity_allocation", c.EquityAllocation); err != nil {
		return err
	}
	if err := percentRange("leap_allocation", c.LeapAllocation); err != nil {
		return err
	}
	if c.EquityAllocation+c.LeapAllocation > 100 {
		return invalidf("equity_allocation + leap_allocation must not exceed 100, got %v",
			c.EquityAllocation+c.LeapAllocation)
	}
	if c.LeapDelta < 0.1 || c.LeapDelta > 0.95 {
		return invalidf("leap_delta must be in [0.1, 0.95], got %v", c.LeapDelta)
	}
	if c.LeapExpirationMonths < 6 || c.LeapExpirationMonths > 24 {
		return invalidf("leap_expiration_months must be in [6, 24], got %d", c.LeapExpirationMonths)
	}

	nonNegative := []struct {
		name  string
		value float64
	}{
		{"rebalance_delta", c.RebalanceDelta},
		{"equity_down_trigger", c.EquityDownTrigger},
		{"equity_up_trigger", c.EquityUpTrigger},
		{"profit_limit_6m", c.ProfitLimit6m},
		{"loss_limit_6m", c.LossLimit6m},
		{"profit_limit_3m", c.ProfitLimit3m},
		{"loss_limit_3m", c.LossLimit3m},
		{"profit_limit_0m", c.ProfitLimit0m},
		{"loss_limit_0m", c.LossLimit0m},
		{"monthly_withdrawal", c.MonthlyWithdrawal},
	}
	for _, f := range nonNegative {
		if f.value < 0 {
			return invalidf("%s must not be negative, got %v", f.name, f.value)
		}
	}

	if !c.StartDate.IsZero() && !c.EndDate.IsZero() && c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("%w: %w: end_date %s is before start_date %s", ErrInvalidConfig,
			ErrInvalidDateRange, c.EndDate.Format(DateLayout), c.StartDate.Format(DateLayout))
	}

	if c.Wheel.Enabled {
		if c.Wheel.MAShort < 1 || c.Wheel.MALong < 1 {
			return invalidf("wheel moving average windows must be at least 1, got %d/%d",
				c.Wheel.MAShort, c.Wheel.MALong)
		}
		if c.Wheel.Allocation < 0 {
			return invalidf("wheel allocation must not be negative, got %v", c.Wheel.Allocation)
		}
	}

	if c.Simulation.Enabled {
		if c.Simulation.Runs < 1 {
			return invalidf("simulation runs must be at least 1, got %d", c.Simulation.Runs)
		}
		if c.Simulation.Volatility != nil && *c.Simulation.Volatility < 0 {
			return invalidf("simulation volatility must not be negative, got %v", *c.Simulation.Volatility)
		}
		if !c.Simulation.CustomDrift() && c.Simulation.Scenario != "" {
			if _, err := ParseScenario(c.Simulation.Scenario); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
			}
		}
	}

	return nil
}

func percentRange(name string, v float64) error {
	if v < 0 || v > 100 {
		return invalidf("%s must be in [0, 100], got %v", name, v)
	}
	return nil
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
