// Package config converts between the on-disk / on-wire strategy parameters
// and domain.Config.
package config

import (
	"fmt"
	"strings"
	"time"

	"leap-portfolio-lab/internal/domain"
)

// Params is the external form of domain.Config: YAML strategy files and
// JSON request bodies. Dates are YYYY-MM-DD strings.
type Params struct {
	Symbol         string  `yaml:"symbol" json:"symbol"`
	StartDate      string  `yaml:"start_date" json:"start_date"`
	EndDate        string  `yaml:"end_date" json:"end_date"`
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital"`

	EquityAllocation float64 `yaml:"equity_allocation" json:"equity_allocation"`
	LeapAllocation   float64 `yaml:"leap_allocation" json:"leap_allocation"`

	LeapDelta            float64 `yaml:"leap_delta" json:"leap_delta"`
	LeapExpirationMonths int     `yaml:"leap_expiration_months" json:"leap_expiration_months"`

	RebalanceDelta    float64 `yaml:"rebalance_delta" json:"rebalance_delta"`
	EquityDownTrigger float64 `yaml:"equity_down_trigger" json:"equity_down_trigger"`
	EquityUpTrigger   float64 `yaml:"equity_up_trigger" json:"equity_up_trigger"`

	ProfitLimit6m float64 `yaml:"profit_limit_6m" json:"profit_limit_6m"`
	LossLimit6m   float64 `yaml:"loss_limit_6m" json:"loss_limit_6m"`
	ProfitLimit3m float64 `yaml:"profit_limit_3m" json:"profit_limit_3m"`
	LossLimit3m   float64 `yaml:"loss_limit_3m" json:"loss_limit_3m"`
	ProfitLimit0m float64 `yaml:"profit_limit_0m" json:"profit_limit_0m"`
	LossLimit0m   float64 `yaml:"loss_limit_0m" json:"loss_limit_0m"`

	MonthlyWithdrawal float64 `yaml:"monthly_withdrawal" json:"monthly_withdrawal"`
	RiskFreeRate      float64 `yaml:"risk_free_rate" json:"risk_free_rate"`

	Wheel      WheelParams      `yaml:"wheel" json:"wheel"`
	Simulation SimulationParams `yaml:"simulation" json:"simulation"`
}

// WheelParams is the external form of domain.WheelConfig.
type WheelParams struct {
	Enabled    bool    `yaml:"enabled" json:"enabled"`
	MAShort    int     `yaml:"ma_short" json:"ma_short"`
	MALong     int     `yaml:"ma_long" json:"ma_long"`
	Allocation float64 `yaml:"allocation" json:"allocation"`
}

// SimulationParams is the external form of domain.SimulationConfig.
type SimulationParams struct {
	Enabled    bool     `yaml:"enabled" json:"enabled"`
	Scenario   string   `yaml:"scenario" json:"scenario"`
	Runs       int      `yaml:"runs" json:"runs"`
	Drift      *float64 `yaml:"drift,omitempty" json:"drift,omitempty"`
	Volatility *float64 `yaml:"volatility,omitempty" json:"volatility,omitempty"`
	Seed       uint64   `yaml:"seed" json:"seed"`
}

// DefaultParams returns the external form of domain.DefaultConfig.
func DefaultParams() Params {
	return FromDomain(domain.DefaultConfig())
}

// FromDomain converts cfg to its external form. Zero dates become empty strings.
func FromDomain(cfg domain.Config) Params {
	return Params{
		Symbol:               cfg.Symbol,
		StartDate:            formatDate(cfg.StartDate),
		EndDate:              formatDate(cfg.EndDate),
		InitialCapital:       cfg.InitialCapital,
		EquityAllocation:     cfg.EquityAllocation,
		LeapAllocation:       cfg.LeapAllocation,
		LeapDelta:            cfg.LeapDelta,
		LeapExpirationMonths: cfg.LeapExpirationMonths,
		RebalanceDelta:       cfg.RebalanceDelta,
		EquityDownTrigger:    cfg.EquityDownTrigger,
		EquityUpTrigger:      cfg.EquityUpTrigger,
		ProfitLimit6m:        cfg.ProfitLimit6m,
		LossLimit6m:          cfg.LossLimit6m,
		ProfitLimit3m:        cfg.ProfitLimit3m,
		LossLimit3m:          cfg.LossLimit3m,
		ProfitLimit0m:        cfg.ProfitLimit0m,
		LossLimit0m:          cfg.LossLimit0m,
		MonthlyWithdrawal:    cfg.MonthlyWithdrawal,
		RiskFreeRate:         cfg.RiskFreeRate,
		Wheel: WheelParams{
			Enabled:    cfg.Wheel.Enabled,
			MAShort:    cfg.Wheel.MAShort,
			MALong:     cfg.Wheel.MALong,
			Allocation: cfg.Wheel.Allocation,
		},
		Simulation: SimulationParams{
			Enabled:    cfg.Simulation.Enabled,
			Scenario:   cfg.Simulation.Scenario,
			Runs:       cfg.Simulation.Runs,
			Drift:      cfg.Simulation.Drift,
			Volatility: cfg.Simulation.Volatility,
			Seed:       cfg.Simulation.Seed,
		},
	}
}

// ToDomain parses dates, normalizes the symbol and validates the result.
func (p Params) ToDomain() (domain.Config, error) {
	start, err := parseDate("start_date", p.StartDate)
	if err != nil {
		return domain.Config{}, err
	}
	end, err := parseDate("end_date", p.EndDate)
	if err != nil {
		return domain.Config{}, err
	}

	cfg := domain.Config{
		Symbol:               strings.ToUpper(strings.TrimSpace(p.Symbol)),
		StartDate:            start,
		EndDate:              end,
		InitialCapital:       p.InitialCapital,
		EquityAllocation:     p.EquityAllocation,
		LeapAllocation:       p.LeapAllocation,
		LeapDelta:            p.LeapDelta,
		LeapExpirationMonths: p.LeapExpirationMonths,
		RebalanceDelta:       p.RebalanceDelta,
		EquityDownTrigger:    p.EquityDownTrigger,
		EquityUpTrigger:      p.EquityUpTrigger,
		ProfitLimit6m:        p.ProfitLimit6m,
		LossLimit6m:          p.LossLimit6m,
		ProfitLimit3m:        p.ProfitLimit3m,
		LossLimit3m:          p.LossLimit3m,
		ProfitLimit0m:        p.ProfitLimit0m,
		LossLimit0m:          p.LossLimit0m,
		MonthlyWithdrawal:    p.MonthlyWithdrawal,
		RiskFreeRate:         p.RiskFreeRate,
		Wheel: domain.WheelConfig{
			Enabled:    p.Wheel.Enabled,
			MAShort:    p.Wheel.MAShort,
			MALong:     p.Wheel.MALong,
			Allocation: p.Wheel.Allocation,
		},
		Simulation: domain.SimulationConfig{
			Enabled:    p.Simulation.Enabled,
			Scenario:   strings.ToLower(strings.TrimSpace(p.Simulation.Scenario)),
			Runs:       p.Simulation.Runs,
			Drift:      p.Simulation.Drift,
			Volatility: p.Simulation.Volatility,
			Seed:       p.Simulation.Seed,
		},
	}

	if cfg.Symbol == "" {
		return domain.Config{}, fmt.Errorf("%w: symbol is required", domain.ErrInvalidConfig)
	}
	if start.IsZero() || end.IsZero() {
		return domain.Config{}, fmt.Errorf("%w: start_date and end_date are required", domain.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(domain.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q is not YYYY-MM-DD", domain.ErrInvalidInput, field, value)
	}
	return t, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(domain.DateLayout)
}
