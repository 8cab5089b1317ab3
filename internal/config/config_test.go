package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leap-portfolio-lab/internal/domain"
)

const sampleYAML = `
symbol: qqq
start_date: 2020-01-02
end_date: 2023-12-29
initial_capital: 250000
equity_allocation: 50
leap_allocation: 30
monthly_withdrawal: 2000
wheel:
  enabled: true
  allocation: 20000
simulation:
  enabled: true
  scenario: High_Vol
  runs: 200
  seed: 9
`

func TestParse_OverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "QQQ", cfg.Symbol)
	assert.Equal(t, time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), cfg.StartDate)
	assert.Equal(t, time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC), cfg.EndDate)
	assert.Equal(t, 250000.0, cfg.InitialCapital)
	assert.Equal(t, 50.0, cfg.EquityAllocation)
	assert.Equal(t, 2000.0, cfg.MonthlyWithdrawal)

	// Untouched keys keep defaults
	def := domain.DefaultConfig()
	assert.Equal(t, def.LeapDelta, cfg.LeapDelta)
	assert.Equal(t, def.ProfitLimit6m, cfg.ProfitLimit6m)
	assert.Equal(t, def.Wheel.MAShort, cfg.Wheel.MAShort)

	assert.True(t, cfg.Wheel.Enabled)
	assert.Equal(t, "high_vol", cfg.Simulation.Scenario)
	assert.Equal(t, 200, cfg.Simulation.Runs)
	assert.Equal(t, uint64(9), cfg.Simulation.Seed)
	assert.True(t, cfg.MonteCarlo())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"unknown key", "symbol: SPY\nstart_date: 2020-01-01\nend_date: 2021-01-01\nleverage: 2\n", domain.ErrInvalidInput},
		{"bad date", "symbol: SPY\nstart_date: 01/02/2020\nend_date: 2021-01-01\n", domain.ErrInvalidInput},
		{"missing symbol", "start_date: 2020-01-01\nend_date: 2021-01-01\n", domain.ErrInvalidConfig},
		{"missing dates", "symbol: SPY\n", domain.ErrInvalidConfig},
		{"reversed dates", "symbol: SPY\nstart_date: 2021-01-01\nend_date: 2020-01-01\n", domain.ErrInvalidDateRange},
		{"over allocated", "symbol: SPY\nstart_date: 2020-01-01\nend_date: 2021-01-01\nequity_allocation: 90\n", domain.ErrInvalidConfig},
		{"unknown scenario", "symbol: SPY\nstart_date: 2020-01-01\nend_date: 2021-01-01\nsimulation:\n  enabled: true\n  scenario: moon\n", domain.ErrUnknownScenario},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCustomDriftRoundTrip(t *testing.T) {
	data := "symbol: SPY\nstart_date: 2020-01-01\nend_date: 2021-01-01\nsimulation:\n  enabled: true\n  drift: 0.12\n  volatility: 0.3\n"
	cfg, err := Parse([]byte(data))
	require.NoError(t, err)
	require.True(t, cfg.Simulation.CustomDrift())
	assert.Equal(t, 0.12, *cfg.Simulation.Drift)

	out, err := Marshal(cfg)
	require.NoError(t, err)

	again, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strategy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "QQQ", cfg.Symbol)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDecode_EmptyDocumentKeepsDefaults(t *testing.T) {
	params, err := Decode(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultParams(), params)
}

func TestDecodeJSON(t *testing.T) {
	params, err := DecodeJSON([]byte(`{"symbol":"spy","start_date":"2021-01-04","end_date":"2021-12-31","wheel":{"enabled":true}}`))
	require.NoError(t, err)

	cfg, err := params.ToDomain()
	require.NoError(t, err)
	assert.Equal(t, "SPY", cfg.Symbol)
	assert.True(t, cfg.Wheel.Enabled)
	assert.Equal(t, domain.DefaultWheelMAShort, cfg.Wheel.MAShort)

	_, err = DecodeJSON([]byte(`{"symbol":"SPY","leverage":2}`))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("DecodeJSON() unknown field error = %v, want ErrInvalidInput", err)
	}

	empty, err := DecodeJSON([]byte("  "))
	require.NoError(t, err)
	assert.Equal(t, DefaultParams(), empty)
}
