package montecarlo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leap-portfolio-lab/internal/domain"
)

func batchConfig(scenario string, runs int) domain.Config {
	cfg := domain.DefaultConfig()
	cfg.Symbol = "SIM"
	cfg.StartDate = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg.EndDate = time.Date(2022, 6, 30, 0, 0, 0, 0, time.UTC)
	cfg.Simulation = domain.SimulationConfig{
		Enabled:  true,
		Scenario: scenario,
		Runs:     runs,
		Seed:     42,
	}
	return cfg
}

func TestRun_AggregatesEveryRun(t *testing.T) {
	cfg := batchConfig(domain.ScenarioNeutral, 12)

	res, err := New(Options{Workers: 4}).Run(context.Background(), cfg)
	require.NoError(t, err)

	require.NotNil(t, res.MonteCarlo)
	mc := res.MonteCarlo
	assert.True(t, res.IsSimulation)
	assert.Equal(t, 12, mc.Runs)
	assert.Zero(t, mc.FailedRuns)
	assert.Len(t, mc.FinalPortfolioValues, 12)
	assert.Len(t, mc.FinalBenchmarkValues, 12)
	assert.Equal(t, 12, mc.PortfolioSummary.Count)

	band := mc.ConfidenceIntervals.Portfolio
	require.Len(t, band.Lower, len(res.History))
	require.Len(t, band.Upper, len(res.History))
	for i := range band.Lower {
		if band.Lower[i] > band.Upper[i] {
			t.Fatalf("band inverted at %d: %f > %f", i, band.Lower[i], band.Upper[i])
		}
	}
	assert.Len(t, mc.ConfidenceIntervals.Benchmark.Lower, len(res.History))

	// The representative result is run 0.
	assert.InDelta(t, mc.FinalPortfolioValues[0], res.FinalValue(), 1e-9)
}

func TestRun_DeterministicForSeed(t *testing.T) {
	cfg := batchConfig(domain.ScenarioHighVol, 8)

	a, err := New(Options{Workers: 1}).Run(context.Background(), cfg)
	require.NoError(t, err)
	b, err := New(Options{Workers: 8}).Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, a.MonteCarlo.FinalPortfolioValues, b.MonteCarlo.FinalPortfolioValues)
	assert.Equal(t, a.MonteCarlo.ConfidenceIntervals, b.MonteCarlo.ConfidenceIntervals)

	cfg.Simulation.Seed = 7
	c, err := New(Options{Workers: 4}).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a.MonteCarlo.FinalPortfolioValues, c.MonteCarlo.FinalPortfolioValues)
}

func TestRun_CustomDrift(t *testing.T) {
	cfg := batchConfig(domain.ScenarioNeutral, 3)
	drift, vol := 0.0, 0.0
	cfg.Simulation.Drift = &drift
	cfg.Simulation.Volatility = &vol

	res, err := New(Options{Workers: 2}).Run(context.Background(), cfg)
	require.NoError(t, err)

	// Zero drift and volatility give the same flat path for every run.
	values := res.MonteCarlo.FinalPortfolioValues
	require.Len(t, values, 3)
	assert.InDelta(t, values[0], values[1], 1e-9)
	assert.InDelta(t, values[0], values[2], 1e-9)
}

func TestRun_FailedRunsAreIsolated(t *testing.T) {
	cfg := batchConfig(domain.ScenarioNeutral, 6)

	paths := func(cfg domain.Config, run int) (domain.PriceTable, error) {
		switch run {
		case 1:
			return nil, errors.New("feed unavailable")
		case 4:
			panic("corrupt path")
		}
		return SyntheticPaths(cfg, run)
	}

	res, err := New(Options{Workers: 3, Paths: paths}).Run(context.Background(), cfg)
	require.NoError(t, err)

	mc := res.MonteCarlo
	assert.Equal(t, 6, mc.Runs)
	assert.Equal(t, 2, mc.FailedRuns)
	assert.Len(t, mc.FinalPortfolioValues, 4)
	require.Len(t, mc.Failures, 2)
	assert.Equal(t, 1, mc.Failures[0].Run)
	assert.Contains(t, mc.Failures[0].Error, "feed unavailable")
	assert.Equal(t, 4, mc.Failures[1].Run)
	assert.Contains(t, mc.Failures[1].Error, "panicked")
}

func TestRun_AllRunsFailed(t *testing.T) {
	cfg := batchConfig(domain.ScenarioNeutral, 3)
	paths := func(domain.Config, int) (domain.PriceTable, error) {
		return nil, errors.New("boom")
	}

	_, err := New(Options{Paths: paths}).Run(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAllRunsFailed))
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := batchConfig(domain.ScenarioNeutral, 3)
	cfg.InitialCapital = 0

	_, err := New(Options{}).Run(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
}

func TestRun_Cancelled(t *testing.T) {
	cfg := batchConfig(domain.ScenarioNeutral, 50)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{Workers: 2}).Run(ctx, cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRun_Progress(t *testing.T) {
	cfg := batchConfig(domain.ScenarioNeutral, 10)

	var (
		mu   sync.Mutex
		seen []Progress
	)
	progress := func(p Progress) {
		mu.Lock()
		seen = append(seen, p)
		mu.Unlock()
	}

	_, err := New(Options{Workers: 4, Progress: progress}).Run(context.Background(), cfg)
	require.NoError(t, err)

	require.Len(t, seen, 10)
	runs := make(map[int]bool)
	for i, p := range seen {
		assert.Equal(t, i+1, p.Completed)
		assert.Equal(t, 10, p.Total)
		assert.NoError(t, p.Err)
		runs[p.Run] = true
	}
	assert.Len(t, runs, 10)
}

func TestRun_BullBeatsBearOnAverage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping long batch in short mode")
	}

	bull, err := New(Options{}).Run(context.Background(), batchConfig(domain.ScenarioBull, 100))
	require.NoError(t, err)
	bear, err := New(Options{}).Run(context.Background(), batchConfig(domain.ScenarioBear, 100))
	require.NoError(t, err)

	if bull.MonteCarlo.BenchmarkSummary.Mean <= bear.MonteCarlo.BenchmarkSummary.Mean {
		t.Errorf("bull benchmark mean %.2f should exceed bear %.2f",
			bull.MonteCarlo.BenchmarkSummary.Mean, bear.MonteCarlo.BenchmarkSummary.Mean)
	}
}
