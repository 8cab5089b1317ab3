// Package montecarlo runs a backtest configuration over many independent synthetic paths.
// Flow per run: generate path → derive volatility/MAs → simulate.
// Flow per batch: terminal values → percentile bands → representative result.
package montecarlo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"leap-portfolio-lab/internal/backtest"
	"leap-portfolio-lab/internal/domain"
	"leap-portfolio-lab/internal/idhash"
	"leap-portfolio-lab/internal/marketsim"
	"leap-portfolio-lab/internal/metrics"
	"leap-portfolio-lab/internal/normalization"
)

// Band percentiles.
const (
	LowerPercentile = 0.05
	UpperPercentile = 0.95
)

// ErrAllRunsFailed is returned when no run of a batch produced a result.
var ErrAllRunsFailed = errors.New("all monte carlo runs failed")

// PathFunc produces the price table for one run.
type PathFunc func(cfg domain.Config, run int) (domain.PriceTable, error)

// Progress describes one finished run.
type Progress struct {
	Run       int
	Completed int
	Total     int
	Err       error
}

// ProgressFunc receives a Progress after every finished run.
// It is called from worker goroutines, one call at a time.
type ProgressFunc func(Progress)

// Options for creating Orchestrator.
type Options struct {
	Workers  int          // concurrent runs, defaults to GOMAXPROCS
	Paths    PathFunc     // defaults to SyntheticPaths
	Progress ProgressFunc // optional
	Logger   *log.Logger  // optional
}

// Orchestrator coordinates Monte Carlo batch execution.
type Orchestrator struct {
	workers  int
	paths    PathFunc
	progress ProgressFunc
	logger   *log.Logger
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	paths := opts.Paths
	if paths == nil {
		paths = SyntheticPaths
	}
	return &Orchestrator{
		workers:  workers,
		paths:    paths,
		progress: opts.Progress,
		logger:   opts.Logger,
	}
}

// SyntheticPaths generates run's path from its own (seed, run) random stream.
// Custom drift/volatility apply when both are set, else the named scenario.
func SyntheticPaths(cfg domain.Config, run int) (domain.PriceTable, error) {
	gen := marketsim.NewGenerator(cfg.Simulation.Seed, uint64(run))
	sim := cfg.Simulation
	if sim.CustomDrift() {
		return gen.GenerateCustom(cfg.Symbol, cfg.StartDate, cfg.EndDate, *sim.Drift, *sim.Volatility)
	}
	return gen.GenerateScenario(cfg.Symbol, cfg.StartDate, cfg.EndDate, sim.Scenario)
}

// runOutcome is the slot each worker fills.
type runOutcome struct {
	result *domain.Result
	err    error
}

// Run executes cfg.Simulation.Runs runs and aggregates them.
//
// A failing or panicking run is recorded in the batch statistics and does not
// stop its siblings. Fails with ErrAllRunsFailed when no run succeeds and with
// ctx.Err() when the context is cancelled.
func (o *Orchestrator) Run(ctx context.Context, cfg domain.Config) (*domain.Result, error) {
	engine, err := backtest.NewEngine(cfg)
	if err != nil {
		return nil, err
	}

	total := cfg.Simulation.Runs
	if total < 1 {
		total = 1
	}
	o.log("Starting %d runs on %d workers (scenario=%q seed=%d)", total, o.workers, cfg.Simulation.Scenario, cfg.Simulation.Seed)

	outcomes := make([]runOutcome, total)

	var mu sync.Mutex
	completed := 0
	report := func(run int, err error) {
		mu.Lock()
		defer mu.Unlock()
		completed++
		if o.progress != nil {
			o.progress(Progress{Run: run, Completed: completed, Total: total, Err: err})
		}
	}

	var g errgroup.Group
	g.SetLimit(o.workers)
	for i := 0; i < total; i++ {
		if ctx.Err() != nil {
			break
		}
		run := i
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			res, err := o.runOne(engine, cfg, run)
			outcomes[run] = runOutcome{result: res, err: err}
			report(run, err)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("monte carlo cancelled after %d of %d runs: %w", completed, total, err)
	}

	return o.aggregate(cfg, outcomes)
}

// runOne executes a single run, converting panics into errors.
func (o *Orchestrator) runOne(engine *backtest.Engine, cfg domain.Config, run int) (res *domain.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("run %d panicked: %v", run, r)
		}
	}()

	table, err := o.paths(cfg, run)
	if err != nil {
		return nil, fmt.Errorf("run %d: generate path: %w", run, err)
	}
	table = normalization.Prepare(table, cfg)

	res, err = engine.Run(table)
	if err != nil {
		return nil, fmt.Errorf("run %d: %w", run, err)
	}
	return res, nil
}

// aggregate builds the representative result from per-run outcomes.
func (o *Orchestrator) aggregate(cfg domain.Config, outcomes []runOutcome) (*domain.Result, error) {
	stats := &domain.MonteCarloStats{Runs: len(outcomes)}

	var (
		representative *domain.Result
		portfolio      [][]float64
		benchmark      [][]float64
		firstErr       error
	)
	for run, out := range outcomes {
		if out.err != nil || out.result == nil {
			err := out.err
			if err == nil {
				err = fmt.Errorf("run %d: no result", run)
			}
			if firstErr == nil {
				firstErr = err
			}
			stats.FailedRuns++
			stats.Failures = append(stats.Failures, domain.RunFailure{Run: run, Error: err.Error()})
			o.log("  run %d failed: %v", run, err)
			continue
		}

		res := out.result
		if representative == nil {
			representative = res
		}
		stats.FinalPortfolioValues = append(stats.FinalPortfolioValues, res.FinalValue())
		stats.FinalBenchmarkValues = append(stats.FinalBenchmarkValues, res.FinalBenchmark())
		portfolio = append(portfolio, metrics.TotalValues(res.History))
		benchmark = append(benchmark, metrics.BenchmarkValues(res.History))
	}

	if representative == nil {
		return nil, fmt.Errorf("%w: %d runs: %w", ErrAllRunsFailed, len(outcomes), firstErr)
	}

	var err error
	if stats.ConfidenceIntervals.Portfolio, err = metrics.PercentileBands(portfolio, LowerPercentile, UpperPercentile); err != nil {
		return nil, fmt.Errorf("portfolio bands: %w", err)
	}
	if stats.ConfidenceIntervals.Benchmark, err = metrics.PercentileBands(benchmark, LowerPercentile, UpperPercentile); err != nil {
		return nil, fmt.Errorf("benchmark bands: %w", err)
	}
	stats.PortfolioSummary = metrics.Summarize(stats.FinalPortfolioValues)
	stats.BenchmarkSummary = metrics.Summarize(stats.FinalBenchmarkValues)

	out := *representative
	out.ID = idhash.ComputeBatchID(cfg)
	out.IsSimulation = true
	out.MonteCarlo = stats

	o.log("Completed %d runs (%d failed), mean terminal value %.2f",
		stats.Runs, stats.FailedRuns, stats.PortfolioSummary.Mean)
	return &out, nil
}

// log prints if logger is configured.
func (o *Orchestrator) log(format string, args ...any) {
	if o.logger != nil {
		o.logger.Printf(format, args...)
	}
}
