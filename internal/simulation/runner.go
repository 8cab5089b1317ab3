// Package simulation dispatches a configuration to historical, synthetic or
// Monte Carlo execution and persists the outcome.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"leap-portfolio-lab/internal/backtest"
	"leap-portfolio-lab/internal/domain"
	"leap-portfolio-lab/internal/montecarlo"
	"leap-portfolio-lab/internal/normalization"
	"leap-portfolio-lab/internal/observability"
	"leap-portfolio-lab/internal/storage"
)

// Execution modes, also used as metric labels.
const (
	ModeHistorical = "historical"
	ModeSynthetic  = "synthetic"
	ModeMonteCarlo = "montecarlo"
)

// PriceSource supplies historical bars. storage.PriceBarStore satisfies it.
type PriceSource interface {
	GetByRange(ctx context.Context, symbol string, start, end time.Time) (domain.PriceTable, error)
}

// Runner executes backtests.
type Runner struct {
	prices    PriceSource
	results   storage.ResultStore
	trades    storage.TradeStore
	snapshots storage.SnapshotStore
	workers   int
	metrics   *observability.Metrics
	logger    *log.Logger
	now       func() time.Time
}

// RunnerOptions contains configuration for creating a Runner.
// Nil stores disable the matching persistence step.
type RunnerOptions struct {
	Prices    PriceSource
	Results   storage.ResultStore
	Trades    storage.TradeStore
	Snapshots storage.SnapshotStore
	Workers   int                    // Monte Carlo concurrency, 0 = GOMAXPROCS
	Metrics   *observability.Metrics // defaults to observability.DefaultMetrics
	Logger    *log.Logger            // optional
	Now       func() time.Time       // defaults to time.Now
}

// NewRunner creates a simulation runner.
func NewRunner(opts RunnerOptions) *Runner {
	m := opts.Metrics
	if m == nil {
		m = observability.DefaultMetrics
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Runner{
		prices:    opts.Prices,
		results:   opts.Results,
		trades:    opts.Trades,
		snapshots: opts.Snapshots,
		workers:   opts.Workers,
		metrics:   m,
		logger:    opts.Logger,
		now:       now,
	}
}

// Request is one backtest invocation.
type Request struct {
	Config domain.Config

	// Table overrides the PriceSource in historical mode.
	Table domain.PriceTable

	// StrategyID links the persisted result to a saved strategy.
	StrategyID *string

	// Progress receives Monte Carlo run completions.
	Progress montecarlo.ProgressFunc
}

// Mode reports which execution path cfg selects.
func Mode(cfg domain.Config) string {
	switch {
	case cfg.MonteCarlo():
		return ModeMonteCarlo
	case cfg.Simulation.Enabled:
		return ModeSynthetic
	default:
		return ModeHistorical
	}
}

// Run executes the request and persists the result.
// Steps:
//  1. Validate config
//  2. Build the price table (historical or synthetic) or run the Monte Carlo batch
//  3. Simulate
//  4. Persist result header, trade log and history
func (r *Runner) Run(ctx context.Context, req Request) (*domain.Result, error) {
	started := r.now()
	mode := Mode(req.Config)

	res, err := r.execute(ctx, mode, req)
	if err == nil {
		err = r.persist(ctx, res, req.StrategyID)
	}

	trades, days := 0, 0
	if res != nil {
		trades, days = len(res.Trades), len(res.History)
	}
	r.metrics.RecordBacktest(mode, r.now().Sub(started), trades, days, err)

	if err != nil {
		r.log("%s backtest failed: %v", mode, err)
		return nil, err
	}
	r.log("%s backtest %s: final %.2f, return %.2f%%", mode, res.ID, res.FinalValue(), res.TotalReturn)
	return res, nil
}

func (r *Runner) execute(ctx context.Context, mode string, req Request) (*domain.Result, error) {
	cfg := req.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch mode {
	case ModeMonteCarlo:
		return r.runMonteCarlo(ctx, req)
	case ModeSynthetic:
		table, err := montecarlo.SyntheticPaths(cfg, 0)
		if err != nil {
			return nil, fmt.Errorf("generate synthetic path: %w", err)
		}
		res, err := r.simulate(cfg, table)
		if err != nil {
			return nil, err
		}
		res.IsSimulation = true
		return res, nil
	default:
		table, err := r.historical(ctx, req)
		if err != nil {
			return nil, err
		}
		return r.simulate(cfg, table)
	}
}

// historical returns the request's table or loads it from the price source.
func (r *Runner) historical(ctx context.Context, req Request) (domain.PriceTable, error) {
	cfg := req.Config
	table := req.Table
	if len(table) == 0 && r.prices != nil {
		loaded, err := r.prices.GetByRange(ctx, cfg.Symbol, cfg.StartDate, cfg.EndDate)
		if err != nil {
			return nil, fmt.Errorf("load prices for %s: %w", cfg.Symbol, err)
		}
		table = loaded
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("%w: %s %s..%s", domain.ErrEmptyPriceTable, cfg.Symbol,
			cfg.StartDate.Format(domain.DateLayout), cfg.EndDate.Format(domain.DateLayout))
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

func (r *Runner) simulate(cfg domain.Config, table domain.PriceTable) (*domain.Result, error) {
	engine, err := backtest.NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	return engine.Run(normalization.Prepare(table, cfg))
}

func (r *Runner) runMonteCarlo(ctx context.Context, req Request) (*domain.Result, error) {
	runs := req.Config.Simulation.Runs
	r.metrics.RecordMonteCarloBatch(runs)

	finished := 0
	progress := func(p montecarlo.Progress) {
		finished++
		r.metrics.RecordMonteCarloRun(p.Err)
		if req.Progress != nil {
			req.Progress(p)
		}
	}
	defer func() { r.metrics.ReleasePending(runs - finished) }()

	orch := montecarlo.New(montecarlo.Options{
		Workers:  r.workers,
		Progress: progress,
		Logger:   r.logger,
	})
	return orch.Run(ctx, req.Config)
}

// persist stores the result. A result ID that already exists is left as is:
// IDs are content hashes, so the stored copy is identical.
func (r *Runner) persist(ctx context.Context, res *domain.Result, strategyID *string) error {
	if r.results == nil {
		return nil
	}

	summary := domain.NewResultSummary(res, strategyID, r.now().UTC())
	start := time.Now()
	err := r.results.Insert(ctx, summary)
	r.metrics.RecordDBQuery("results", "insert", time.Since(start), ignoreDuplicate(err))
	if errors.Is(err, storage.ErrDuplicateKey) {
		r.log("result %s already stored", res.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("store result %s: %w", res.ID, err)
	}

	if r.trades != nil {
		start = time.Now()
		err = r.trades.InsertBulk(ctx, res.ID, res.Trades)
		r.metrics.RecordDBQuery("trades", "insert_bulk", time.Since(start), err)
		if err != nil {
			return fmt.Errorf("store trades of %s: %w", res.ID, err)
		}
	}

	if r.snapshots != nil {
		start = time.Now()
		err = r.snapshots.InsertBulk(ctx, res.ID, res.History)
		r.metrics.RecordDBQuery("snapshots", "insert_bulk", time.Since(start), err)
		if err != nil {
			return fmt.Errorf("store history of %s: %w", res.ID, err)
		}
	}

	return nil
}

// Load rebuilds a stored result from its header, trade log and history.
// Monte Carlo batch statistics are not persisted and come back nil.
func (r *Runner) Load(ctx context.Context, resultID string) (*domain.Result, error) {
	if r.results == nil {
		return nil, storage.ErrNotFound
	}

	summary, err := r.results.GetByID(ctx, resultID)
	if err != nil {
		return nil, err
	}

	res := &domain.Result{
		ID:           summary.ResultID,
		Config:       summary.Config,
		TotalReturn:  summary.TotalReturn,
		CAGR:         summary.CAGR,
		MaxDrawdown:  summary.MaxDrawdown,
		SharpeRatio:  summary.SharpeRatio,
		IsSimulation: summary.IsSimulation,
		Trades:       []domain.Trade{},
		History:      []domain.Snapshot{},
	}

	if r.trades != nil {
		trades, err := r.trades.GetByResultID(ctx, resultID)
		if err != nil {
			return nil, fmt.Errorf("load trades of %s: %w", resultID, err)
		}
		if trades != nil {
			res.Trades = trades
		}
	}
	if r.snapshots != nil {
		history, err := r.snapshots.GetByResultID(ctx, resultID)
		if err != nil {
			return nil, fmt.Errorf("load history of %s: %w", resultID, err)
		}
		if history != nil {
			res.History = history
		}
	}

	return res, nil
}

// Summaries lists stored result headers, newest first.
func (r *Runner) Summaries(ctx context.Context, limit int) ([]*domain.ResultSummary, error) {
	if r.results == nil {
		return []*domain.ResultSummary{}, nil
	}
	return r.results.List(ctx, limit)
}

func ignoreDuplicate(err error) error {
	if errors.Is(err, storage.ErrDuplicateKey) {
		return nil
	}
	return err
}

// log prints if logger is configured.
func (r *Runner) log(format string, args ...any) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
	}
}
