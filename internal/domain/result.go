package domain

import "time"

// Result is the outcome of one backtest or the representative run of a Monte Carlo batch.
// TotalReturn, CAGR and MaxDrawdown are percentages.
type Result struct {
	ID           string           `json:"id"`
	Config       Config           `json:"config"`
	TotalReturn  float64          `json:"total_return"`
	CAGR         float64          `json:"cagr"`
	MaxDrawdown  float64          `json:"max_drawdown"`
	SharpeRatio  float64          `json:"sharpe_ratio"`
	Trades       []Trade          `json:"trades"`
	History      []Snapshot       `json:"history"`
	IsSimulation bool             `json:"is_simulation"`
	MonteCarlo   *MonteCarloStats `json:"monte_carlo,omitempty"`
}

// FinalValue returns the last snapshot's total value, or zero for an empty history.
func (r *Result) FinalValue() float64 {
	if len(r.History) == 0 {
		return 0
	}
	return r.History[len(r.History)-1].TotalValue
}

// FinalBenchmark returns the last snapshot's benchmark value, or zero.
func (r *Result) FinalBenchmark() float64 {
	if len(r.History) == 0 {
		return 0
	}
	return r.History[len(r.History)-1].BenchmarkValue
}

// Band is a per-time-step lower/upper percentile envelope.
type Band struct {
	Lower []float64 `json:"lower"`
	Upper []float64 `json:"upper"`
}

// ConfidenceIntervals holds the portfolio and benchmark bands of a Monte Carlo batch.
type ConfidenceIntervals struct {
	Portfolio Band `json:"portfolio"`
	Benchmark Band `json:"benchmark"`
}

// Distribution summarizes a sample of terminal values.
type Distribution struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Stddev float64 `json:"stddev"`
	P5     float64 `json:"p5"`
	P95    float64 `json:"p95"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// RunFailure records one Monte Carlo run that did not produce a result.
type RunFailure struct {
	Run   int    `json:"run"`
	Error string `json:"error"`
}

// MonteCarloStats aggregates a batch of synthetic runs.
// Terminal value slices are in run order and cover successful runs only.
type MonteCarloStats struct {
	Runs                 int                 `json:"runs"`
	FailedRuns           int                 `json:"failed_runs"`
	Failures             []RunFailure        `json:"failures,omitempty"`
	FinalPortfolioValues []float64           `json:"final_portfolio_values"`
	FinalBenchmarkValues []float64           `json:"final_benchmark_values"`
	ConfidenceIntervals  ConfidenceIntervals `json:"confidence_intervals"`
	PortfolioSummary     Distribution        `json:"portfolio_summary"`
	BenchmarkSummary     Distribution        `json:"benchmark_summary"`
}

// ResultSummary is the persisted header of a result.
type ResultSummary struct {
	ResultID       string
	StrategyID     *string // saved strategy, if the run was started from one
	Symbol         string
	StartDate      time.Time
	EndDate        time.Time
	InitialCapital float64
	FinalValue     float64
	FinalBenchmark float64
	TotalReturn    float64
	CAGR           float64
	MaxDrawdown    float64
	SharpeRatio    float64
	IsSimulation   bool
	Runs           int
	TradeCount     int
	Config         Config
	CreatedAt      time.Time
}

// NewResultSummary builds the persisted header for res.
func NewResultSummary(res *Result, strategyID *string, createdAt time.Time) *ResultSummary {
	runs := 1
	if res.MonteCarlo != nil {
		runs = res.MonteCarlo.Runs
	}
	return &ResultSummary{
		ResultID:       res.ID,
		StrategyID:     strategyID,
		Symbol:         res.Config.Symbol,
		StartDate:      res.Config.StartDate,
		EndDate:        res.Config.EndDate,
		InitialCapital: res.Config.InitialCapital,
		FinalValue:     res.FinalValue(),
		FinalBenchmark: res.FinalBenchmark(),
		TotalReturn:    res.TotalReturn,
		CAGR:           res.CAGR,
		MaxDrawdown:    res.MaxDrawdown,
		SharpeRatio:    res.SharpeRatio,
		IsSimulation:   res.IsSimulation,
		Runs:           runs,
		TradeCount:     len(res.Trades),
		Config:         res.Config,
		CreatedAt:      createdAt,
	}
}
