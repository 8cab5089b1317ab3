package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leap-portfolio-lab/internal/config"
	"leap-portfolio-lab/internal/domain"
	"leap-portfolio-lab/internal/marketdata"
	"leap-portfolio-lab/internal/montecarlo"
	"leap-portfolio-lab/internal/reporting"
	"leap-portfolio-lab/internal/simulation"
	"leap-portfolio-lab/internal/storage/stores"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "YAML strategy file (required)")

	// Price data
	dataFile := flag.String("data", "", "CSV file of daily bars for historical mode")
	dataDir := flag.String("data-dir", "", "Directory of <SYMBOL>.csv files for historical mode")

	// Overrides
	scenario := flag.String("scenario", "", "Override simulation scenario (bull, bear, neutral, high_vol) and enable simulation")
	runs := flag.Int("runs", 0, "Override simulation runs (>1 runs Monte Carlo)")
	seed := flag.Uint64("seed", 0, "Override simulation seed")
	workers := flag.Int("workers", 0, "Monte Carlo concurrency (0 = GOMAXPROCS)")

	// Storage
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage when persisting")
	persistResult := flag.Bool("persist", false, "Persist result, trades and history to storage")

	// Output
	outputJSON := flag.Bool("json", false, "Output result as JSON")
	tradesCSV := flag.String("trades-csv", "", "Write trade log CSV to this path")
	historyCSV := flag.String("history-csv", "", "Write daily history CSV to this path")
	reportPath := flag.String("report", "", "Write Markdown report to this path")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	// Validate required flags
	if *configPath == "" {
		logger.Fatal("--config is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	// Apply overrides
	seedSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			seedSet = true
		}
	})
	if *scenario != "" {
		preset, err := domain.ParseScenario(*scenario)
		if err != nil {
			logger.Fatalf("invalid --scenario: %v", err)
		}
		cfg.Simulation.Enabled = true
		cfg.Simulation.Scenario = preset.Name
	}
	if *runs > 0 {
		cfg.Simulation.Enabled = true
		cfg.Simulation.Runs = *runs
	}
	if seedSet {
		cfg.Simulation.Seed = *seed
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	opts := simulation.RunnerOptions{Workers: *workers, Logger: logger}
	req := simulation.Request{Config: cfg}

	// Historical prices
	switch {
	case *dataFile != "":
		table, err := marketdata.LoadCSV(*dataFile)
		if err != nil {
			logger.Fatalf("load prices: %v", err)
		}
		req.Table = marketdata.Slice(table, cfg.StartDate, cfg.EndDate)
	case *dataDir != "":
		opts.Prices = marketdata.NewDirSource(*dataDir)
	}

	// Storage
	if *persistResult {
		set, cleanup, err := stores.Open(ctx, stores.Options{
			PostgresDSN:   *postgresDSN,
			ClickhouseDSN: *clickhouseDSN,
			UseMemory:     *useMemory,
			Migrate:       true,
		})
		if err != nil {
			logger.Fatalf("create stores: %v", err)
		}
		defer cleanup()

		opts.Results = set.Results
		opts.Trades = set.Trades
		opts.Snapshots = set.Snapshots
		if opts.Prices == nil && req.Table == nil {
			opts.Prices = set.Prices
		}
	}

	if cfg.MonteCarlo() {
		req.Progress = progressPrinter(logger, cfg.Simulation.Runs)
	}

	// Run backtest
	logger.Printf("Running %s backtest: symbol=%s %s..%s",
		simulation.Mode(cfg), cfg.Symbol, cfg.StartDate.Format(domain.DateLayout), cfg.EndDate.Format(domain.DateLayout))

	res, err := simulation.NewRunner(opts).Run(ctx, req)
	if err != nil {
		logger.Fatalf("backtest failed: %v", err)
	}

	// Output files
	writeFile(logger, *tradesCSV, reporting.RenderTradesCSV(res.Trades))
	writeFile(logger, *historyCSV, reporting.RenderHistoryCSV(res.History))
	writeFile(logger, *reportPath, reporting.RenderMarkdown(reporting.FromResult(res, time.Now().UTC())))

	// Output result
	if *outputJSON {
		output, _ := json.MarshalIndent(res, "", "  ")
		fmt.Println(string(output))
	} else {
		printResult(res)
	}
}

// progressPrinter logs roughly every tenth of a batch.
func progressPrinter(logger *log.Logger, total int) montecarlo.ProgressFunc {
	step := total / 10
	if step < 1 {
		step = 1
	}
	return func(p montecarlo.Progress) {
		if p.Err != nil {
			logger.Printf("  run %d failed: %v", p.Run, p.Err)
		}
		if p.Completed%step == 0 || p.Completed == p.Total {
			logger.Printf("  %d/%d runs complete", p.Completed, p.Total)
		}
	}
}

func writeFile(logger *log.Logger, path, content string) {
	if path == "" {
		return
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		logger.Fatalf("write %s: %v", path, err)
	}
	logger.Printf("Wrote %s", path)
}

// printResult outputs a human-readable result.
func printResult(res *domain.Result) {
	cfg := res.Config
	fmt.Println()
	fmt.Println("=== Backtest Result ===")
	fmt.Printf("Result ID:          %s\n", res.ID)
	fmt.Printf("Symbol:             %s\n", cfg.Symbol)
	fmt.Printf("Period:             %s to %s\n", cfg.StartDate.Format(domain.DateLayout), cfg.EndDate.Format(domain.DateLayout))
	fmt.Printf("Mode:               %s\n", simulation.Mode(cfg))
	fmt.Println()

	fmt.Println("Performance:")
	fmt.Printf("  Initial Capital:  %s\n", reporting.Money(cfg.InitialCapital))
	fmt.Printf("  Final Value:      %s\n", reporting.Money(res.FinalValue()))
	fmt.Printf("  Final Benchmark:  %s\n", reporting.Money(res.FinalBenchmark()))
	fmt.Printf("  Total Return:     %s\n", reporting.Percent(res.TotalReturn))
	fmt.Printf("  CAGR:             %s\n", reporting.Percent(res.CAGR))
	fmt.Printf("  Max Drawdown:     %s\n", reporting.Percent(res.MaxDrawdown))
	fmt.Printf("  Sharpe Ratio:     %.4f\n", res.SharpeRatio)
	fmt.Printf("  Trades:           %d\n", len(res.Trades))
	fmt.Printf("  Days:             %d\n", len(res.History))

	if mc := res.MonteCarlo; mc != nil {
		fmt.Println()
		fmt.Println("Monte Carlo:")
		fmt.Printf("  Runs:             %d (%d failed)\n", mc.Runs, mc.FailedRuns)
		fmt.Printf("  Terminal Mean:    %s\n", reporting.Money(mc.PortfolioSummary.Mean))
		fmt.Printf("  Terminal Median:  %s\n", reporting.Money(mc.PortfolioSummary.Median))
		fmt.Printf("  Terminal P5/P95:  %s / %s\n", reporting.Money(mc.PortfolioSummary.P5), reporting.Money(mc.PortfolioSummary.P95))
		fmt.Printf("  Benchmark Mean:   %s\n", reporting.Money(mc.BenchmarkSummary.Mean))
	}
}
