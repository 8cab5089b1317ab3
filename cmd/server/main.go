// Package main runs the HTTP backtest service:
// - Backtests: historical, synthetic and Monte Carlo runs over HTTP
// - Storage: saved strategies and results (PostgreSQL + ClickHouse or memory)
// - Observability: /health, /metrics, websocket progress stream
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"leap-portfolio-lab/internal/api"
	"leap-portfolio-lab/internal/marketdata"
	"leap-portfolio-lab/internal/simulation"
	"leap-portfolio-lab/internal/storage/stores"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	httpAddr := flag.String("http-addr", envOr("HTTP_ADDR", ":8080"), "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	migrate := flag.Bool("migrate", true, "Apply database migrations on start")
	dataDir := flag.String("data-dir", os.Getenv("DATA_DIR"), "Directory of <SYMBOL>.csv files used as historical price source")
	workers := flag.Int("workers", 0, "Monte Carlo concurrency (0 = GOMAXPROCS)")
	backtestRate := flag.Float64("backtest-rate", 0, "Max backtest requests per second (0 = unlimited)")
	backtestBurst := flag.Int("backtest-burst", 4, "Backtest request burst size")
	logFile := flag.String("log-file", os.Getenv("LOG_FILE"), "Also write logs to this file, rotated at 100 MB")
	shutdownTimeout := flag.Duration("shutdown-timeout", 30*time.Second, "Graceful shutdown timeout")

	flag.Parse()

	// Setup loggers
	var out io.Writer = os.Stdout
	if *logFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   *logFile,
			MaxSize:    100, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		defer rotator.Close()
		out = io.MultiWriter(os.Stdout, rotator)
	}
	logger := log.New(out, "[server] ", log.LstdFlags|log.Lshortfile)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create stores
	set, cleanup, err := stores.Open(ctx, stores.Options{
		PostgresDSN:   *postgresDSN,
		ClickhouseDSN: *clickhouseDSN,
		UseMemory:     *useMemory,
		Migrate:       *migrate,
	})
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// Price source: CSV directory if given, else the price bar store
	var prices simulation.PriceSource = set.Prices
	if *dataDir != "" {
		prices = marketdata.NewDirSource(*dataDir)
		logger.Printf("Reading historical prices from %s", *dataDir)
	}

	runner := simulation.NewRunner(simulation.RunnerOptions{
		Prices:    prices,
		Results:   set.Results,
		Trades:    set.Trades,
		Snapshots: set.Snapshots,
		Workers:   *workers,
		Logger:    log.New(out, "[simulation] ", log.LstdFlags),
	})

	srv := api.New(api.Options{
		Runner:        runner,
		Strategies:    set.Strategies,
		Logger:        log.New(out, "[api] ", log.LstdFlags),
		BacktestRate:  rate.Limit(*backtestRate),
		BacktestBurst: *backtestBurst,
	})

	httpServer := &http.Server{
		Addr:              *httpAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		shutdownCtx, done := context.WithTimeout(context.Background(), *shutdownTimeout)
		defer done()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Graceful shutdown failed: %v", err)
		}
	}()

	logger.Printf("Starting HTTP server on %s (memory=%v)", *httpAddr, *useMemory)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("HTTP server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
