// Package main imports daily price bars from CSV files into ClickHouse.
//
// Usage:
//
//	ingest --file data/SPY.csv [--symbol SPY]
//	ingest --dir data/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"leap-portfolio-lab/internal/marketdata"
	"leap-portfolio-lab/internal/storage"
	chstore "leap-portfolio-lab/internal/storage/clickhouse"
	"leap-portfolio-lab/internal/storage/migrations"
)

func main() {
	// Parse flags
	file := flag.String("file", "", "CSV file to import")
	symbol := flag.String("symbol", "", "Symbol for --file (default: file name without extension)")
	dir := flag.String("dir", "", "Import every <SYMBOL>.csv in this directory")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	migrate := flag.Bool("migrate", true, "Apply ClickHouse migrations before import")
	skipExisting := flag.Bool("skip-existing", false, "Skip files whose bars are already stored instead of failing")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags)

	// Validate required flags
	if (*file == "") == (*dir == "") {
		logger.Fatal("exactly one of --file or --dir is required")
	}
	if *clickhouseDSN == "" {
		logger.Fatal("--clickhouse-dsn is required")
	}

	files, err := resolveFiles(*file, *symbol, *dir)
	if err != nil {
		logger.Fatalf("%v", err)
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

	// ClickHouse
	var conn *chstore.Conn
	if *migrate {
		conn, err = migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
	} else {
		conn, err = chstore.NewConn(ctx, *clickhouseDSN)
	}
	if err != nil {
		logger.Fatalf("connect to clickhouse: %v", err)
	}
	defer conn.Close()

	store := chstore.NewPriceBarStore(conn)

	total := 0
	for _, f := range files {
		if ctx.Err() != nil {
			break
		}
		n, err := marketdata.Import(ctx, store, f.symbol, f.path)
		if err != nil {
			if *skipExisting && errors.Is(err, storage.ErrDuplicateKey) {
				logger.Printf("%s: already stored, skipping", f.symbol)
				continue
			}
			logger.Fatalf("import %s: %v", f.path, err)
		}
		logger.Printf("%s: imported %d bars from %s", f.symbol, n, f.path)
		total += n
	}

	logger.Printf("Import complete: %d files, %d bars", len(files), total)
}

type csvFile struct {
	symbol string
	path   string
}

// resolveFiles lists the files to import, sorted by symbol.
func resolveFiles(file, symbol, dir string) ([]csvFile, error) {
	if file != "" {
		if symbol == "" {
			symbol = symbolFromPath(file)
		}
		return []csvFile{{symbol: strings.ToUpper(symbol), path: file}}, nil
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no .csv files in %s", dir)
	}
	sort.Strings(paths)

	files := make([]csvFile, len(paths))
	for i, p := range paths {
		files[i] = csvFile{symbol: symbolFromPath(p), path: p}
	}
	return files, nil
}

func symbolFromPath(path string) string {
	base := filepath.Base(path)
	return strings.ToUpper(strings.TrimSuffix(base, filepath.Ext(base)))
}
