// Package stores wires the storage backends used by the commands.
// PostgreSQL holds strategies, result headers and trade logs; ClickHouse
// holds price bars and daily portfolio snapshots.
package stores

import (
	"context"
	"errors"
	"fmt"

	"leap-portfolio-lab/internal/storage"
	chstore "leap-portfolio-lab/internal/storage/clickhouse"
	"leap-portfolio-lab/internal/storage/memory"
	"leap-portfolio-lab/internal/storage/migrations"
	pgstore "leap-portfolio-lab/internal/storage/postgres"
)

// ErrMissingDSN is returned when database storage is requested without DSNs.
var ErrMissingDSN = errors.New("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")

// Set holds all storage implementations.
type Set struct {
	Strategies storage.StrategyStore
	Results    storage.ResultStore
	Trades     storage.TradeStore
	Snapshots  storage.SnapshotStore
	Prices     storage.PriceBarStore
}

// Options selects and configures the backends.
type Options struct {
	PostgresDSN   string
	ClickhouseDSN string
	UseMemory     bool
	Migrate       bool  // apply embedded migrations before use
	MaxConns      int32 // postgres pool size, 0 = 10
}

// Memory returns a Set of empty in-memory stores.
func Memory() *Set {
	return &Set{
		Strategies: memory.NewStrategyStore(),
		Results:    memory.NewResultStore(),
		Trades:     memory.NewTradeStore(),
		Snapshots:  memory.NewSnapshotStore(),
		Prices:     memory.NewPriceBarStore(),
	}
}

// Open creates all stores. The returned cleanup closes database connections.
func Open(ctx context.Context, opts Options) (*Set, func(), error) {
	if opts.UseMemory {
		return Memory(), func() {}, nil
	}
	if opts.PostgresDSN == "" || opts.ClickhouseDSN == "" {
		return nil, nil, ErrMissingDSN
	}

	maxConns := opts.MaxConns
	if maxConns <= 0 {
		maxConns = 10
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, opts.PostgresDSN, maxConns)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if opts.Migrate {
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
	}

	// ClickHouse
	var chConn *chstore.Conn
	if opts.Migrate {
		chConn, err = migrations.RunClickhouseMigrations(ctx, opts.ClickhouseDSN)
	} else {
		chConn, err = chstore.NewConn(ctx, opts.ClickhouseDSN)
	}
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}

	set := &Set{
		// PostgreSQL stores
		Strategies: pgstore.NewStrategyStore(pool),
		Results:    pgstore.NewResultStore(pool),
		Trades:     pgstore.NewTradeStore(pool),

		// ClickHouse stores
		Snapshots: chstore.NewSnapshotStore(chConn),
		Prices:    chstore.NewPriceBarStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return set, cleanup, nil
}
