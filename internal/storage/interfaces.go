package storage

import (
	"context"
	"time"

	"leap-portfolio-lab/internal/domain"
)

// StrategyStore provides access to saved_strategies storage.
type StrategyStore interface {
	// Insert adds a new strategy. Returns ErrDuplicateKey if the id or name exists.
	Insert(ctx context.Context, s *domain.SavedStrategy) error

	// GetByID retrieves a strategy by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.SavedStrategy, error)

	// GetByName retrieves a strategy by its unique name. Returns ErrNotFound if not exists.
	GetByName(ctx context.Context, name string) (*domain.SavedStrategy, error)

	// List retrieves all strategies, ordered by created_at ASC, name ASC.
	List(ctx context.Context) ([]*domain.SavedStrategy, error)
}

// ResultStore provides access to backtest_results storage.
type ResultStore interface {
	// Insert adds a result header. Returns ErrDuplicateKey if result_id exists.
	Insert(ctx context.Context, r *domain.ResultSummary) error

	// GetByID retrieves a result header by ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, resultID string) (*domain.ResultSummary, error)

	// List retrieves up to limit headers, newest first. limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]*domain.ResultSummary, error)
}

// TradeStore provides access to backtest_trades storage.
type TradeStore interface {
	// InsertBulk adds the trade log of a result atomically.
	// Returns ErrDuplicateKey if trades for resultID already exist.
	InsertBulk(ctx context.Context, resultID string, trades []domain.Trade) error

	// GetByResultID retrieves the trade log of a result in original order.
	GetByResultID(ctx context.Context, resultID string) ([]domain.Trade, error)
}

// SnapshotStore provides access to portfolio_snapshots storage.
type SnapshotStore interface {
	// InsertBulk adds the daily history of a result atomically.
	// Returns ErrDuplicateKey if snapshots for resultID already exist.
	InsertBulk(ctx context.Context, resultID string, history []domain.Snapshot) error

	// GetByResultID retrieves the history of a result, ordered by date ASC.
	GetByResultID(ctx context.Context, resultID string) ([]domain.Snapshot, error)
}

// PriceBarStore provides access to price_bars storage.
type PriceBarStore interface {
	// InsertBulk adds daily bars for symbol. Fails entire batch on duplicate (symbol, date).
	InsertBulk(ctx context.Context, symbol string, rows domain.PriceTable) error

	// GetByRange retrieves bars for symbol within [start, end] (inclusive), ordered by date ASC.
	GetByRange(ctx context.Context, symbol string, start, end time.Time) (domain.PriceTable, error)
}
