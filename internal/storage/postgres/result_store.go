package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"leap-portfolio-lab/internal/domain"
	"leap-portfolio-lab/internal/storage"
)

// ResultStore implements storage.ResultStore using PostgreSQL.
type ResultStore struct {
	pool *Pool
}

// NewResultStore creates a new ResultStore.
func NewResultStore(pool *Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

const resultColumns = `
	result_id, strategy_id, symbol, start_date, end_date,
	initial_capital, final_value, final_benchmark,
	total_return, cagr, max_drawdown, sharpe_ratio,
	is_simulation, runs, trade_count, config, created_at`

// Insert adds a result header. Returns ErrDuplicateKey if result_id exists.
func (s *ResultStore) Insert(ctx context.Context, r *domain.ResultSummary) error {
	if r == nil || r.ResultID == "" {
		return storage.ErrInvalidInput
	}

	cfg, err := json.Marshal(r.Config)
	if err != nil {
		return fmt.Errorf("encode result config: %w", err)
	}

	query := `INSERT INTO backtest_results (` + resultColumns + `) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8,
		$9, $10, $11, $12,
		$13, $14, $15, $16, $17
	)`

	_, err = s.pool.Exec(ctx, query,
		r.ResultID, r.StrategyID, r.Symbol, r.StartDate, r.EndDate,
		r.InitialCapital, r.FinalValue, r.FinalBenchmark,
		r.TotalReturn, r.CAGR, r.MaxDrawdown, r.SharpeRatio,
		r.IsSimulation, r.Runs, r.TradeCount, cfg, r.CreatedAt,
	)
	if err != nil {
		return translate("insert result", err)
	}
	return nil
}

// GetByID retrieves a result header by ID. Returns ErrNotFound if not exists.
func (s *ResultStore) GetByID(ctx context.Context, resultID string) (*domain.ResultSummary, error) {
	query := `SELECT ` + resultColumns + ` FROM backtest_results WHERE result_id = $1`
	r, err := scanResult(s.pool.QueryRow(ctx, query, resultID))
	if err != nil {
		return nil, translate("get result by id", err)
	}
	return r, nil
}

// List retrieves up to limit headers, newest first.
func (s *ResultStore) List(ctx context.Context, limit int) ([]*domain.ResultSummary, error) {
	query := `SELECT ` + resultColumns + ` FROM backtest_results ORDER BY created_at DESC, result_id ASC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	result := []*domain.ResultSummary{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate result rows: %w", err)
	}
	return result, nil
}

// scanResult scans a single row into a ResultSummary.
func scanResult(row pgx.Row) (*domain.ResultSummary, error) {
	var (
		r   domain.ResultSummary
		cfg []byte
	)
	err := row.Scan(
		&r.ResultID, &r.StrategyID, &r.Symbol, &r.StartDate, &r.EndDate,
		&r.InitialCapital, &r.FinalValue, &r.FinalBenchmark,
		&r.TotalReturn, &r.CAGR, &r.MaxDrawdown, &r.SharpeRatio,
		&r.IsSimulation, &r.Runs, &r.TradeCount, &cfg, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(cfg, &r.Config); err != nil {
		return nil, fmt.Errorf("decode result config: %w", err)
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}
