package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"leap-portfolio-lab/internal/domain"
	"leap-portfolio-lab/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// InsertBulk adds the trade log of a result atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(ctx context.Context, resultID string, trades []domain.Trade) error {
	if resultID == "" {
		return storage.ErrInvalidInput
	}
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO backtest_trades (
			result_id, seq, trade_date, action, asset, quantity, price, value, reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	batch := &pgx.Batch{}
	for i, t := range trades {
		batch.Queue(query, resultID, i, t.Date, string(t.Action), string(t.Asset), t.Quantity, t.Price, t.Value, t.Reason)
	}

	br := tx.SendBatch(ctx, batch)
	for range trades {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return translate("insert trade in bulk", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close trade batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByResultID retrieves the trade log of a result in original order.
func (s *TradeStore) GetByResultID(ctx context.Context, resultID string) ([]domain.Trade, error) {
	query := `
		SELECT trade_date, action, asset, quantity, price, value, reason
		FROM backtest_trades
		WHERE result_id = $1
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query, resultID)
	if err != nil {
		return nil, fmt.Errorf("get trades by result id: %w", err)
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var (
			t             domain.Trade
			action, asset string
		)
		if err := rows.Scan(&t.Date, &action, &asset, &t.Quantity, &t.Price, &t.Value, &t.Reason); err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}
		t.Action = domain.TradeAction(action)
		t.Asset = domain.TradeAsset(asset)
		t.Date = t.Date.UTC()
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}
	return trades, nil
}
