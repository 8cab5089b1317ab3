package clickhouse

import (
	"context"
	"fmt"

	"leap-portfolio-lab/internal/domain"
	"leap-portfolio-lab/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using ClickHouse.
type SnapshotStore struct {
	conn *Conn
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(conn *Conn) *SnapshotStore {
	return &SnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// InsertBulk adds the history of a result. Returns ErrDuplicateKey if it exists.
func (s *SnapshotStore) InsertBulk(ctx context.Context, resultID string, history []domain.Snapshot) error {
	if resultID == "" {
		return storage.ErrInvalidInput
	}
	if len(history) == 0 {
		return nil
	}

	exists, err := s.exists(ctx, resultID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO portfolio_snapshots (
			result_id, date,
			equity_value, leap_value, wheel_put_value, wheel_call_value, cash_value,
			total_value, benchmark_value, equity_price, drawdown,
			delta, gamma, theta, vega
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range history {
		var g domain.Greeks
		if snap.Greeks != nil {
			g = *snap.Greeks
		}
		err = batch.Append(
			resultID, domain.TruncateDay(snap.Date),
			snap.EquityValue, snap.LeapValue, snap.WheelPutValue, snap.WheelCallValue, snap.CashValue,
			snap.TotalValue, snap.BenchmarkValue, snap.EquityPrice, snap.Drawdown,
			g.Delta, g.Gamma, g.Theta, g.Vega,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByResultID retrieves the history of a result, ordered by date ASC.
func (s *SnapshotStore) GetByResultID(ctx context.Context, resultID string) ([]domain.Snapshot, error) {
	query := `
		SELECT
			date,
			equity_value, leap_value, wheel_put_value, wheel_call_value, cash_value,
			total_value, benchmark_value, equity_price, drawdown,
			delta, gamma, theta, vega
		FROM portfolio_snapshots
		WHERE result_id = ?
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, resultID)
	if err != nil {
		return nil, fmt.Errorf("query by result id: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// exists checks if any snapshot for resultID is stored.
func (s *SnapshotStore) exists(ctx context.Context, resultID string) (bool, error) {
	query := `SELECT count(*) FROM portfolio_snapshots WHERE result_id = ?`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, resultID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanSnapshots scans multiple rows.
func scanSnapshots(rows chRows) ([]domain.Snapshot, error) {
	var history []domain.Snapshot

	for rows.Next() {
		var (
			snap domain.Snapshot
			g    domain.Greeks
		)
		err := rows.Scan(
			&snap.Date,
			&snap.EquityValue, &snap.LeapValue, &snap.WheelPutValue, &snap.WheelCallValue, &snap.CashValue,
			&snap.TotalValue, &snap.BenchmarkValue, &snap.EquityPrice, &snap.Drawdown,
			&g.Delta, &g.Gamma, &g.Theta, &g.Vega,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		snap.Date = domain.TruncateDay(snap.Date)
		snap.Greeks = &g
		history = append(history, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return history, nil
}
