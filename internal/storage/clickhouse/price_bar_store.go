package clickhouse

import (
	"context"
	"fmt"
	"time"

	"leap-portfolio-lab/internal/domain"
	"leap-portfolio-lab/internal/storage"
)

// PriceBarStore implements storage.PriceBarStore using ClickHouse.
type PriceBarStore struct {
	conn *Conn
}

// NewPriceBarStore creates a new PriceBarStore.
func NewPriceBarStore(conn *Conn) *PriceBarStore {
	return &PriceBarStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceBarStore = (*PriceBarStore)(nil)

// InsertBulk adds daily bars. Fails entire batch on duplicate (symbol, date).
func (s *PriceBarStore) InsertBulk(ctx context.Context, symbol string, rows domain.PriceTable) error {
	if symbol == "" {
		return storage.ErrInvalidInput
	}
	if len(rows) == 0 {
		return nil
	}

	// Check for intra-batch duplicates and find the batch range
	seen := make(map[time.Time]struct{}, len(rows))
	minDate, maxDate := domain.TruncateDay(rows[0].Date), domain.TruncateDay(rows[0].Date)
	for _, row := range rows {
		if row.Close <= 0 {
			return fmt.Errorf("%w: non-positive close on %s", storage.ErrInvalidInput, row.Date.Format(domain.DateLayout))
		}
		day := domain.TruncateDay(row.Date)
		if _, exists := seen[day]; exists {
			return storage.ErrDuplicateKey
		}
		seen[day] = struct{}{}
		if day.Before(minDate) {
			minDate = day
		}
		if day.After(maxDate) {
			maxDate = day
		}
	}

	// Check for duplicates against existing DB rows
	existing, err := s.GetByRange(ctx, symbol, minDate, maxDate)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	for _, row := range existing {
		if _, dup := seen[domain.TruncateDay(row.Date)]; dup {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_bars (
			symbol, date, open, high, low, close, volume, volatility
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, row := range rows {
		err = batch.Append(
			symbol, domain.TruncateDay(row.Date),
			row.Open, row.High, row.Low, row.Close, row.Volume, row.Volatility,
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

// GetByRange retrieves bars within [start, end] (inclusive), ordered by date ASC.
func (s *PriceBarStore) GetByRange(ctx context.Context, symbol string, start, end time.Time) (domain.PriceTable, error) {
	query := `
		SELECT date, open, high, low, close, volume, volatility
		FROM price_bars
		WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, domain.TruncateDay(start), domain.TruncateDay(end))
	if err != nil {
		return nil, fmt.Errorf("query by range: %w", err)
	}
	defer rows.Close()

	return scanPriceBars(rows)
}

// scanPriceBars scans multiple rows.
func scanPriceBars(rows chRows) (domain.PriceTable, error) {
	var table domain.PriceTable

	for rows.Next() {
		var row domain.PriceRow
		err := rows.Scan(
			&row.Date, &row.Open, &row.High, &row.Low,
			&row.Close, &row.Volume, &row.Volatility,
		)
		if err != nil {
			return nil, fmt.Errorf("scan price bar row: %w", err)
		}
		row.Date = domain.TruncateDay(row.Date)
		table = append(table, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price bar rows: %w", err)
	}

	return table, nil
}
