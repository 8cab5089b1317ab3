package marketdata

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"leap-portfolio-lab/internal/domain"
)

// DirSource serves bars from <dir>/<SYMBOL>.csv files.
type DirSource struct {
	dir string
}

// NewDirSource creates a source rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// GetByRange loads the symbol's file and returns rows within [start, end].
// A missing file yields an empty table.
func (s *DirSource) GetByRange(_ context.Context, symbol string, start, end time.Time) (domain.PriceTable, error) {
	table, err := LoadCSV(FileName(s.dir, symbol))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.PriceTable{}, nil
		}
		return nil, err
	}
	return Slice(table, start, end), nil
}

// Slice returns the rows of a sorted table within [start, end] by calendar day.
func Slice(table domain.PriceTable, start, end time.Time) domain.PriceTable {
	from := domain.TruncateDay(start)
	to := domain.TruncateDay(end)

	out := domain.PriceTable{}
	for _, row := range table {
		day := domain.TruncateDay(row.Date)
		if day.Before(from) || day.After(to) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// BarWriter is the subset of storage.PriceBarStore Import needs.
type BarWriter interface {
	InsertBulk(ctx context.Context, symbol string, rows domain.PriceTable) error
}

// Import loads a CSV file and stores its rows under symbol.
func Import(ctx context.Context, store BarWriter, symbol, path string) (int, error) {
	table, err := LoadCSV(path)
	if err != nil {
		return 0, err
	}
	if err := store.InsertBulk(ctx, symbol, table); err != nil {
		return 0, fmt.Errorf("store %s bars: %w", symbol, err)
	}
	return len(table), nil
}
