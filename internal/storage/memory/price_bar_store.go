package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"leap-portfolio-lab/internal/domain"
	"leap-portfolio-lab/internal/storage"
)

// PriceBarStore is an in-memory implementation of storage.PriceBarStore.
type PriceBarStore struct {
	mu   sync.RWMutex
	data map[string]map[string]domain.PriceRow // symbol -> date -> row
}

// NewPriceBarStore creates a new in-memory price bar store.
func NewPriceBarStore() *PriceBarStore {
	return &PriceBarStore{
		data: make(map[string]map[string]domain.PriceRow),
	}
}

// barKey identifies a bar by calendar day.
func barKey(date time.Time) string {
	return date.UTC().Format(domain.DateLayout)
}

// InsertBulk adds daily bars. Fails entire batch on duplicate (symbol, date).
func (s *PriceBarStore) InsertBulk(_ context.Context, symbol string, rows domain.PriceTable) error {
	if symbol == "" {
		return storage.ErrInvalidInput
	}
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.data[symbol]

	// First pass: check for duplicates (existing + intra-batch)
	batchKeys := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if row.Close <= 0 {
			return fmt.Errorf("%w: non-positive close on %s", storage.ErrInvalidInput, barKey(row.Date))
		}
		key := barKey(row.Date)
		if _, exists := existing[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	if existing == nil {
		existing = make(map[string]domain.PriceRow, len(rows))
		s.data[symbol] = existing
	}
	for _, row := range rows {
		existing[barKey(row.Date)] = row
	}

	return nil
}

// GetByRange retrieves bars within [start, end] (inclusive), ordered by date ASC.
func (s *PriceBarStore) GetByRange(_ context.Context, symbol string, start, end time.Time) (domain.PriceTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from := domain.TruncateDay(start)
	to := domain.TruncateDay(end)

	var result domain.PriceTable
	for _, row := range s.data[symbol] {
		day := domain.TruncateDay(row.Date)
		if day.Before(from) || day.After(to) {
			continue
		}
		result = append(result, row)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})

	return result, nil
}

var _ storage.PriceBarStore = (*PriceBarStore)(nil)
