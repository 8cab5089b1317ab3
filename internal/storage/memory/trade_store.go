package memory

import (
	"context"
	"sync"

	"leap-portfolio-lab/internal/domain"
	"leap-portfolio-lab/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data map[string][]domain.Trade // keyed by result_id
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string][]domain.Trade),
	}
}

// InsertBulk adds the trade log of a result. Returns ErrDuplicateKey if it exists.
func (s *TradeStore) InsertBulk(_ context.Context, resultID string, trades []domain.Trade) error {
	if resultID == "" {
		return storage.ErrInvalidInput
	}
	if len(trades) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[resultID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[resultID] = append([]domain.Trade(nil), trades...)
	return nil
}

// GetByResultID retrieves the trade log of a result in original order.
func (s *TradeStore) GetByResultID(_ context.Context, resultID string) ([]domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.Trade(nil), s.data[resultID]...), nil
}

var _ storage.TradeStore = (*TradeStore)(nil)
