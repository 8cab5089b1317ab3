package memory

import (
	"context"
	"sort"
	"sync"

	"leap-portfolio-lab/internal/domain"
	"leap-portfolio-lab/internal/storage"
)

// ResultStore is an in-memory implementation of storage.ResultStore.
type ResultStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ResultSummary // keyed by result_id
}

// NewResultStore creates a new in-memory result store.
func NewResultStore() *ResultStore {
	return &ResultStore{
		data: make(map[string]*domain.ResultSummary),
	}
}

// Insert adds a result header. Returns ErrDuplicateKey if result_id exists.
func (s *ResultStore) Insert(_ context.Context, r *domain.ResultSummary) error {
	if r == nil || r.ResultID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ResultID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[r.ResultID] = cloneSummary(r)
	return nil
}

// GetByID retrieves a result header by ID. Returns ErrNotFound if not exists.
func (s *ResultStore) GetByID(_ context.Context, resultID string) (*domain.ResultSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[resultID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return cloneSummary(r), nil
}

// List retrieves up to limit headers, newest first.
func (s *ResultStore) List(_ context.Context, limit int) ([]*domain.ResultSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ResultSummary, 0, len(s.data))
	for _, r := range s.data {
		result = append(result, cloneSummary(r))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ResultID < result[j].ResultID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func cloneSummary(r *domain.ResultSummary) *domain.ResultSummary {
	copy := *r
	if r.StrategyID != nil {
		id := *r.StrategyID
		copy.StrategyID = &id
	}
	return &copy
}

var _ storage.ResultStore = (*ResultStore)(nil)
