package memory

import (
	"context"
	"sort"
	"sync"

	"leap-portfolio-lab/internal/domain"
	"leap-portfolio-lab/internal/storage"
)

// StrategyStore is an in-memory implementation of storage.StrategyStore.
type StrategyStore struct {
	mu     sync.RWMutex
	data   map[string]*domain.SavedStrategy // keyed by id
	byName map[string]string                // name -> id
}

// NewStrategyStore creates a new in-memory strategy store.
func NewStrategyStore() *StrategyStore {
	return &StrategyStore{
		data:   make(map[string]*domain.SavedStrategy),
		byName: make(map[string]string),
	}
}

// Insert adds a new strategy. Returns ErrDuplicateKey if the id or name exists.
func (s *StrategyStore) Insert(_ context.Context, st *domain.SavedStrategy) error {
	if st == nil || st.ID == "" || st.Name == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[st.ID]; exists {
		return storage.ErrDuplicateKey
	}
	if _, exists := s.byName[st.Name]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *st
	s.data[st.ID] = &copy
	s.byName[st.Name] = st.ID
	return nil
}

// GetByID retrieves a strategy by its ID. Returns ErrNotFound if not exists.
func (s *StrategyStore) GetByID(_ context.Context, id string) (*domain.SavedStrategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *st
	return &copy, nil
}

// GetByName retrieves a strategy by name. Returns ErrNotFound if not exists.
func (s *StrategyStore) GetByName(ctx context.Context, name string) (*domain.SavedStrategy, error) {
	s.mu.RLock()
	id, exists := s.byName[name]
	s.mu.RUnlock()
	if !exists {
		return nil, storage.ErrNotFound
	}
	return s.GetByID(ctx, id)
}

// List retrieves all strategies, ordered by created_at ASC, name ASC.
func (s *StrategyStore) List(_ context.Context) ([]*domain.SavedStrategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.SavedStrategy, 0, len(s.data))
	for _, st := range s.data {
		copy := *st
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].Name < result[j].Name
	})

	return result, nil
}

var _ storage.StrategyStore = (*StrategyStore)(nil)
