package memory

import (
	"context"
	"sync"

	"leap-portfolio-lab/internal/domain"
	"leap-portfolio-lab/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string][]domain.Snapshot // keyed by result_id
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[string][]domain.Snapshot),
	}
}

// InsertBulk adds the history of a result. Returns ErrDuplicateKey if it exists.
func (s *SnapshotStore) InsertBulk(_ context.Context, resultID string, history []domain.Snapshot) error {
	if resultID == "" {
		return storage.ErrInvalidInput
	}
	if len(history) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[resultID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[resultID] = cloneSnapshots(history)
	return nil
}

// GetByResultID retrieves the history of a result, ordered by date ASC.
func (s *SnapshotStore) GetByResultID(_ context.Context, resultID string) ([]domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneSnapshots(s.data[resultID]), nil
}

// cloneSnapshots copies snapshots including their Greeks.
func cloneSnapshots(in []domain.Snapshot) []domain.Snapshot {
	out := make([]domain.Snapshot, len(in))
	for i, snap := range in {
		out[i] = snap
		if snap.Greeks != nil {
			g := *snap.Greeks
			out[i].Greeks = &g
		}
	}
	return out
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)
