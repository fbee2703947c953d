// Package memory provides in-memory storage implementations, used in tests
// and in single-process deployments that rely on the WAL journal for
// durability instead of a relational store.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/NnamdiCode/Datadextoken-sub001/internal/domain"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/storage"
)

// PoolStore is an in-memory implementation of storage.PoolStore.
type PoolStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PoolSnapshot // keyed by pool id
}

// NewPoolStore creates a new in-memory pool store.
func NewPoolStore() *PoolStore {
	return &PoolStore{
		data: make(map[string]*domain.PoolSnapshot),
	}
}

// Upsert stores the snapshot as the pool's current state.
func (s *PoolStore) Upsert(_ context.Context, snap *domain.PoolSnapshot) error {
	if snap == nil || snap.PoolID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapCopy := *snap
	s.data[snap.PoolID] = &snapCopy
	return nil
}

// GetByID retrieves the latest snapshot. Returns ErrNotFound if absent.
func (s *PoolStore) GetByID(_ context.Context, poolID string) (*domain.PoolSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[poolID]
	if !ok {
		return nil, storage.ErrNotFound
	}

	snapCopy := *snap
	return &snapCopy, nil
}

// GetAll retrieves the latest snapshot of every pool, ordered by pool id.
func (s *PoolStore) GetAll(_ context.Context) ([]*domain.PoolSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.PoolSnapshot, 0, len(s.data))
	for _, snap := range s.data {
		snapCopy := *snap
		result = append(result, &snapCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].PoolID < result[j].PoolID
	})

	return result, nil
}

var _ storage.PoolStore = (*PoolStore)(nil)
