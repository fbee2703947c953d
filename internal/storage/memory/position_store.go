package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/NnamdiCode/Datadextoken-sub001/internal/domain"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/storage"
)

// PositionStore is an in-memory implementation of storage.PositionStore.
type PositionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.LiquidityPosition // keyed by composite key
}

// NewPositionStore creates a new in-memory position store.
func NewPositionStore() *PositionStore {
	return &PositionStore{
		data: make(map[string]*domain.LiquidityPosition),
	}
}

// positionKey generates a unique key for a position.
func positionKey(poolID, provider string) string {
	return fmt.Sprintf("%s|%s", poolID, provider)
}

// Upsert stores the provider's current share count; zero shares removes
// the position.
func (s *PositionStore) Upsert(_ context.Context, pos *domain.LiquidityPosition) error {
	if pos == nil || pos.PoolID == "" || pos.Provider == "" {
		return storage.ErrInvalidInput
	}

	key := positionKey(pos.PoolID, pos.Provider)

	s.mu.Lock()
	defer s.mu.Unlock()

	if pos.Shares == 0 {
		delete(s.data, key)
		return nil
	}

	posCopy := *pos
	s.data[key] = &posCopy
	return nil
}

// Get retrieves a position. Returns ErrNotFound if absent.
func (s *PositionStore) Get(_ context.Context, poolID, provider string) (*domain.LiquidityPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.data[positionKey(poolID, provider)]
	if !ok {
		return nil, storage.ErrNotFound
	}

	posCopy := *pos
	return &posCopy, nil
}

// GetByPool retrieves all positions for a pool, ordered by provider.
func (s *PositionStore) GetByPool(_ context.Context, poolID string) ([]*domain.LiquidityPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.LiquidityPosition
	for _, pos := range s.data {
		if pos.PoolID == poolID {
			posCopy := *pos
			result = append(result, &posCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Provider < result[j].Provider
	})

	return result, nil
}

var _ storage.PositionStore = (*PositionStore)(nil)
