package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/NnamdiCode/Datadextoken-sub001/internal/domain"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/storage"
)

// LiquidityEventStore is an in-memory implementation of
// storage.LiquidityEventStore.
type LiquidityEventStore struct {
	mu    sync.RWMutex
	data  map[string]*domain.LiquidityEvent // keyed by event id
	pools *PoolStore
}

// NewLiquidityEventStore creates a new in-memory liquidity event store.
func NewLiquidityEventStore() *LiquidityEventStore {
	return &LiquidityEventStore{
		data: make(map[string]*domain.LiquidityEvent),
	}
}

// NewLiquidityEventStoreWithPools creates a store that also records each
// event's resulting snapshot in the given pool store.
func NewLiquidityEventStoreWithPools(pools *PoolStore) *LiquidityEventStore {
	s := NewLiquidityEventStore()
	s.pools = pools
	return s
}

// SaveEvent persists a liquidity event and the resulting pool snapshot.
// Returns ErrDuplicateKey if the event_id exists.
func (s *LiquidityEventStore) SaveEvent(ctx context.Context, ev *domain.LiquidityEvent, snap *domain.PoolSnapshot) error {
	if ev == nil || ev.EventID == "" || snap == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[ev.EventID]; exists {
		return storage.ErrDuplicateKey
	}

	evCopy := *ev
	s.data[ev.EventID] = &evCopy

	if s.pools != nil {
		return s.pools.Upsert(ctx, snap)
	}
	return nil
}

// GetByPool retrieves all events for a pool, ordered by sequence ASC.
func (s *LiquidityEventStore) GetByPool(_ context.Context, poolID string) ([]*domain.LiquidityEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.LiquidityEvent
	for _, ev := range s.data {
		if ev.PoolID == poolID {
			evCopy := *ev
			result = append(result, &evCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Sequence < result[j].Sequence
	})

	return result, nil
}

// MaxSequence returns the highest persisted sequence for a pool.
func (s *LiquidityEventStore) MaxSequence(_ context.Context, poolID string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var max uint64
	for _, ev := range s.data {
		if ev.PoolID == poolID && ev.Sequence > max {
			max = ev.Sequence
		}
	}
	return max, nil
}

var _ storage.LiquidityEventStore = (*LiquidityEventStore)(nil)
