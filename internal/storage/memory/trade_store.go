package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/NnamdiCode/Datadextoken-sub001/internal/domain"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
// The snapshot passed to SaveSwap is forwarded to an optional PoolStore so
// the trade/snapshot pairing mirrors the transactional contract of the
// relational implementation.
type TradeStore struct {
	mu    sync.RWMutex
	data  map[string]*domain.TradeRecord // keyed by trade id
	pools *PoolStore
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string]*domain.TradeRecord),
	}
}

// NewTradeStoreWithPools creates a trade store that also records each
// swap's resulting snapshot in the given pool store.
func NewTradeStoreWithPools(pools *PoolStore) *TradeStore {
	s := NewTradeStore()
	s.pools = pools
	return s
}

// SaveSwap persists a trade record and the resulting pool snapshot.
// Returns ErrDuplicateKey if the trade_id exists.
func (s *TradeStore) SaveSwap(ctx context.Context, rec *domain.TradeRecord, snap *domain.PoolSnapshot) error {
	if rec == nil || rec.TradeID == "" || snap == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[rec.TradeID]; exists {
		return storage.ErrDuplicateKey
	}

	recCopy := *rec
	s.data[rec.TradeID] = &recCopy

	if s.pools != nil {
		return s.pools.Upsert(ctx, snap)
	}
	return nil
}

// GetByID retrieves a trade by trade_id. Returns ErrNotFound if absent.
func (s *TradeStore) GetByID(_ context.Context, tradeID string) (*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[tradeID]
	if !ok {
		return nil, storage.ErrNotFound
	}

	recCopy := *rec
	return &recCopy, nil
}

// GetByPool retrieves all trades for a pool, ordered by sequence ASC.
func (s *TradeStore) GetByPool(_ context.Context, poolID string) ([]*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradeRecord
	for _, rec := range s.data {
		if rec.PoolID == poolID {
			recCopy := *rec
			result = append(result, &recCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Sequence < result[j].Sequence
	})

	return result, nil
}

// GetByTimeRange retrieves trades for a pool within [start, end] (inclusive).
func (s *TradeStore) GetByTimeRange(_ context.Context, poolID string, start, end int64) ([]*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradeRecord
	for _, rec := range s.data {
		if rec.PoolID == poolID && rec.Timestamp >= start && rec.Timestamp <= end {
			recCopy := *rec
			result = append(result, &recCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Sequence < result[j].Sequence
	})

	return result, nil
}

// MaxSequence returns the highest persisted sequence for a pool.
func (s *TradeStore) MaxSequence(_ context.Context, poolID string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var max uint64
	for _, rec := range s.data {
		if rec.PoolID == poolID && rec.Sequence > max {
			max = rec.Sequence
		}
	}
	return max, nil
}

var _ storage.TradeStore = (*TradeStore)(nil)
