package storage

import (
	"context"

	"github.com/NnamdiCode/Datadextoken-sub001/internal/domain"
)

// PoolStore persists pool snapshots. The engine hands it fully-formed
// snapshots; on restart it returns the last-persisted state per pool.
type PoolStore interface {
	// Upsert stores the snapshot as the pool's current state.
	Upsert(ctx context.Context, snap *domain.PoolSnapshot) error

	// GetByID retrieves the latest snapshot. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, poolID string) (*domain.PoolSnapshot, error)

	// GetAll retrieves the latest snapshot of every pool, ordered by pool id.
	GetAll(ctx context.Context) ([]*domain.PoolSnapshot, error)
}

// PositionStore persists liquidity positions.
type PositionStore interface {
	// Upsert stores the provider's current share count; zero shares
	// removes the position.
	Upsert(ctx context.Context, pos *domain.LiquidityPosition) error

	// Get retrieves a position. Returns ErrNotFound if absent.
	Get(ctx context.Context, poolID, provider string) (*domain.LiquidityPosition, error)

	// GetByPool retrieves all positions for a pool, ordered by provider.
	GetByPool(ctx context.Context, poolID string) ([]*domain.LiquidityPosition, error)
}

// TradeStore persists executed swaps together with the pool state they
// produced. A persisted trade always corresponds to a persisted snapshot;
// implementations must not commit one without the other.
type TradeStore interface {
	// SaveSwap atomically persists a trade record and the resulting pool
	// snapshot. Returns ErrDuplicateKey if the trade_id exists.
	SaveSwap(ctx context.Context, rec *domain.TradeRecord, snap *domain.PoolSnapshot) error

	// GetByID retrieves a trade by trade_id. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error)

	// GetByPool retrieves all trades for a pool, ordered by sequence ASC.
	GetByPool(ctx context.Context, poolID string) ([]*domain.TradeRecord, error)

	// GetByTimeRange retrieves trades for a pool within [start, end]
	// (inclusive, ms timestamps), ordered by sequence ASC.
	GetByTimeRange(ctx context.Context, poolID string, start, end int64) ([]*domain.TradeRecord, error)

	// MaxSequence returns the highest persisted sequence for a pool, or
	// 0 for an unknown pool. The next unused ledger sequence is the max
	// across trade and liquidity stores plus one.
	MaxSequence(ctx context.Context, poolID string) (uint64, error)
}

// TradeAnalyticsStore keeps an append-only analytics copy of executed
// trades for windowed aggregate queries. It is a read-model, not the
// source of truth; duplicate inserts of the same (pool, sequence) are
// tolerated and collapsed by the backend.
type TradeAnalyticsStore interface {
	// InsertTrades appends a batch of executed trades.
	InsertTrades(ctx context.Context, trades []*domain.TradeRecord) error

	// GetByPool retrieves all trades for a pool, ordered by sequence ASC.
	GetByPool(ctx context.Context, poolID string) ([]*domain.TradeRecord, error)

	// WindowVolume aggregates trade counts, volumes and fees for a pool
	// within [start, end] (inclusive, ms timestamps).
	WindowVolume(ctx context.Context, poolID string, start, end int64) (*domain.PoolVolumeWindow, error)

	// AveragePrice returns the volume-weighted average executed price for
	// a pool within [start, end]. Returns ErrNotFound if no trades fall
	// inside the window.
	AveragePrice(ctx context.Context, poolID string, start, end int64) (float64, error)
}

// LiquidityEventStore persists liquidity add/remove events alongside the
// resulting pool snapshot, under the same atomicity contract as TradeStore.
type LiquidityEventStore interface {
	// SaveEvent atomically persists a liquidity event and the resulting
	// pool snapshot. Returns ErrDuplicateKey if the event_id exists.
	SaveEvent(ctx context.Context, ev *domain.LiquidityEvent, snap *domain.PoolSnapshot) error

	// GetByPool retrieves all events for a pool, ordered by sequence ASC.
	GetByPool(ctx context.Context, poolID string) ([]*domain.LiquidityEvent, error)

	// MaxSequence returns the highest persisted sequence for a pool, or
	// 0 for an unknown pool.
	MaxSequence(ctx context.Context, poolID string) (uint64, error)
}
