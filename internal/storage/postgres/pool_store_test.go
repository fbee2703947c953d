package postgres

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NnamdiCode/Datadextoken-sub001/internal/domain"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/storage"
)

func testSnapshot(poolID string) *domain.PoolSnapshot {
	return &domain.PoolSnapshot{
		PoolID: poolID,
		TokenA: domain.Token{
			Address:  "addr-a-" + poolID,
			Symbol:   "DATA",
			Decimals: 6,
		},
		TokenB: domain.Token{
			Address:  "addr-b-" + poolID,
			Symbol:   "USDC",
			Decimals: 6,
		},
		ReserveA:       1_000_000,
		ReserveB:       4_000_000,
		TotalShares:    2_000_000,
		FeeNumerator:   997,
		FeeDenominator: 1000,
		UpdatedAt:      1_700_000_000_000,
	}
}

func TestPoolStore_UpsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPoolStore(pool)
	ctx := context.Background()

	snap := testSnapshot("pool-1")
	require.NoError(t, store.Upsert(ctx, snap))

	got, err := store.GetByID(ctx, "pool-1")
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestPoolStore_UpsertUpdatesReserves(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPoolStore(pool)
	ctx := context.Background()

	snap := testSnapshot("pool-1")
	require.NoError(t, store.Upsert(ctx, snap))

	snap.ReserveA = 2_000_000
	snap.ReserveB = 2_000_000
	snap.TotalShares = 2_000_000
	snap.UpdatedAt = 1_700_000_100_000
	require.NoError(t, store.Upsert(ctx, snap))

	got, err := store.GetByID(ctx, "pool-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(2_000_000), got.ReserveA)
	assert.Equal(t, uint64(2_000_000), got.ReserveB)
	assert.Equal(t, int64(1_700_000_100_000), got.UpdatedAt)
}

func TestPoolStore_RoundTripsFullUint64Range(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPoolStore(pool)
	ctx := context.Background()

	// Values above the BIGINT range must survive the NUMERIC columns.
	snap := testSnapshot("pool-1")
	snap.ReserveA = math.MaxUint64
	snap.ReserveB = math.MaxUint64 - 1
	snap.TotalShares = math.MaxInt64 + 1
	require.NoError(t, store.Upsert(ctx, snap))

	got, err := store.GetByID(ctx, "pool-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), got.ReserveA)
	assert.Equal(t, uint64(math.MaxUint64-1), got.ReserveB)
	assert.Equal(t, uint64(math.MaxInt64+1), got.TotalShares)
}

func TestPoolStore_GetByID_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPoolStore(pool)

	_, err := store.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPoolStore_GetAll(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPoolStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, testSnapshot("pool-b")))
	require.NoError(t, store.Upsert(ctx, testSnapshot("pool-a")))
	require.NoError(t, store.Upsert(ctx, testSnapshot("pool-c")))

	got, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "pool-a", got[0].PoolID)
	assert.Equal(t, "pool-b", got[1].PoolID)
	assert.Equal(t, "pool-c", got[2].PoolID)
}

func TestPoolStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPoolStore(pool)
	ctx := context.Background()

	assert.ErrorIs(t, store.Upsert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Upsert(ctx, &domain.PoolSnapshot{}), storage.ErrInvalidInput)

	_, err := store.GetByID(ctx, "")
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
