package clickhouse

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NnamdiCode/Datadextoken-sub001/internal/domain"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/storage"
)

func analyticsTrade(poolID string, seq uint64, amountIn, amountOut uint64, price float64, tsMs int64) *domain.TradeRecord {
	return &domain.TradeRecord{
		TradeID:       "trade-" + poolID + "-" + decimal.NewFromUint64(seq).String(),
		PoolID:        poolID,
		Trader:        "trader-1",
		TokenIn:       "token-a",
		TokenOut:      "token-b",
		AmountIn:      amountIn,
		AmountOut:     amountOut,
		FeeAmount:     amountIn * 3 / 1000,
		ExecutedPrice: decimal.NewFromFloat(price),
		Sequence:      seq,
		Timestamp:     tsMs,
	}
}

func TestTradeAnalyticsStore_InsertTrades(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradeAnalyticsStore(conn)
	ctx := context.Background()

	// Empty batch is a no-op
	err := store.InsertTrades(ctx, nil)
	assert.NoError(t, err)

	trades := []*domain.TradeRecord{
		analyticsTrade("pool-1", 1, 1_000_000, 987_158, 0.987, 1_000),
		analyticsTrade("pool-1", 2, 500_000, 491_000, 0.982, 2_000),
	}

	err = store.InsertTrades(ctx, trades)
	require.NoError(t, err)

	got, err := store.GetByPool(ctx, "pool-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[0].Sequence)
	assert.Equal(t, uint64(2), got[1].Sequence)
	assert.Equal(t, uint64(1_000_000), got[0].AmountIn)
	assert.Equal(t, uint64(987_158), got[0].AmountOut)
	assert.Equal(t, int64(1_000), got[0].Timestamp)
}

func TestTradeAnalyticsStore_GetByPool_Empty(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradeAnalyticsStore(conn)

	got, err := store.GetByPool(context.Background(), "missing-pool")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTradeAnalyticsStore_WindowVolume(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradeAnalyticsStore(conn)
	ctx := context.Background()

	trades := []*domain.TradeRecord{
		analyticsTrade("pool-1", 1, 1_000, 990, 0.99, 1_000),
		analyticsTrade("pool-1", 2, 2_000, 1_960, 0.98, 2_000),
		analyticsTrade("pool-1", 3, 4_000, 3_880, 0.97, 10_000),
		analyticsTrade("pool-2", 1, 9_999, 9_000, 0.90, 1_500),
	}
	require.NoError(t, store.InsertTrades(ctx, trades))

	// Window covers the first two pool-1 trades only
	w, err := store.WindowVolume(ctx, "pool-1", 0, 5_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), w.Trades)
	assert.Equal(t, uint64(3_000), w.VolumeIn)
	assert.Equal(t, uint64(2_950), w.VolumeOut)
	assert.Equal(t, uint64(9), w.Fees)

	// Empty window returns zero aggregates
	w, err = store.WindowVolume(ctx, "pool-1", 100_000, 200_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), w.Trades)
	assert.Equal(t, uint64(0), w.VolumeIn)
}

func TestTradeAnalyticsStore_AveragePrice(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradeAnalyticsStore(conn)
	ctx := context.Background()

	trades := []*domain.TradeRecord{
		analyticsTrade("pool-1", 1, 1_000, 1_000, 1.0, 1_000),
		analyticsTrade("pool-1", 2, 3_000, 6_000, 2.0, 2_000),
	}
	require.NoError(t, store.InsertTrades(ctx, trades))

	// Volume-weighted: (1.0*1000 + 2.0*3000) / 4000 = 1.75
	avg, err := store.AveragePrice(ctx, "pool-1", 0, 5_000)
	require.NoError(t, err)
	assert.InDelta(t, 1.75, avg, 1e-9)

	// No trades in window
	_, err = store.AveragePrice(ctx, "pool-1", 100_000, 200_000)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
