package clickhouse

import (
	"context"
	"fmt"

	"github.com/NnamdiCode/Datadextoken-sub001/internal/domain"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/storage"
	"github.com/shopspring/decimal"
)

// TradeAnalyticsStore implements storage.TradeAnalyticsStore using
// ClickHouse.
type TradeAnalyticsStore struct {
	conn *Conn
}

// NewTradeAnalyticsStore creates a new TradeAnalyticsStore.
func NewTradeAnalyticsStore(conn *Conn) *TradeAnalyticsStore {
	return &TradeAnalyticsStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TradeAnalyticsStore = (*TradeAnalyticsStore)(nil)

// InsertTrades appends a batch of executed trades. Re-inserting the same
// (pool_id, sequence) is harmless; ReplacingMergeTree collapses it.
func (s *TradeAnalyticsStore) InsertTrades(ctx context.Context, trades []*domain.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO trade_analytics (
			trade_id, pool_id, trader, token_in, token_out,
			amount_in, amount_out, fee_amount, executed_price,
			sequence, executed_at_ms
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, t := range trades {
		price, _ := t.ExecutedPrice.Float64()
		err = batch.Append(
			t.TradeID, t.PoolID, t.Trader, t.TokenIn, t.TokenOut,
			t.AmountIn, t.AmountOut, t.FeeAmount, price,
			t.Sequence, uint64(t.Timestamp),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByPool retrieves all trades for a pool, ordered by sequence ASC.
// Executed prices round-trip through Float64 and are approximate.
func (s *TradeAnalyticsStore) GetByPool(ctx context.Context, poolID string) ([]*domain.TradeRecord, error) {
	query := `
		SELECT trade_id, pool_id, trader, token_in, token_out,
			amount_in, amount_out, fee_amount, executed_price,
			sequence, executed_at_ms
		FROM trade_analytics FINAL
		WHERE pool_id = ?
		ORDER BY sequence ASC
	`

	rows, err := s.conn.Query(ctx, query, poolID)
	if err != nil {
		return nil, fmt.Errorf("query by pool id: %w", err)
	}
	defer rows.Close()

	var trades []*domain.TradeRecord
	for rows.Next() {
		var (
			t     domain.TradeRecord
			price float64
			tsMs  uint64
		)
		err := rows.Scan(
			&t.TradeID, &t.PoolID, &t.Trader, &t.TokenIn, &t.TokenOut,
			&t.AmountIn, &t.AmountOut, &t.FeeAmount, &price,
			&t.Sequence, &tsMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade analytics row: %w", err)
		}
		t.ExecutedPrice = decimal.NewFromFloat(price)
		t.Timestamp = int64(tsMs)
		trades = append(trades, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade analytics rows: %w", err)
	}

	return trades, nil
}

// WindowVolume aggregates trade counts, volumes and fees for a pool within
// [start, end] inclusive.
func (s *TradeAnalyticsStore) WindowVolume(ctx context.Context, poolID string, start, end int64) (*domain.PoolVolumeWindow, error) {
	query := `
		SELECT count(), sum(amount_in), sum(amount_out), sum(fee_amount)
		FROM trade_analytics FINAL
		WHERE pool_id = ? AND executed_at_ms >= ? AND executed_at_ms <= ?
	`

	w := &domain.PoolVolumeWindow{PoolID: poolID}
	err := s.conn.QueryRow(ctx, query, poolID, uint64(start), uint64(end)).
		Scan(&w.Trades, &w.VolumeIn, &w.VolumeOut, &w.Fees)
	if err != nil {
		return nil, fmt.Errorf("query window volume: %w", err)
	}

	return w, nil
}

// AveragePrice returns the volume-weighted average executed price for a
// pool within [start, end].
func (s *TradeAnalyticsStore) AveragePrice(ctx context.Context, poolID string, start, end int64) (float64, error) {
	query := `
		SELECT count(), sum(executed_price * toFloat64(amount_in)), sum(toFloat64(amount_in))
		FROM trade_analytics FINAL
		WHERE pool_id = ? AND executed_at_ms >= ? AND executed_at_ms <= ?
	`

	var (
		count            uint64
		weighted, volume float64
	)
	err := s.conn.QueryRow(ctx, query, poolID, uint64(start), uint64(end)).
		Scan(&count, &weighted, &volume)
	if err != nil {
		return 0, fmt.Errorf("query average price: %w", err)
	}

	if count == 0 || volume == 0 {
		return 0, storage.ErrNotFound
	}

	return weighted / volume, nil
}
