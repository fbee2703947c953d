package postgres

import (
	"context"
	"fmt"

	"github.com/NnamdiCode/Datadextoken-sub001/internal/domain"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/storage"
)

// LiquidityEventStore implements storage.LiquidityEventStore backed by
// Postgres.
type LiquidityEventStore struct {
	pool *Pool
}

// NewLiquidityEventStore creates a new Postgres liquidity event store.
func NewLiquidityEventStore(pool *Pool) *LiquidityEventStore {
	return &LiquidityEventStore{pool: pool}
}

// SaveEvent persists a liquidity event and the resulting pool snapshot in
// one transaction.
func (s *LiquidityEventStore) SaveEvent(ctx context.Context, ev *domain.LiquidityEvent, snap *domain.PoolSnapshot) error {
	if ev == nil || ev.EventID == "" || snap == nil || snap.PoolID == "" {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO liquidity_events (
			event_id, pool_id, provider, event_type,
			amount_a, amount_b, shares_delta, sequence, executed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		ev.EventID, ev.PoolID, ev.Provider, ev.EventType,
		encodeUint(ev.AmountA), encodeUint(ev.AmountB), encodeUint(ev.SharesDelta),
		int64(ev.Sequence), ev.Timestamp,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert liquidity event: %w", err)
	}

	_, err = tx.Exec(ctx, upsertPoolSQL,
		snap.PoolID,
		snap.TokenA.Address, snap.TokenA.Symbol, int16(snap.TokenA.Decimals),
		snap.TokenB.Address, snap.TokenB.Symbol, int16(snap.TokenB.Decimals),
		encodeUint(snap.ReserveA), encodeUint(snap.ReserveB), encodeUint(snap.TotalShares),
		encodeUint(snap.FeeNumerator), encodeUint(snap.FeeDenominator),
		snap.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert pool snapshot: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByPool retrieves all liquidity events for a pool ordered by sequence.
func (s *LiquidityEventStore) GetByPool(ctx context.Context, poolID string) ([]*domain.LiquidityEvent, error) {
	if poolID == "" {
		return nil, storage.ErrInvalidInput
	}

	rows, err := s.pool.Query(ctx, `
		SELECT event_id, pool_id, provider, event_type,
			amount_a::text, amount_b::text, shares_delta::text,
			sequence, executed_at
		FROM liquidity_events WHERE pool_id = $1 ORDER BY sequence`,
		poolID,
	)
	if err != nil {
		return nil, fmt.Errorf("query liquidity events: %w", err)
	}
	defer rows.Close()

	var events []*domain.LiquidityEvent
	for rows.Next() {
		var (
			ev                  domain.LiquidityEvent
			rawA, rawB, rawDelt string
			seq                 int64
		)
		err := rows.Scan(
			&ev.EventID, &ev.PoolID, &ev.Provider, &ev.EventType,
			&rawA, &rawB, &rawDelt,
			&seq, &ev.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan liquidity event: %w", err)
		}

		ev.Sequence = uint64(seq)
		if ev.AmountA, err = decodeUint(rawA); err != nil {
			return nil, err
		}
		if ev.AmountB, err = decodeUint(rawB); err != nil {
			return nil, err
		}
		if ev.SharesDelta, err = decodeUint(rawDelt); err != nil {
			return nil, err
		}

		events = append(events, &ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liquidity events: %w", err)
	}

	return events, nil
}

// MaxSequence returns the highest persisted event sequence for a pool.
func (s *LiquidityEventStore) MaxSequence(ctx context.Context, poolID string) (uint64, error) {
	if poolID == "" {
		return 0, storage.ErrInvalidInput
	}

	var max int64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(sequence), 0) FROM liquidity_events WHERE pool_id = $1`,
		poolID,
	).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max liquidity event sequence: %w", err)
	}

	return uint64(max), nil
}

var _ storage.LiquidityEventStore = (*LiquidityEventStore)(nil)
