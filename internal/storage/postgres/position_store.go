package postgres

import (
	"context"
	"fmt"

	"github.com/NnamdiCode/Datadextoken-sub001/internal/domain"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/storage"
)

// PositionStore implements storage.PositionStore backed by Postgres.
type PositionStore struct {
	pool *Pool
}

// NewPositionStore creates a new Postgres liquidity position store.
func NewPositionStore(pool *Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

// Upsert stores the provider's current share count. Zero shares deletes
// the row.
func (s *PositionStore) Upsert(ctx context.Context, pos *domain.LiquidityPosition) error {
	if pos == nil || pos.PoolID == "" || pos.Provider == "" {
		return storage.ErrInvalidInput
	}

	if pos.Shares == 0 {
		_, err := s.pool.Exec(ctx,
			`DELETE FROM liquidity_positions WHERE pool_id = $1 AND provider = $2`,
			pos.PoolID, pos.Provider,
		)
		if err != nil {
			return fmt.Errorf("delete position: %w", err)
		}
		return nil
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO liquidity_positions (pool_id, provider, shares)
		VALUES ($1, $2, $3)
		ON CONFLICT (pool_id, provider) DO UPDATE SET shares = EXCLUDED.shares`,
		pos.PoolID, pos.Provider, encodeUint(pos.Shares),
	)
	if err != nil {
		return fmt.Errorf("upsert position: %w", err)
	}

	return nil
}

// Get retrieves a position by pool ID and provider.
func (s *PositionStore) Get(ctx context.Context, poolID, provider string) (*domain.LiquidityPosition, error) {
	if poolID == "" || provider == "" {
		return nil, storage.ErrInvalidInput
	}

	var (
		pos       domain.LiquidityPosition
		rawShares string
	)

	err := s.pool.QueryRow(ctx,
		`SELECT pool_id, provider, shares::text
		FROM liquidity_positions WHERE pool_id = $1 AND provider = $2`,
		poolID, provider,
	).Scan(&pos.PoolID, &pos.Provider, &rawShares)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get position: %w", err)
	}

	if pos.Shares, err = decodeUint(rawShares); err != nil {
		return nil, err
	}

	return &pos, nil
}

// GetByPool retrieves all positions for a pool ordered by provider.
func (s *PositionStore) GetByPool(ctx context.Context, poolID string) ([]*domain.LiquidityPosition, error) {
	if poolID == "" {
		return nil, storage.ErrInvalidInput
	}

	rows, err := s.pool.Query(ctx,
		`SELECT pool_id, provider, shares::text
		FROM liquidity_positions WHERE pool_id = $1 ORDER BY provider`,
		poolID,
	)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()

	var positions []*domain.LiquidityPosition
	for rows.Next() {
		var (
			pos       domain.LiquidityPosition
			rawShares string
		)
		if err := rows.Scan(&pos.PoolID, &pos.Provider, &rawShares); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		if pos.Shares, err = decodeUint(rawShares); err != nil {
			return nil, err
		}
		positions = append(positions, &pos)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate positions: %w", err)
	}

	return positions, nil
}

var _ storage.PositionStore = (*PositionStore)(nil)
