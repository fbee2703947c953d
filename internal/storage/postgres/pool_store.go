package postgres

import (
	"context"
	"fmt"

	"github.com/NnamdiCode/Datadextoken-sub001/internal/domain"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/storage"
	"github.com/jackc/pgx/v5"
)

// PoolStore implements storage.PoolStore backed by Postgres.
type PoolStore struct {
	pool *Pool
}

// NewPoolStore creates a new Postgres pool snapshot store.
func NewPoolStore(pool *Pool) *PoolStore {
	return &PoolStore{pool: pool}
}

const upsertPoolSQL = `
	INSERT INTO pool_snapshots (
		pool_id, token_a_address, token_a_symbol, token_a_decimals,
		token_b_address, token_b_symbol, token_b_decimals,
		reserve_a, reserve_b, total_shares,
		fee_numerator, fee_denominator, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (pool_id) DO UPDATE SET
		reserve_a = EXCLUDED.reserve_a,
		reserve_b = EXCLUDED.reserve_b,
		total_shares = EXCLUDED.total_shares,
		updated_at = EXCLUDED.updated_at
`

// Upsert inserts or updates a pool snapshot.
func (s *PoolStore) Upsert(ctx context.Context, snap *domain.PoolSnapshot) error {
	if snap == nil || snap.PoolID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, upsertPoolSQL,
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

	return nil
}

const selectPoolSQL = `
	SELECT pool_id, token_a_address, token_a_symbol, token_a_decimals,
		token_b_address, token_b_symbol, token_b_decimals,
		reserve_a::text, reserve_b::text, total_shares::text,
		fee_numerator::text, fee_denominator::text, updated_at
	FROM pool_snapshots
`

// GetByID retrieves a pool snapshot by pool ID.
func (s *PoolStore) GetByID(ctx context.Context, poolID string) (*domain.PoolSnapshot, error) {
	if poolID == "" {
		return nil, storage.ErrInvalidInput
	}

	row := s.pool.QueryRow(ctx, selectPoolSQL+" WHERE pool_id = $1", poolID)

	snap, err := scanPoolSnapshot(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get pool snapshot: %w", err)
	}

	return snap, nil
}

// GetAll retrieves all pool snapshots sorted by pool ID.
func (s *PoolStore) GetAll(ctx context.Context) ([]*domain.PoolSnapshot, error) {
	rows, err := s.pool.Query(ctx, selectPoolSQL+" ORDER BY pool_id")
	if err != nil {
		return nil, fmt.Errorf("query pool snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*domain.PoolSnapshot
	for rows.Next() {
		snap, err := scanPoolSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pool snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pool snapshots: %w", err)
	}

	return snaps, nil
}

func scanPoolSnapshot(row pgx.Row) (*domain.PoolSnapshot, error) {
	var (
		snap                 domain.PoolSnapshot
		decA, decB           int16
		rawA, rawB, rawT     string
		rawFeeNum, rawFeeDen string
	)

	err := row.Scan(
		&snap.PoolID,
		&snap.TokenA.Address, &snap.TokenA.Symbol, &decA,
		&snap.TokenB.Address, &snap.TokenB.Symbol, &decB,
		&rawA, &rawB, &rawT,
		&rawFeeNum, &rawFeeDen,
		&snap.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	snap.TokenA.Decimals = uint8(decA)
	snap.TokenB.Decimals = uint8(decB)

	if snap.ReserveA, err = decodeUint(rawA); err != nil {
		return nil, err
	}
	if snap.ReserveB, err = decodeUint(rawB); err != nil {
		return nil, err
	}
	if snap.TotalShares, err = decodeUint(rawT); err != nil {
		return nil, err
	}
	if snap.FeeNumerator, err = decodeUint(rawFeeNum); err != nil {
		return nil, err
	}
	if snap.FeeDenominator, err = decodeUint(rawFeeDen); err != nil {
		return nil, err
	}

	return &snap, nil
}

var _ storage.PoolStore = (*PoolStore)(nil)
