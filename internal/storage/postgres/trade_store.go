package postgres

import (
	"context"
	"fmt"

	"github.com/NnamdiCode/Datadextoken-sub001/internal/domain"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// TradeStore implements storage.TradeStore backed by Postgres.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new Postgres trade store.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

const insertTradeSQL = `
	INSERT INTO trade_records (
		trade_id, pool_id, trader, token_in, token_out,
		amount_in, amount_out, fee_amount, executed_price,
		sequence, executed_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

// SaveSwap persists a trade record and the resulting pool snapshot in one
// transaction. Neither is committed without the other.
func (s *TradeStore) SaveSwap(ctx context.Context, rec *domain.TradeRecord, snap *domain.PoolSnapshot) error {
	if rec == nil || rec.TradeID == "" || snap == nil || snap.PoolID == "" {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, insertTradeSQL,
		rec.TradeID, rec.PoolID, rec.Trader, rec.TokenIn, rec.TokenOut,
		encodeUint(rec.AmountIn), encodeUint(rec.AmountOut), encodeUint(rec.FeeAmount),
		rec.ExecutedPrice.String(),
		int64(rec.Sequence), rec.Timestamp,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade: %w", err)
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

const selectTradeSQL = `
	SELECT trade_id, pool_id, trader, token_in, token_out,
		amount_in::text, amount_out::text, fee_amount::text, executed_price,
		sequence, executed_at
	FROM trade_records
`

// GetByID retrieves a trade by trade ID.
func (s *TradeStore) GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error) {
	if tradeID == "" {
		return nil, storage.ErrInvalidInput
	}

	row := s.pool.QueryRow(ctx, selectTradeSQL+" WHERE trade_id = $1", tradeID)

	rec, err := scanTradeRecord(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade: %w", err)
	}

	return rec, nil
}

// GetByPool retrieves all trades for a pool ordered by sequence.
func (s *TradeStore) GetByPool(ctx context.Context, poolID string) ([]*domain.TradeRecord, error) {
	if poolID == "" {
		return nil, storage.ErrInvalidInput
	}

	return s.queryTrades(ctx, selectTradeSQL+" WHERE pool_id = $1 ORDER BY sequence", poolID)
}

// GetByTimeRange retrieves trades for a pool within [start, end] inclusive,
// timestamps in milliseconds.
func (s *TradeStore) GetByTimeRange(ctx context.Context, poolID string, start, end int64) ([]*domain.TradeRecord, error) {
	if poolID == "" || start > end {
		return nil, storage.ErrInvalidInput
	}

	return s.queryTrades(ctx,
		selectTradeSQL+" WHERE pool_id = $1 AND executed_at BETWEEN $2 AND $3 ORDER BY sequence",
		poolID, start, end,
	)
}

// MaxSequence returns the highest persisted trade sequence for a pool.
func (s *TradeStore) MaxSequence(ctx context.Context, poolID string) (uint64, error) {
	if poolID == "" {
		return 0, storage.ErrInvalidInput
	}

	var max int64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(sequence), 0) FROM trade_records WHERE pool_id = $1`,
		poolID,
	).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max trade sequence: %w", err)
	}

	return uint64(max), nil
}

func (s *TradeStore) queryTrades(ctx context.Context, sql string, args ...any) ([]*domain.TradeRecord, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var trades []*domain.TradeRecord
	for rows.Next() {
		rec, err := scanTradeRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trades = append(trades, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}

	return trades, nil
}

func scanTradeRecord(row pgx.Row) (*domain.TradeRecord, error) {
	var (
		rec                   domain.TradeRecord
		rawIn, rawOut, rawFee string
		rawPrice              string
		seq                   int64
	)

	err := row.Scan(
		&rec.TradeID, &rec.PoolID, &rec.Trader, &rec.TokenIn, &rec.TokenOut,
		&rawIn, &rawOut, &rawFee, &rawPrice,
		&seq, &rec.Timestamp,
	)
	if err != nil {
		return nil, err
	}

	rec.Sequence = uint64(seq)

	if rec.AmountIn, err = decodeUint(rawIn); err != nil {
		return nil, err
	}
	if rec.AmountOut, err = decodeUint(rawOut); err != nil {
		return nil, err
	}
	if rec.FeeAmount, err = decodeUint(rawFee); err != nil {
		return nil, err
	}
	if rec.ExecutedPrice, err = decimal.NewFromString(rawPrice); err != nil {
		return nil, fmt.Errorf("decode executed price %q: %w", rawPrice, err)
	}

	return &rec, nil
}

var _ storage.TradeStore = (*TradeStore)(nil)
