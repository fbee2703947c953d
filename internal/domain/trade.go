package domain

import "github.com/shopspring/decimal"

// TradeRecord represents one executed swap. Immutable once appended to the
// ledger; Sequence is the pool-local append order and defines the total order
// for derived statistics.
// Corresponds to the trade_records table in PostgreSQL.
type TradeRecord struct {
	TradeID       string          // deterministic hash
	PoolID        string
	Trader        string          // authenticated principal identifier
	TokenIn       string          // input token address
	TokenOut      string          // output token address
	AmountIn      uint64          // raw smallest-unit input amount
	AmountOut     uint64          // raw smallest-unit output amount
	FeeAmount     uint64          // amountIn - amountInAfterFee, retained in reserves
	ExecutedPrice decimal.Decimal // amountOut/amountIn adjusted for token decimals
	Sequence      uint64          // pool-local ledger sequence, starts at 1
	Timestamp     int64           // Unix timestamp in milliseconds
}
