package domain

// LedgerEntry is one element of a pool's append-only ledger: either a swap
// (Trade set) or a liquidity event (Liquidity set), never both. Entries are
// totally ordered per pool by Sequence and never mutated after append.
type LedgerEntry struct {
	PoolID    string
	Sequence  uint64
	Timestamp int64 // Unix timestamp in milliseconds
	Trade     *TradeRecord
	Liquidity *LiquidityEvent
}

// Kind returns the entry discriminator.
func (e *LedgerEntry) Kind() string {
	if e.Trade != nil {
		return EntryKindSwap
	}
	return EntryKindLiquidity
}

// Ledger entry kind constants
const (
	EntryKindSwap      = "swap"
	EntryKindLiquidity = "liquidity"
)
