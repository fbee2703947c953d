package domain

// LiquidityEvent represents a liquidity add/remove applied to a pool.
// Amounts are in canonical pool order (AmountA is TokenA of the pool).
// Corresponds to the liquidity_events table in PostgreSQL.
type LiquidityEvent struct {
	EventID      string // deterministic hash
	PoolID       string
	Provider     string // authenticated principal identifier
	EventType    string // "add" | "remove"
	AmountA      uint64 // accepted/returned raw amount of TokenA
	AmountB      uint64 // accepted/returned raw amount of TokenB
	SharesDelta  uint64 // shares minted (add) or burned (remove)
	Sequence     uint64 // pool-local ledger sequence, shared with trades
	Timestamp    int64  // Unix timestamp in milliseconds
}

// Liquidity event type constants
const (
	LiquidityEventAdd    = "add"
	LiquidityEventRemove = "remove"
)
