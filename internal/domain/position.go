package domain

// LiquidityPosition is one provider's share claim on a pool.
// Invariant: the sum of all positions' shares for a pool equals that
// pool's TotalShares (the minimum-liquidity lock is held by LockedProvider).
type LiquidityPosition struct {
	Provider string // authenticated principal identifier
	PoolID   string
	Shares   uint64
}
