package domain

// PoolSnapshot is an immutable view of a pool's state at a point in time.
// TokenA/TokenB are in canonical order (TokenA.Address < TokenB.Address),
// so (A,B) and (B,A) produce the same snapshot shape.
// Corresponds to the pool_snapshots table in PostgreSQL.
type PoolSnapshot struct {
	PoolID         string // deterministic hash of the canonical pair
	TokenA         Token
	TokenB         Token
	ReserveA       uint64 // raw smallest-unit amount of TokenA
	ReserveB       uint64 // raw smallest-unit amount of TokenB
	TotalShares    uint64 // total liquidity shares outstanding
	FeeNumerator   uint64 // e.g. 997
	FeeDenominator uint64 // e.g. 1000 => 0.3% fee
	UpdatedAt      int64  // Unix timestamp in milliseconds
}

// Empty reports whether the pool holds no liquidity.
// Invariant: ReserveA == 0 iff ReserveB == 0 iff TotalShares == 0.
func (s *PoolSnapshot) Empty() bool {
	return s.TotalShares == 0
}
