// Package engine implements the constant-product swap engine: pool state,
// pair registry, quoting/execution, and liquidity share accounting. Pool
// reserves are raw uint64 amounts and every mutation runs under the pool's
// own lock, so different pools proceed fully concurrently.
package engine

import (
	"sync"

	"github.com/NnamdiCode/Datadextoken-sub001/internal/domain"
)

// Default fee: 30 bps, expressed as an integer retained-fraction.
const (
	DefaultFeeNumerator   = 997
	DefaultFeeDenominator = 1000
)

// Pool holds the reserves and share supply for one canonical token pair.
// Reserves are mutated only by SwapEngine and LiquidityManager, which live
// in this package; external callers observe pools through snapshots.
type Pool struct {
	id             string
	tokenA         domain.Token // canonical order: tokenA.Address < tokenB.Address
	tokenB         domain.Token
	feeNumerator   uint64
	feeDenominator uint64

	mu          sync.RWMutex // serializes mutations; quotes take read locks
	reserveA    uint64
	reserveB    uint64
	totalShares uint64
	updatedAt   int64 // ms timestamp of last mutation
}

// ID returns the pool's canonical identifier.
func (p *Pool) ID() string { return p.id }

// TokenA returns the canonical first token of the pair.
func (p *Pool) TokenA() domain.Token { return p.tokenA }

// TokenB returns the canonical second token of the pair.
func (p *Pool) TokenB() domain.Token { return p.tokenB }

// Snapshot returns an immutable copy of the pool's current state.
func (p *Pool) Snapshot() *domain.PoolSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshotLocked()
}

// snapshotLocked builds a snapshot. Caller must hold p.mu (read or write).
func (p *Pool) snapshotLocked() *domain.PoolSnapshot {
	return &domain.PoolSnapshot{
		PoolID:         p.id,
		TokenA:         p.tokenA,
		TokenB:         p.tokenB,
		ReserveA:       p.reserveA,
		ReserveB:       p.reserveB,
		TotalShares:    p.totalShares,
		FeeNumerator:   p.feeNumerator,
		FeeDenominator: p.feeDenominator,
		UpdatedAt:      p.updatedAt,
	}
}

// orient resolves which side of the pool tokenIn is, returning the input
// and output reserves and the output token. Caller must hold p.mu.
func (p *Pool) orient(tokenIn string) (reserveIn, reserveOut uint64, tokenOut domain.Token, err error) {
	switch tokenIn {
	case p.tokenA.Address:
		return p.reserveA, p.reserveB, p.tokenB, nil
	case p.tokenB.Address:
		return p.reserveB, p.reserveA, p.tokenA, nil
	default:
		return 0, 0, domain.Token{}, ErrUnknownToken
	}
}

// tokenByAddress returns the pool token with the given address.
func (p *Pool) tokenByAddress(addr string) (domain.Token, error) {
	switch addr {
	case p.tokenA.Address:
		return p.tokenA, nil
	case p.tokenB.Address:
		return p.tokenB, nil
	default:
		return domain.Token{}, ErrUnknownToken
	}
}
