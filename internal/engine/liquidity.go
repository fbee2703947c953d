package engine

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/NnamdiCode/Datadextoken-sub001/internal/domain"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/fixedpoint"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/ledger"
)

// MinimumLiquidity is deducted from the first deposit's minted shares and
// locked under domain.LockedProvider, deterring degenerate first deposits
// and keeping a funded pool from ever fully draining.
const MinimumLiquidity = 1000

// AddResult reports the outcome of a deposit. Accepted amounts are in
// canonical pool order; returned amounts are the excess handed back to the
// provider when the offer was not exactly proportional.
type AddResult struct {
	SharesMinted uint64
	AcceptedA    uint64
	AcceptedB    uint64
	ReturnedA    uint64
	ReturnedB    uint64
	Event        *domain.LiquidityEvent
	Snapshot     *domain.PoolSnapshot
}

// RemoveResult reports the outcome of a withdrawal, amounts in canonical
// pool order.
type RemoveResult struct {
	SharesBurned uint64
	AmountA      uint64
	AmountB      uint64
	Event        *domain.LiquidityEvent
	Snapshot     *domain.PoolSnapshot
}

// LiquidityManager mints and burns liquidity shares and tracks per-provider
// positions. It shares the per-pool mutation discipline with SwapEngine:
// all reserve changes happen under the pool lock.
type LiquidityManager struct {
	registry *Registry
	ledger   *ledger.Ledger
	clock    func() int64

	mu        sync.Mutex
	positions map[string]map[string]uint64 // poolID -> provider -> shares
}

// NewLiquidityManager creates a liquidity manager over the given registry
// and ledger.
func NewLiquidityManager(registry *Registry, lg *ledger.Ledger) *LiquidityManager {
	return &LiquidityManager{
		registry:  registry,
		ledger:    lg,
		clock:     func() int64 { return time.Now().UnixMilli() },
		positions: make(map[string]map[string]uint64),
	}
}

// AddLiquidity deposits amountA/amountB (canonical pool order) for the
// provider. An empty pool accepts any ratio and mints the geometric mean of
// the amounts minus the MinimumLiquidity lock. A funded pool requires the
// deposit ratio to match the reserve ratio within toleranceBps; the excess
// of the over-supplied side is returned rather than consumed.
func (m *LiquidityManager) AddLiquidity(poolID string, amountA, amountB uint64, toleranceBps uint32, provider string) (*AddResult, error) {
	if amountA == 0 || amountB == 0 {
		return nil, fmt.Errorf("add liquidity: %w: both amounts must be positive", ErrInvalidAmount)
	}

	p, err := m.registry.Get(poolID)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.totalShares == 0 {
		return m.addInitialLocked(p, amountA, amountB, provider)
	}
	return m.addProportionalLocked(p, amountA, amountB, toleranceBps, provider)
}

// addInitialLocked funds an empty pool. Caller holds p.mu.
func (m *LiquidityManager) addInitialLocked(p *Pool, amountA, amountB uint64, provider string) (*AddResult, error) {
	minted := fixedpoint.SqrtProduct(amountA, amountB)
	if minted <= MinimumLiquidity {
		return nil, fmt.Errorf("add liquidity pool %s: %w: initial deposit below minimum liquidity",
			p.id, ErrInvalidAmount)
	}
	providerShares := minted - MinimumLiquidity

	now := m.clock()
	ev, err := m.ledger.AppendLiquidity(p.id, provider, domain.LiquidityEventAdd,
		amountA, amountB, providerShares, now)
	if err != nil {
		return nil, fmt.Errorf("add liquidity pool %s: ledger append: %w", p.id, err)
	}

	p.reserveA = amountA
	p.reserveB = amountB
	p.totalShares = minted
	p.updatedAt = now

	m.credit(p.id, domain.LockedProvider, MinimumLiquidity)
	m.credit(p.id, provider, providerShares)

	return &AddResult{
		SharesMinted: providerShares,
		AcceptedA:    amountA,
		AcceptedB:    amountB,
		Event:        ev,
		Snapshot:     p.snapshotLocked(),
	}, nil
}

// addProportionalLocked deposits into a funded pool. Caller holds p.mu.
func (m *LiquidityManager) addProportionalLocked(p *Pool, amountA, amountB uint64, toleranceBps uint32, provider string) (*AddResult, error) {
	if !fixedpoint.RatioWithinBps(amountA, amountB, p.reserveA, p.reserveB, toleranceBps) {
		return nil, fmt.Errorf("add liquidity pool %s: %w: deposit %d:%d vs reserves %d:%d",
			p.id, ErrImbalanced, amountA, amountB, p.reserveA, p.reserveB)
	}

	// Shares from each side; the minimum wins, the other side's surplus
	// is returned to the provider.
	sharesA, err := fixedpoint.MulDiv(p.totalShares, amountA, p.reserveA)
	if err != nil {
		return nil, fmt.Errorf("add liquidity pool %s: %w", p.id, err)
	}
	sharesB, err := fixedpoint.MulDiv(p.totalShares, amountB, p.reserveB)
	if err != nil {
		return nil, fmt.Errorf("add liquidity pool %s: %w", p.id, err)
	}
	minted := min(sharesA, sharesB)
	if minted == 0 {
		return nil, fmt.Errorf("add liquidity pool %s: %w: deposit too small to mint shares",
			p.id, ErrInvalidAmount)
	}

	// Accepted amounts fund exactly the minted shares, rounded up so the
	// rounding remainder stays with the pool.
	acceptedA, err := fixedpoint.MulDivCeil(minted, p.reserveA, p.totalShares)
	if err != nil {
		return nil, fmt.Errorf("add liquidity pool %s: %w", p.id, err)
	}
	acceptedB, err := fixedpoint.MulDivCeil(minted, p.reserveB, p.totalShares)
	if err != nil {
		return nil, fmt.Errorf("add liquidity pool %s: %w", p.id, err)
	}
	if acceptedA > amountA {
		acceptedA = amountA
	}
	if acceptedB > amountB {
		acceptedB = amountB
	}

	newReserveA, err := fixedpoint.Add(p.reserveA, acceptedA)
	if err != nil {
		return nil, fmt.Errorf("add liquidity pool %s: reserve update: %w", p.id, err)
	}
	newReserveB, err := fixedpoint.Add(p.reserveB, acceptedB)
	if err != nil {
		return nil, fmt.Errorf("add liquidity pool %s: reserve update: %w", p.id, err)
	}
	newTotal, err := fixedpoint.Add(p.totalShares, minted)
	if err != nil {
		return nil, fmt.Errorf("add liquidity pool %s: share supply: %w", p.id, err)
	}

	now := m.clock()
	ev, err := m.ledger.AppendLiquidity(p.id, provider, domain.LiquidityEventAdd,
		acceptedA, acceptedB, minted, now)
	if err != nil {
		return nil, fmt.Errorf("add liquidity pool %s: ledger append: %w", p.id, err)
	}

	p.reserveA = newReserveA
	p.reserveB = newReserveB
	p.totalShares = newTotal
	p.updatedAt = now

	m.credit(p.id, provider, minted)

	return &AddResult{
		SharesMinted: minted,
		AcceptedA:    acceptedA,
		AcceptedB:    acceptedB,
		ReturnedA:    amountA - acceptedA,
		ReturnedB:    amountB - acceptedB,
		Event:        ev,
		Snapshot:     p.snapshotLocked(),
	}, nil
}

// RemoveLiquidity burns the provider's shares and pays out the proportional
// reserves, floor-divided so rounding favors the pool.
func (m *LiquidityManager) RemoveLiquidity(poolID string, shares uint64, provider string) (*RemoveResult, error) {
	if shares == 0 {
		return nil, fmt.Errorf("remove liquidity: %w: shares must be positive", ErrInvalidAmount)
	}

	p, err := m.registry.Get(poolID)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.totalShares == 0 {
		return nil, fmt.Errorf("remove liquidity pool %s: %w", poolID, ErrEmptyPool)
	}
	if held := m.Position(poolID, provider); shares > held {
		return nil, fmt.Errorf("remove liquidity pool %s: %w: requested %d, held %d",
			poolID, ErrInsufficientShares, shares, held)
	}

	amountA, err := fixedpoint.MulDiv(p.reserveA, shares, p.totalShares)
	if err != nil {
		return nil, fmt.Errorf("remove liquidity pool %s: %w", poolID, err)
	}
	amountB, err := fixedpoint.MulDiv(p.reserveB, shares, p.totalShares)
	if err != nil {
		return nil, fmt.Errorf("remove liquidity pool %s: %w", poolID, err)
	}

	now := m.clock()
	ev, err := m.ledger.AppendLiquidity(p.id, provider, domain.LiquidityEventRemove,
		amountA, amountB, shares, now)
	if err != nil {
		return nil, fmt.Errorf("remove liquidity pool %s: ledger append: %w", poolID, err)
	}

	p.reserveA -= amountA
	p.reserveB -= amountB
	p.totalShares -= shares
	p.updatedAt = now

	m.debit(p.id, provider, shares)

	return &RemoveResult{
		SharesBurned: shares,
		AmountA:      amountA,
		AmountB:      amountB,
		Event:        ev,
		Snapshot:     p.snapshotLocked(),
	}, nil
}

// Position returns the provider's share count in the pool.
func (m *LiquidityManager) Position(poolID, provider string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.positions[poolID][provider]
}

// Positions returns all non-zero positions in a pool, ordered by provider.
// The sum of the returned shares equals the pool's total supply.
func (m *LiquidityManager) Positions(poolID string) []*domain.LiquidityPosition {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.LiquidityPosition
	for provider, shares := range m.positions[poolID] {
		if shares == 0 {
			continue
		}
		out = append(out, &domain.LiquidityPosition{
			Provider: provider,
			PoolID:   poolID,
			Shares:   shares,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out
}

// RestorePosition rehydrates a persisted position on process restart.
func (m *LiquidityManager) RestorePosition(pos *domain.LiquidityPosition) {
	m.credit(pos.PoolID, pos.Provider, pos.Shares)
}

func (m *LiquidityManager) credit(poolID, provider string, shares uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.positions[poolID] == nil {
		m.positions[poolID] = make(map[string]uint64)
	}
	m.positions[poolID][provider] += shares
}

func (m *LiquidityManager) debit(poolID, provider string, shares uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	held := m.positions[poolID][provider]
	if shares >= held {
		delete(m.positions[poolID], provider)
		return
	}
	m.positions[poolID][provider] = held - shares
}
