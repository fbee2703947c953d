package engine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/NnamdiCode/Datadextoken-sub001/internal/domain"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/idhash"
)

// Registry maps canonical token pairs to their pools. A pair has exactly
// one pool regardless of argument order; pools are created empty on first
// use and never deleted.
type Registry struct {
	mu    sync.RWMutex
	pools map[string]*Pool // keyed by pool id
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{pools: make(map[string]*Pool)}
}

// GetOrCreate returns the canonical pool for the unordered pair, creating
// an empty one with the given fee if absent. The fee of an existing pool
// is never changed by a later call.
func (r *Registry) GetOrCreate(tokenA, tokenB domain.Token, feeNumerator, feeDenominator uint64) (*Pool, error) {
	if tokenA.Address == tokenB.Address {
		return nil, ErrSameToken
	}
	if feeDenominator == 0 || feeNumerator > feeDenominator {
		return nil, fmt.Errorf("invalid fee %d/%d", feeNumerator, feeDenominator)
	}

	// Canonicalize: tokenA sorts before tokenB by address.
	if tokenB.Address < tokenA.Address {
		tokenA, tokenB = tokenB, tokenA
	}
	id := idhash.ComputePoolID(tokenA.Address, tokenB.Address)

	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.pools[id]; ok {
		return p, nil
	}

	p := &Pool{
		id:             id,
		tokenA:         tokenA,
		tokenB:         tokenB,
		feeNumerator:   feeNumerator,
		feeDenominator: feeDenominator,
	}
	r.pools[id] = p
	return p, nil
}

// Get retrieves a pool by id. Returns ErrPoolNotFound if absent.
func (r *Registry) Get(poolID string) (*Pool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.pools[poolID]
	if !ok {
		return nil, ErrPoolNotFound
	}
	return p, nil
}

// Lookup resolves the pool for an unordered pair of token addresses.
// Returns ErrPoolNotFound if the pair has no pool yet.
func (r *Registry) Lookup(addrA, addrB string) (*Pool, error) {
	return r.Get(idhash.ComputePoolID(addrA, addrB))
}

// List returns snapshots of all pools, ordered by pool id.
func (r *Registry) List() []*domain.PoolSnapshot {
	r.mu.RLock()
	pools := make([]*Pool, 0, len(r.pools))
	for _, p := range r.pools {
		pools = append(pools, p)
	}
	r.mu.RUnlock()

	sort.Slice(pools, func(i, j int) bool { return pools[i].id < pools[j].id })

	snaps := make([]*domain.PoolSnapshot, len(pools))
	for i, p := range pools {
		snaps[i] = p.Snapshot()
	}
	return snaps
}

// Restore recreates a pool from a persisted snapshot, used on process
// restart. Returns an error if the pool already exists in memory.
func (r *Registry) Restore(snap *domain.PoolSnapshot) (*Pool, error) {
	if snap.TokenA.Address == snap.TokenB.Address {
		return nil, ErrSameToken
	}
	if snap.FeeDenominator == 0 {
		return nil, fmt.Errorf("invalid fee denominator in snapshot for pool %s", snap.PoolID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pools[snap.PoolID]; ok {
		return nil, fmt.Errorf("pool %s already registered", snap.PoolID)
	}

	p := &Pool{
		id:             snap.PoolID,
		tokenA:         snap.TokenA,
		tokenB:         snap.TokenB,
		feeNumerator:   snap.FeeNumerator,
		feeDenominator: snap.FeeDenominator,
		reserveA:       snap.ReserveA,
		reserveB:       snap.ReserveB,
		totalShares:    snap.TotalShares,
		updatedAt:      snap.UpdatedAt,
	}
	r.pools[snap.PoolID] = p
	return p, nil
}
