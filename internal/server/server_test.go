package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NnamdiCode/Datadextoken-sub001/internal/domain"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/engine"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/idhash"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/ledger"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/storage/memory"
)

// Pools canonicalize the pair by address sort; tokenAddrA is the
// lexicographically smaller address so positional amounts line up.
const (
	tokenAddrA = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	tokenAddrB = "So11111111111111111111111111111111111111112"
)

type testFixture struct {
	server *Server
	stores Stores
	http   *httptest.Server
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()

	pools := memory.NewPoolStore()
	stores := Stores{
		Pools:     pools,
		Positions: memory.NewPositionStore(),
		Trades:    memory.NewTradeStoreWithPools(pools),
		Events:    memory.NewLiquidityEventStoreWithPools(pools),
	}

	registry := engine.NewRegistry()
	lg := ledger.New()
	srv := New(
		Config{FeeNumerator: 997, FeeDenominator: 1000, RatioToleranceBps: 100},
		nil,
		registry,
		engine.NewSwapEngine(registry, lg),
		engine.NewLiquidityManager(registry, lg),
		lg,
		stores,
		nil,
	)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	return &testFixture{server: srv, stores: stores, http: ts}
}

func (f *testFixture) post(t *testing.T, path string, body, out any) int {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(f.http.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (f *testFixture) get(t *testing.T, path string, out any) int {
	t.Helper()

	resp, err := http.Get(f.http.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (f *testFixture) createPool(t *testing.T) string {
	t.Helper()

	var snap domain.PoolSnapshot
	status := f.post(t, "/v1/pools", createPoolRequest{
		TokenA: tokenPayload{Address: tokenAddrA, Symbol: "USDC", Decimals: 6},
		TokenB: tokenPayload{Address: tokenAddrB, Symbol: "SOL", Decimals: 9},
	}, &snap)
	require.Equal(t, http.StatusOK, status)
	return snap.PoolID
}

func (f *testFixture) addLiquidity(t *testing.T, poolID, provider string, amountA, amountB uint64) {
	t.Helper()

	status := f.post(t, "/v1/liquidity/add", addLiquidityRequest{
		PoolID:   poolID,
		Provider: provider,
		AmountA:  amountA,
		AmountB:  amountB,
	}, nil)
	require.Equal(t, http.StatusOK, status)
}

func TestCreatePool(t *testing.T) {
	f := newTestFixture(t)

	poolID := f.createPool(t)
	assert.Equal(t, idhash.ComputePoolID(tokenAddrA, tokenAddrB), poolID)

	// Creating the same pair again returns the same pool
	assert.Equal(t, poolID, f.createPool(t))

	var pools []*domain.PoolSnapshot
	require.Equal(t, http.StatusOK, f.get(t, "/v1/pools", &pools))
	require.Len(t, pools, 1)

	// The snapshot was persisted on create
	stored, err := f.stores.Pools.GetByID(context.Background(), poolID)
	require.NoError(t, err)
	assert.True(t, stored.Empty())
}

func TestCreatePool_FeeOverride(t *testing.T) {
	f := newTestFixture(t)

	zero := uint64(0)
	thousand := uint64(1000)

	var snap domain.PoolSnapshot
	status := f.post(t, "/v1/pools", createPoolRequest{
		TokenA:         tokenPayload{Address: tokenAddrA, Symbol: "USDC", Decimals: 6},
		TokenB:         tokenPayload{Address: tokenAddrB, Symbol: "SOL", Decimals: 9},
		FeeNumerator:   &thousand,
		FeeDenominator: &thousand,
	}, &snap)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, uint64(1000), snap.FeeNumerator)
	assert.Equal(t, uint64(1000), snap.FeeDenominator)

	bad := uint64(1001)
	status = f.post(t, "/v1/pools", createPoolRequest{
		TokenA:         tokenPayload{Address: tokenAddrA, Symbol: "USDC", Decimals: 6},
		TokenB:         tokenPayload{Address: tokenAddrB, Symbol: "SOL", Decimals: 9},
		FeeNumerator:   &bad,
		FeeDenominator: &thousand,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status = f.post(t, "/v1/pools", createPoolRequest{
		TokenA:         tokenPayload{Address: tokenAddrA, Symbol: "USDC", Decimals: 6},
		TokenB:         tokenPayload{Address: tokenAddrB, Symbol: "SOL", Decimals: 9},
		FeeNumerator:   &thousand,
		FeeDenominator: &zero,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	// Half-specified overrides are rejected, never silently defaulted
	status = f.post(t, "/v1/pools", createPoolRequest{
		TokenA:       tokenPayload{Address: tokenAddrA, Symbol: "USDC", Decimals: 6},
		TokenB:       tokenPayload{Address: tokenAddrB, Symbol: "SOL", Decimals: 9},
		FeeNumerator: &thousand,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCreatePool_RejectsInvalidAddress(t *testing.T) {
	f := newTestFixture(t)

	status := f.post(t, "/v1/pools", createPoolRequest{
		TokenA: tokenPayload{Address: "not-base58!", Symbol: "BAD", Decimals: 6},
		TokenB: tokenPayload{Address: tokenAddrB, Symbol: "SOL", Decimals: 9},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCreatePool_CanonicalOrientation(t *testing.T) {
	f := newTestFixture(t)

	// Tokens in reverse order; the pool still canonicalizes by address sort.
	var snap domain.PoolSnapshot
	status := f.post(t, "/v1/pools", createPoolRequest{
		TokenA: tokenPayload{Address: tokenAddrB, Symbol: "SOL", Decimals: 9},
		TokenB: tokenPayload{Address: tokenAddrA, Symbol: "USDC", Decimals: 6},
	}, &snap)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, tokenAddrA, snap.TokenA.Address)
	assert.Equal(t, tokenAddrB, snap.TokenB.Address)

	// amount_a funds the canonical A side, not the request's token_a
	f.addLiquidity(t, snap.PoolID, "alice", 1_000_000, 4_000_000)

	var quote quoteResponse
	status = f.post(t, "/v1/quote", quoteRequest{
		PoolID:   snap.PoolID,
		TokenIn:  tokenAddrA,
		AmountIn: 1_000,
	}, &quote)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, uint64(3_984), quote.AmountOut)

	status = f.post(t, "/v1/quote", quoteRequest{
		PoolID:   snap.PoolID,
		TokenIn:  tokenAddrB,
		AmountIn: 1_000,
	}, &quote)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, uint64(249), quote.AmountOut)
}

func TestAddLiquidityAndPositions(t *testing.T) {
	f := newTestFixture(t)

	poolID := f.createPool(t)
	f.addLiquidity(t, poolID, "alice", 1_000_000, 4_000_000)

	var snap domain.PoolSnapshot
	require.Equal(t, http.StatusOK, f.get(t, "/v1/pools/"+poolID, &snap))
	assert.Equal(t, uint64(1_000_000), snap.ReserveA)
	assert.Equal(t, uint64(4_000_000), snap.ReserveB)
	assert.Equal(t, uint64(2_000_000), snap.TotalShares)

	var positions []*domain.LiquidityPosition
	require.Equal(t, http.StatusOK, f.get(t, "/v1/pools/"+poolID+"/positions", &positions))
	require.Len(t, positions, 2)

	byProvider := make(map[string]uint64)
	for _, pos := range positions {
		byProvider[pos.Provider] = pos.Shares
	}
	assert.Equal(t, uint64(1_999_000), byProvider["alice"])
	assert.Equal(t, uint64(1_000), byProvider[domain.LockedProvider])

	// Positions were persisted
	stored, err := f.stores.Positions.Get(context.Background(), poolID, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(1_999_000), stored.Shares)
}

func TestQuoteAndSwap(t *testing.T) {
	f := newTestFixture(t)

	poolID := f.createPool(t)
	f.addLiquidity(t, poolID, "alice", 1_000_000, 4_000_000)

	var quote quoteResponse
	status := f.post(t, "/v1/quote", quoteRequest{
		PoolID:   poolID,
		TokenIn:  tokenAddrA,
		AmountIn: 1_000,
	}, &quote)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, uint64(3_984), quote.AmountOut)
	assert.Equal(t, uint64(3), quote.FeeAmount)
	assert.Equal(t, tokenAddrB, quote.TokenOut)

	// Quoting does not move reserves
	var snap domain.PoolSnapshot
	require.Equal(t, http.StatusOK, f.get(t, "/v1/pools/"+poolID, &snap))
	assert.Equal(t, uint64(1_000_000), snap.ReserveA)

	var rec domain.TradeRecord
	status = f.post(t, "/v1/swap", swapRequest{
		PoolID:       poolID,
		Trader:       "bob",
		TokenIn:      tokenAddrA,
		AmountIn:     1_000,
		MinAmountOut: 3_984,
	}, &rec)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, uint64(3_984), rec.AmountOut)
	assert.Equal(t, uint64(2), rec.Sequence) // sequence 1 was the deposit

	require.Equal(t, http.StatusOK, f.get(t, "/v1/pools/"+poolID, &snap))
	assert.Equal(t, uint64(1_001_000), snap.ReserveA)
	assert.Equal(t, uint64(3_996_016), snap.ReserveB)

	// The committed swap was persisted together with its snapshot
	storedTrade, err := f.stores.Trades.GetByID(context.Background(), rec.TradeID)
	require.NoError(t, err)
	assert.Equal(t, uint64(3_984), storedTrade.AmountOut)

	storedSnap, err := f.stores.Pools.GetByID(context.Background(), poolID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_001_000), storedSnap.ReserveA)
}

func TestSwap_SlippageRejected(t *testing.T) {
	f := newTestFixture(t)

	poolID := f.createPool(t)
	f.addLiquidity(t, poolID, "alice", 1_000_000, 4_000_000)

	status := f.post(t, "/v1/swap", swapRequest{
		PoolID:       poolID,
		Trader:       "bob",
		TokenIn:      tokenAddrA,
		AmountIn:     1_000,
		MinAmountOut: 4_000,
	}, nil)
	assert.Equal(t, http.StatusConflict, status)

	// No trace in reserves or the trade store
	var snap domain.PoolSnapshot
	require.Equal(t, http.StatusOK, f.get(t, "/v1/pools/"+poolID, &snap))
	assert.Equal(t, uint64(1_000_000), snap.ReserveA)

	trades, err := f.stores.Trades.GetByPool(context.Background(), poolID)
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestSwap_UnknownPool(t *testing.T) {
	f := newTestFixture(t)

	status := f.post(t, "/v1/swap", swapRequest{
		PoolID:       "missing",
		Trader:       "bob",
		TokenIn:      tokenAddrA,
		AmountIn:     1_000,
		MinAmountOut: 0,
	}, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPoolStats(t *testing.T) {
	f := newTestFixture(t)

	poolID := f.createPool(t)
	f.addLiquidity(t, poolID, "alice", 1_000_000, 4_000_000)

	for i := 0; i < 3; i++ {
		status := f.post(t, "/v1/swap", swapRequest{
			PoolID:   poolID,
			Trader:   "bob",
			TokenIn:  tokenAddrA,
			AmountIn: 1_000,
		}, nil)
		require.Equal(t, http.StatusOK, status)
	}

	var stats poolStatsResponse
	require.Equal(t, http.StatusOK, f.get(t, "/v1/pools/"+poolID+"/stats", &stats))
	assert.Equal(t, 3, stats.Trades)
	assert.Equal(t, "3000", stats.VolumeIn.String())
	assert.False(t, stats.LatestPrice.IsZero())

	var trades []*domain.TradeRecord
	require.Equal(t, http.StatusOK, f.get(t, "/v1/pools/"+poolID+"/trades", &trades))
	require.Len(t, trades, 3)
	assert.Equal(t, uint64(2), trades[0].Sequence)

	status := f.get(t, fmt.Sprintf("/v1/pools/%s/stats?window_ms=%d", poolID, -5), nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRestore(t *testing.T) {
	f := newTestFixture(t)

	poolID := f.createPool(t)
	f.addLiquidity(t, poolID, "alice", 1_000_000, 4_000_000)

	status := f.post(t, "/v1/swap", swapRequest{
		PoolID:   poolID,
		Trader:   "bob",
		TokenIn:  tokenAddrA,
		AmountIn: 1_000,
	}, nil)
	require.Equal(t, http.StatusOK, status)

	// Fresh engine over the same stores, as after a restart
	registry := engine.NewRegistry()
	lg := ledger.New()
	restored := New(
		Config{FeeNumerator: 997, FeeDenominator: 1000, RatioToleranceBps: 100},
		nil,
		registry,
		engine.NewSwapEngine(registry, lg),
		engine.NewLiquidityManager(registry, lg),
		lg,
		f.stores,
		nil,
	)
	require.NoError(t, restored.Restore(context.Background()))

	pool, err := registry.Get(poolID)
	require.NoError(t, err)
	snap := pool.Snapshot()
	assert.Equal(t, uint64(1_001_000), snap.ReserveA)
	assert.Equal(t, uint64(3_996_016), snap.ReserveB)
	assert.Equal(t, uint64(2_000_000), snap.TotalShares)

	// Positions survive the restart
	assert.Equal(t, uint64(1_999_000), restored.liquidity.Position(poolID, "alice"))

	// Sequences continue after the highest persisted entry
	rec, _, err := restored.swaps.Execute(poolID, tokenAddrA, 1_000, 0, "carol")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), rec.Sequence)
}
