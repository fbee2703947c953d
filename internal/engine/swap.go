package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/NnamdiCode/Datadextoken-sub001/internal/domain"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/fixedpoint"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/ledger"
)

// Quote is the advisory result of pricing a swap against current reserves.
// Quotes are not binding: reserves may change before execution, which is why
// Execute recomputes from scratch and enforces minAmountOut instead.
type Quote struct {
	PoolID      string
	TokenIn     domain.Token
	TokenOut    domain.Token
	AmountIn    uint64
	AmountOut   uint64
	FeeAmount   uint64
	PriceImpact decimal.Decimal // fraction of spot price lost to trade size
}

// SwapEngine computes quotes and executes swaps against registry pools,
// appending every execution to the trade ledger.
type SwapEngine struct {
	registry *Registry
	ledger   *ledger.Ledger
	clock    func() int64 // ms timestamps, replaceable in tests
}

// NewSwapEngine creates a swap engine over the given registry and ledger.
func NewSwapEngine(registry *Registry, lg *ledger.Ledger) *SwapEngine {
	return &SwapEngine{
		registry: registry,
		ledger:   lg,
		clock:    func() int64 { return time.Now().UnixMilli() },
	}
}

// Quote prices a swap of amountIn of tokenIn against the pool's current
// reserves. Read-only: it takes no mutation lock and may run concurrently
// with other quotes.
func (e *SwapEngine) Quote(poolID, tokenIn string, amountIn uint64) (*Quote, error) {
	if amountIn == 0 {
		return nil, fmt.Errorf("quote: %w: amountIn must be positive", ErrInvalidAmount)
	}

	p, err := e.registry.Get(poolID)
	if err != nil {
		return nil, err
	}

	p.mu.RLock()
	reserveIn, reserveOut, tokenOut, err := p.orient(tokenIn)
	feeNum, feeDen := p.feeNumerator, p.feeDenominator
	p.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("quote pool %s: %w", poolID, err)
	}

	amountOut, feeAmount, err := computeSwapOutput(reserveIn, reserveOut, amountIn, feeNum, feeDen)
	if err != nil {
		return nil, err
	}

	inToken, _ := p.tokenByAddress(tokenIn)
	return &Quote{
		PoolID:      poolID,
		TokenIn:     inToken,
		TokenOut:    tokenOut,
		AmountIn:    amountIn,
		AmountOut:   amountOut,
		FeeAmount:   feeAmount,
		PriceImpact: priceImpact(reserveIn, reserveOut, amountIn, amountOut),
	}, nil
}

// Execute swaps amountIn of tokenIn for the paired token. The output is
// recomputed against the reserves current at execution time, never from a
// stale quote. Fails with ErrSlippageExceeded if the output falls below
// minAmountOut. On success the reserve update and ledger append happen as
// one atomic unit under the pool lock; no intermediate state is observable.
func (e *SwapEngine) Execute(poolID, tokenIn string, amountIn, minAmountOut uint64, trader string) (*domain.TradeRecord, *domain.PoolSnapshot, error) {
	if amountIn == 0 {
		return nil, nil, fmt.Errorf("execute: %w: amountIn must be positive", ErrInvalidAmount)
	}

	p, err := e.registry.Get(poolID)
	if err != nil {
		return nil, nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	reserveIn, reserveOut, tokenOut, err := p.orient(tokenIn)
	if err != nil {
		return nil, nil, fmt.Errorf("execute pool %s: %w", poolID, err)
	}

	amountOut, feeAmount, err := computeSwapOutput(reserveIn, reserveOut, amountIn, p.feeNumerator, p.feeDenominator)
	if err != nil {
		return nil, nil, err
	}
	if amountOut < minAmountOut {
		return nil, nil, fmt.Errorf("execute pool %s: %w: amountOut %d < minAmountOut %d",
			poolID, ErrSlippageExceeded, amountOut, minAmountOut)
	}

	newReserveIn, err := fixedpoint.Add(reserveIn, amountIn)
	if err != nil {
		return nil, nil, fmt.Errorf("execute pool %s: reserve update: %w", poolID, err)
	}
	newReserveOut, err := fixedpoint.Sub(reserveOut, amountOut)
	if err != nil {
		return nil, nil, fmt.Errorf("execute pool %s: reserve update: %w", poolID, err)
	}

	// Non-decreasing k must hold with the fee retained in reserves. A
	// failure here is an engine defect; abort before anything commits.
	if !fixedpoint.KNotDecreased(reserveIn, reserveOut, newReserveIn, newReserveOut) {
		return nil, nil, &InvariantViolationError{
			PoolID:      poolID,
			OldReserveA: reserveIn, OldReserveB: reserveOut,
			NewReserveA: newReserveIn, NewReserveB: newReserveOut,
		}
	}

	inToken, _ := p.tokenByAddress(tokenIn)
	price := executedPrice(amountIn, amountOut, inToken.Decimals, tokenOut.Decimals)

	now := e.clock()
	rec, err := e.ledger.AppendSwap(poolID, trader, tokenIn, tokenOut.Address,
		amountIn, amountOut, feeAmount, price, now)
	if err != nil {
		return nil, nil, fmt.Errorf("execute pool %s: ledger append: %w", poolID, err)
	}

	// Commit only after the append succeeded.
	if tokenIn == p.tokenA.Address {
		p.reserveA, p.reserveB = newReserveIn, newReserveOut
	} else {
		p.reserveA, p.reserveB = newReserveOut, newReserveIn
	}
	p.updatedAt = now

	return rec, p.snapshotLocked(), nil
}

// computeSwapOutput applies the constant-product formula with an integer
// proportional fee:
//
//	amountInAfterFee = amountIn * feeNum / feeDen
//	amountOut        = reserveOut * amountInAfterFee / (reserveIn + amountInAfterFee)
//
// Floor division throughout rounds in the pool's favor.
func computeSwapOutput(reserveIn, reserveOut, amountIn, feeNum, feeDen uint64) (amountOut, feeAmount uint64, err error) {
	if reserveIn == 0 || reserveOut == 0 {
		return 0, 0, ErrEmptyPool
	}

	amountInAfterFee, err := fixedpoint.MulDiv(amountIn, feeNum, feeDen)
	if err != nil {
		return 0, 0, fmt.Errorf("fee computation: %w", err)
	}
	feeAmount = amountIn - amountInAfterFee

	denominator, err := fixedpoint.Add(reserveIn, amountInAfterFee)
	if err != nil {
		return 0, 0, fmt.Errorf("swap denominator: %w", err)
	}
	amountOut, err = fixedpoint.MulDiv(reserveOut, amountInAfterFee, denominator)
	if err != nil {
		return 0, 0, fmt.Errorf("swap output: %w", err)
	}
	return amountOut, feeAmount, nil
}

// priceImpact reports 1 - (amountOut/amountIn)/(reserveOut/reserveIn),
// the fraction of the marginal price lost to the trade's own size.
// Purely informational; computed outside the integer reserve path.
func priceImpact(reserveIn, reserveOut, amountIn, amountOut uint64) decimal.Decimal {
	if reserveOut == 0 || amountIn == 0 {
		return decimal.Zero
	}
	spot := decimal.NewFromUint64(reserveOut).Div(decimal.NewFromUint64(reserveIn))
	if spot.IsZero() {
		return decimal.Zero
	}
	effective := decimal.NewFromUint64(amountOut).Div(decimal.NewFromUint64(amountIn))
	impact := decimal.NewFromInt(1).Sub(effective.Div(spot))
	if impact.IsNegative() {
		return decimal.Zero
	}
	return impact
}

// executedPrice is amountOut/amountIn adjusted for token decimals.
func executedPrice(amountIn, amountOut uint64, decIn, decOut uint8) decimal.Decimal {
	in := decimal.NewFromBigInt(decimal.NewFromUint64(amountIn).BigInt(), -int32(decIn))
	out := decimal.NewFromBigInt(decimal.NewFromUint64(amountOut).BigInt(), -int32(decOut))
	if in.IsZero() {
		return decimal.Zero
	}
	return out.Div(in)
}
