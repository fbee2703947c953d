package engine

import (
	"errors"
	"fmt"
)

// User-facing error conditions. All are returned as wrapped sentinels so
// callers can match with errors.Is and react per condition.
var (
	// ErrInvalidAmount is returned for zero or otherwise unusable inputs.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrEmptyPool is returned when the requested pair holds no liquidity.
	ErrEmptyPool = errors.New("pool has no liquidity")

	// ErrSlippageExceeded is returned when the recomputed output falls
	// below the caller's minAmountOut bound. Recoverable by re-quoting.
	ErrSlippageExceeded = errors.New("slippage tolerance exceeded")

	// ErrImbalanced is returned when a liquidity deposit's ratio deviates
	// from the pool ratio beyond the caller's tolerance.
	ErrImbalanced = errors.New("deposit ratio outside tolerance")

	// ErrInsufficientShares is returned when a withdrawal exceeds the
	// provider's position.
	ErrInsufficientShares = errors.New("insufficient liquidity shares")

	// ErrSameToken is returned when both sides of a pair are the same token.
	ErrSameToken = errors.New("pool tokens must differ")

	// ErrPoolNotFound is returned when a pool id resolves to nothing.
	ErrPoolNotFound = errors.New("pool not found")

	// ErrUnknownToken is returned when a token is not part of the pool.
	ErrUnknownToken = errors.New("token not in pool")
)

// InvariantViolationError indicates the non-decreasing-k check failed after
// a mutation. This is a defect in the engine, not a user error: the mutation
// is aborted before it becomes observable and the error should be surfaced
// as a process-level fault.
type InvariantViolationError struct {
	PoolID                   string
	OldReserveA, OldReserveB uint64
	NewReserveA, NewReserveB uint64
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf(
		"constant-product invariant violated for pool %s: (%d,%d) -> (%d,%d)",
		e.PoolID, e.OldReserveA, e.OldReserveB, e.NewReserveA, e.NewReserveB,
	)
}
