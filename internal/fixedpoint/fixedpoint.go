// Package fixedpoint provides overflow-checked arithmetic on raw uint64
// token amounts. Reserve and fee computation never touches floating point:
// products of two reserve-sized integers go through a 128-bit intermediate
// and division truncates toward zero, which rounds in the pool's favor.
package fixedpoint

import (
	"errors"
	"math/big"
	"math/bits"
)

// ErrOverflow is returned when an operation exceeds the representable range.
// Results are never silently wrapped or truncated.
var ErrOverflow = errors.New("arithmetic overflow")

// Add returns a+b, or ErrOverflow if the sum exceeds 64 bits.
func Add(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return sum, nil
}

// Sub returns a-b, or ErrOverflow if b > a.
func Sub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, ErrOverflow
	}
	return diff, nil
}

// Mul returns a*b, or ErrOverflow if the product exceeds 64 bits.
func Mul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrOverflow
	}
	return lo, nil
}

// MulDiv returns floor(a*b/den) using a 128-bit intermediate product.
// Returns ErrOverflow if the quotient does not fit in 64 bits.
// den must be non-zero; a zero denominator is a programming error.
func MulDiv(a, b, den uint64) (uint64, error) {
	if den == 0 {
		panic("fixedpoint: division by zero")
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= den {
		return 0, ErrOverflow
	}
	q, _ := bits.Div64(hi, lo, den)
	return q, nil
}

// MulDivCeil returns ceil(a*b/den) using a 128-bit intermediate product.
// Returns ErrOverflow if the quotient does not fit in 64 bits.
func MulDivCeil(a, b, den uint64) (uint64, error) {
	if den == 0 {
		panic("fixedpoint: division by zero")
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= den {
		return 0, ErrOverflow
	}
	q, r := bits.Div64(hi, lo, den)
	if r > 0 {
		if q == ^uint64(0) {
			return 0, ErrOverflow
		}
		q++
	}
	return q, nil
}

// SqrtProduct returns floor(sqrt(a*b)). The product is at most 128 bits,
// so the root always fits in 64 bits.
func SqrtProduct(a, b uint64) uint64 {
	p := new(big.Int).Mul(
		new(big.Int).SetUint64(a),
		new(big.Int).SetUint64(b),
	)
	return p.Sqrt(p).Uint64()
}

// KNotDecreased reports whether newA*newB >= oldA*oldB, comparing the
// full 128-bit products. This is the constant-product invariant check.
func KNotDecreased(oldA, oldB, newA, newB uint64) bool {
	oldHi, oldLo := bits.Mul64(oldA, oldB)
	newHi, newLo := bits.Mul64(newA, newB)
	if newHi != oldHi {
		return newHi > oldHi
	}
	return newLo >= oldLo
}

// RatioWithinBps reports whether the deposit ratio amountA:amountB deviates
// from the reserve ratio reserveA:reserveB by at most tolBps basis points.
// Cross products can exceed 128 bits once scaled, so the comparison is done
// in arbitrary precision.
func RatioWithinBps(amountA, amountB, reserveA, reserveB uint64, tolBps uint32) bool {
	crossA := new(big.Int).Mul(
		new(big.Int).SetUint64(amountA),
		new(big.Int).SetUint64(reserveB),
	)
	crossB := new(big.Int).Mul(
		new(big.Int).SetUint64(amountB),
		new(big.Int).SetUint64(reserveA),
	)

	diff := new(big.Int).Sub(crossA, crossB)
	diff.Abs(diff)

	base := crossA
	if crossB.Cmp(base) > 0 {
		base = crossB
	}
	if base.Sign() == 0 {
		return diff.Sign() == 0
	}

	// diff * 10000 <= tolBps * base
	lhs := new(big.Int).Mul(diff, big.NewInt(10000))
	rhs := new(big.Int).Mul(base, big.NewInt(int64(tolBps)))
	return lhs.Cmp(rhs) <= 0
}
