package engine

import (
	"math/big"

	"github.com/shopspring/decimal"
)

func decimalZero() decimal.Decimal { return decimal.Zero }

func decimalOne() decimal.Decimal { return decimal.NewFromInt(1) }

// decimalFromRaw interprets a raw amount with the given decimal precision.
func decimalFromRaw(raw uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(raw), -int32(decimals))
}
