package ledger

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoTrades is returned by read-side queries on a pool with no swaps.
var ErrNoTrades = errors.New("no trades recorded for pool")

// VolumeStats aggregates swap volume over a trailing window. Amounts are
// raw-unit sums carried in arbitrary precision so long windows cannot
// overflow.
type VolumeStats struct {
	Trades    int
	VolumeIn  decimal.Decimal // sum of AmountIn across swaps in the window
	VolumeOut decimal.Decimal // sum of AmountOut across swaps in the window
	Fees      decimal.Decimal // sum of FeeAmount across swaps in the window
}

// LatestPrice returns the decimal-adjusted execution price of the most
// recent swap in the pool.
func (l *Ledger) LatestPrice(poolID string) (decimal.Decimal, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := l.entries[poolID]
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Trade != nil {
			return entries[i].Trade.ExecutedPrice, nil
		}
	}
	return decimal.Zero, ErrNoTrades
}

// WindowVolume sums swap volume over the trailing window ending at nowMs.
func (l *Ledger) WindowVolume(poolID string, window time.Duration, nowMs int64) VolumeStats {
	cutoff := nowMs - window.Milliseconds()

	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := VolumeStats{
		VolumeIn:  decimal.Zero,
		VolumeOut: decimal.Zero,
		Fees:      decimal.Zero,
	}
	for _, e := range l.entries[poolID] {
		if e.Trade == nil || e.Timestamp < cutoff || e.Timestamp > nowMs {
			continue
		}
		stats.Trades++
		stats.VolumeIn = stats.VolumeIn.Add(decimal.NewFromUint64(e.Trade.AmountIn))
		stats.VolumeOut = stats.VolumeOut.Add(decimal.NewFromUint64(e.Trade.AmountOut))
		stats.Fees = stats.Fees.Add(decimal.NewFromUint64(e.Trade.FeeAmount))
	}
	return stats
}

// PriceChange returns the fractional price change over the trailing window
// ending at nowMs: (latest - reference) / reference, where the reference is
// the last execution price at or before the window start, falling back to
// the first price inside the window.
func (l *Ledger) PriceChange(poolID string, window time.Duration, nowMs int64) (decimal.Decimal, error) {
	cutoff := nowMs - window.Milliseconds()

	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := l.entries[poolID]

	var latest, reference *decimal.Decimal
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.Trade == nil {
			continue
		}
		if latest == nil {
			p := e.Trade.ExecutedPrice
			latest = &p
		}
		if e.Timestamp <= cutoff {
			p := e.Trade.ExecutedPrice
			reference = &p
			break
		}
	}
	if latest == nil {
		return decimal.Zero, ErrNoTrades
	}
	if reference == nil {
		// No trade before the window: use the earliest in-window price.
		for _, e := range entries {
			if e.Trade != nil {
				p := e.Trade.ExecutedPrice
				reference = &p
				break
			}
		}
	}
	if reference.IsZero() {
		return decimal.Zero, nil
	}
	return latest.Sub(*reference).Div(*reference), nil
}
