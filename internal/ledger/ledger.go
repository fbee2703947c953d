// Package ledger maintains the append-only, per-pool ordered record of
// executed swaps and liquidity events. Entries are immutable after append;
// all derived statistics are recomputed on read, so the ledger can always
// be rebuilt by replaying the persisted sequence.
package ledger

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/NnamdiCode/Datadextoken-sub001/internal/domain"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/idhash"
)

// Journal receives every appended entry for durable storage. Implementations
// must not block the caller; the in-memory ledger is the source of truth
// within a process lifetime.
type Journal interface {
	Append(entry *domain.LedgerEntry) error
}

// Ledger is the append-only record of all pool activity.
type Ledger struct {
	mu         sync.RWMutex
	entries    map[string][]*domain.LedgerEntry // poolID -> entries ordered by sequence
	nextSeq    map[string]uint64                // poolID -> next unused sequence
	journal    Journal
	journalErr func(error)
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		entries: make(map[string][]*domain.LedgerEntry),
		nextSeq: make(map[string]uint64),
	}
}

// NewWithJournal creates an empty ledger that forwards appends to a journal.
func NewWithJournal(j Journal) *Ledger {
	l := New()
	l.journal = j
	return l
}

// OnJournalError registers a callback invoked with every journal append
// failure. Must be set before the ledger receives traffic.
func (l *Ledger) OnJournalError(fn func(error)) {
	l.journalErr = fn
}

// AppendSwap assigns the next sequence for the pool, derives the trade ID,
// and appends the record. The returned record is fully formed and immutable.
func (l *Ledger) AppendSwap(
	poolID, trader, tokenIn, tokenOut string,
	amountIn, amountOut, feeAmount uint64,
	executedPrice decimal.Decimal,
	timestampMs int64,
) (*domain.TradeRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	seq := l.advanceSequence(poolID)

	rec := &domain.TradeRecord{
		TradeID:       idhash.ComputeTradeID(poolID, seq, trader, timestampMs),
		PoolID:        poolID,
		Trader:        trader,
		TokenIn:       tokenIn,
		TokenOut:      tokenOut,
		AmountIn:      amountIn,
		AmountOut:     amountOut,
		FeeAmount:     feeAmount,
		ExecutedPrice: executedPrice,
		Sequence:      seq,
		Timestamp:     timestampMs,
	}

	entry := &domain.LedgerEntry{
		PoolID:    poolID,
		Sequence:  seq,
		Timestamp: timestampMs,
		Trade:     rec,
	}
	l.entries[poolID] = append(l.entries[poolID], entry)

	l.forward(entry)
	return rec, nil
}

// AppendLiquidity assigns the next sequence for the pool and appends a
// liquidity event sharing the pool's sequence space with trades.
func (l *Ledger) AppendLiquidity(
	poolID, provider, eventType string,
	amountA, amountB, sharesDelta uint64,
	timestampMs int64,
) (*domain.LiquidityEvent, error) {
	if eventType != domain.LiquidityEventAdd && eventType != domain.LiquidityEventRemove {
		return nil, fmt.Errorf("unknown liquidity event type %q", eventType)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	seq := l.advanceSequence(poolID)

	ev := &domain.LiquidityEvent{
		EventID:     idhash.ComputeEventID(poolID, seq, provider, eventType),
		PoolID:      poolID,
		Provider:    provider,
		EventType:   eventType,
		AmountA:     amountA,
		AmountB:     amountB,
		SharesDelta: sharesDelta,
		Sequence:    seq,
		Timestamp:   timestampMs,
	}

	entry := &domain.LedgerEntry{
		PoolID:    poolID,
		Sequence:  seq,
		Timestamp: timestampMs,
		Liquidity: ev,
	}
	l.entries[poolID] = append(l.entries[poolID], entry)

	l.forward(entry)
	return ev, nil
}

// Entries returns a copy of the pool's entries in sequence order.
func (l *Ledger) Entries(poolID string) []*domain.LedgerEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	src := l.entries[poolID]
	out := make([]*domain.LedgerEntry, len(src))
	copy(out, src)
	return out
}

// NextSequence returns the next sequence number that will be assigned
// for the pool without consuming it.
func (l *Ledger) NextSequence(poolID string) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if next, ok := l.nextSeq[poolID]; ok {
		return next
	}
	return 1
}

// Restore replays persisted entries into an empty ledger. Entries must be
// grouped per pool in strictly increasing sequence order.
func (l *Ledger) Restore(entries []*domain.LedgerEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range entries {
		next := l.nextSeq[e.PoolID]
		if next == 0 {
			next = 1
		}
		if e.Sequence != next {
			return fmt.Errorf("restore pool %s: expected sequence %d, got %d", e.PoolID, next, e.Sequence)
		}
		l.entries[e.PoolID] = append(l.entries[e.PoolID], e)
		l.nextSeq[e.PoolID] = e.Sequence + 1
	}
	return nil
}

// RestoreSequence sets the next unused sequence for a pool whose entries
// are persisted elsewhere but not replayed into memory.
func (l *Ledger) RestoreSequence(poolID string, next uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if next < 1 {
		next = 1
	}
	l.nextSeq[poolID] = next
}

// advanceSequence returns the pool's next sequence and increments the
// counter. Caller must hold l.mu.
func (l *Ledger) advanceSequence(poolID string) uint64 {
	seq := l.nextSeq[poolID]
	if seq == 0 {
		seq = 1
	}
	l.nextSeq[poolID] = seq + 1
	return seq
}

// forward hands the entry to the journal, if any. Journal failures do not
// fail the append, but they are reported through the registered callback.
func (l *Ledger) forward(entry *domain.LedgerEntry) {
	if l.journal == nil {
		return
	}
	if err := l.journal.Append(entry); err != nil && l.journalErr != nil {
		l.journalErr(fmt.Errorf("journal append pool %s seq %d: %w", entry.PoolID, entry.Sequence, err))
	}
}
