// Package wal persists the ledger to an append-only write-ahead log so a
// restarted process can replay its entries before serving traffic.
package wal

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/vadiminshakov/gowal"

	"github.com/NnamdiCode/Datadextoken-sub001/internal/domain"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/ledger"
)

const (
	segmentThreshold = 10000
	maxSegments      = 100

	swapKeyPrefix      = "swap_"
	liquidityKeyPrefix = "liq_"
)

// Journal is a gowal-backed ledger.Journal. Entries are written in append
// order; the WAL index is process-global while entry sequences stay
// pool-local.
type Journal struct {
	mu  sync.Mutex
	wal *gowal.Wal
}

// NewJournal opens (or creates) the WAL in dir.
func NewJournal(dir string) (*Journal, error) {
	w, err := gowal.NewWAL(gowal.Config{
		Dir:              dir,
		Prefix:           "ledger_",
		SegmentThreshold: segmentThreshold,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: false,
	})
	if err != nil {
		return nil, fmt.Errorf("init ledger wal: %w", err)
	}

	return &Journal{wal: w}, nil
}

// Append writes the entry to the WAL.
func (j *Journal) Append(entry *domain.LedgerEntry) error {
	if entry == nil || entry.PoolID == "" {
		return fmt.Errorf("ledger entry missing pool id")
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal ledger entry: %w", err)
	}

	key := liquidityKeyPrefix + entry.PoolID
	if entry.Kind() == domain.EntryKindSwap {
		key = swapKeyPrefix + entry.PoolID
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.wal.Write(j.wal.CurrentIndex()+1, key, payload); err != nil {
		return fmt.Errorf("write ledger entry: %w", err)
	}

	return nil
}

// Replay returns all journaled entries grouped by pool, each group ordered
// by sequence, suitable for ledger.Ledger.Restore.
func (j *Journal) Replay() (map[string][]*domain.LedgerEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	byPool := make(map[string][]*domain.LedgerEntry)
	for m := range j.wal.Iterator() {
		var entry domain.LedgerEntry
		if err := json.Unmarshal(m.Value, &entry); err != nil {
			return nil, fmt.Errorf("decode ledger entry %s: %w", m.Key, err)
		}
		byPool[entry.PoolID] = append(byPool[entry.PoolID], &entry)
	}

	return byPool, nil
}

// Close flushes and closes the underlying WAL.
func (j *Journal) Close() error {
	return j.wal.Close()
}

var _ ledger.Journal = (*Journal)(nil)
