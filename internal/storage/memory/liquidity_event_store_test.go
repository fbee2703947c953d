package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/NnamdiCode/Datadextoken-sub001/internal/domain"
	"github.com/NnamdiCode/Datadextoken-sub001/internal/storage"
)

func testEvent(eventID, poolID string, seq uint64) *domain.LiquidityEvent {
	return &domain.LiquidityEvent{
		EventID:     eventID,
		PoolID:      poolID,
		Provider:    "lp1",
		EventType:   domain.LiquidityEventAdd,
		AmountA:     1_000_000,
		AmountB:     4_000_000,
		SharesDelta: 1_999_000,
		Sequence:    seq,
		Timestamp:   1000,
	}
}

func TestLiquidityEventStore_SaveAndGet(t *testing.T) {
	store := NewLiquidityEventStore()
	ctx := context.Background()

	if err := store.SaveEvent(ctx, testEvent("ev1", "pool1", 1), testSnapshot("pool1", 1_000_000, 4_000_000, 2_000_000)); err != nil {
		t.Fatalf("SaveEvent failed: %v", err)
	}

	result, err := store.GetByPool(ctx, "pool1")
	if err != nil {
		t.Fatalf("GetByPool failed: %v", err)
	}
	if len(result) != 1 || result[0].SharesDelta != 1_999_000 {
		t.Errorf("Unexpected result: %+v", result)
	}
}

func TestLiquidityEventStore_DuplicateKey(t *testing.T) {
	store := NewLiquidityEventStore()
	ctx := context.Background()
	snap := testSnapshot("pool1", 1, 1, 1)

	if err := store.SaveEvent(ctx, testEvent("ev1", "pool1", 1), snap); err != nil {
		t.Fatalf("First save failed: %v", err)
	}

	err := store.SaveEvent(ctx, testEvent("ev1", "pool1", 2), snap)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestLiquidityEventStore_MaxSequence(t *testing.T) {
	store := NewLiquidityEventStore()
	ctx := context.Background()
	snap := testSnapshot("pool1", 1, 1, 1)

	if err := store.SaveEvent(ctx, testEvent("ev1", "pool1", 4), snap); err != nil {
		t.Fatalf("SaveEvent failed: %v", err)
	}
	if err := store.SaveEvent(ctx, testEvent("ev2", "pool1", 2), snap); err != nil {
		t.Fatalf("SaveEvent failed: %v", err)
	}

	max, err := store.MaxSequence(ctx, "pool1")
	if err != nil || max != 4 {
		t.Errorf("MaxSequence = %d, %v; want 4", max, err)
	}
}
