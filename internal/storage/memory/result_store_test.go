package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"leap-portfolio-lab/internal/domain"
	"leap-portfolio-lab/internal/storage"
)

func TestResultStore_InsertAndGet(t *testing.T) {
	store := NewResultStore()
	ctx := context.Background()

	strategyID := "strat-1"
	summary := &domain.ResultSummary{
		ResultID:    "res-1",
		StrategyID:  &strategyID,
		Symbol:      "SPY",
		FinalValue:  123456.78,
		TotalReturn: 23.45,
		Runs:        1,
		CreatedAt:   time.Unix(1000, 0).UTC(),
	}

	if err := store.Insert(ctx, summary); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "res-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.FinalValue != 123456.78 {
		t.Errorf("FinalValue mismatch: got %f, want %f", got.FinalValue, 123456.78)
	}
	if got.StrategyID == nil || *got.StrategyID != "strat-1" {
		t.Errorf("StrategyID mismatch: got %v", got.StrategyID)
	}

	*got.StrategyID = "changed"
	again, _ := store.GetByID(ctx, "res-1")
	if *again.StrategyID != "strat-1" {
		t.Errorf("store was mutated through returned pointer")
	}
}

func TestResultStore_DuplicateKey(t *testing.T) {
	store := NewResultStore()
	ctx := context.Background()

	summary := &domain.ResultSummary{ResultID: "res-1"}
	if err := store.Insert(ctx, summary); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if err := store.Insert(ctx, summary); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestResultStore_NotFound(t *testing.T) {
	store := NewResultStore()

	if _, err := store.GetByID(context.Background(), "nonexistent"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestResultStore_ListNewestFirst(t *testing.T) {
	store := NewResultStore()
	ctx := context.Background()

	t0 := time.Unix(1000, 0).UTC()
	for i, id := range []string{"a", "b", "c"} {
		if err := store.Insert(ctx, &domain.ResultSummary{ResultID: id, CreatedAt: t0.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	list, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 3 || list[0].ResultID != "c" || list[2].ResultID != "a" {
		t.Errorf("unexpected order: %v", ids(list))
	}

	limited, _ := store.List(ctx, 2)
	if len(limited) != 2 || limited[0].ResultID != "c" {
		t.Errorf("unexpected limited list: %v", ids(limited))
	}
}

func ids(list []*domain.ResultSummary) []string {
	out := make([]string, len(list))
	for i, r := range list {
		out[i] = r.ResultID
	}
	return out
}
