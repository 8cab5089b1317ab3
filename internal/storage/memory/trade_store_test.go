package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"leap-portfolio-lab/internal/domain"
	"leap-portfolio-lab/internal/storage"
)

func TestTradeStore_InsertBulkAndGet(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	day := time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC)
	trades := []domain.Trade{
		{Date: day, Action: domain.ActionBuy, Asset: domain.AssetEquity, Quantity: 10, Price: 100, Value: 1000, Reason: domain.ReasonInitialAllocation},
		{Date: day, Action: domain.ActionBuy, Asset: domain.AssetLeap, Quantity: 1, Price: 20, Value: 2000, Reason: "Open LEAP"},
		{Date: day.AddDate(0, 1, 0), Action: domain.ActionWithdraw, Asset: domain.AssetCash, Quantity: 1, Price: 500, Value: 500, Reason: domain.ReasonMonthlySpending},
	}

	if err := store.InsertBulk(ctx, "res-1", trades); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByResultID(ctx, "res-1")
	if err != nil {
		t.Fatalf("GetByResultID failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 trades, got %d", len(got))
	}
	// Same-day trades keep insertion order
	if got[0].Asset != domain.AssetEquity || got[1].Asset != domain.AssetLeap {
		t.Errorf("trade order not preserved: %v, %v", got[0].Asset, got[1].Asset)
	}

	empty, err := store.GetByResultID(ctx, "other")
	if err != nil {
		t.Fatalf("GetByResultID failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("Expected no trades for unknown result, got %d", len(empty))
	}
}

func TestTradeStore_DuplicateKey(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	trades := []domain.Trade{{Action: domain.ActionBuy, Asset: domain.AssetEquity}}
	if err := store.InsertBulk(ctx, "res-1", trades); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if err := store.InsertBulk(ctx, "res-1", trades); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	if err := store.InsertBulk(ctx, "", trades); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
