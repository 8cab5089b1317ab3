package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"leap-portfolio-lab/internal/domain"
	"leap-portfolio-lab/internal/storage"
)

func TestStrategyStore_InsertAndGet(t *testing.T) {
	store := NewStrategyStore()
	ctx := context.Background()

	params := domain.DefaultConfig()
	params.Symbol = "SPY"
	st := &domain.SavedStrategy{
		ID:        "id-1",
		Name:      "conservative",
		Params:    params,
		CreatedAt: time.Unix(1000, 0).UTC(),
	}

	if err := store.Insert(ctx, st); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "id-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Params.Symbol != "SPY" {
		t.Errorf("Symbol mismatch: got %s, want SPY", got.Params.Symbol)
	}

	byName, err := store.GetByName(ctx, "conservative")
	if err != nil {
		t.Fatalf("GetByName failed: %v", err)
	}
	if byName.ID != "id-1" {
		t.Errorf("ID mismatch: got %s, want id-1", byName.ID)
	}

	// Mutating the returned copy must not affect the store
	got.Name = "mutated"
	again, _ := store.GetByID(ctx, "id-1")
	if again.Name != "conservative" {
		t.Errorf("store was mutated through returned pointer")
	}
}

func TestStrategyStore_DuplicateKey(t *testing.T) {
	store := NewStrategyStore()
	ctx := context.Background()

	if err := store.Insert(ctx, &domain.SavedStrategy{ID: "a", Name: "alpha"}); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	if err := store.Insert(ctx, &domain.SavedStrategy{ID: "a", Name: "other"}); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey for id, got %v", err)
	}
	if err := store.Insert(ctx, &domain.SavedStrategy{ID: "b", Name: "alpha"}); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey for name, got %v", err)
	}
}

func TestStrategyStore_InvalidAndNotFound(t *testing.T) {
	store := NewStrategyStore()
	ctx := context.Background()

	if err := store.Insert(ctx, &domain.SavedStrategy{ID: "a"}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetByName(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestStrategyStore_ListOrdering(t *testing.T) {
	store := NewStrategyStore()
	ctx := context.Background()

	t0 := time.Unix(1000, 0).UTC()
	for _, st := range []*domain.SavedStrategy{
		{ID: "3", Name: "late", CreatedAt: t0.Add(time.Hour)},
		{ID: "2", Name: "beta", CreatedAt: t0},
		{ID: "1", Name: "alpha", CreatedAt: t0},
	} {
		if err := store.Insert(ctx, st); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("Expected 3 strategies, got %d", len(list))
	}
	want := []string{"alpha", "beta", "late"}
	for i, name := range want {
		if list[i].Name != name {
			t.Errorf("list[%d] = %s, want %s", i, list[i].Name, name)
		}
	}
}
