package memory

import (
	"context"
	"errors"
	"testing"

	"chronos-lab/internal/domain"
	"chronos-lab/internal/storage"
)

func testRun(runID string, createdAt int64) *domain.SimulationRun {
	return &domain.SimulationRun{
		RunID:          runID,
		Symbol:         "BTCUSDT",
		StartDate:      "2024-01-01",
		EndDate:        "2024-03-31",
		InitialCapital: 1000000,
		Mode:           domain.ModeRule,
		CreatedAt:      createdAt,
	}
}

func TestRunStore_InsertAndGet(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testRun("run-1", 1700000000000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Symbol != "BTCUSDT" {
		t.Errorf("Symbol mismatch: got %s", got.Symbol)
	}
}

func TestRunStore_InsertDuplicate(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testRun("run-1", 1700000000000)); err != nil {
		t.Fatalf("first Insert failed: %v", err)
	}

	err := store.Insert(ctx, testRun("run-1", 1700000001000))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestRunStore_Finish(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testRun("run-1", 1700000000000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	stats := domain.RunStats{AIDecisions: 10, RuleDecisions: 2, TimeoutFallbacks: 1, ErrorFallbacks: 1, DaysSimulated: 3}
	if err := store.Finish(ctx, "run-1", 1700000060000, stats); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	got, err := store.GetByID(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.FinishedAt != 1700000060000 {
		t.Errorf("FinishedAt not set: got %d", got.FinishedAt)
	}
	if got.Stats.AIDecisions != 10 || got.Stats.RuleDecisions != 2 {
		t.Errorf("Stats not recorded: %+v", got.Stats)
	}
}

func TestRunStore_FinishMissing(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	err := store.Finish(ctx, "missing", 1700000060000, domain.RunStats{})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRunStore_ListNewestFirst(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	for i, runID := range []string{"run-a", "run-b", "run-c"} {
		if err := store.Insert(ctx, testRun(runID, 1700000000000+int64(i)*1000)); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(got))
	}
	if got[0].RunID != "run-c" || got[1].RunID != "run-b" {
		t.Errorf("List not newest-first: got %s, %s", got[0].RunID, got[1].RunID)
	}
}
