package memory

import (
	"context"
	"testing"

	"chronos-lab/internal/domain"
)

func TestAggregateStore_GetByRunRanked(t *testing.T) {
	store := NewAggregateStore()
	ctx := context.Background()

	aggs := []*domain.PersonaAggregate{
		{RunID: "run-1", PersonaID: "guardian", FinalValue: 1020000, ReturnPct: 2.0},
		{RunID: "run-1", PersonaID: "degen", FinalValue: 1150000, ReturnPct: 15.0},
		{RunID: "run-1", PersonaID: "quant", FinalValue: 1080000, ReturnPct: 8.0},
	}
	for _, agg := range aggs {
		if err := store.Upsert(ctx, agg); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	got, err := store.GetByRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetByRun failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 aggregates, got %d", len(got))
	}
	for i, want := range []string{"degen", "quant", "guardian"} {
		if got[i].PersonaID != want {
			t.Errorf("Rank %d mismatch: got %s, want %s", i, got[i].PersonaID, want)
		}
	}
}

func TestAggregateStore_UpsertOverwrites(t *testing.T) {
	store := NewAggregateStore()
	ctx := context.Background()

	if err := store.Upsert(ctx, &domain.PersonaAggregate{
		RunID: "run-1", PersonaID: "quant", FinalValue: 1000000, ReturnPct: 0,
	}); err != nil {
		t.Fatalf("first Upsert failed: %v", err)
	}
	if err := store.Upsert(ctx, &domain.PersonaAggregate{
		RunID: "run-1", PersonaID: "quant", FinalValue: 1080000, ReturnPct: 8.0,
	}); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	got, err := store.GetByRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetByRun failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 aggregate, got %d", len(got))
	}
	if got[0].ReturnPct != 8.0 {
		t.Errorf("Upsert did not overwrite: got %f", got[0].ReturnPct)
	}
}
