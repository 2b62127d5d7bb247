package memory

import (
	"context"
	"errors"
	"testing"

	"chronos-lab/internal/domain"
	"chronos-lab/internal/storage"
)

func testBar(date string, close float64) *domain.Bar {
	return &domain.Bar{
		Symbol: "BTCUSDT",
		Date:   date,
		Open:   close - 100,
		High:   close + 200,
		Low:    close - 300,
		Close:  close,
		Volume: 10,
	}
}

func TestBarStore_UpsertAndGet(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()

	if err := store.Upsert(ctx, testBar("2024-01-02", 45000)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := store.GetByDate(ctx, "BTCUSDT", "2024-01-02")
	if err != nil {
		t.Fatalf("GetByDate failed: %v", err)
	}
	if got.Close != 45000 {
		t.Errorf("Close mismatch: got %f, want %f", got.Close, 45000.0)
	}
}

func TestBarStore_UpsertOverwrites(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()

	if err := store.Upsert(ctx, testBar("2024-01-02", 45000)); err != nil {
		t.Fatalf("first Upsert failed: %v", err)
	}
	if err := store.Upsert(ctx, testBar("2024-01-02", 46000)); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	got, err := store.GetByDate(ctx, "BTCUSDT", "2024-01-02")
	if err != nil {
		t.Fatalf("GetByDate failed: %v", err)
	}
	if got.Close != 46000 {
		t.Errorf("Upsert did not overwrite: got close %f, want %f", got.Close, 46000.0)
	}

	bars, err := store.GetRange(ctx, "BTCUSDT", "2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("GetRange failed: %v", err)
	}
	if len(bars) != 1 {
		t.Errorf("Expected 1 bar after overwrite, got %d", len(bars))
	}
}

func TestBarStore_NotFound(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()

	_, err := store.GetByDate(ctx, "BTCUSDT", "2024-01-02")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestBarStore_GetRangeOrdered(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()

	bars := []*domain.Bar{
		testBar("2024-01-03", 47000),
		testBar("2024-01-01", 45000),
		testBar("2024-01-02", 46000),
	}
	if err := store.UpsertBulk(ctx, bars); err != nil {
		t.Fatalf("UpsertBulk failed: %v", err)
	}

	got, err := store.GetRange(ctx, "BTCUSDT", "2024-01-01", "2024-01-02")
	if err != nil {
		t.Fatalf("GetRange failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 bars, got %d", len(got))
	}
	if got[0].Date != "2024-01-01" || got[1].Date != "2024-01-02" {
		t.Errorf("Range not ordered by date: got %s, %s", got[0].Date, got[1].Date)
	}
}

func TestBarStore_GetHistoryLimit(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()

	for _, date := range []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04"} {
		if err := store.Upsert(ctx, testBar(date, 45000)); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	got, err := store.GetHistory(ctx, "BTCUSDT", "2024-01-03", 2)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 bars, got %d", len(got))
	}
	// Keeps the most recent bars within the window, ascending
	if got[0].Date != "2024-01-02" || got[1].Date != "2024-01-03" {
		t.Errorf("History window wrong: got %s, %s", got[0].Date, got[1].Date)
	}
}

func TestBarStore_InvalidInput(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()

	err := store.Upsert(ctx, &domain.Bar{Symbol: "", Date: "2024-01-01"})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
