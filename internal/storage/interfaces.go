package storage

import (
	"context"

	"chronos-lab/internal/domain"
)

// BarStore provides access to daily kline storage. Writes are idempotent
// by (symbol, date): re-saving a date overwrites rather than duplicates,
// so collector re-runs over overlapping ranges are safe.
type BarStore interface {
	// Upsert stores a bar, replacing any existing bar for (symbol, date).
	Upsert(ctx context.Context, bar *domain.Bar) error

	// UpsertBulk stores multiple bars with Upsert semantics.
	UpsertBulk(ctx context.Context, bars []*domain.Bar) error

	// GetByDate retrieves the bar for a date. Returns ErrNotFound if absent.
	GetByDate(ctx context.Context, symbol, date string) (*domain.Bar, error)

	// GetRange retrieves bars within [startDate, endDate], ordered by date ASC.
	GetRange(ctx context.Context, symbol, startDate, endDate string) ([]*domain.Bar, error)

	// GetHistory retrieves up to limit bars ending at endDate (inclusive),
	// ordered by date ASC. Used for indicator warmup windows.
	GetHistory(ctx context.Context, symbol, endDate string, limit int) ([]*domain.Bar, error)
}

// SentimentStore provides access to daily Fear & Greed readings.
// Writes are idempotent by date.
type SentimentStore interface {
	// Upsert stores a reading, replacing any existing reading for the date.
	Upsert(ctx context.Context, r *domain.SentimentReading) error

	// UpsertBulk stores multiple readings with Upsert semantics.
	UpsertBulk(ctx context.Context, readings []*domain.SentimentReading) error

	// GetByDate retrieves the reading for a date. Returns ErrNotFound if absent.
	GetByDate(ctx context.Context, date string) (*domain.SentimentReading, error)
}

// HeadlineStore provides access to cached news headlines, grouped by date.
type HeadlineStore interface {
	// ReplaceDate atomically replaces all headlines filed under a date.
	// Saving the same date twice is idempotent.
	ReplaceDate(ctx context.Context, date string, headlines []*domain.Headline) error

	// GetByDate retrieves headlines for a date, ordered by published time ASC.
	// An unknown date yields an empty slice, not an error.
	GetByDate(ctx context.Context, date string) ([]*domain.Headline, error)
}

// RunStore provides access to simulation run metadata and statistics.
type RunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, run *domain.SimulationRun) error

	// Finish records completion time and final stats for a run.
	Finish(ctx context.Context, runID string, finishedAt int64, stats domain.RunStats) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.SimulationRun, error)

	// List retrieves up to limit runs, newest first.
	List(ctx context.Context, limit int) ([]*domain.SimulationRun, error)
}

// TradeRecordStore provides access to executed trade records. Records carry
// deterministic IDs, so re-persisting an identical run is a no-op rather
// than a duplication.
type TradeRecordStore interface {
	// InsertBulk adds records, skipping any whose record_id already exists.
	InsertBulk(ctx context.Context, records []*domain.TradeRecord) error

	// GetByRun retrieves all records for a run, ordered by date, persona.
	GetByRun(ctx context.Context, runID string) ([]*domain.TradeRecord, error)

	// GetByRunPersona retrieves one persona's records for a run, date ASC.
	GetByRunPersona(ctx context.Context, runID, personaID string) ([]*domain.TradeRecord, error)
}

// SnapshotStore provides access to end-of-day portfolio snapshots.
type SnapshotStore interface {
	// InsertBulk adds snapshots for a run.
	InsertBulk(ctx context.Context, snapshots []*domain.DailySnapshot) error

	// GetByRunPersona retrieves one persona's snapshots for a run, date ASC.
	GetByRunPersona(ctx context.Context, runID, personaID string) ([]*domain.DailySnapshot, error)
}

// AggregateStore provides access to per-persona performance summaries.
type AggregateStore interface {
	// Upsert stores an aggregate, replacing any existing row for
	// (run_id, persona_id).
	Upsert(ctx context.Context, agg *domain.PersonaAggregate) error

	// GetByRun retrieves all aggregates for a run, ordered by return DESC.
	GetByRun(ctx context.Context, runID string) ([]*domain.PersonaAggregate, error)
}
