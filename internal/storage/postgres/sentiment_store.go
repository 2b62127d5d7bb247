package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"chronos-lab/internal/domain"
	"chronos-lab/internal/storage"
)

// SentimentStore implements storage.SentimentStore using PostgreSQL.
type SentimentStore struct {
	pool *Pool
}

// NewSentimentStore creates a new SentimentStore.
func NewSentimentStore(pool *Pool) *SentimentStore {
	return &SentimentStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SentimentStore = (*SentimentStore)(nil)

const sentimentUpsertQuery = `
	INSERT INTO sentiment_readings (reading_date, value, label)
	VALUES ($1, $2, $3)
	ON CONFLICT (reading_date) DO UPDATE SET
		value = EXCLUDED.value,
		label = EXCLUDED.label
`

// Upsert stores a reading, replacing any existing reading for the date.
func (s *SentimentStore) Upsert(ctx context.Context, r *domain.SentimentReading) error {
	if r == nil || r.Date == "" {
		return storage.ErrInvalidInput
	}

	if _, err := s.pool.Exec(ctx, sentimentUpsertQuery, r.Date, r.Value, r.Label); err != nil {
		return fmt.Errorf("upsert sentiment reading: %w", err)
	}
	return nil
}

// UpsertBulk stores multiple readings atomically with Upsert semantics.
func (s *SentimentStore) UpsertBulk(ctx context.Context, readings []*domain.SentimentReading) error {
	if len(readings) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range readings {
		if r == nil || r.Date == "" {
			return storage.ErrInvalidInput
		}
		if _, err := tx.Exec(ctx, sentimentUpsertQuery, r.Date, r.Value, r.Label); err != nil {
			return fmt.Errorf("upsert sentiment reading in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByDate retrieves the reading for a date. Returns ErrNotFound if absent.
func (s *SentimentStore) GetByDate(ctx context.Context, date string) (*domain.SentimentReading, error) {
	query := `
		SELECT reading_date, value, label
		FROM sentiment_readings
		WHERE reading_date = $1
	`

	var r domain.SentimentReading
	err := s.pool.QueryRow(ctx, query, date).Scan(&r.Date, &r.Value, &r.Label)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get sentiment reading by date: %w", err)
	}
	return &r, nil
}
