package postgres

import (
	"context"
	"fmt"

	"chronos-lab/internal/domain"
	"chronos-lab/internal/storage"
)

// HeadlineStore implements storage.HeadlineStore using PostgreSQL.
type HeadlineStore struct {
	pool *Pool
}

// NewHeadlineStore creates a new HeadlineStore.
func NewHeadlineStore(pool *Pool) *HeadlineStore {
	return &HeadlineStore{pool: pool}
}

// Compile-time interface check.
var _ storage.HeadlineStore = (*HeadlineStore)(nil)

// ReplaceDate atomically replaces all headlines filed under a date.
func (s *HeadlineStore) ReplaceDate(ctx context.Context, date string, headlines []*domain.Headline) error {
	if date == "" {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM headlines WHERE headline_date = $1`, date); err != nil {
		return fmt.Errorf("delete headlines for date: %w", err)
	}

	query := `
		INSERT INTO headlines (headline_date, title, source, url, published_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	for _, h := range headlines {
		if h == nil {
			return storage.ErrInvalidInput
		}
		if _, err := tx.Exec(ctx, query, date, h.Title, h.Source, h.URL, h.PublishedAt); err != nil {
			return fmt.Errorf("insert headline: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByDate retrieves headlines for a date, ordered by published time ASC.
func (s *HeadlineStore) GetByDate(ctx context.Context, date string) ([]*domain.Headline, error) {
	query := `
		SELECT headline_date, title, source, url, published_at
		FROM headlines
		WHERE headline_date = $1
		ORDER BY published_at ASC, title ASC
	`

	rows, err := s.pool.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("get headlines by date: %w", err)
	}
	defer rows.Close()

	headlines := make([]*domain.Headline, 0)
	for rows.Next() {
		var h domain.Headline
		if err := rows.Scan(&h.Date, &h.Title, &h.Source, &h.URL, &h.PublishedAt); err != nil {
			return nil, fmt.Errorf("scan headline row: %w", err)
		}
		headlines = append(headlines, &h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate headline rows: %w", err)
	}

	return headlines, nil
}
