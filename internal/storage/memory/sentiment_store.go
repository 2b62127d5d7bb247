package memory

import (
	"context"
	"sync"

	"chronos-lab/internal/domain"
	"chronos-lab/internal/storage"
)

// SentimentStore is an in-memory implementation of storage.SentimentStore.
type SentimentStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SentimentReading // keyed by date
}

// NewSentimentStore creates a new in-memory sentiment store.
func NewSentimentStore() *SentimentStore {
	return &SentimentStore{
		data: make(map[string]*domain.SentimentReading),
	}
}

// Compile-time interface check.
var _ storage.SentimentStore = (*SentimentStore)(nil)

// Upsert stores a reading, replacing any existing reading for the date.
func (s *SentimentStore) Upsert(_ context.Context, r *domain.SentimentReading) error {
	if r == nil || r.Date == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	readingCopy := *r
	s.data[r.Date] = &readingCopy
	return nil
}

// UpsertBulk stores multiple readings with Upsert semantics.
func (s *SentimentStore) UpsertBulk(_ context.Context, readings []*domain.SentimentReading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range readings {
		if r == nil || r.Date == "" {
			return storage.ErrInvalidInput
		}
	}
	for _, r := range readings {
		readingCopy := *r
		s.data[r.Date] = &readingCopy
	}
	return nil
}

// GetByDate retrieves the reading for a date. Returns ErrNotFound if absent.
func (s *SentimentStore) GetByDate(_ context.Context, date string) (*domain.SentimentReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.data[date]
	if !ok {
		return nil, storage.ErrNotFound
	}
	readingCopy := *r
	return &readingCopy, nil
}
