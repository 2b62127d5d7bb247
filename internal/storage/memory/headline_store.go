package memory

import (
	"context"
	"sort"
	"sync"

	"chronos-lab/internal/domain"
	"chronos-lab/internal/storage"
)

// HeadlineStore is an in-memory implementation of storage.HeadlineStore.
type HeadlineStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.Headline // keyed by date
}

// NewHeadlineStore creates a new in-memory headline store.
func NewHeadlineStore() *HeadlineStore {
	return &HeadlineStore{
		data: make(map[string][]*domain.Headline),
	}
}

// Compile-time interface check.
var _ storage.HeadlineStore = (*HeadlineStore)(nil)

// ReplaceDate atomically replaces all headlines filed under a date.
func (s *HeadlineStore) ReplaceDate(_ context.Context, date string, headlines []*domain.Headline) error {
	if date == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	replacement := make([]*domain.Headline, 0, len(headlines))
	for _, h := range headlines {
		if h == nil {
			return storage.ErrInvalidInput
		}
		headlineCopy := *h
		headlineCopy.Date = date
		replacement = append(replacement, &headlineCopy)
	}
	s.data[date] = replacement
	return nil
}

// GetByDate retrieves headlines for a date, ordered by published time ASC.
func (s *HeadlineStore) GetByDate(_ context.Context, date string) ([]*domain.Headline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.data[date]
	result := make([]*domain.Headline, 0, len(stored))
	for _, h := range stored {
		headlineCopy := *h
		result = append(result, &headlineCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].PublishedAt < result[j].PublishedAt
	})

	return result, nil
}
