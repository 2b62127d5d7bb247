package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"chronos-lab/internal/domain"
	"chronos-lab/internal/storage"
)

// BarStore is an in-memory implementation of storage.BarStore.
type BarStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Bar // keyed by (symbol, date)
}

// NewBarStore creates a new in-memory bar store.
func NewBarStore() *BarStore {
	return &BarStore{
		data: make(map[string]*domain.Bar),
	}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

func barKey(symbol, date string) string {
	return fmt.Sprintf("%s|%s", symbol, date)
}

// Upsert stores a bar, replacing any existing bar for (symbol, date).
func (s *BarStore) Upsert(_ context.Context, bar *domain.Bar) error {
	if bar == nil || bar.Symbol == "" || bar.Date == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	barCopy := *bar
	s.data[barKey(bar.Symbol, bar.Date)] = &barCopy
	return nil
}

// UpsertBulk stores multiple bars with Upsert semantics.
func (s *BarStore) UpsertBulk(_ context.Context, bars []*domain.Bar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, bar := range bars {
		if bar == nil || bar.Symbol == "" || bar.Date == "" {
			return storage.ErrInvalidInput
		}
	}
	for _, bar := range bars {
		barCopy := *bar
		s.data[barKey(bar.Symbol, bar.Date)] = &barCopy
	}
	return nil
}

// GetByDate retrieves the bar for a date. Returns ErrNotFound if absent.
func (s *BarStore) GetByDate(_ context.Context, symbol, date string) (*domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bar, ok := s.data[barKey(symbol, date)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	barCopy := *bar
	return &barCopy, nil
}

// GetRange retrieves bars within [startDate, endDate], ordered by date ASC.
func (s *BarStore) GetRange(_ context.Context, symbol, startDate, endDate string) ([]*domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Bar
	for _, bar := range s.data {
		if bar.Symbol == symbol && bar.Date >= startDate && bar.Date <= endDate {
			barCopy := *bar
			result = append(result, &barCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date < result[j].Date
	})

	return result, nil
}

// GetHistory retrieves up to limit bars ending at endDate, ordered by date ASC.
func (s *BarStore) GetHistory(_ context.Context, symbol, endDate string, limit int) ([]*domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Bar
	for _, bar := range s.data {
		if bar.Symbol == symbol && bar.Date <= endDate {
			barCopy := *bar
			result = append(result, &barCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date < result[j].Date
	})

	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}

	return result, nil
}
