package memory

import (
	"context"
	"sort"
	"sync"

	"chronos-lab/internal/domain"
	"chronos-lab/internal/storage"
)

// TradeRecordStore is an in-memory implementation of storage.TradeRecordStore.
type TradeRecordStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TradeRecord // keyed by record_id
}

// NewTradeRecordStore creates a new in-memory trade record store.
func NewTradeRecordStore() *TradeRecordStore {
	return &TradeRecordStore{
		data: make(map[string]*domain.TradeRecord),
	}
}

// Compile-time interface check.
var _ storage.TradeRecordStore = (*TradeRecordStore)(nil)

// InsertBulk adds records, skipping any whose record_id already exists.
func (s *TradeRecordStore) InsertBulk(_ context.Context, records []*domain.TradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		if r == nil || r.RecordID == "" {
			return storage.ErrInvalidInput
		}
	}
	for _, r := range records {
		if _, exists := s.data[r.RecordID]; exists {
			continue
		}
		recordCopy := *r
		s.data[r.RecordID] = &recordCopy
	}
	return nil
}

// GetByRun retrieves all records for a run, ordered by date, persona.
func (s *TradeRecordStore) GetByRun(_ context.Context, runID string) ([]*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradeRecord
	for _, r := range s.data {
		if r.RunID == runID {
			recordCopy := *r
			result = append(result, &recordCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		return result[i].PersonaID < result[j].PersonaID
	})

	return result, nil
}

// GetByRunPersona retrieves one persona's records for a run, date ASC.
func (s *TradeRecordStore) GetByRunPersona(_ context.Context, runID, personaID string) ([]*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradeRecord
	for _, r := range s.data {
		if r.RunID == runID && r.PersonaID == personaID {
			recordCopy := *r
			result = append(result, &recordCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date < result[j].Date
	})

	return result, nil
}
