package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"chronos-lab/internal/domain"
	"chronos-lab/internal/storage"
)

// AggregateStore is an in-memory implementation of storage.AggregateStore.
type AggregateStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PersonaAggregate // keyed by (run_id, persona_id)
}

// NewAggregateStore creates a new in-memory aggregate store.
func NewAggregateStore() *AggregateStore {
	return &AggregateStore{
		data: make(map[string]*domain.PersonaAggregate),
	}
}

// Compile-time interface check.
var _ storage.AggregateStore = (*AggregateStore)(nil)

func aggregateKey(runID, personaID string) string {
	return fmt.Sprintf("%s|%s", runID, personaID)
}

// Upsert stores an aggregate, replacing any existing row for (run, persona).
func (s *AggregateStore) Upsert(_ context.Context, agg *domain.PersonaAggregate) error {
	if agg == nil || agg.RunID == "" || agg.PersonaID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	aggCopy := *agg
	s.data[aggregateKey(agg.RunID, agg.PersonaID)] = &aggCopy
	return nil
}

// GetByRun retrieves all aggregates for a run, ordered by return DESC.
func (s *AggregateStore) GetByRun(_ context.Context, runID string) ([]*domain.PersonaAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PersonaAggregate
	for _, agg := range s.data {
		if agg.RunID == runID {
			aggCopy := *agg
			result = append(result, &aggCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].ReturnPct != result[j].ReturnPct {
			return result[i].ReturnPct > result[j].ReturnPct
		}
		return result[i].PersonaID < result[j].PersonaID
	})

	return result, nil
}
