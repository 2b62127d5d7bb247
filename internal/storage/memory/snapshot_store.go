package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"chronos-lab/internal/domain"
	"chronos-lab/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string]*domain.DailySnapshot // keyed by (run_id, persona_id, date)
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[string]*domain.DailySnapshot),
	}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

func snapshotKey(runID, personaID, date string) string {
	return fmt.Sprintf("%s|%s|%s", runID, personaID, date)
}

// InsertBulk adds snapshots for a run. Re-inserting a key overwrites.
func (s *SnapshotStore) InsertBulk(_ context.Context, snapshots []*domain.DailySnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, snap := range snapshots {
		if snap == nil || snap.RunID == "" || snap.PersonaID == "" || snap.Date == "" {
			return storage.ErrInvalidInput
		}
	}
	for _, snap := range snapshots {
		snapCopy := *snap
		s.data[snapshotKey(snap.RunID, snap.PersonaID, snap.Date)] = &snapCopy
	}
	return nil
}

// GetByRunPersona retrieves one persona's snapshots for a run, date ASC.
func (s *SnapshotStore) GetByRunPersona(_ context.Context, runID, personaID string) ([]*domain.DailySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.DailySnapshot
	for _, snap := range s.data {
		if snap.RunID == runID && snap.PersonaID == personaID {
			snapCopy := *snap
			result = append(result, &snapCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date < result[j].Date
	})

	return result, nil
}
