package clickhouse

import (
	"context"
	"fmt"

	"chronos-lab/internal/domain"
	"chronos-lab/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using ClickHouse.
type SnapshotStore struct {
	conn *Conn
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(conn *Conn) *SnapshotStore {
	return &SnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

const snapshotColumns = `run_id, persona_id, date, price, cash_balance, quantity, average_cost, position_value, total_value, return_pct, daily_return_pct`

// InsertBulk adds snapshots for a run. Re-inserting a (run, persona, date)
// key overwrites via the ReplacingMergeTree.
func (s *SnapshotStore) InsertBulk(ctx context.Context, snapshots []*domain.DailySnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	for _, snap := range snapshots {
		if snap == nil || snap.RunID == "" || snap.PersonaID == "" || snap.Date == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO portfolio_snapshots (`+snapshotColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range snapshots {
		err = batch.Append(
			snap.RunID, snap.PersonaID, snap.Date,
			snap.Price, snap.CashBalance, snap.Quantity, snap.AverageCost,
			snap.PositionValue, snap.TotalValue, snap.ReturnPct, snap.DailyReturnPct,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRunPersona retrieves one persona's snapshots for a run, date ASC.
func (s *SnapshotStore) GetByRunPersona(ctx context.Context, runID, personaID string) ([]*domain.DailySnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM portfolio_snapshots FINAL
		WHERE run_id = ? AND persona_id = ?
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, runID, personaID)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*domain.DailySnapshot
	for rows.Next() {
		var snap domain.DailySnapshot
		err := rows.Scan(
			&snap.RunID, &snap.PersonaID, &snap.Date,
			&snap.Price, &snap.CashBalance, &snap.Quantity, &snap.AverageCost,
			&snap.PositionValue, &snap.TotalValue, &snap.ReturnPct, &snap.DailyReturnPct,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		snapshots = append(snapshots, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return snapshots, nil
}
