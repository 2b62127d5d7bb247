package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"chronos-lab/internal/domain"
	"chronos-lab/internal/storage"
)

// TradeRecordStore implements storage.TradeRecordStore using PostgreSQL.
type TradeRecordStore struct {
	pool *Pool
}

// NewTradeRecordStore creates a new TradeRecordStore.
func NewTradeRecordStore(pool *Pool) *TradeRecordStore {
	return &TradeRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeRecordStore = (*TradeRecordStore)(nil)

// InsertBulk adds records atomically, skipping any whose record_id already
// exists. Record IDs are deterministic, so replaying a run is a no-op.
func (s *TradeRecordStore) InsertBulk(ctx context.Context, records []*domain.TradeRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO trade_records (
			record_id, run_id, persona_id, trade_date,
			action, symbol, quantity, price, usd_amount,
			reason, portfolio_value_after
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9,
			$10, $11
		)
		ON CONFLICT (record_id) DO NOTHING
	`

	for _, r := range records {
		_, err := tx.Exec(ctx, query,
			r.RecordID, r.RunID, r.PersonaID, r.Date,
			string(r.Action), r.Symbol, r.Quantity, r.Price, r.USDAmount,
			r.Reason, r.PortfolioValueAfter,
		)
		if err != nil {
			return fmt.Errorf("insert trade record in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByRun retrieves all records for a run, ordered by date, persona.
func (s *TradeRecordStore) GetByRun(ctx context.Context, runID string) ([]*domain.TradeRecord, error) {
	query := `
		SELECT
			record_id, run_id, persona_id, trade_date,
			action, symbol, quantity, price, usd_amount,
			reason, portfolio_value_after
		FROM trade_records
		WHERE run_id = $1
		ORDER BY trade_date ASC, persona_id ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get trade records by run: %w", err)
	}
	defer rows.Close()

	return scanTradeRecords(rows)
}

// GetByRunPersona retrieves one persona's records for a run, date ASC.
func (s *TradeRecordStore) GetByRunPersona(ctx context.Context, runID, personaID string) ([]*domain.TradeRecord, error) {
	query := `
		SELECT
			record_id, run_id, persona_id, trade_date,
			action, symbol, quantity, price, usd_amount,
			reason, portfolio_value_after
		FROM trade_records
		WHERE run_id = $1 AND persona_id = $2
		ORDER BY trade_date ASC
	`

	rows, err := s.pool.Query(ctx, query, runID, personaID)
	if err != nil {
		return nil, fmt.Errorf("get trade records by run/persona: %w", err)
	}
	defer rows.Close()

	return scanTradeRecords(rows)
}

// scanTradeRecords scans multiple rows into a slice of TradeRecord.
func scanTradeRecords(rows pgx.Rows) ([]*domain.TradeRecord, error) {
	var records []*domain.TradeRecord

	for rows.Next() {
		var r domain.TradeRecord
		var action string

		err := rows.Scan(
			&r.RecordID, &r.RunID, &r.PersonaID, &r.Date,
			&action, &r.Symbol, &r.Quantity, &r.Price, &r.USDAmount,
			&r.Reason, &r.PortfolioValueAfter,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade record row: %w", err)
		}
		r.Action = domain.TradeAction(action)

		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade record rows: %w", err)
	}

	return records, nil
}
