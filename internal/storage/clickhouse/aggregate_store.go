package clickhouse

import (
	"context"
	"fmt"

	"chronos-lab/internal/domain"
	"chronos-lab/internal/storage"
)

// AggregateStore implements storage.AggregateStore using ClickHouse.
type AggregateStore struct {
	conn *Conn
}

// NewAggregateStore creates a new AggregateStore.
func NewAggregateStore(conn *Conn) *AggregateStore {
	return &AggregateStore{conn: conn}
}

// Compile-time interface check.
var _ storage.AggregateStore = (*AggregateStore)(nil)

const aggregateColumns = `run_id, persona_id, final_value, return_pct, buy_count, sell_count, hold_count, max_drawdown, daily_volatility, best_day_pct, worst_day_pct, max_consecutive_loss_days, baseline_return_pct, beat_baseline`

// Upsert stores an aggregate, replacing any existing row for (run, persona)
// via the ReplacingMergeTree.
func (s *AggregateStore) Upsert(ctx context.Context, a *domain.PersonaAggregate) error {
	if a == nil || a.RunID == "" || a.PersonaID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO persona_aggregates (` + aggregateColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var beat uint8
	if a.BeatBaseline {
		beat = 1
	}

	err := s.conn.Exec(ctx, query,
		a.RunID, a.PersonaID, a.FinalValue, a.ReturnPct,
		uint32(a.BuyCount), uint32(a.SellCount), uint32(a.HoldCount),
		a.MaxDrawdown, a.DailyVolatility, a.BestDayPct, a.WorstDayPct,
		uint32(a.MaxConsecutiveLossDays), a.BaselineReturnPct, beat,
	)
	if err != nil {
		return fmt.Errorf("insert persona aggregate: %w", err)
	}
	return nil
}

// GetByRun retrieves all aggregates for a run, ordered by return DESC.
func (s *AggregateStore) GetByRun(ctx context.Context, runID string) ([]*domain.PersonaAggregate, error) {
	query := `
		SELECT ` + aggregateColumns + `
		FROM persona_aggregates FINAL
		WHERE run_id = ?
		ORDER BY return_pct DESC, persona_id ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query aggregates: %w", err)
	}
	defer rows.Close()

	var aggregates []*domain.PersonaAggregate
	for rows.Next() {
		var a domain.PersonaAggregate
		var buyCount, sellCount, holdCount, lossDays uint32
		var beat uint8

		err := rows.Scan(
			&a.RunID, &a.PersonaID, &a.FinalValue, &a.ReturnPct,
			&buyCount, &sellCount, &holdCount,
			&a.MaxDrawdown, &a.DailyVolatility, &a.BestDayPct, &a.WorstDayPct,
			&lossDays, &a.BaselineReturnPct, &beat,
		)
		if err != nil {
			return nil, fmt.Errorf("scan aggregate row: %w", err)
		}
		a.BuyCount = int(buyCount)
		a.SellCount = int(sellCount)
		a.HoldCount = int(holdCount)
		a.MaxConsecutiveLossDays = int(lossDays)
		a.BeatBaseline = beat != 0

		aggregates = append(aggregates, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aggregate rows: %w", err)
	}

	return aggregates, nil
}
