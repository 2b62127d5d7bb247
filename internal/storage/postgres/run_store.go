package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"chronos-lab/internal/domain"
	"chronos-lab/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, run *domain.SimulationRun) error {
	query := `
		INSERT INTO simulation_runs (
			run_id, symbol, start_date, end_date, initial_capital, mode,
			created_at, finished_at,
			ai_decisions, rule_decisions, timeout_fallbacks, error_fallbacks,
			data_gaps, days_simulated
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8,
			$9, $10, $11, $12,
			$13, $14
		)
	`

	_, err := s.pool.Exec(ctx, query,
		run.RunID, run.Symbol, run.StartDate, run.EndDate, run.InitialCapital, run.Mode,
		run.CreatedAt, run.FinishedAt,
		run.Stats.AIDecisions, run.Stats.RuleDecisions, run.Stats.TimeoutFallbacks, run.Stats.ErrorFallbacks,
		run.Stats.DataGaps, run.Stats.DaysSimulated,
	)
	if err != nil {
		if violatesUnique(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert simulation run: %w", err)
	}
	return nil
}

// Finish records completion time and final stats for a run.
func (s *RunStore) Finish(ctx context.Context, runID string, finishedAt int64, stats domain.RunStats) error {
	query := `
		UPDATE simulation_runs SET
			finished_at = $2,
			ai_decisions = $3, rule_decisions = $4,
			timeout_fallbacks = $5, error_fallbacks = $6,
			data_gaps = $7, days_simulated = $8
		WHERE run_id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		runID, finishedAt,
		stats.AIDecisions, stats.RuleDecisions,
		stats.TimeoutFallbacks, stats.ErrorFallbacks,
		stats.DataGaps, stats.DaysSimulated,
	)
	if err != nil {
		return fmt.Errorf("finish simulation run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.SimulationRun, error) {
	query := `
		SELECT
			run_id, symbol, start_date, end_date, initial_capital, mode,
			created_at, finished_at,
			ai_decisions, rule_decisions, timeout_fallbacks, error_fallbacks,
			data_gaps, days_simulated
		FROM simulation_runs
		WHERE run_id = $1
	`

	row := s.pool.QueryRow(ctx, query, runID)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get simulation run by id: %w", err)
	}
	return run, nil
}

// List retrieves up to limit runs, newest first.
func (s *RunStore) List(ctx context.Context, limit int) ([]*domain.SimulationRun, error) {
	query := `
		SELECT
			run_id, symbol, start_date, end_date, initial_capital, mode,
			created_at, finished_at,
			ai_decisions, rule_decisions, timeout_fallbacks, error_fallbacks,
			data_gaps, days_simulated
		FROM simulation_runs
		ORDER BY created_at DESC, run_id ASC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list simulation runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.SimulationRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan simulation run row: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate simulation run rows: %w", err)
	}

	return runs, nil
}

// scanRun scans a single row into a SimulationRun.
func scanRun(row pgx.Row) (*domain.SimulationRun, error) {
	var run domain.SimulationRun

	err := row.Scan(
		&run.RunID, &run.Symbol, &run.StartDate, &run.EndDate, &run.InitialCapital, &run.Mode,
		&run.CreatedAt, &run.FinishedAt,
		&run.Stats.AIDecisions, &run.Stats.RuleDecisions, &run.Stats.TimeoutFallbacks, &run.Stats.ErrorFallbacks,
		&run.Stats.DataGaps, &run.Stats.DaysSimulated,
	)
	if err != nil {
		return nil, err
	}

	return &run, nil
}
