package clickhouse

import (
	"context"
	"fmt"

	"chronos-lab/internal/domain"
	"chronos-lab/internal/storage"
)

// BarStore implements storage.BarStore using ClickHouse.
// The bars table is a ReplacingMergeTree keyed by (symbol, date), so
// re-collection overwrites rather than duplicates. Reads use FINAL.
type BarStore struct {
	conn *Conn
}

// NewBarStore creates a new BarStore.
func NewBarStore(conn *Conn) *BarStore {
	return &BarStore{conn: conn}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

const barColumns = `symbol, date, open_time_ms, open, high, low, close, volume, quote_volume, trades`

// Upsert stores a bar, replacing any existing bar for (symbol, date).
func (s *BarStore) Upsert(ctx context.Context, bar *domain.Bar) error {
	if bar == nil || bar.Symbol == "" || bar.Date == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO bars (` + barColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := s.conn.Exec(ctx, query,
		bar.Symbol, bar.Date, uint64(bar.OpenTimeMs),
		bar.Open, bar.High, bar.Low, bar.Close,
		bar.Volume, bar.QuoteVolume, uint64(bar.Trades),
	)
	if err != nil {
		return fmt.Errorf("insert bar: %w", err)
	}
	return nil
}

// UpsertBulk stores multiple bars with Upsert semantics.
func (s *BarStore) UpsertBulk(ctx context.Context, bars []*domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	for _, bar := range bars {
		if bar == nil || bar.Symbol == "" || bar.Date == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO bars (`+barColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, bar := range bars {
		err = batch.Append(
			bar.Symbol, bar.Date, uint64(bar.OpenTimeMs),
			bar.Open, bar.High, bar.Low, bar.Close,
			bar.Volume, bar.QuoteVolume, uint64(bar.Trades),
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

// GetByDate retrieves the bar for a date. Returns ErrNotFound if absent.
func (s *BarStore) GetByDate(ctx context.Context, symbol, date string) (*domain.Bar, error) {
	query := `
		SELECT ` + barColumns + `
		FROM bars FINAL
		WHERE symbol = ? AND date = ?
		LIMIT 1
	`

	row := s.conn.QueryRow(ctx, query, symbol, date)
	bar, err := scanBarRow(row.Scan)
	if err != nil {
		return nil, storage.ErrNotFound
	}
	return bar, nil
}

// GetRange retrieves bars within [startDate, endDate], ordered by date ASC.
func (s *BarStore) GetRange(ctx context.Context, symbol, startDate, endDate string) ([]*domain.Bar, error) {
	query := `
		SELECT ` + barColumns + `
		FROM bars FINAL
		WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("query bars by range: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// GetHistory retrieves up to limit bars ending at endDate, ordered by date ASC.
func (s *BarStore) GetHistory(ctx context.Context, symbol, endDate string, limit int) ([]*domain.Bar, error) {
	query := `
		SELECT ` + barColumns + `
		FROM bars FINAL
		WHERE symbol = ? AND date <= ?
		ORDER BY date DESC
		LIMIT ?
	`

	rows, err := s.conn.Query(ctx, query, symbol, endDate, uint64(limit))
	if err != nil {
		return nil, fmt.Errorf("query bar history: %w", err)
	}
	defer rows.Close()

	bars, err := scanBars(rows)
	if err != nil {
		return nil, err
	}

	// Query returns newest-first; callers expect ascending dates
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}

	return bars, nil
}

// scanBarRow scans a single row into a Bar using the given scan function.
func scanBarRow(scan func(dest ...interface{}) error) (*domain.Bar, error) {
	var b domain.Bar
	var openTimeMs, trades uint64

	err := scan(
		&b.Symbol, &b.Date, &openTimeMs,
		&b.Open, &b.High, &b.Low, &b.Close,
		&b.Volume, &b.QuoteVolume, &trades,
	)
	if err != nil {
		return nil, err
	}
	b.OpenTimeMs = int64(openTimeMs)
	b.Trades = int64(trades)

	return &b, nil
}

// scanBars scans multiple rows into a slice of Bar.
func scanBars(rows chRows) ([]*domain.Bar, error) {
	var bars []*domain.Bar

	for rows.Next() {
		b, err := scanBarRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan bar row: %w", err)
		}
		bars = append(bars, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bar rows: %w", err)
	}

	return bars, nil
}
