// Package main regenerates the report files for a stored simulation run.
// Everything is rebuilt from the databases, so reports survive deleted
// output directories and can be re-rendered after formatting changes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"chronos-lab/internal/config"
	"chronos-lab/internal/domain"
	"chronos-lab/internal/reporting"
	"chronos-lab/internal/storage"
	chstore "chronos-lab/internal/storage/clickhouse"
	pgstore "chronos-lab/internal/storage/postgres"
)

func main() {
	cfg := config.DefaultConfig()

	// Parse flags
	runID := flag.String("run-id", "", "Simulation run to report on (required)")
	outputDir := flag.String("output-dir", cfg.OutputDir, "Output directory for report files")
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.ClickhouseDSN, "ClickHouse connection string")
	listRuns := flag.Bool("list", false, "List recent runs instead of generating a report")

	flag.Parse()

	ctx := context.Background()

	// Validate flags
	if *postgresDSN == "" || *clickhouseDSN == "" {
		fmt.Fprintln(os.Stderr, "Error: --postgres-dsn and --clickhouse-dsn are required")
		os.Exit(1)
	}
	if !*listRuns && *runID == "" {
		fmt.Fprintln(os.Stderr, "Error: --run-id is required (or use --list to see recent runs)")
		os.Exit(1)
	}

	// Connect to databases
	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to postgres: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	chConn, err := chstore.NewConn(ctx, *clickhouseDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to clickhouse: %v\n", err)
		os.Exit(1)
	}
	defer chConn.Close()

	runStore := pgstore.NewRunStore(pool)

	if *listRuns {
		if err := printRecentRuns(ctx, runStore); err != nil {
			fmt.Fprintf(os.Stderr, "Error listing runs: %v\n", err)
			os.Exit(1)
		}
		return
	}

	tradeStore := pgstore.NewTradeRecordStore(pool)
	barStore := chstore.NewBarStore(chConn)
	snapshotStore := chstore.NewSnapshotStore(chConn)
	aggregateStore := chstore.NewAggregateStore(chConn)

	// Load the run and its ranked aggregates
	run, err := runStore.GetByID(ctx, *runID)
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Fprintf(os.Stderr, "Error: run %s not found\n", *runID)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading run: %v\n", err)
		os.Exit(1)
	}

	aggregates, err := aggregateStore.GetByRun(ctx, *runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading aggregates: %v\n", err)
		os.Exit(1)
	}
	if len(aggregates) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no aggregates stored for run %s (did the run finish?)\n", *runID)
		os.Exit(1)
	}

	// Load each persona's ledger
	trades := make(map[string][]*domain.TradeRecord, len(aggregates))
	snapshots := make(map[string][]*domain.DailySnapshot, len(aggregates))
	for _, agg := range aggregates {
		records, err := tradeStore.GetByRunPersona(ctx, *runID, agg.PersonaID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading trades for %s: %v\n", agg.PersonaID, err)
			os.Exit(1)
		}
		trades[agg.PersonaID] = records

		snaps, err := snapshotStore.GetByRunPersona(ctx, *runID, agg.PersonaID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading snapshots for %s: %v\n", agg.PersonaID, err)
			os.Exit(1)
		}
		snapshots[agg.PersonaID] = snaps
	}

	bars, err := barStore.GetRange(ctx, run.Symbol, run.StartDate, run.EndDate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading bars: %v\n", err)
		os.Exit(1)
	}

	dailyResults := rebuildDailyResults(bars, trades, snapshots)

	logger := log.New(os.Stderr, "[report] ", log.LstdFlags)
	gen := reporting.NewGenerator(reporting.Options{OutputDir: *outputDir, Logger: logger})
	if err := gen.Generate(run, dailyResults, trades, aggregates); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Report for run %s generated successfully:\n", *runID)
	for _, agg := range aggregates {
		fmt.Printf("  - %s/transactions_%s.csv\n", *outputDir, agg.PersonaID)
	}
	fmt.Printf("  - %s/daily_results.json\n", *outputDir)
	fmt.Printf("  - %s/SUMMARY.md\n", *outputDir)
}

// rebuildDailyResults reassembles the day-by-day results from persisted
// snapshots and trade records. The snapshot dates are the simulated days;
// amount and confidence are not persisted, so reconstructed decisions
// carry action and reason only.
func rebuildDailyResults(bars []*domain.Bar, trades map[string][]*domain.TradeRecord, snapshots map[string][]*domain.DailySnapshot) []*domain.DailyResult {
	barsByDate := make(map[string]*domain.Bar, len(bars))
	for _, bar := range bars {
		barsByDate[bar.Date] = bar
	}

	days := make(map[string]*domain.DailyResult)
	for personaID, snaps := range snapshots {
		for _, snap := range snaps {
			day := days[snap.Date]
			if day == nil {
				day = &domain.DailyResult{
					Date:            snap.Date,
					BTCPrice:        snap.Price,
					Decisions:       make(map[string]domain.TradeDecision, len(snapshots)),
					PortfolioValues: make(map[string]float64, len(snapshots)),
				}
				if bar := barsByDate[snap.Date]; bar != nil {
					day.BTCChangePct = bar.ChangePct()
				}
				days[snap.Date] = day
			}
			day.PortfolioValues[personaID] = snap.TotalValue
		}
	}

	for personaID, records := range trades {
		for _, tr := range records {
			if day := days[tr.Date]; day != nil {
				day.Decisions[personaID] = domain.TradeDecision{
					Action: tr.Action,
					Reason: tr.Reason,
				}
			}
		}
	}

	dates := make([]string, 0, len(days))
	for date := range days {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	results := make([]*domain.DailyResult, 0, len(dates))
	for _, date := range dates {
		results = append(results, days[date])
	}
	return results
}

// printRecentRuns lists the newest runs so a run ID can be picked out.
func printRecentRuns(ctx context.Context, runs storage.RunStore) error {
	recent, err := runs.List(ctx, 20)
	if err != nil {
		return err
	}
	if len(recent) == 0 {
		fmt.Println("No runs stored.")
		return nil
	}

	fmt.Println("Recent runs:")
	for _, run := range recent {
		state := "finished"
		if run.FinishedAt == 0 {
			state = "unfinished"
		}
		fmt.Printf("  %s  %s  %s..%s  mode=%s  days=%d  %s\n",
			run.RunID, run.Symbol, run.StartDate, run.EndDate,
			run.Mode, run.Stats.DaysSimulated, state)
	}
	return nil
}
