// Package main runs a historical simulation: four personas replay stored
// market data day by day, each trading its own portfolio, and the results
// are persisted and written out as reports.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chronos-lab/internal/ai"
	"chronos-lab/internal/config"
	"chronos-lab/internal/domain"
	"chronos-lab/internal/idhash"
	"chronos-lab/internal/observability"
	"chronos-lab/internal/persona"
	"chronos-lab/internal/reporting"
	"chronos-lab/internal/simulation"
	"chronos-lab/internal/storage"
	chstore "chronos-lab/internal/storage/clickhouse"
	"chronos-lab/internal/storage/memory"
	pgstore "chronos-lab/internal/storage/postgres"
)

// allStores holds all storage implementations the simulation needs.
type allStores struct {
	bars       storage.BarStore
	sentiment  storage.SentimentStore
	headlines  storage.HeadlineStore
	runs       storage.RunStore
	trades     storage.TradeRecordStore
	snapshots  storage.SnapshotStore
	aggregates storage.AggregateStore
}

func main() {
	cfg := config.DefaultConfig()

	// Parse flags (config resolves env vars and .env as defaults)
	startDate := flag.String("start", cfg.StartDate, "Simulation start date (YYYY-MM-DD)")
	endDate := flag.String("end", cfg.EndDate, "Simulation end date (YYYY-MM-DD)")
	symbol := flag.String("symbol", cfg.Symbol, "Trading pair symbol")
	initialCapital := flag.Float64("initial-capital", cfg.InitialCapital, "Starting cash per persona (USD)")
	ruleOnly := flag.Bool("rule-only", cfg.RuleOnly, "Use deterministic rule decisions only, no AI calls")
	decisionTimeout := flag.Duration("decision-timeout", cfg.DecisionTimeout, "Per-decision AI call budget")
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.ClickhouseDSN, "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", cfg.UseMemory, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	outputDir := flag.String("output-dir", cfg.OutputDir, "Output directory for report files")
	metricsAddr := flag.String("metrics-addr", cfg.MetricsAddr, "Prometheus metrics HTTP address (empty to disable)")
	verbose := flag.Bool("verbose", cfg.Verbose, "Log each simulated day")
	outputJSON := flag.Bool("json", false, "Print the final summary as JSON")

	flag.Parse()

	// Setup logger (results go to stdout, logs to stderr)
	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	// Validate required flags
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Channel to signal main goroutine completion
	done := make(chan error, 1)

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	// Create stores
	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// Create the AI backend unless running rule-only
	mode := domain.ModeRule
	var backend ai.Backend
	if !*ruleOnly {
		if cfg.AIAPIKey == "" {
			logger.Fatal("AI_API_KEY is not set (pass --rule-only for deterministic rule mode)")
		}
		chat, err := ai.NewChatBackend(ctx, ai.Options{
			BaseURL:   cfg.AIBaseURL,
			APIKey:    cfg.AIAPIKey,
			Model:     cfg.AIModel,
			MaxTokens: cfg.AIMaxTokens,
		})
		if err != nil {
			logger.Fatalf("Failed to create AI backend: %v", err)
		}
		backend = chat
		mode = domain.ModeAI
		logger.Printf("AI decisions enabled: model=%s timeout=%s", cfg.AIModel, *decisionTimeout)
	}

	personas := persona.All(persona.Options{
		Backend: backend,
		Timeout: *decisionTimeout,
		Logger:  logger,
	})

	orch := simulation.NewOrchestrator(simulation.Options{
		Personas:       personas,
		Bars:           stores.bars,
		Sentiment:      stores.sentiment,
		News:           stores.headlines,
		Runs:           stores.runs,
		Symbol:         *symbol,
		InitialCapital: *initialCapital,
		Mode:           mode,
		Verbose:        *verbose,
		Logger:         logger,
	})

	logger.Printf("Starting backtest: symbol=%s window=%s..%s capital=%.2f mode=%s",
		*symbol, *startDate, *endDate, *initialCapital, mode)

	started := time.Now()
	result, err := orch.Run(ctx, *startDate, *endDate)
	if err == nil {
		err = persistResults(ctx, stores, personas, result)
	}
	if err == nil {
		gen := reporting.NewGenerator(reporting.Options{OutputDir: *outputDir, Logger: logger})
		err = gen.Generate(result.Run, result.DailyResults, tradesByPersona(personas, result), result.Summary)
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	observability.RecordRun(mode, status, time.Since(started).Seconds())
	if err == nil {
		observability.UpdateLastSuccessfulRun(time.Now().Unix())
	}

	// Signal completion to shutdown handler
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Backtest failed: %v", err)
	}

	if err == nil {
		if *outputJSON {
			printJSON(result)
		} else {
			printSummary(result)
		}
	} else if result != nil {
		logger.Printf("Run cancelled after %d simulated days, results not persisted",
			result.Run.Stats.DaysSimulated)
	}

	logger.Println("Shutdown complete")
}

// createStores creates all required stores. Database mode applies the
// embedded migrations before returning, so a fresh database works without
// manual schema setup.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			bars:       memory.NewBarStore(),
			sentiment:  memory.NewSentimentStore(),
			headlines:  memory.NewHeadlineStore(),
			runs:       memory.NewRunStore(),
			trades:     memory.NewTradeRecordStore(),
			snapshots:  memory.NewSnapshotStore(),
			aggregates: memory.NewAggregateStore(),
		}
		return stores, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pgstore.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate postgres: %w", err)
	}

	// ClickHouse
	chConn, err := chstore.Migrate(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate clickhouse: %w", err)
	}

	stores := &allStores{
		// PostgreSQL stores (run metadata, context data, trade records)
		sentiment: pgstore.NewSentimentStore(pool),
		headlines: pgstore.NewHeadlineStore(pool),
		runs:      pgstore.NewRunStore(pool),
		trades:    pgstore.NewTradeRecordStore(pool),

		// ClickHouse stores (timeseries and analytics)
		bars:       chstore.NewBarStore(chConn),
		snapshots:  chstore.NewSnapshotStore(chConn),
		aggregates: chstore.NewAggregateStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return stores, cleanup, nil
}

// persistResults stamps run identity onto the portfolio ledgers and stores
// trades, snapshots and aggregates. Record IDs are deterministic, so
// re-persisting the same run is a no-op rather than a duplication.
func persistResults(ctx context.Context, stores *allStores, personas []persona.Policy, result *simulation.RunResult) error {
	runID := result.Run.RunID

	var trades []*domain.TradeRecord
	var snapshots []*domain.DailySnapshot
	for _, p := range personas {
		pf := result.Portfolios[p.Config().ID]
		if pf == nil {
			continue
		}
		for _, tr := range pf.Trades() {
			tr.RunID = runID
			tr.RecordID = idhash.ComputeRecordID(runID, tr.PersonaID, tr.Date, string(tr.Action))
			trades = append(trades, tr)
		}
		for _, snap := range pf.Snapshots() {
			snap.RunID = runID
			snapshots = append(snapshots, snap)
		}
	}

	if err := stores.trades.InsertBulk(ctx, trades); err != nil {
		return fmt.Errorf("store trade records: %w", err)
	}
	if err := stores.snapshots.InsertBulk(ctx, snapshots); err != nil {
		return fmt.Errorf("store snapshots: %w", err)
	}
	for _, agg := range result.Summary {
		if err := stores.aggregates.Upsert(ctx, agg); err != nil {
			return fmt.Errorf("store aggregate for %s: %w", agg.PersonaID, err)
		}
	}

	return nil
}

// tradesByPersona groups the executed trades for the report generator.
func tradesByPersona(personas []persona.Policy, result *simulation.RunResult) map[string][]*domain.TradeRecord {
	trades := make(map[string][]*domain.TradeRecord, len(personas))
	for _, p := range personas {
		if pf := result.Portfolios[p.Config().ID]; pf != nil {
			trades[p.Config().ID] = pf.Trades()
		}
	}
	return trades
}

// printSummary writes the ranked persona leaderboard to stdout.
func printSummary(result *simulation.RunResult) {
	run := result.Run
	fmt.Println()
	fmt.Println("=== Backtest Summary ===")
	fmt.Printf("Run ID:    %s\n", run.RunID)
	fmt.Printf("Symbol:    %s\n", run.Symbol)
	fmt.Printf("Window:    %s to %s\n", run.StartDate, run.EndDate)
	fmt.Printf("Mode:      %s\n", run.Mode)
	fmt.Printf("Capital:   %.2f\n", run.InitialCapital)
	fmt.Printf("Days:      %d simulated, %d gaps\n", run.Stats.DaysSimulated, run.Stats.DataGaps)
	fmt.Printf("Decisions: %d ai, %d rule (%d timeout fallbacks, %d error fallbacks)\n",
		run.Stats.AIDecisions, run.Stats.RuleDecisions,
		run.Stats.TimeoutFallbacks, run.Stats.ErrorFallbacks)
	fmt.Println()

	fmt.Println("Ranking:")
	for i, agg := range result.Summary {
		beat := " "
		if agg.BeatBaseline {
			beat = "*"
		}
		fmt.Printf("  %d. %-10s %s value=%10.2f return=%+7.2f%% drawdown=%6.2f%% trades=%d/%d/%d\n",
			i+1, agg.PersonaID, beat, agg.FinalValue, agg.ReturnPct, agg.MaxDrawdown,
			agg.BuyCount, agg.SellCount, agg.HoldCount)
	}
	if len(result.Summary) > 0 {
		fmt.Println()
		fmt.Printf("Buy-and-hold baseline: %+.2f%% (* beats baseline)\n",
			result.Summary[0].BaselineReturnPct)
	}
}

// printJSON writes the run header and ranked aggregates to stdout as JSON.
func printJSON(result *simulation.RunResult) {
	out := struct {
		Run     *domain.SimulationRun      `json:"run"`
		Summary []*domain.PersonaAggregate `json:"summary"`
	}{result.Run, result.Summary}

	data, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(data))
}
