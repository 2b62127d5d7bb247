// Package main collects the market data the simulation replays: daily
// klines from Binance, the Fear & Greed index from alternative.me and
// cached news headlines from disk. It can also follow the live kline
// stream and apply closed bars as they arrive.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"chronos-lab/internal/collector"
	"chronos-lab/internal/config"
	"chronos-lab/internal/domain"
	"chronos-lab/internal/observability"
	"chronos-lab/internal/storage"
	chstore "chronos-lab/internal/storage/clickhouse"
	"chronos-lab/internal/storage/memory"
	pgstore "chronos-lab/internal/storage/postgres"
)

func main() {
	cfg := config.DefaultConfig()

	// Parse flags (config resolves env vars and .env as defaults)
	mode := flag.String("mode", "all", "Collection mode: backfill, sentiment, news, stream, or all")
	symbol := flag.String("symbol", cfg.Symbol, "Trading pair symbol")
	startDate := flag.String("start", cfg.StartDate, "Backfill start date (YYYY-MM-DD)")
	endDate := flag.String("end", cfg.EndDate, "Backfill end date (YYYY-MM-DD)")
	leadDays := flag.Int("lead-days", 250, "Extra days fetched before start for indicator warmup")
	newsDir := flag.String("news-dir", filepath.Join(cfg.DataDir, "chronos_news"), "Directory holding monthly news cache files")
	binanceURL := flag.String("binance-url", cfg.BinanceBaseURL, "Binance REST base URL")
	fngURL := flag.String("fng-url", cfg.FearGreedBaseURL, "Fear & Greed API base URL")
	wsEndpoint := flag.String("ws-endpoint", collector.DefaultStreamEndpoint, "Binance WebSocket stream endpoint")
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.ClickhouseDSN, "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", cfg.UseMemory, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	metricsAddr := flag.String("metrics-addr", cfg.MetricsAddr, "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[collect] ", log.LstdFlags|log.Lshortfile)

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

	// Stream mode dials the WebSocket up front; the other modes only
	// need the REST clients.
	var streamClient *collector.StreamClient
	if *mode == "stream" {
		streamClient, err = collector.NewStreamClient(ctx, *wsEndpoint, nil)
		if err != nil {
			logger.Fatalf("Failed to connect stream: %v", err)
		}
		defer streamClient.Close()
	}

	runner := collector.NewRunner(collector.Options{
		Binance:   collector.NewBinanceClient(collector.BinanceOptions{BaseURL: *binanceURL}),
		FearGreed: collector.NewFearGreedClient(collector.FearGreedOptions{BaseURL: *fngURL}),
		Stream:    streamClient,
		Bars:      stores.bars,
		Sentiment: stores.sentiment,
		Headlines: stores.headlines,
		Logger:    logger,
	})

	// Run based on mode
	switch *mode {
	case "backfill":
		err = runBackfill(ctx, logger, runner, *symbol, *startDate, *endDate, *leadDays)
	case "sentiment":
		_, err = runner.SyncFearGreed(ctx)
	case "news":
		_, err = runner.ImportHeadlines(ctx, *newsDir)
	case "stream":
		logger.Printf("Following live %s klines on %s", *symbol, *wsEndpoint)
		err = runner.Stream(ctx, *symbol)
	case "all":
		err = runAll(ctx, logger, runner, *symbol, *startDate, *endDate, *leadDays, *newsDir)
	default:
		logger.Fatalf("Unknown mode: %s", *mode)
	}

	if err == nil && *mode != "stream" {
		observability.UpdateLastSuccessfulSync(time.Now().Unix())
	}

	// Signal completion to shutdown handler
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// stores holds the storage implementations the collector writes into.
type stores struct {
	bars      storage.BarStore
	sentiment storage.SentimentStore
	headlines storage.HeadlineStore
}

// createStores creates all required stores. Database mode applies the
// embedded migrations before returning, so a fresh database works without
// manual schema setup.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*stores, func(), error) {
	if useMemory {
		s := &stores{
			bars:      memory.NewBarStore(),
			sentiment: memory.NewSentimentStore(),
			headlines: memory.NewHeadlineStore(),
		}
		return s, func() {}, nil
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

	s := &stores{
		bars:      chstore.NewBarStore(chConn),
		sentiment: pgstore.NewSentimentStore(pool),
		headlines: pgstore.NewHeadlineStore(pool),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return s, cleanup, nil
}

// runBackfill fetches daily klines for the simulation window plus the
// warmup lead the technical indicators need before the first decision.
func runBackfill(ctx context.Context, logger *log.Logger, runner *collector.Runner, symbol, startDate, endDate string, leadDays int) error {
	start, err := time.Parse(domain.DateFormat, startDate)
	if err != nil {
		return fmt.Errorf("parse start date: %w", err)
	}

	fetchStart := start.AddDate(0, 0, -leadDays).Format(domain.DateFormat)
	logger.Printf("Backfilling %s klines %s to %s (%d lead days for indicator warmup)",
		symbol, fetchStart, endDate, leadDays)

	_, err = runner.Backfill(ctx, symbol, fetchStart, endDate)
	return err
}

// runAll runs the full collection pass: klines, sentiment, then news.
// A missing news cache directory is skipped rather than treated as an
// error, since headlines are optional context.
func runAll(ctx context.Context, logger *log.Logger, runner *collector.Runner, symbol, startDate, endDate string, leadDays int, newsDir string) error {
	if err := runBackfill(ctx, logger, runner, symbol, startDate, endDate, leadDays); err != nil {
		return err
	}

	if _, err := runner.SyncFearGreed(ctx); err != nil {
		return err
	}

	if _, err := os.Stat(newsDir); err != nil {
		logger.Printf("News cache dir %s not found, skipping headline import", newsDir)
		return nil
	}
	_, err := runner.ImportHeadlines(ctx, newsDir)
	return err
}
