package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"chronos-lab/internal/domain"
	"chronos-lab/internal/observability"
	"chronos-lab/internal/storage"
)

const millisPerDay = int64(24 * time.Hour / time.Millisecond)

// Options contains the clients and stores a Runner operates on. Each
// operation requires only its own client and store; the rest may be nil.
type Options struct {
	Binance   *BinanceClient
	FearGreed *FearGreedClient
	Stream    *StreamClient

	Bars      storage.BarStore
	Sentiment storage.SentimentStore
	Headlines storage.HeadlineStore

	Logger *log.Logger
}

// Runner drives the collection operations end to end: fetch from a
// source, load into the matching date-keyed store.
type Runner struct {
	binance   *BinanceClient
	fearGreed *FearGreedClient
	stream    *StreamClient

	bars      storage.BarStore
	sentiment storage.SentimentStore
	headlines storage.HeadlineStore

	logger *log.Logger
}

// NewRunner creates a collection runner.
func NewRunner(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Runner{
		binance:   opts.Binance,
		fearGreed: opts.FearGreed,
		stream:    opts.Stream,
		bars:      opts.Bars,
		sentiment: opts.Sentiment,
		headlines: opts.Headlines,
		logger:    logger,
	}
}

// BackfillResult contains statistics from a backfill operation.
type BackfillResult struct {
	BarsFetched int
	Pages       int
	Duration    time.Duration
}

// Backfill fetches daily klines for [startDate, endDate] in 1000-bar
// pages and upserts them. Re-running over an overlapping range is safe:
// writes are idempotent by (symbol, date).
func (r *Runner) Backfill(ctx context.Context, symbol, startDate, endDate string) (*BackfillResult, error) {
	if r.binance == nil || r.bars == nil {
		return nil, errors.New("backfill requires a binance client and a bar store")
	}

	start, err := time.Parse(domain.DateFormat, startDate)
	if err != nil {
		return nil, fmt.Errorf("parse start date: %w", err)
	}
	end, err := time.Parse(domain.DateFormat, endDate)
	if err != nil {
		return nil, fmt.Errorf("parse end date: %w", err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s before start date %s", endDate, startDate)
	}

	began := time.Now()
	result := &BackfillResult{}

	r.logger.Printf("Starting kline backfill for %s from %s to %s", symbol, startDate, endDate)

	// endTime filters on kline open time, so the end date's own kline
	// needs the end of that day included.
	currentMs := start.UnixMilli()
	endMs := end.UnixMilli() + millisPerDay - 1

	for currentMs < endMs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		bars, err := r.binance.GetKlines(ctx, symbol, "1d", currentMs, endMs, maxKlineLimit)
		if err != nil {
			observability.RecordCollectorError("binance", "fetch")
			return result, fmt.Errorf("fetch klines page %d: %w", result.Pages+1, err)
		}
		if len(bars) == 0 {
			break
		}

		if err := r.bars.UpsertBulk(ctx, bars); err != nil {
			observability.RecordCollectorError("binance", "store")
			return result, fmt.Errorf("store klines page %d: %w", result.Pages+1, err)
		}

		result.BarsFetched += len(bars)
		result.Pages++
		observability.RecordBarsFetched(len(bars))

		currentMs = bars[len(bars)-1].OpenTimeMs + millisPerDay

		if len(bars) < maxKlineLimit {
			break
		}
	}

	result.Duration = time.Since(began)
	r.logger.Printf("Backfill complete: %d bars in %d pages in %v",
		result.BarsFetched, result.Pages, result.Duration)

	return result, nil
}

// SyncFearGreed fetches the full Fear & Greed history and upserts it.
// Returns the number of readings stored.
func (r *Runner) SyncFearGreed(ctx context.Context) (int, error) {
	if r.fearGreed == nil || r.sentiment == nil {
		return 0, errors.New("fear & greed sync requires a client and a sentiment store")
	}

	r.logger.Println("Syncing Fear & Greed index history...")

	readings, err := r.fearGreed.GetAll(ctx)
	if err != nil {
		observability.RecordCollectorError("feargreed", "fetch")
		return 0, err
	}

	if err := r.sentiment.UpsertBulk(ctx, readings); err != nil {
		observability.RecordCollectorError("feargreed", "store")
		return 0, fmt.Errorf("store sentiment readings: %w", err)
	}

	observability.RecordSentimentFetched(len(readings))
	r.logger.Printf("Fear & Greed sync complete: %d readings", len(readings))

	return len(readings), nil
}

// ImportHeadlines loads the monthly news cache files under dir into the
// headline store, replacing each date's headlines wholesale. Returns the
// number of headlines imported.
func (r *Runner) ImportHeadlines(ctx context.Context, dir string) (int, error) {
	if r.headlines == nil {
		return 0, errors.New("headline import requires a headline store")
	}

	byDate, err := LoadHeadlineCache(dir)
	if err != nil {
		observability.RecordCollectorError("headlines", "parse")
		return 0, err
	}

	total := 0
	for _, date := range sortedDates(byDate) {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		items := byDate[date]
		if err := r.headlines.ReplaceDate(ctx, date, items); err != nil {
			observability.RecordCollectorError("headlines", "store")
			return total, fmt.Errorf("store headlines for %s: %w", date, err)
		}
		total += len(items)
	}

	observability.RecordHeadlinesImported(total)
	r.logger.Printf("Headline import complete: %d headlines across %d dates", total, len(byDate))

	return total, nil
}

// Stream subscribes to the daily kline stream for symbol and applies
// each closed kline to the bar store as it arrives. Blocks until the
// context is cancelled or the stream channel closes.
func (r *Runner) Stream(ctx context.Context, symbol string) error {
	if r.stream == nil || r.bars == nil {
		return errors.New("streaming requires a stream client and a bar store")
	}

	ch, err := r.stream.SubscribeKlines(ctx, symbol, "1d")
	if err != nil {
		return fmt.Errorf("subscribe klines: %w", err)
	}

	r.logger.Printf("Streaming closed daily klines for %s", symbol)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case bar, ok := <-ch:
			if !ok {
				return nil
			}
			if err := r.bars.Upsert(ctx, bar); err != nil {
				observability.RecordCollectorError("stream", "store")
				r.logger.Printf("Failed to store streamed bar for %s: %v", bar.Date, err)
				continue
			}
			observability.RecordBarsFetched(1)
			r.logger.Printf("Stored closed kline %s close=%.2f", bar.Date, bar.Close)
		}
	}
}
