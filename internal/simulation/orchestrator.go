// Package simulation replays a historical date range day by day and lets
// each persona trade its own portfolio against the recorded market.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"chronos-lab/internal/decision"
	"chronos-lab/internal/domain"
	"chronos-lab/internal/execution"
	"chronos-lab/internal/indicator"
	"chronos-lab/internal/metrics"
	"chronos-lab/internal/observability"
	"chronos-lab/internal/persona"
	"chronos-lab/internal/portfolio"
	"chronos-lab/internal/storage"
)

// historyWindow is how many trailing bars feed the indicator engine per
// date. 250 covers the 200-day moving average with margin.
const historyWindow = 250

// Orchestrator errors
var (
	ErrNoPersonas   = errors.New("no personas configured")
	ErrNoBarSource  = errors.New("no bar source configured")
	ErrInvalidRange = errors.New("end date before start date")
)

// BarSource yields daily klines for the simulated symbol.
type BarSource interface {
	// GetByDate retrieves the bar for a date. Returns storage.ErrNotFound
	// if the date has no bar.
	GetByDate(ctx context.Context, symbol, date string) (*domain.Bar, error)

	// GetHistory retrieves up to limit bars ending at endDate inclusive,
	// ordered by date ASC.
	GetHistory(ctx context.Context, symbol, endDate string, limit int) ([]*domain.Bar, error)
}

// Options contains configuration for creating an Orchestrator.
type Options struct {
	Personas  []persona.Policy
	Bars      BarSource
	Sentiment SentimentSource
	News      NewsSource

	// Runs, when set, records the run header before the first day and
	// finishes it after the last. Bulk persistence of trades, snapshots
	// and aggregates is the caller's concern.
	Runs storage.RunStore

	Symbol         string
	InitialCapital float64
	Mode           string
	Verbose        bool
	Logger         *log.Logger
}

// RunResult bundles everything one simulation produced.
type RunResult struct {
	Run          *domain.SimulationRun
	DailyResults []*domain.DailyResult
	Portfolios   map[string]*portfolio.Portfolio

	// Summary holds the per-persona aggregates ranked by final return,
	// best first.
	Summary []*domain.PersonaAggregate
}

// Orchestrator replays a date range against stored market data. Each
// persona owns one portfolio for the lifetime of the run and decides in
// declaration order, so identical inputs replay to identical results.
type Orchestrator struct {
	personas []persona.Policy
	bars     BarSource
	builder  *ContextBuilder
	runs     storage.RunStore

	parser     *decision.Parser
	executor   *execution.Executor
	indicators *indicator.Engine

	symbol         string
	initialCapital float64
	mode           string
	verbose        bool
	logger         *log.Logger
}

// NewOrchestrator creates an orchestrator. Zero-value options fall back
// to BTCUSDT, 10000 initial capital and rule-only mode.
func NewOrchestrator(opts Options) *Orchestrator {
	if opts.Symbol == "" {
		opts.Symbol = "BTCUSDT"
	}
	if opts.InitialCapital <= 0 {
		opts.InitialCapital = 10000
	}
	if opts.Mode == "" {
		opts.Mode = domain.ModeRule
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	return &Orchestrator{
		personas:       opts.Personas,
		bars:           opts.Bars,
		builder:        NewContextBuilder(opts.Sentiment, opts.News, opts.Logger),
		runs:           opts.Runs,
		parser:         decision.NewParser(),
		executor:       execution.NewExecutor(),
		indicators:     indicator.NewEngine(),
		symbol:         opts.Symbol,
		initialCapital: opts.InitialCapital,
		mode:           opts.Mode,
		verbose:        opts.Verbose,
		logger:         opts.Logger,
	}
}

// Run replays [startDate, endDate] inclusive.
// Steps per date:
//  1. Skip the date if no bar exists, counting a data gap
//  2. Compute the day's technical snapshot from trailing history
//  3. For each persona in declaration order: build context, decide,
//     parse, execute, take a snapshot
//  4. Append the day's DailyResult
//
// After the last day the personas are ranked against a buy-and-hold
// baseline over the same window. A failing bar source aborts the run;
// cancelling ctx returns the partial result together with ctx.Err().
func (o *Orchestrator) Run(ctx context.Context, startDate, endDate string) (*RunResult, error) {
	if len(o.personas) == 0 {
		return nil, ErrNoPersonas
	}
	if o.bars == nil {
		return nil, ErrNoBarSource
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
		return nil, ErrInvalidRange
	}

	run := &domain.SimulationRun{
		RunID:          uuid.NewString(),
		Symbol:         o.symbol,
		StartDate:      startDate,
		EndDate:        endDate,
		InitialCapital: o.initialCapital,
		Mode:           o.mode,
		CreatedAt:      time.Now().UnixMilli(),
	}

	if o.runs != nil {
		if err := o.runs.Insert(ctx, run); err != nil {
			return nil, fmt.Errorf("insert run: %w", err)
		}
	}

	portfolios := make(map[string]*portfolio.Portfolio, len(o.personas))
	ordered := make([]*portfolio.Portfolio, 0, len(o.personas))
	for _, p := range o.personas {
		pf := portfolio.New(p.Config().ID, o.symbol, o.initialCapital)
		portfolios[p.Config().ID] = pf
		ordered = append(ordered, pf)
	}

	result := &RunResult{Run: run, Portfolios: portfolios}

	var firstClose, lastClose float64

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			result.Summary = o.summarize(run.RunID, ordered, firstClose, lastClose)
			return result, err
		}

		date := d.Format(domain.DateFormat)

		// 1. Skip dates with no bar
		bar, err := o.bars.GetByDate(ctx, o.symbol, date)
		if errors.Is(err, storage.ErrNotFound) {
			o.logger.Printf("no bar for %s, skipping", date)
			run.Stats.DataGaps++
			observability.RecordDataGap()
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load bar for %s: %w", date, err)
		}

		if firstClose == 0 {
			firstClose = bar.Close
		}
		lastClose = bar.Close

		// 2. One technical snapshot per date, shared by all personas
		history, err := o.bars.GetHistory(ctx, o.symbol, date, historyWindow)
		if err != nil {
			return nil, fmt.Errorf("load history for %s: %w", date, err)
		}
		in := BuildInput{Date: date, Bar: bar, Technical: o.indicators.Compute(history)}

		day := &domain.DailyResult{
			Date:            date,
			BTCPrice:        bar.Close,
			BTCChangePct:    bar.ChangePct(),
			Decisions:       make(map[string]domain.TradeDecision, len(o.personas)),
			PortfolioValues: make(map[string]float64, len(o.personas)),
		}

		// 3. Each persona decides and trades in declaration order
		for _, p := range o.personas {
			id := p.Config().ID
			pf := portfolios[id]

			mctx := o.builder.Build(ctx, in, p.Config(), pf)
			res := p.Decide(ctx, mctx)
			o.countDecision(&run.Stats, id, res)

			dec := o.parser.Parse(res.RawText)
			action := o.executor.Execute(dec, pf, date, bar.Close)
			pf.TakeSnapshot(date, bar.Close)
			observability.RecordTrade(id, string(action))

			day.Decisions[id] = dec
			day.PortfolioValues[id] = pf.TotalValue(bar.Close)
		}

		// 4. Record the day
		result.DailyResults = append(result.DailyResults, day)
		run.Stats.DaysSimulated++
		observability.RecordDaySimulated()

		if o.verbose {
			o.logger.Printf("%s: close=%.2f change=%+.2f%%", date, bar.Close, bar.ChangePct())
		}
	}

	result.Summary = o.summarize(run.RunID, ordered, firstClose, lastClose)

	run.FinishedAt = time.Now().UnixMilli()
	if o.runs != nil {
		if err := o.runs.Finish(ctx, run.RunID, run.FinishedAt, run.Stats); err != nil {
			return nil, fmt.Errorf("finish run: %w", err)
		}
	}

	o.logger.Printf("run %s finished: days=%d gaps=%d ai=%d rule=%d",
		run.RunID, run.Stats.DaysSimulated, run.Stats.DataGaps,
		run.Stats.AIDecisions, run.Stats.RuleDecisions)

	return result, nil
}

// countDecision attributes one decision to the run statistics.
func (o *Orchestrator) countDecision(stats *domain.RunStats, id string, res persona.DecideResult) {
	observability.RecordDecision(id, res.Source)

	if res.Source == persona.SourceAI {
		stats.AIDecisions++
		return
	}

	stats.RuleDecisions++
	switch res.Fallback {
	case persona.FallbackTimeout:
		stats.TimeoutFallbacks++
		observability.RecordFallback(id, res.Fallback)
	case persona.FallbackError:
		stats.ErrorFallbacks++
		observability.RecordFallback(id, res.Fallback)
	}
}

// summarize ranks the portfolios against buy-and-hold over the window.
func (o *Orchestrator) summarize(runID string, portfolios []*portfolio.Portfolio, firstClose, lastClose float64) []*domain.PersonaAggregate {
	baseline := 0.0
	if firstClose > 0 {
		baseline = (lastClose - firstClose) / firstClose * 100
	}
	return metrics.BuildAggregates(runID, portfolios, baseline)
}
