package simulation

import (
	"context"
	"errors"
	"log"

	"chronos-lab/internal/domain"
	"chronos-lab/internal/portfolio"
	"chronos-lab/internal/storage"
)

// maxHeadlines bounds how many titles reach a persona's prompt per day.
const maxHeadlines = 5

// SentimentSource yields the Fear & Greed reading for a date.
type SentimentSource interface {
	GetByDate(ctx context.Context, date string) (*domain.SentimentReading, error)
}

// NewsSource yields the cached headlines for a date.
type NewsSource interface {
	GetByDate(ctx context.Context, date string) ([]*domain.Headline, error)
}

// BuildInput carries the per-date market state shared by all personas.
// The technical snapshot is computed once per date by the orchestrator
// and attached here, never recomputed per persona.
type BuildInput struct {
	Date      string
	Bar       *domain.Bar
	Technical *domain.TechnicalSnapshot
}

// ContextBuilder assembles the market view one persona sees on one date.
// Lookups a persona's flags do not permit are skipped entirely. A failed
// optional lookup degrades to a missing section: only the price path can
// fail a run, and that is the orchestrator's job.
type ContextBuilder struct {
	sentiment SentimentSource
	news      NewsSource
	logger    *log.Logger
}

// NewContextBuilder creates a context builder. Nil sources disable their
// sections.
func NewContextBuilder(sentiment SentimentSource, news NewsSource, logger *log.Logger) *ContextBuilder {
	if logger == nil {
		logger = log.Default()
	}
	return &ContextBuilder{
		sentiment: sentiment,
		news:      news,
		logger:    logger,
	}
}

// Build assembles the market context for one persona on one date.
func (b *ContextBuilder) Build(ctx context.Context, in BuildInput, cfg domain.PersonaConfig, pf *portfolio.Portfolio) domain.MarketContext {
	price := in.Bar.Close

	mctx := domain.MarketContext{
		Date:      in.Date,
		Price:     price,
		ChangePct: in.Bar.ChangePct(),

		PortfolioValue: pf.TotalValue(price),
		USDBalance:     pf.CashBalance(),
		BTCQuantity:    pf.Quantity(),
		ReturnPct:      pf.ReturnPct(price),
	}

	if cfg.UseTechnical {
		mctx.Technical = in.Technical
	}

	if cfg.UseFearGreed && b.sentiment != nil {
		reading, err := b.sentiment.GetByDate(ctx, in.Date)
		switch {
		case err == nil:
			mctx.FearGreed = reading
		case errors.Is(err, storage.ErrNotFound):
			// no reading for this date, the section stays empty
		default:
			b.logger.Printf("%s: sentiment lookup failed on %s (%v), continuing without it",
				cfg.ID, in.Date, err)
		}
	}

	if cfg.UseNews && b.news != nil {
		headlines, err := b.news.GetByDate(ctx, in.Date)
		if err != nil {
			b.logger.Printf("%s: news lookup failed on %s (%v), continuing without it",
				cfg.ID, in.Date, err)
		} else {
			if len(headlines) > maxHeadlines {
				headlines = headlines[:maxHeadlines]
			}
			for _, h := range headlines {
				mctx.Headlines = append(mctx.Headlines, h.Title)
			}
		}
	}

	return mctx
}
