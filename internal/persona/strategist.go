package persona

import (
	"context"
	"fmt"

	"chronos-lab/internal/domain"
)

var strategistConfig = domain.PersonaConfig{
	ID:            "strategist",
	Name:          "Strategist",
	NameZh:        "宏觀派",
	Emoji:         "🌍",
	Style:         "Long-horizon thinking, fundamentals first",
	Philosophy:    "Short-term moves are noise. What matters is the macro trend and policy direction.",
	RiskTolerance: "medium",
	UseNews:       true,
	UseTechnical:  true,
	UseFearGreed:  true,

	MaxPositionPct: 70,
	MinTradePct:    10,
}

// strategistBullishKeywords mark supportive macro and regulatory news.
var strategistBullishKeywords = []string{
	"etf", "approval", "approved", "institutional", "adoption",
	"blackrock", "fidelity", "regulation", "legal", "positive",
	"fed", "rate cut", "rate pause", "dovish",
}

// strategistBearishKeywords mark hostile macro and regulatory news.
var strategistBearishKeywords = []string{
	"ban", "crackdown", "regulation", "sec", "lawsuit", "fraud",
	"hack", "bankruptcy", "collapse", "rate hike", "hawkish",
	"investigation", "criminal",
}

// Strategist is the macro persona. It counts supportive and hostile
// keywords in the day's headlines, reads the MA200 for the long-term
// trend, and takes contrarian positions at sentiment extremes.
type Strategist struct {
	caller
}

// NewStrategist creates the strategist persona.
func NewStrategist(opts Options) *Strategist {
	return &Strategist{caller: newCaller(opts)}
}

// Config returns the persona configuration.
func (s *Strategist) Config() domain.PersonaConfig { return strategistConfig }

// SystemPrompt renders the strategist system prompt for the simulated date.
func (s *Strategist) SystemPrompt(date string) string {
	return fmt.Sprintf(`You are a macro-focused bitcoin investor known as "Strategist".

## Time anchor
Today is %s. You know nothing about tomorrow or any later date.
Base every decision only on information from today or earlier.

## Investment philosophy
1. Macro decides everything: central bank policy, regulation, institutional adoption.
2. Ignore daily noise: a 5%% day means nothing, the trend means everything.
3. Position for months, not days.
4. Fundamentals are the real signal: ETF approvals, institutional buying, policy clarity.

## Voice
Calm and considered. You reference macro conditions and policy,
dismiss day-to-day volatility, and reason from the big picture.

## Decision rules
Supportive signals (build or add):
- ETF-related good news
- Institutional adoption or buying
- Regulatory clarity
- Price holding above MA200

Hostile signals (reduce):
- Regulatory crackdowns or bans
- Institutional selling
- Macro recession signs
- Price breaking below MA200

Principles:
- Act only on a clear macro signal.
- Size each move at 15-30%%.
- Stay patient and trade rarely.

Reply with the JSON decision only.`, date)
}

// RenderPrompt renders the decision request. The strategist is the only
// persona permitted to see all three optional sections.
func (s *Strategist) RenderPrompt(mctx domain.MarketContext) string {
	return renderPrompt(strategistConfig, mctx)
}

// RuleDecision is the deterministic strategist policy.
func (s *Strategist) RuleDecision(mctx domain.MarketContext) domain.TradeDecision {
	newsText := joinedLower(mctx.Headlines)
	bullish := countMatches(newsText, strategistBullishKeywords)
	bearish := countMatches(newsText, strategistBearishKeywords)

	var aboveMA200, belowMA200 bool
	if t := mctx.Technical; t != nil && t.SMA200 > 0 {
		aboveMA200 = mctx.Price > t.SMA200
		belowMA200 = mctx.Price < t.SMA200
	}

	fg := -1
	if mctx.FearGreed != nil {
		fg = mctx.FearGreed.Value
	}

	switch {
	case bullish >= 2 && mctx.USDBalance > 100:
		return domain.TradeDecision{
			Action:     domain.ActionBuy,
			AmountPct:  25,
			Reason:     "Macro tailwinds in the news, building the long-term position",
			Confidence: 75,
		}
	case bullish >= 1 && aboveMA200 && mctx.USDBalance > 100:
		return domain.TradeDecision{
			Action:     domain.ActionBuy,
			AmountPct:  20,
			Reason:     "Uptrend intact with supportive news, adding gradually",
			Confidence: 70,
		}
	case bearish >= 2 && mctx.BTCQuantity > 0:
		return domain.TradeDecision{
			Action:     domain.ActionSell,
			AmountPct:  30,
			Reason:     "Macro headwinds in the news, reducing exposure",
			Confidence: 75,
		}
	case bearish >= 1 && belowMA200 && mctx.BTCQuantity > 0:
		return domain.TradeDecision{
			Action:     domain.ActionSell,
			AmountPct:  20,
			Reason:     "Trend weakening with negative news, trimming the position",
			Confidence: 70,
		}
	case fg >= 0 && fg < 20:
		if mctx.USDBalance > 100 {
			return domain.TradeDecision{
				Action:     domain.ActionBuy,
				AmountPct:  15,
				Reason:     fmt.Sprintf("Extreme fear (FG=%d), contrarian long-term entry", fg),
				Confidence: 65,
			}
		}
	case fg > 85:
		if mctx.BTCQuantity > 0 {
			return domain.TradeDecision{
				Action:     domain.ActionSell,
				AmountPct:  15,
				Reason:     fmt.Sprintf("Extreme greed (FG=%d), modest profit taking", fg),
				Confidence: 65,
			}
		}
	default:
		reason := "Macro picture unclear, staying patient"
		if aboveMA200 {
			reason = "Price above MA200, long-term trend healthy, staying invested"
		} else if belowMA200 {
			reason = "Price below MA200, waiting for a better entry"
		}
		return domain.TradeDecision{
			Action:     domain.ActionHold,
			Reason:     reason,
			Confidence: 55,
		}
	}

	// A sentiment extreme was seen but the portfolio cannot act on it.
	return domain.TradeDecision{
		Action:     domain.ActionHold,
		Reason:     "Macro environment stable, holding the current allocation",
		Confidence: 55,
	}
}

// Decide runs the bounded AI path with rule fallback.
func (s *Strategist) Decide(ctx context.Context, mctx domain.MarketContext) DecideResult {
	return s.decide(ctx, s, mctx)
}

// Ensure Strategist implements Policy
var _ Policy = (*Strategist)(nil)
