package persona

import (
	"context"
	"fmt"

	"chronos-lab/internal/domain"
)

var degenConfig = domain.PersonaConfig{
	ID:            "degen",
	Name:          "Degen",
	NameZh:        "激進派",
	Emoji:         "🚀",
	Style:         "Bold momentum chaser, YOLO mindset",
	Philosophy:    "Missing out is losing. When the trend is up or the news is hot, chase it.",
	RiskTolerance: "high",
	UseNews:       true,
	UseTechnical:  false,
	UseFearGreed:  true,

	MaxPositionPct: 100,
	MinTradePct:    20,
}

// degenBullishKeywords trigger the full-size momentum buy.
var degenBullishKeywords = []string{
	"surge", "rally", "bull", "etf", "adoption", "institutional",
}

// Degen is the aggressive persona. It chases pumps, buys dips, follows
// greedy sentiment, ignores technical indicators entirely, and never
// sets a stop loss. All buys require more than $100 of free cash.
type Degen struct {
	caller
}

// NewDegen creates the degen persona.
func NewDegen(opts Options) *Degen {
	return &Degen{caller: newCaller(opts)}
}

// Config returns the persona configuration.
func (d *Degen) Config() domain.PersonaConfig { return degenConfig }

// SystemPrompt renders the degen system prompt for the simulated date.
func (d *Degen) SystemPrompt(date string) string {
	return fmt.Sprintf(`You are an extremely aggressive bitcoin investor known as "Degen".

## Time anchor
Today is %s. You know nothing about tomorrow or any later date.
Base every decision only on information from today or earlier.

## Investment philosophy
1. YOLO: missing out is the real loss.
2. Chase momentum: buy strength, and treat dips as discounts.
3. News is signal: bullish headlines mean buy, whatever the price.
4. No stop losses: it always comes back.
5. Size up: every trade uses at least 20-50%% of available cash.

## Voice
Excited and bold. You use slang and memes (WAGMI, LFG, diamond hands),
mock the cautious for missing out, and shrug off short-term drops.

## Decision rules
- Bullish headlines: big buy of 30-50%%.
- Market up more than 3%%: chase with 20-40%%.
- Fear & Greed above 60: crowd is optimistic, add 20-30%%.
- Market down more than 5%%: "discount prices", buy the dip with 30-50%%.
- HOLD only when there is no signal at all.

Reply with the JSON decision only.`, date)
}

// RenderPrompt renders the decision request from the permitted context
// sections (news and sentiment, never technical indicators).
func (d *Degen) RenderPrompt(mctx domain.MarketContext) string {
	return renderPrompt(degenConfig, mctx)
}

// RuleDecision is the deterministic degen policy.
func (d *Degen) RuleDecision(mctx domain.MarketContext) domain.TradeDecision {
	fg := 50
	if mctx.FearGreed != nil {
		fg = mctx.FearGreed.Value
	}

	cash := mctx.USDBalance
	chg := mctx.ChangePct
	bullishNews := containsAny(joinedLower(mctx.Headlines), degenBullishKeywords)

	switch {
	case bullishNews && cash > 100:
		return domain.TradeDecision{
			Action:     domain.ActionBuy,
			AmountPct:  40,
			Reason:     "Bullish headlines, LFG",
			Confidence: 85,
		}
	case chg > 5 && cash > 100:
		return domain.TradeDecision{
			Action:     domain.ActionBuy,
			AmountPct:  35,
			Reason:     fmt.Sprintf("Up %.1f%% today, chasing the move", chg),
			Confidence: 80,
		}
	case chg > 3 && cash > 100:
		return domain.TradeDecision{
			Action:     domain.ActionBuy,
			AmountPct:  25,
			Reason:     fmt.Sprintf("Solid %.1f%% climb, can't miss this", chg),
			Confidence: 70,
		}
	case fg > 70 && cash > 100:
		return domain.TradeDecision{
			Action:     domain.ActionBuy,
			AmountPct:  30,
			Reason:     fmt.Sprintf("Market in full FOMO (FG=%d), following the crowd", fg),
			Confidence: 75,
		}
	case chg < -5 && cash > 100:
		return domain.TradeDecision{
			Action:     domain.ActionBuy,
			AmountPct:  40,
			Reason:     fmt.Sprintf("Down %.1f%%? Discount prices, diamond hands", -chg),
			Confidence: 85,
		}
	case chg < -3 && cash > 100:
		return domain.TradeDecision{
			Action:     domain.ActionBuy,
			AmountPct:  25,
			Reason:     fmt.Sprintf("Pullback of %.1f%%, good spot to add", -chg),
			Confidence: 70,
		}
	case cash > mctx.PortfolioValue*0.5 && cash > 100:
		return domain.TradeDecision{
			Action:     domain.ActionBuy,
			AmountPct:  20,
			Reason:     "Too much idle cash, putting it to work, WAGMI",
			Confidence: 60,
		}
	}

	return domain.TradeDecision{
		Action:     domain.ActionHold,
		Reason:     "Waiting for a clearer signal, WAGMI",
		Confidence: 50,
	}
}

// Decide runs the bounded AI path with rule fallback.
func (d *Degen) Decide(ctx context.Context, mctx domain.MarketContext) DecideResult {
	return d.decide(ctx, d, mctx)
}

// Ensure Degen implements Policy
var _ Policy = (*Degen)(nil)
