package persona

import (
	"context"
	"fmt"

	"chronos-lab/internal/domain"
)

var guardianConfig = domain.PersonaConfig{
	ID:            "guardian",
	Name:          "Guardian",
	NameZh:        "保守派",
	Emoji:         "🛡️",
	Style:         "Extremely conservative, capital preservation first",
	Philosophy:    "Better to miss a rally than to lose principal. Enter in tranches only when the market is in extreme panic.",
	RiskTolerance: "low",
	UseNews:       false,
	UseTechnical:  true,
	UseFearGreed:  true,

	MaxPositionPct: 50,
	MinTradePct:    10,
}

// Guardian is the conservative persona. It ignores news to avoid FOMO,
// buys only in extreme fear below the 200-day average, takes profit in
// extreme greed, and cuts the position on a 15% drawdown.
type Guardian struct {
	caller
}

// NewGuardian creates the guardian persona.
func NewGuardian(opts Options) *Guardian {
	return &Guardian{caller: newCaller(opts)}
}

// Config returns the persona configuration.
func (g *Guardian) Config() domain.PersonaConfig { return guardianConfig }

// SystemPrompt renders the guardian system prompt for the simulated date.
func (g *Guardian) SystemPrompt(date string) string {
	return fmt.Sprintf(`You are an extremely conservative bitcoin investor known as "Guardian".

## Time anchor
Today is %s. You know nothing about tomorrow or any later date.
Base every decision only on information from today or earlier.

## Investment philosophy
1. Capital preservation above all: missing upside is acceptable, losing principal is not.
2. Enter only in extreme panic: consider buying when Fear & Greed is below 25.
3. Scale in: commit only 10-30%% of available cash per trade.
4. Strict stop loss: consider reducing the position when down more than 15%%.
5. Be patient: on most days the right move is to wait.

## Voice
Measured and cautious. You frequently point out risk and worry about
aggressive trades. You care about preserving value over years, not
winning weeks.

## Decision rules
- Fear & Greed < 20 and price below MA200: scale in with 20-30%%.
- Fear & Greed < 25 and price below MA200: small buy of 10-20%%.
- Fear & Greed > 75: take partial profit.
- Anything else: HOLD and observe.

Reply with the JSON decision only.`, date)
}

// RenderPrompt renders the decision request from the permitted context
// sections (technical and sentiment, never news).
func (g *Guardian) RenderPrompt(mctx domain.MarketContext) string {
	return renderPrompt(guardianConfig, mctx)
}

// RuleDecision is the deterministic guardian policy.
func (g *Guardian) RuleDecision(mctx domain.MarketContext) domain.TradeDecision {
	fg := 50
	if mctx.FearGreed != nil {
		fg = mctx.FearGreed.Value
	}

	belowMA200 := mctx.Technical != nil && mctx.Technical.SMA200 > 0 && mctx.Price < mctx.Technical.SMA200

	switch {
	case fg < 20 && belowMA200 && mctx.USDBalance > 100:
		return domain.TradeDecision{
			Action:     domain.ActionBuy,
			AmountPct:  25,
			Reason:     fmt.Sprintf("Extreme fear (FG=%d) with price below MA200, scaling in", fg),
			Confidence: 75,
		}
	case fg < 25 && belowMA200 && mctx.USDBalance > 100:
		return domain.TradeDecision{
			Action:     domain.ActionBuy,
			AmountPct:  15,
			Reason:     fmt.Sprintf("Fearful market (FG=%d), small probing buy", fg),
			Confidence: 65,
		}
	case fg > 80 && mctx.BTCQuantity > 0:
		return domain.TradeDecision{
			Action:     domain.ActionSell,
			AmountPct:  30,
			Reason:     fmt.Sprintf("Extreme greed (FG=%d), taking partial profit", fg),
			Confidence: 70,
		}
	case fg > 75 && mctx.BTCQuantity > 0:
		return domain.TradeDecision{
			Action:     domain.ActionSell,
			AmountPct:  20,
			Reason:     fmt.Sprintf("Market overheated (FG=%d), trimming exposure", fg),
			Confidence: 65,
		}
	case mctx.ReturnPct < -15 && mctx.BTCQuantity > 0:
		return domain.TradeDecision{
			Action:     domain.ActionSell,
			AmountPct:  50,
			Reason:     fmt.Sprintf("Stop loss triggered (down %.1f%%), protecting capital", mctx.ReturnPct),
			Confidence: 80,
		}
	}

	return domain.TradeDecision{
		Action:     domain.ActionHold,
		Reason:     "Conditions unclear, staying on the sidelines",
		Confidence: 60,
	}
}

// Decide runs the bounded AI path with rule fallback.
func (g *Guardian) Decide(ctx context.Context, mctx domain.MarketContext) DecideResult {
	return g.decide(ctx, g, mctx)
}

// Ensure Guardian implements Policy
var _ Policy = (*Guardian)(nil)
