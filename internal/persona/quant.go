package persona

import (
	"context"
	"fmt"
	"strings"

	"chronos-lab/internal/domain"
)

var quantConfig = domain.PersonaConfig{
	ID:            "quant",
	Name:          "Quant",
	NameZh:        "量化派",
	Emoji:         "📊",
	Style:         "Data driven, emotionally flat",
	Philosophy:    "Markets can be modeled. Sentiment is noise; only the data is true.",
	RiskTolerance: "medium",
	UseNews:       false,
	UseTechnical:  true,
	UseFearGreed:  false,

	MaxPositionPct: 80,
	MinTradePct:    10,
}

// Quant is the systematic persona. It trades a fixed signal-counting
// system over RSI, MACD, Bollinger bands and MA50, and ignores news and
// sentiment completely. Position size scales with signal count.
type Quant struct {
	caller
}

// NewQuant creates the quant persona.
func NewQuant(opts Options) *Quant {
	return &Quant{caller: newCaller(opts)}
}

// Config returns the persona configuration.
func (q *Quant) Config() domain.PersonaConfig { return quantConfig }

// SystemPrompt renders the quant system prompt for the simulated date.
func (q *Quant) SystemPrompt(date string) string {
	return fmt.Sprintf(`You are a purely systematic bitcoin trader known as "Quant".

## Time anchor
Today is %s. You know nothing about tomorrow or any later date.
Base every decision only on information from today or earlier.

## Investment philosophy
1. Data is everything: trust only indicators and models.
2. Sentiment is noise: news, opinion and fear/greed indexes are distractions.
3. Execute with discipline: when the system signals, act without hesitation.
4. Manage risk with fixed-fraction position sizing.

## Voice
Flat and analytical. You quote indicator values, avoid emotional
language, and are indifferent to market drama.

## Trading system
Buy signals (more signals, larger size):
- RSI < 30 (oversold)
- MACD bullish cross
- Price below the lower Bollinger band
- Price breaking above MA50

Sell signals:
- RSI > 70 (overbought)
- MACD bearish cross
- Price above the upper Bollinger band
- Price breaking below MA50

Position sizing:
- 1 signal = 15%% of the relevant balance
- 2 signals = 25%%
- 3 or more = 40%%

Reply with the JSON decision only.`, date)
}

// RenderPrompt renders the decision request from the permitted context
// sections (technical indicators only).
func (q *Quant) RenderPrompt(mctx domain.MarketContext) string {
	return renderPrompt(quantConfig, mctx)
}

// RuleDecision is the deterministic quant policy: count buy and sell
// signals across the four indicator families, then size by the ladder.
// The MA50 distance check contributes half a vote.
func (q *Quant) RuleDecision(mctx domain.MarketContext) domain.TradeDecision {
	var buySignals, sellSignals float64
	var reasons []string

	if t := mctx.Technical; t != nil {
		if t.RSI < 30 {
			buySignals++
			reasons = append(reasons, fmt.Sprintf("RSI=%.1f oversold", t.RSI))
		} else if t.RSI > 70 {
			sellSignals++
			reasons = append(reasons, fmt.Sprintf("RSI=%.1f overbought", t.RSI))
		}

		switch t.MACDTrend {
		case domain.MACDBullish, domain.MACDStrongBullish:
			buySignals++
			reasons = append(reasons, "MACD bullish")
		case domain.MACDBearish, domain.MACDStrongBearish:
			sellSignals++
			reasons = append(reasons, "MACD bearish")
		}

		switch t.BBPosition {
		case domain.BBBelowLower:
			buySignals++
			reasons = append(reasons, "price below lower band")
		case domain.BBAboveUpper:
			sellSignals++
			reasons = append(reasons, "price above upper band")
		}

		if t.SMA50 > 0 {
			if mctx.Price > t.SMA50*1.02 {
				buySignals += 0.5
			} else if mctx.Price < t.SMA50*0.98 {
				sellSignals += 0.5
			}
		}
	}

	if len(reasons) > 3 {
		reasons = reasons[:3]
	}

	switch {
	case buySignals >= sellSignals && buySignals >= 1 && mctx.USDBalance > 100:
		pct, conf := quantLadder(buySignals)
		return domain.TradeDecision{
			Action:     domain.ActionBuy,
			AmountPct:  pct,
			Reason:     "Buy signals: " + strings.Join(reasons, "; "),
			Confidence: conf,
		}
	case sellSignals > buySignals && sellSignals >= 1 && mctx.BTCQuantity > 0:
		pct, conf := quantLadder(sellSignals)
		return domain.TradeDecision{
			Action:     domain.ActionSell,
			AmountPct:  pct,
			Reason:     "Sell signals: " + strings.Join(reasons, "; "),
			Confidence: conf,
		}
	}

	reason := "No clear signal, holding position"
	if mctx.Technical != nil {
		reason += fmt.Sprintf(" (RSI=%.1f)", mctx.Technical.RSI)
	}
	return domain.TradeDecision{
		Action:     domain.ActionHold,
		Reason:     reason,
		Confidence: 50,
	}
}

// quantLadder maps a signal count to position size and confidence.
func quantLadder(signals float64) (amountPct, confidence float64) {
	switch {
	case signals >= 3:
		return 40, 85
	case signals >= 2:
		return 25, 75
	default:
		return 15, 65
	}
}

// Decide runs the bounded AI path with rule fallback.
func (q *Quant) Decide(ctx context.Context, mctx domain.MarketContext) DecideResult {
	return q.decide(ctx, q, mctx)
}

// Ensure Quant implements Policy
var _ Policy = (*Quant)(nil)
