package persona

import (
	"fmt"
	"strings"

	"chronos-lab/internal/domain"
)

// maxPromptHeadlines caps the news section so prompts stay short.
const maxPromptHeadlines = 5

const promptInstructions = `
## Decision

Based on the information above, make today's trading decision.

Reply with JSON only:

{
    "action": "BUY" | "SELL" | "HOLD",
    "amount_pct": 0-100,
    "reason": "short explanation",
    "confidence": 0-100
}

amount_pct is a percent of available USD for BUY and a percent of held
BTC for SELL.`

// renderPrompt builds the decision request prompt. Sections gated by
// config flags are omitted entirely for personas that do not use them,
// so a policy cannot leak information it is not allowed to see.
func renderPrompt(cfg domain.PersonaConfig, mctx domain.MarketContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Market\n\n")
	fmt.Fprintf(&b, "Date: %s\n", mctx.Date)
	fmt.Fprintf(&b, "BTC price: $%.2f\n", mctx.Price)
	fmt.Fprintf(&b, "Daily change: %+.2f%%\n", mctx.ChangePct)

	if cfg.UseTechnical && mctx.Technical != nil {
		t := mctx.Technical
		fmt.Fprintf(&b, "\n## Technical indicators\n\n")
		fmt.Fprintf(&b, "- RSI(14): %.1f (%s)\n", t.RSI, t.RSISignal)
		fmt.Fprintf(&b, "- MACD trend: %s\n", t.MACDTrend)
		fmt.Fprintf(&b, "- MA50: $%.2f\n", t.SMA50)
		fmt.Fprintf(&b, "- MA200: $%.2f\n", t.SMA200)
		fmt.Fprintf(&b, "- Bollinger position: %s\n", t.BBPosition)
		fmt.Fprintf(&b, "- Overall signal: %s\n", t.Overall)
	}

	if cfg.UseFearGreed && mctx.FearGreed != nil {
		fmt.Fprintf(&b, "\n## Market sentiment\n\n")
		fmt.Fprintf(&b, "- Fear & Greed Index: %d (%s)\n", mctx.FearGreed.Value, mctx.FearGreed.Label)
	}

	if cfg.UseNews && len(mctx.Headlines) > 0 {
		fmt.Fprintf(&b, "\n## Today's headlines\n\n")
		headlines := mctx.Headlines
		if len(headlines) > maxPromptHeadlines {
			headlines = headlines[:maxPromptHeadlines]
		}
		for _, h := range headlines {
			fmt.Fprintf(&b, "- %s\n", h)
		}
	}

	fmt.Fprintf(&b, "\n## Your portfolio\n\n")
	fmt.Fprintf(&b, "- Total value: $%.2f\n", mctx.PortfolioValue)
	fmt.Fprintf(&b, "- USD balance: $%.2f\n", mctx.USDBalance)
	fmt.Fprintf(&b, "- BTC held: %.6f BTC\n", mctx.BTCQuantity)
	fmt.Fprintf(&b, "- Cumulative return: %+.2f%%\n", mctx.ReturnPct)

	b.WriteString(promptInstructions)

	return b.String()
}
