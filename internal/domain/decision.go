package domain

// TradeAction is the kind of trade a persona decided on.
type TradeAction string

// Trade action constants
const (
	ActionBuy  TradeAction = "BUY"
	ActionSell TradeAction = "SELL"
	ActionHold TradeAction = "HOLD"
)

// ValidAction reports whether a is one of BUY, SELL, HOLD.
func ValidAction(a TradeAction) bool {
	switch a {
	case ActionBuy, ActionSell, ActionHold:
		return true
	}
	return false
}

// TradeDecision is a fully parsed, always-valid persona decision.
// AmountPct is a percent of available cash for BUY and a percent of
// held quantity for SELL; it is meaningless for HOLD.
type TradeDecision struct {
	Action     TradeAction `json:"action"`
	AmountPct  float64     `json:"amount_pct"` // [0,100]
	Reason     string      `json:"reason"`
	Confidence float64     `json:"confidence"` // [0,100]
}

// ClampPct clamps v into the [0,100] percent range.
func ClampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
