package decision

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"chronos-lab/internal/domain"
)

// decisionObjectPattern matches a flat JSON object containing an "action"
// key anywhere in surrounding prose. Models often wrap the object in
// markdown fences or commentary.
var decisionObjectPattern = regexp.MustCompile(`\{[^{}]*"action"[^{}]*\}`)

// Parser turns free-form model output into an always-valid TradeDecision.
type Parser struct{}

// NewParser creates a new decision parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse is a total function: any input, including empty strings and binary
// garbage, yields a well-formed decision. Extraction is attempted in order:
//  1. a JSON object with an "action" key embedded in the text
//  2. the whole text as one JSON object
//  3. a case-insensitive keyword scan, producing a conservative 10% trade
//     with confidence 0 and the raw text preserved as the reason
//
// If nothing matches, the result is HOLD with zero amount and confidence.
func (p *Parser) Parse(raw string) domain.TradeDecision {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return domain.TradeDecision{
			Action: domain.ActionHold,
			Reason: "empty decision text",
		}
	}

	for _, candidate := range decisionObjectPattern.FindAllString(trimmed, -1) {
		if d, ok := decodeDecision(candidate); ok {
			return d
		}
	}

	if d, ok := decodeDecision(trimmed); ok {
		return d
	}

	return keywordDecision(trimmed)
}

// decodeDecision attempts to read one JSON object as a decision. Numeric
// fields tolerate string values; out-of-range percentages are clamped.
// A missing or non-numeric confidence reads as the neutral 50, a missing
// amount as 0.
func decodeDecision(text string) (domain.TradeDecision, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return domain.TradeDecision{}, false
	}

	actionRaw, ok := fields["action"]
	if !ok {
		return domain.TradeDecision{}, false
	}
	action := domain.TradeAction(strings.ToUpper(strings.TrimSpace(asString(actionRaw))))
	if !domain.ValidAction(action) {
		return domain.TradeDecision{}, false
	}

	d := domain.TradeDecision{
		Action:     action,
		AmountPct:  domain.ClampPct(asFloatOr(fields["amount_pct"], 0)),
		Reason:     strings.TrimSpace(asString(fields["reason"])),
		Confidence: domain.ClampPct(asFloatOr(fields["confidence"], 50)),
	}
	return d, true
}

// keywordDecision scans unstructured text for trade intent. A match yields
// a conservative 10% decision with confidence 0; BUY wins over SELL when
// both words appear.
func keywordDecision(text string) domain.TradeDecision {
	upper := strings.ToUpper(text)

	switch {
	case strings.Contains(upper, "BUY"):
		return domain.TradeDecision{
			Action:    domain.ActionBuy,
			AmountPct: 10,
			Reason:    text,
		}
	case strings.Contains(upper, "SELL"):
		return domain.TradeDecision{
			Action:    domain.ActionSell,
			AmountPct: 10,
			Reason:    text,
		}
	default:
		return domain.TradeDecision{
			Action: domain.ActionHold,
			Reason: text,
		}
	}
}

// asString reads a JSON value as a string, accepting bare strings and
// anything else verbatim.
func asString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// asFloatOr reads a JSON value as a number, accepting numbers and numeric
// strings. Missing or non-numeric values yield the fallback.
func asFloatOr(raw json.RawMessage, fallback float64) float64 {
	if len(raw) == 0 {
		return fallback
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return fallback
}
