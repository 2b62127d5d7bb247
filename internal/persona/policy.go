package persona

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"chronos-lab/internal/ai"
	"chronos-lab/internal/domain"
	"chronos-lab/internal/observability"
)

// DefaultDecisionTimeout bounds a single AI decision call.
const DefaultDecisionTimeout = 300 * time.Second

// Decision source and fallback labels carried in DecideResult.
const (
	SourceAI   = "ai"
	SourceRule = "rule"

	FallbackNone    = "none"
	FallbackTimeout = "timeout"
	FallbackError   = "error"
)

// Policy is one investor persona: a fixed config, prompt rendering over
// the context fields the config permits, a pure rule-based decision
// function, and a bounded Decide that prefers the AI backend and falls
// back to the rules.
type Policy interface {
	// Config returns the persona's immutable configuration.
	Config() domain.PersonaConfig

	// SystemPrompt renders the persona's system prompt anchored to the
	// simulated date.
	SystemPrompt(date string) string

	// RenderPrompt renders the decision request prompt. It must only
	// reference MarketContext sections the persona's config permits.
	RenderPrompt(mctx domain.MarketContext) string

	// RuleDecision is the deterministic fallback policy. Pure: same
	// context in, same decision out, no side effects. Subject to the
	// same info-access contract as RenderPrompt.
	RuleDecision(mctx domain.MarketContext) domain.TradeDecision

	// Decide produces raw decision text for one day. It never returns
	// an error: backend timeout or failure degrades to RuleDecision.
	Decide(ctx context.Context, mctx domain.MarketContext) DecideResult
}

// DecideResult is the outcome of one Decide call. RawText always feeds
// the decision parser, whichever path produced it.
type DecideResult struct {
	RawText  string
	Source   string // ai | rule
	Fallback string // none | timeout | error
}

// Options configures persona construction. A nil Backend selects
// rule-only mode.
type Options struct {
	Backend ai.Backend
	Timeout time.Duration // per-decision budget, default DefaultDecisionTimeout
	Logger  *log.Logger
}

// All returns the four personas in their fixed order: guardian, degen,
// quant, strategist. The orchestrator relies on this order for
// deterministic trade logs and for ranking tie-breaks.
func All(opts Options) []Policy {
	return []Policy{
		NewGuardian(opts),
		NewDegen(opts),
		NewQuant(opts),
		NewStrategist(opts),
	}
}

// caller holds the decision machinery shared by all personas.
type caller struct {
	backend ai.Backend
	timeout time.Duration
	logger  *log.Logger
}

func newCaller(opts Options) caller {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultDecisionTimeout
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return caller{backend: opts.Backend, timeout: timeout, logger: logger}
}

// decide runs the bounded AI path and degrades to the persona's rule
// decision on timeout or error. Failures never propagate; the worst
// outcome is a rule-sourced result.
func (c caller) decide(ctx context.Context, p Policy, mctx domain.MarketContext) DecideResult {
	if c.backend == nil {
		return DecideResult{RawText: ruleText(p, mctx), Source: SourceRule, Fallback: FallbackNone}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	raw, err := c.backend.Complete(callCtx, p.SystemPrompt(mctx.Date), p.RenderPrompt(mctx))
	observability.RecordDecisionLatency(p.Config().ID, time.Since(started).Seconds())
	if err != nil {
		fallback := FallbackError
		if errors.Is(err, context.DeadlineExceeded) {
			fallback = FallbackTimeout
		}
		c.logger.Printf("%s: AI decision failed on %s (%v), using rule decision", p.Config().ID, mctx.Date, err)
		return DecideResult{RawText: ruleText(p, mctx), Source: SourceRule, Fallback: fallback}
	}

	return DecideResult{RawText: raw, Source: SourceAI, Fallback: FallbackNone}
}

// ruleText renders the rule decision as the same JSON shape the backend
// is prompted to produce, so both paths feed the parser identically.
func ruleText(p Policy, mctx domain.MarketContext) string {
	raw, err := json.Marshal(p.RuleDecision(mctx))
	if err != nil {
		return `{"action": "HOLD", "amount_pct": 0, "reason": "rule decision unavailable", "confidence": 0}`
	}
	return string(raw)
}
