package persona

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"chronos-lab/internal/decision"
	"chronos-lab/internal/domain"
)

// stubBackend is a scriptable ai.Backend for tests.
type stubBackend struct {
	text  string
	err   error
	delay time.Duration
	calls int
}

func (s *stubBackend) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// fullContext returns a context with every optional section populated.
func fullContext() domain.MarketContext {
	return domain.MarketContext{
		Date:      "2024-03-01",
		Price:     62000,
		ChangePct: 1.2,
		Technical: &domain.TechnicalSnapshot{
			RSI:        55,
			RSISignal:  domain.RSINeutral,
			MACDTrend:  domain.MACDBullish,
			SMA50:      61500,
			SMA200:     50000,
			BBPosition: domain.BBUpperHalf,
			Overall:    domain.SignalBullish,
		},
		FearGreed: &domain.SentimentReading{Date: "2024-03-01", Value: 50, Label: "Neutral"},
		Headlines: []string{"Markets quiet ahead of the weekend"},

		PortfolioValue: 10000,
		USDBalance:     5000,
		BTCQuantity:    0.08,
		ReturnPct:      0,
	}
}

func TestDecide_UsesBackendText(t *testing.T) {
	backend := &stubBackend{text: `{"action": "BUY", "amount_pct": 30, "reason": "test", "confidence": 80}`}
	g := NewGuardian(Options{Backend: backend, Logger: testLogger()})

	res := g.Decide(context.Background(), fullContext())

	if res.Source != SourceAI {
		t.Errorf("expected source %q, got %q", SourceAI, res.Source)
	}
	if res.Fallback != FallbackNone {
		t.Errorf("expected fallback %q, got %q", FallbackNone, res.Fallback)
	}
	if res.RawText != backend.text {
		t.Errorf("expected raw backend text, got %q", res.RawText)
	}
	if backend.calls != 1 {
		t.Errorf("expected 1 backend call, got %d", backend.calls)
	}
}

func TestDecide_TimeoutFallsBackToRules(t *testing.T) {
	backend := &stubBackend{text: "never delivered", delay: 200 * time.Millisecond}
	g := NewGuardian(Options{Backend: backend, Timeout: 10 * time.Millisecond, Logger: testLogger()})

	mctx := fullContext()
	res := g.Decide(context.Background(), mctx)

	if res.Source != SourceRule {
		t.Errorf("expected source %q, got %q", SourceRule, res.Source)
	}
	if res.Fallback != FallbackTimeout {
		t.Errorf("expected fallback %q, got %q", FallbackTimeout, res.Fallback)
	}

	var got domain.TradeDecision
	if err := json.Unmarshal([]byte(res.RawText), &got); err != nil {
		t.Fatalf("fallback raw text is not valid JSON: %v", err)
	}
	if want := g.RuleDecision(mctx); got != want {
		t.Errorf("fallback text should encode the rule decision: got %+v, want %+v", got, want)
	}
}

func TestDecide_BackendErrorFallsBackToRules(t *testing.T) {
	backend := &stubBackend{err: errors.New("connection refused")}
	d := NewDegen(Options{Backend: backend, Logger: testLogger()})

	res := d.Decide(context.Background(), fullContext())

	if res.Source != SourceRule {
		t.Errorf("expected source %q, got %q", SourceRule, res.Source)
	}
	if res.Fallback != FallbackError {
		t.Errorf("expected fallback %q, got %q", FallbackError, res.Fallback)
	}
}

func TestDecide_RuleOnlyModeSkipsBackend(t *testing.T) {
	q := NewQuant(Options{Logger: testLogger()})

	mctx := fullContext()
	res := q.Decide(context.Background(), mctx)

	if res.Source != SourceRule {
		t.Errorf("expected source %q, got %q", SourceRule, res.Source)
	}
	if res.Fallback != FallbackNone {
		t.Errorf("expected fallback %q, got %q", FallbackNone, res.Fallback)
	}

	var got domain.TradeDecision
	if err := json.Unmarshal([]byte(res.RawText), &got); err != nil {
		t.Fatalf("rule raw text is not valid JSON: %v", err)
	}
	if want := q.RuleDecision(mctx); got != want {
		t.Errorf("rule-only text should encode the rule decision: got %+v, want %+v", got, want)
	}
}

func TestDecide_RuleTextRoundTripsThroughParser(t *testing.T) {
	parser := decision.NewParser()
	mctx := fullContext()

	for _, p := range All(Options{Logger: testLogger()}) {
		res := p.Decide(context.Background(), mctx)
		parsed := parser.Parse(res.RawText)
		want := p.RuleDecision(mctx)

		if parsed != want {
			t.Errorf("%s: parsed rule text %+v, want %+v", p.Config().ID, parsed, want)
		}
	}
}

func TestAll_FixedOrderAndFlags(t *testing.T) {
	policies := All(Options{Logger: testLogger()})

	wantIDs := []string{"guardian", "degen", "quant", "strategist"}
	if len(policies) != len(wantIDs) {
		t.Fatalf("expected %d personas, got %d", len(wantIDs), len(policies))
	}
	for i, p := range policies {
		if p.Config().ID != wantIDs[i] {
			t.Errorf("position %d: expected %s, got %s", i, wantIDs[i], p.Config().ID)
		}
	}

	byID := make(map[string]domain.PersonaConfig)
	for _, p := range policies {
		byID[p.Config().ID] = p.Config()
	}

	checks := []struct {
		id             string
		useNews        bool
		useTechnical   bool
		useFG          bool
		maxPositionPct float64
		minTradePct    float64
	}{
		{"guardian", false, true, true, 50, 10},
		{"degen", true, false, true, 100, 20},
		{"quant", false, true, false, 80, 10},
		{"strategist", true, true, true, 70, 10},
	}
	for _, c := range checks {
		cfg := byID[c.id]
		if cfg.UseNews != c.useNews || cfg.UseTechnical != c.useTechnical || cfg.UseFearGreed != c.useFG {
			t.Errorf("%s: info flags = (news=%v, technical=%v, fg=%v), want (%v, %v, %v)",
				c.id, cfg.UseNews, cfg.UseTechnical, cfg.UseFearGreed, c.useNews, c.useTechnical, c.useFG)
		}
		if cfg.MaxPositionPct != c.maxPositionPct || cfg.MinTradePct != c.minTradePct {
			t.Errorf("%s: position limits = (%.0f, %.0f), want (%.0f, %.0f)",
				c.id, cfg.MaxPositionPct, cfg.MinTradePct, c.maxPositionPct, c.minTradePct)
		}
	}
}

func TestRuleDecisions_Deterministic(t *testing.T) {
	mctx := fullContext()
	for _, p := range All(Options{Logger: testLogger()}) {
		first := p.RuleDecision(mctx)
		for run := 0; run < 5; run++ {
			if got := p.RuleDecision(mctx); got != first {
				t.Errorf("%s: run %d produced %+v, want %+v", p.Config().ID, run, got, first)
			}
		}
	}
}

func TestSystemPrompt_AnchorsDate(t *testing.T) {
	for _, p := range All(Options{Logger: testLogger()}) {
		prompt := p.SystemPrompt("2023-11-05")
		if !strings.Contains(prompt, "2023-11-05") {
			t.Errorf("%s: system prompt does not mention the simulated date", p.Config().ID)
		}
	}
}
