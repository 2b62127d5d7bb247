package persona

import (
	"strings"
	"testing"

	"chronos-lab/internal/domain"
)

// quietContext returns a context that triggers no rule for any persona:
// neutral sentiment, flat price action, no keyword headlines, a funded
// but not cash-heavy portfolio.
func quietContext() domain.MarketContext {
	return domain.MarketContext{
		Date:      "2024-03-01",
		Price:     62000,
		ChangePct: 0.4,
		Technical: &domain.TechnicalSnapshot{
			RSI:        50,
			RSISignal:  domain.RSINeutral,
			MACDTrend:  "",
			SMA50:      62000,
			SMA200:     50000,
			BBPosition: domain.BBUpperHalf,
			Overall:    domain.SignalNeutral,
		},
		FearGreed: &domain.SentimentReading{Date: "2024-03-01", Value: 50, Label: "Neutral"},
		Headlines: []string{"Markets quiet ahead of the weekend"},

		PortfolioValue: 10000,
		USDBalance:     4000,
		BTCQuantity:    0.09,
		ReturnPct:      2.0,
	}
}

type ruleCase struct {
	name       string
	mutate     func(*domain.MarketContext)
	action     domain.TradeAction
	amountPct  float64
	confidence float64
	reasonHas  string
}

func runRuleCases(t *testing.T, p Policy, cases []ruleCase) {
	t.Helper()
	for _, tc := range cases {
		mctx := quietContext()
		if tc.mutate != nil {
			tc.mutate(&mctx)
		}

		got := p.RuleDecision(mctx)

		if got.Action != tc.action {
			t.Errorf("%s: action = %s, want %s (reason: %s)", tc.name, got.Action, tc.action, got.Reason)
			continue
		}
		if got.AmountPct != tc.amountPct {
			t.Errorf("%s: amount_pct = %.1f, want %.1f", tc.name, got.AmountPct, tc.amountPct)
		}
		if got.Confidence != tc.confidence {
			t.Errorf("%s: confidence = %.1f, want %.1f", tc.name, got.Confidence, tc.confidence)
		}
		if tc.reasonHas != "" && !strings.Contains(got.Reason, tc.reasonHas) {
			t.Errorf("%s: reason %q does not contain %q", tc.name, got.Reason, tc.reasonHas)
		}
	}
}

func TestGuardianRuleDecision(t *testing.T) {
	g := NewGuardian(Options{Logger: testLogger()})

	runRuleCases(t, g, []ruleCase{
		{
			name: "extreme fear below MA200 buys in",
			mutate: func(c *domain.MarketContext) {
				c.FearGreed.Value = 15
				c.Price = 40000
			},
			action: domain.ActionBuy, amountPct: 25, confidence: 75, reasonHas: "Extreme fear",
		},
		{
			name: "fear below MA200 probes",
			mutate: func(c *domain.MarketContext) {
				c.FearGreed.Value = 22
				c.Price = 40000
			},
			action: domain.ActionBuy, amountPct: 15, confidence: 65,
		},
		{
			name: "extreme greed takes profit",
			mutate: func(c *domain.MarketContext) {
				c.FearGreed.Value = 85
			},
			action: domain.ActionSell, amountPct: 30, confidence: 70,
		},
		{
			name: "greed trims exposure",
			mutate: func(c *domain.MarketContext) {
				c.FearGreed.Value = 78
			},
			action: domain.ActionSell, amountPct: 20, confidence: 65,
		},
		{
			name: "deep drawdown triggers stop loss",
			mutate: func(c *domain.MarketContext) {
				c.ReturnPct = -20
			},
			action: domain.ActionSell, amountPct: 50, confidence: 80, reasonHas: "Stop loss",
		},
		{
			name:   "quiet market holds",
			action: domain.ActionHold, amountPct: 0, confidence: 60,
		},
		{
			name: "fear without cash holds",
			mutate: func(c *domain.MarketContext) {
				c.FearGreed.Value = 15
				c.Price = 40000
				c.USDBalance = 50
			},
			action: domain.ActionHold, amountPct: 0, confidence: 60,
		},
		{
			name: "greed without holdings holds",
			mutate: func(c *domain.MarketContext) {
				c.FearGreed.Value = 85
				c.BTCQuantity = 0
			},
			action: domain.ActionHold, amountPct: 0, confidence: 60,
		},
		{
			name: "extreme fear above MA200 stays out",
			mutate: func(c *domain.MarketContext) {
				c.FearGreed.Value = 15
			},
			action: domain.ActionHold, amountPct: 0, confidence: 60,
		},
		{
			name: "no technical section blocks MA entries",
			mutate: func(c *domain.MarketContext) {
				c.FearGreed.Value = 15
				c.Price = 40000
				c.Technical = nil
			},
			action: domain.ActionHold, amountPct: 0, confidence: 60,
		},
		{
			name: "missing sentiment reads as neutral",
			mutate: func(c *domain.MarketContext) {
				c.FearGreed = nil
			},
			action: domain.ActionHold, amountPct: 0, confidence: 60,
		},
	})
}

func TestDegenRuleDecision(t *testing.T) {
	d := NewDegen(Options{Logger: testLogger()})

	runRuleCases(t, d, []ruleCase{
		{
			name: "bullish headline apes in",
			mutate: func(c *domain.MarketContext) {
				c.Headlines = []string{"Spot ETF inflows surge to record"}
			},
			action: domain.ActionBuy, amountPct: 40, confidence: 85, reasonHas: "LFG",
		},
		{
			name: "big pump chases hard",
			mutate: func(c *domain.MarketContext) {
				c.ChangePct = 6
			},
			action: domain.ActionBuy, amountPct: 35, confidence: 80,
		},
		{
			name: "moderate pump chases",
			mutate: func(c *domain.MarketContext) {
				c.ChangePct = 3.5
			},
			action: domain.ActionBuy, amountPct: 25, confidence: 70,
		},
		{
			name: "greedy crowd gets followed",
			mutate: func(c *domain.MarketContext) {
				c.FearGreed.Value = 75
			},
			action: domain.ActionBuy, amountPct: 30, confidence: 75,
		},
		{
			name: "big dip is a discount",
			mutate: func(c *domain.MarketContext) {
				c.ChangePct = -6
			},
			action: domain.ActionBuy, amountPct: 40, confidence: 85, reasonHas: "Discount",
		},
		{
			name: "moderate dip adds",
			mutate: func(c *domain.MarketContext) {
				c.ChangePct = -3.5
			},
			action: domain.ActionBuy, amountPct: 25, confidence: 70,
		},
		{
			name: "idle cash gets deployed",
			mutate: func(c *domain.MarketContext) {
				c.USDBalance = 6000
			},
			action: domain.ActionBuy, amountPct: 20, confidence: 60,
		},
		{
			name:   "no signal holds",
			action: domain.ActionHold, amountPct: 0, confidence: 50,
		},
		{
			name: "broke degen cannot buy",
			mutate: func(c *domain.MarketContext) {
				c.ChangePct = 6
				c.USDBalance = 40
			},
			action: domain.ActionHold, amountPct: 0, confidence: 50,
		},
		{
			name: "news outranks the dip",
			mutate: func(c *domain.MarketContext) {
				c.Headlines = []string{"Institutional adoption accelerates"}
				c.ChangePct = -6
			},
			action: domain.ActionBuy, amountPct: 40, confidence: 85, reasonHas: "LFG",
		},
	})
}

func TestQuantRuleDecision(t *testing.T) {
	q := NewQuant(Options{Logger: testLogger()})

	runRuleCases(t, q, []ruleCase{
		{
			name: "three buy signals go max size",
			mutate: func(c *domain.MarketContext) {
				c.Technical.RSI = 25
				c.Technical.MACDTrend = domain.MACDBullish
				c.Technical.BBPosition = domain.BBBelowLower
			},
			action: domain.ActionBuy, amountPct: 40, confidence: 85, reasonHas: "Buy signals",
		},
		{
			name: "two buy signals size up",
			mutate: func(c *domain.MarketContext) {
				c.Technical.RSI = 25
				c.Technical.MACDTrend = domain.MACDBullish
			},
			action: domain.ActionBuy, amountPct: 25, confidence: 75,
		},
		{
			name: "single buy signal starts small",
			mutate: func(c *domain.MarketContext) {
				c.Technical.RSI = 25
			},
			action: domain.ActionBuy, amountPct: 15, confidence: 65, reasonHas: "oversold",
		},
		{
			name: "half vote alone is not a trade",
			mutate: func(c *domain.MarketContext) {
				c.Price = 64000
			},
			action: domain.ActionHold, amountPct: 0, confidence: 50, reasonHas: "RSI",
		},
		{
			name: "two and a half signals stay mid size",
			mutate: func(c *domain.MarketContext) {
				c.Technical.RSI = 25
				c.Technical.BBPosition = domain.BBBelowLower
				c.Price = 64000
			},
			action: domain.ActionBuy, amountPct: 25, confidence: 75,
		},
		{
			name: "stacked sell signals dump max size",
			mutate: func(c *domain.MarketContext) {
				c.Technical.RSI = 75
				c.Technical.MACDTrend = domain.MACDStrongBearish
				c.Technical.BBPosition = domain.BBAboveUpper
				c.Price = 59000
			},
			action: domain.ActionSell, amountPct: 40, confidence: 85, reasonHas: "Sell signals",
		},
		{
			name: "tie goes to the buy side",
			mutate: func(c *domain.MarketContext) {
				c.Technical.RSI = 25
				c.Technical.MACDTrend = domain.MACDBearish
			},
			action: domain.ActionBuy, amountPct: 15, confidence: 65,
		},
		{
			name: "strong MACD variants still count",
			mutate: func(c *domain.MarketContext) {
				c.Technical.RSI = 25
				c.Technical.MACDTrend = domain.MACDStrongBullish
			},
			action: domain.ActionBuy, amountPct: 25, confidence: 75,
		},
		{
			name: "no technical data means no trade",
			mutate: func(c *domain.MarketContext) {
				c.Technical = nil
			},
			action: domain.ActionHold, amountPct: 0, confidence: 50,
		},
		{
			name: "buy signals without cash hold",
			mutate: func(c *domain.MarketContext) {
				c.Technical.RSI = 25
				c.USDBalance = 50
			},
			action: domain.ActionHold, amountPct: 0, confidence: 50,
		},
		{
			name: "sell signals without holdings hold",
			mutate: func(c *domain.MarketContext) {
				c.Technical.RSI = 75
				c.BTCQuantity = 0
			},
			action: domain.ActionHold, amountPct: 0, confidence: 50,
		},
	})
}

func TestStrategistRuleDecision(t *testing.T) {
	s := NewStrategist(Options{Logger: testLogger()})

	runRuleCases(t, s, []ruleCase{
		{
			name: "strong macro news builds position",
			mutate: func(c *domain.MarketContext) {
				c.Headlines = []string{"Spot ETF approval expected this quarter"}
			},
			action: domain.ActionBuy, amountPct: 25, confidence: 75,
		},
		{
			name: "single tailwind in an uptrend adds",
			mutate: func(c *domain.MarketContext) {
				c.Headlines = []string{"BlackRock expands bitcoin offering"}
			},
			action: domain.ActionBuy, amountPct: 20, confidence: 70,
		},
		{
			name: "hostile news reduces exposure",
			mutate: func(c *domain.MarketContext) {
				c.Headlines = []string{"SEC lawsuit alleges fraud at major exchange"}
			},
			action: domain.ActionSell, amountPct: 30, confidence: 75,
		},
		{
			name: "single headwind in a downtrend trims",
			mutate: func(c *domain.MarketContext) {
				c.Headlines = []string{"Major exchange hack reported"}
				c.Price = 40000
			},
			action: domain.ActionSell, amountPct: 20, confidence: 70,
		},
		{
			name: "extreme fear invites contrarian entry",
			mutate: func(c *domain.MarketContext) {
				c.Headlines = nil
				c.FearGreed.Value = 15
			},
			action: domain.ActionBuy, amountPct: 15, confidence: 65, reasonHas: "contrarian",
		},
		{
			name: "extreme greed takes modest profit",
			mutate: func(c *domain.MarketContext) {
				c.Headlines = nil
				c.FearGreed.Value = 90
			},
			action: domain.ActionSell, amountPct: 15, confidence: 65,
		},
		{
			name:   "uptrend idles fully invested",
			action: domain.ActionHold, amountPct: 0, confidence: 55, reasonHas: "MA200",
		},
		{
			name: "downtrend idles waiting",
			mutate: func(c *domain.MarketContext) {
				c.Price = 40000
			},
			action: domain.ActionHold, amountPct: 0, confidence: 55, reasonHas: "waiting",
		},
		{
			name: "no optional sections stays patient",
			mutate: func(c *domain.MarketContext) {
				c.Headlines = nil
				c.Technical = nil
				c.FearGreed = nil
			},
			action: domain.ActionHold, amountPct: 0, confidence: 55, reasonHas: "patient",
		},
		{
			name: "extreme fear without cash holds steady",
			mutate: func(c *domain.MarketContext) {
				c.Headlines = nil
				c.FearGreed.Value = 15
				c.USDBalance = 50
			},
			action: domain.ActionHold, amountPct: 0, confidence: 55, reasonHas: "stable",
		},
	})
}

// Personas must not react to context sections their config forbids,
// even when those sections are present and extreme.

func TestGuardianIgnoresHeadlines(t *testing.T) {
	g := NewGuardian(Options{Logger: testLogger()})

	base := quietContext()
	base.Headlines = nil
	want := g.RuleDecision(base)

	loud := quietContext()
	loud.Headlines = []string{"ETF approval surge, institutional adoption rally", "SEC lawsuit fraud crackdown"}
	if got := g.RuleDecision(loud); got != want {
		t.Errorf("headlines changed guardian decision: got %+v, want %+v", got, want)
	}
}

func TestDegenIgnoresTechnical(t *testing.T) {
	d := NewDegen(Options{Logger: testLogger()})

	base := quietContext()
	base.Technical = nil
	want := d.RuleDecision(base)

	extreme := quietContext()
	extreme.Technical = &domain.TechnicalSnapshot{
		RSI:        5,
		RSISignal:  domain.RSIOversold,
		MACDTrend:  domain.MACDStrongBearish,
		SMA50:      90000,
		SMA200:     90000,
		BBPosition: domain.BBBelowLower,
		Overall:    domain.SignalBearish,
	}
	if got := d.RuleDecision(extreme); got != want {
		t.Errorf("technical data changed degen decision: got %+v, want %+v", got, want)
	}
}

func TestQuantIgnoresSentimentAndNews(t *testing.T) {
	q := NewQuant(Options{Logger: testLogger()})

	base := quietContext()
	base.FearGreed = nil
	base.Headlines = nil
	want := q.RuleDecision(base)

	noisy := quietContext()
	noisy.FearGreed = &domain.SentimentReading{Date: noisy.Date, Value: 2, Label: "Extreme Fear"}
	noisy.Headlines = []string{"Institutional adoption surge as ETF rally continues"}
	if got := q.RuleDecision(noisy); got != want {
		t.Errorf("sentiment/news changed quant decision: got %+v, want %+v", got, want)
	}
}

func TestRenderPromptHonorsInfoFlags(t *testing.T) {
	mctx := fullContext()

	sections := map[string]string{
		"technical": "## Technical indicators",
		"sentiment": "## Market sentiment",
		"news":      "## Today's headlines",
	}

	allowed := map[string]map[string]bool{
		"guardian":   {"technical": true, "sentiment": true, "news": false},
		"degen":      {"technical": false, "sentiment": true, "news": true},
		"quant":      {"technical": true, "sentiment": false, "news": false},
		"strategist": {"technical": true, "sentiment": true, "news": true},
	}

	for _, p := range All(Options{Logger: testLogger()}) {
		id := p.Config().ID
		prompt := p.RenderPrompt(mctx)

		if !strings.Contains(prompt, "## Market") || !strings.Contains(prompt, "## Your portfolio") {
			t.Errorf("%s: prompt is missing mandatory sections", id)
		}
		if !strings.Contains(prompt, "## Decision") {
			t.Errorf("%s: prompt is missing the decision instructions", id)
		}

		for key, header := range sections {
			has := strings.Contains(prompt, header)
			if want := allowed[id][key]; has != want {
				t.Errorf("%s: %s section present=%v, want %v", id, key, has, want)
			}
		}
	}
}

func TestRenderPromptSkipsMissingSections(t *testing.T) {
	s := NewStrategist(Options{Logger: testLogger()})

	mctx := fullContext()
	mctx.Technical = nil
	mctx.FearGreed = nil
	mctx.Headlines = nil

	prompt := s.RenderPrompt(mctx)
	for _, header := range []string{"## Technical indicators", "## Market sentiment", "## Today's headlines"} {
		if strings.Contains(prompt, header) {
			t.Errorf("prompt renders %q for missing data", header)
		}
	}
}
