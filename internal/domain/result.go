package domain

// DailyResult aggregates all personas' decisions and valuations for one
// simulated date. The JSON shape is the persisted daily_results.json format.
type DailyResult struct {
	Date            string                   `json:"date"`
	BTCPrice        float64                  `json:"btc_price"`
	BTCChangePct    float64                  `json:"btc_change_pct"`
	Decisions       map[string]TradeDecision `json:"decisions"`
	PortfolioValues map[string]float64       `json:"portfolio_values"`
}
