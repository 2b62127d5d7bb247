package domain

// MarketContext is the date-scoped, persona-scoped view of market state
// handed to a persona policy. Optional sections are nil/empty when the
// data is unavailable or the persona's flags do not permit it. Built
// fresh for every date/persona pair and never persisted.
type MarketContext struct {
	Date      string  // YYYY-MM-DD
	Price     float64 // close price
	ChangePct float64 // intraday change percent

	Technical *TechnicalSnapshot // nil below 50 bars of history
	FearGreed *SentimentReading  // nil when absent or not permitted
	Headlines []string           // empty when absent or not permitted

	// Requesting persona's own portfolio state.
	PortfolioValue float64
	USDBalance     float64
	BTCQuantity    float64
	ReturnPct      float64
}
