package domain

// TradeRecord represents one executed ledger operation, including the
// zero-quantity HOLD entries that keep the trade log a complete calendar.
// Corresponds to the trade_records table in PostgreSQL.
type TradeRecord struct {
	RecordID  string      // deterministic hash, see idhash
	RunID     string      // owning simulation run
	PersonaID string      // owning persona
	Date      string      // YYYY-MM-DD
	Action    TradeAction // BUY | SELL | HOLD
	Symbol    string      // traded pair
	Quantity  float64     // base units, 0 for HOLD
	Price     float64     // close price used for the fill
	USDAmount float64     // notional, 0 for HOLD

	// Reason is the free-text decision rationale, downgrade tags included.
	Reason string

	// PortfolioValueAfter is the total portfolio value at the fill price
	// immediately after the operation.
	PortfolioValueAfter float64
}
