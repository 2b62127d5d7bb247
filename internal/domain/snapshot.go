package domain

// DailySnapshot captures one persona portfolio's end-of-day state.
// Corresponds to the portfolio_snapshots table in ClickHouse.
type DailySnapshot struct {
	RunID          string  // owning simulation run
	PersonaID      string  // owning persona
	Date           string  // YYYY-MM-DD
	Price          float64 // close price used for valuation
	CashBalance    float64 // USD cash
	Quantity       float64 // held base units
	AverageCost    float64 // weighted average purchase price
	PositionValue  float64 // quantity * price
	TotalValue     float64 // cash + position value
	ReturnPct      float64 // cumulative return vs initial capital
	DailyReturnPct float64 // return vs previous snapshot, 0 on the first day
}
