package domain

// PersonaAggregate is the per-run, per-persona performance summary row.
// Corresponds to the persona_aggregates table in ClickHouse.
type PersonaAggregate struct {
	RunID     string
	PersonaID string

	FinalValue float64 // portfolio value on the last simulated day
	ReturnPct  float64 // final return vs initial capital

	BuyCount  int
	SellCount int
	HoldCount int

	MaxDrawdown            float64 // worst peak-to-trough on the value series
	DailyVolatility        float64 // sample stddev of daily returns
	BestDayPct             float64
	WorstDayPct            float64
	MaxConsecutiveLossDays int

	BaselineReturnPct float64 // buy-and-hold over the same window
	BeatBaseline      bool
}
