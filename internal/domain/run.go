package domain

// Simulation decision modes
const (
	ModeAI   = "ai"   // AI-backed decisions with rule fallback
	ModeRule = "rule" // deterministic rule decisions only
)

// RunStats counts decision outcomes for one simulation run. Owned by the
// orchestrator instance; concurrent runs never share a RunStats.
type RunStats struct {
	AIDecisions      int // AI path returned a usable answer
	RuleDecisions    int // rule path used (fallbacks included)
	TimeoutFallbacks int // AI path timed out
	ErrorFallbacks   int // AI path failed with a non-timeout error
	DataGaps         int // dates skipped for missing price data
	DaysSimulated    int // dates that produced a DailyResult
}

// SimulationRun is the persisted identity and outcome of one backtest.
// Corresponds to the simulation_runs table in PostgreSQL.
type SimulationRun struct {
	RunID          string // uuid
	Symbol         string
	StartDate      string // YYYY-MM-DD, inclusive
	EndDate        string // YYYY-MM-DD, inclusive
	InitialCapital float64
	Mode           string // ai | rule
	CreatedAt      int64  // Unix ms
	FinishedAt     int64  // Unix ms, 0 while running
	Stats          RunStats
}
