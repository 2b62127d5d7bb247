package domain

// PersonaConfig describes one decision persona: identity, risk profile,
// and the market facts its policy is allowed to see. Immutable for a run.
type PersonaConfig struct {
	ID            string // stable identifier, used in file names and maps
	Name          string // display name
	NameZh        string // Chinese display name
	Emoji         string // display emoji
	Style         string // one-line trading style
	Philosophy    string // prompt-facing philosophy blurb
	RiskTolerance string // "low" | "high" | "medium" | "medium-high"

	// Information-access flags. A policy whose flag is false must never
	// reference the corresponding MarketContext section.
	UseNews      bool
	UseTechnical bool
	UseFearGreed bool

	MaxPositionPct float64 // largest single BUY as % of cash
	MinTradePct    float64 // smallest meaningful trade size in %
}
