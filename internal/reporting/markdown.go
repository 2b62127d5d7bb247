package reporting

import (
	"fmt"
	"strings"
	"time"

	"chronos-lab/internal/domain"
)

// RenderSummaryMarkdown renders the ranked run summary as Markdown.
// Aggregates must already be ranked best first.
func (g *Generator) RenderSummaryMarkdown(run *domain.SimulationRun, aggregates []*domain.PersonaAggregate, baselineReturnPct float64) string {
	var sb strings.Builder

	sb.WriteString("# Backtest Summary\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", g.now().Format(time.RFC3339)))

	sb.WriteString("## Run\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Run ID | %s |\n", run.RunID))
	sb.WriteString(fmt.Sprintf("| Symbol | %s |\n", run.Symbol))
	sb.WriteString(fmt.Sprintf("| Window | %s to %s |\n", run.StartDate, run.EndDate))
	sb.WriteString(fmt.Sprintf("| Initial capital | $%.2f |\n", run.InitialCapital))
	sb.WriteString(fmt.Sprintf("| Mode | %s |\n", run.Mode))
	sb.WriteString("\n")

	sb.WriteString("## Leaderboard\n\n")
	if len(aggregates) > 0 {
		sb.WriteString("| Rank | Persona | Final Value | Return | Buys | Sells | Holds | Max Drawdown | Volatility | Beat Baseline |\n")
		sb.WriteString("|------|---------|-------------|--------|------|-------|-------|--------------|------------|---------------|\n")
		for i, agg := range aggregates {
			beat := "no"
			if agg.BeatBaseline {
				beat = "yes"
			}
			sb.WriteString(fmt.Sprintf("| %d | %s | $%.2f | %+.2f%% | %d | %d | %d | %.2f%% | %.2f%% | %s |\n",
				i+1, agg.PersonaID, agg.FinalValue, agg.ReturnPct,
				agg.BuyCount, agg.SellCount, agg.HoldCount,
				agg.MaxDrawdown, agg.DailyVolatility, beat))
		}
	} else {
		sb.WriteString("No aggregates available.\n")
	}
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("Buy-and-hold baseline: %+.2f%%\n\n", baselineReturnPct))

	sb.WriteString("## Decision Statistics\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Days simulated | %d |\n", run.Stats.DaysSimulated))
	sb.WriteString(fmt.Sprintf("| Data gaps | %d |\n", run.Stats.DataGaps))
	sb.WriteString(fmt.Sprintf("| AI decisions | %d |\n", run.Stats.AIDecisions))
	sb.WriteString(fmt.Sprintf("| Rule decisions | %d |\n", run.Stats.RuleDecisions))
	sb.WriteString(fmt.Sprintf("| Timeout fallbacks | %d |\n", run.Stats.TimeoutFallbacks))
	sb.WriteString(fmt.Sprintf("| Error fallbacks | %d |\n", run.Stats.ErrorFallbacks))
	sb.WriteString("\n")

	return sb.String()
}
