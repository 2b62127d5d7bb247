// Package metrics computes per-persona performance summaries from the
// portfolio ledgers a simulation run produces.
package metrics

import (
	"sort"

	"chronos-lab/internal/domain"
	"chronos-lab/internal/portfolio"
)

// BuildAggregates computes one summary row per portfolio and ranks the
// result by final return, best first. Portfolios must be passed in persona
// declaration order; ties keep that order.
func BuildAggregates(runID string, portfolios []*portfolio.Portfolio, baselineReturnPct float64) []*domain.PersonaAggregate {
	aggs := make([]*domain.PersonaAggregate, 0, len(portfolios))
	for _, pf := range portfolios {
		aggs = append(aggs, buildAggregate(runID, pf, baselineReturnPct))
	}
	sort.SliceStable(aggs, func(i, j int) bool {
		return aggs[i].ReturnPct > aggs[j].ReturnPct
	})
	return aggs
}

// buildAggregate summarizes a single portfolio ledger.
func buildAggregate(runID string, pf *portfolio.Portfolio, baselineReturnPct float64) *domain.PersonaAggregate {
	agg := &domain.PersonaAggregate{
		RunID:             runID,
		PersonaID:         pf.PersonaID(),
		FinalValue:        pf.InitialCapital(),
		BaselineReturnPct: baselineReturnPct,
	}

	for _, t := range pf.Trades() {
		switch t.Action {
		case domain.ActionBuy:
			agg.BuyCount++
		case domain.ActionSell:
			agg.SellCount++
		case domain.ActionHold:
			agg.HoldCount++
		}
	}

	snapshots := pf.Snapshots()
	if len(snapshots) > 0 {
		last := snapshots[len(snapshots)-1]
		agg.FinalValue = last.TotalValue
		agg.ReturnPct = last.ReturnPct

		values := make([]float64, len(snapshots))
		for i, s := range snapshots {
			values[i] = s.TotalValue
		}
		agg.MaxDrawdown = computeMaxDrawdownPct(values)

		// The first snapshot's daily return is 0 by construction, so the
		// daily series starts at the second snapshot.
		dailyReturns := make([]float64, 0, len(snapshots)-1)
		for _, s := range snapshots[1:] {
			dailyReturns = append(dailyReturns, s.DailyReturnPct)
		}
		agg.DailyVolatility = computeStddev(dailyReturns, computeMean(dailyReturns))
		agg.BestDayPct, agg.WorstDayPct = bestWorst(dailyReturns)
		agg.MaxConsecutiveLossDays = computeMaxConsecutiveLossDays(dailyReturns)
	}

	agg.BeatBaseline = agg.ReturnPct > baselineReturnPct
	return agg
}
