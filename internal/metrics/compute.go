package metrics

import "math"

// computeMean returns the arithmetic mean of values, 0 for an empty series.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeStddev returns the sample standard deviation (n-1 denominator).
// Series shorter than two points have no dispersion and return 0.
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computeMaxDrawdownPct returns the worst peak-to-trough decline over a
// portfolio value series, as a positive percentage of the peak.
// Values must be in chronological order.
func computeMaxDrawdownPct(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	peak := values[0]
	maxDrawdown := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		drawdown := (peak - v) / peak * 100
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}

// computeMaxConsecutiveLossDays finds the longest streak of strictly negative
// daily returns. Flat days break the streak.
// Returns must be in chronological order.
func computeMaxConsecutiveLossDays(dailyReturns []float64) int {
	maxStreak := 0
	currentStreak := 0
	for _, r := range dailyReturns {
		if r < 0 {
			currentStreak++
			if currentStreak > maxStreak {
				maxStreak = currentStreak
			}
		} else {
			currentStreak = 0
		}
	}
	return maxStreak
}

// bestWorst returns the highest and lowest values in the series, 0s when empty.
func bestWorst(values []float64) (best, worst float64) {
	if len(values) == 0 {
		return 0, 0
	}
	best, worst = values[0], values[0]
	for _, v := range values[1:] {
		if v > best {
			best = v
		}
		if v < worst {
			worst = v
		}
	}
	return best, worst
}
