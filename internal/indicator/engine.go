package indicator

import (
	"math"

	"chronos-lab/internal/domain"
)

// MinBars is the minimum history required to compute a snapshot. Below
// this the engine returns nil and the context omits technical fields
// rather than estimating them.
const MinBars = 50

// Periods used by the engine.
const (
	rsiPeriod       = 14
	macdFastPeriod  = 12
	macdSlowPeriod  = 26
	macdSignalSpan  = 9
	bollingerPeriod = 20
	bollingerWidth  = 2.0
)

// Engine computes technical indicators over a daily close series.
type Engine struct{}

// NewEngine creates a new indicator engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Compute derives a full snapshot from bars ordered oldest to newest,
// evaluating at the last bar's close. Returns nil when fewer than MinBars
// bars are supplied.
func (e *Engine) Compute(bars []*domain.Bar) *domain.TechnicalSnapshot {
	if len(bars) < MinBars {
		return nil
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	price := closes[len(closes)-1]

	snap := &domain.TechnicalSnapshot{
		RSI:    rsi(closes, rsiPeriod),
		SMA50:  sma(closes, 50),
		SMA200: sma(closes, 200),
		EMA50:  last(emaSeries(closes, 50)),
		EMA200: last(emaSeries(closes, 200)),
	}
	snap.RSISignal = classifyRSI(snap.RSI)

	macdLine, signalLine := macd(closes)
	snap.MACD = macdLine
	snap.MACDSignalLine = signalLine
	snap.MACDHistogram = macdLine - signalLine
	snap.MACDTrend = classifyMACD(macdLine, signalLine)

	if price > snap.SMA200 {
		snap.PriceVsMA200 = "above"
	} else {
		snap.PriceVsMA200 = "below"
	}

	mid, upper, lower := bollinger(closes)
	snap.BBMiddle = mid
	snap.BBUpper = upper
	snap.BBLower = lower
	snap.BBPercentB = percentB(price, upper, lower)
	snap.BBPosition = classifyBB(price, mid, upper, lower)
	if mid > 0 {
		snap.BBSqueeze = (upper-lower)/mid < 0.10
	}

	snap.Overall = overallSignal(price, snap)

	return snap
}

func classifyRSI(v float64) string {
	switch {
	case v < 30:
		return domain.RSIOversold
	case v > 70:
		return domain.RSIOverbought
	default:
		return domain.RSINeutral
	}
}

func classifyMACD(macdLine, signalLine float64) string {
	if macdLine >= signalLine {
		if macdLine > 0 {
			return domain.MACDStrongBullish
		}
		return domain.MACDBullish
	}
	if macdLine < 0 {
		return domain.MACDStrongBearish
	}
	return domain.MACDBearish
}

func classifyBB(price, mid, upper, lower float64) string {
	switch {
	case price > upper:
		return domain.BBAboveUpper
	case price >= mid:
		return domain.BBUpperHalf
	case price >= lower:
		return domain.BBLowerHalf
	default:
		return domain.BBBelowLower
	}
}

// overallSignal takes a simple five-way vote: RSI side, MACD trend,
// price vs both moving averages, and band position. Four or more votes
// one way makes the call, anything closer is neutral.
func overallSignal(price float64, s *domain.TechnicalSnapshot) string {
	votes := 0
	if s.RSI > 50 {
		votes++
	}
	if s.MACDTrend == domain.MACDBullish || s.MACDTrend == domain.MACDStrongBullish {
		votes++
	}
	if price > s.SMA50 {
		votes++
	}
	if price > s.SMA200 {
		votes++
	}
	if s.BBPercentB > 0.5 {
		votes++
	}

	switch {
	case votes >= 4:
		return domain.SignalBullish
	case votes <= 1:
		return domain.SignalBearish
	default:
		return domain.SignalNeutral
	}
}

// rsi computes RSI with Wilder smoothing over the whole series.
func rsi(closes []float64, period int) float64 {
	if len(closes) <= period {
		return 50
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// macd returns the MACD line (EMA12-EMA26) and its EMA9 signal line.
func macd(closes []float64) (macdLine, signalLine float64) {
	fast := emaSeries(closes, macdFastPeriod)
	slow := emaSeries(closes, macdSlowPeriod)

	diff := make([]float64, len(closes))
	for i := range closes {
		diff[i] = fast[i] - slow[i]
	}

	signal := emaSeries(diff, macdSignalSpan)
	return last(diff), last(signal)
}

// bollinger returns the 20-day middle band and the +/-2 sigma envelope.
func bollinger(closes []float64) (mid, upper, lower float64) {
	window := closes
	if len(window) > bollingerPeriod {
		window = window[len(window)-bollingerPeriod:]
	}

	mid = mean(window)
	sd := stdDev(window, mid)
	return mid, mid + bollingerWidth*sd, mid - bollingerWidth*sd
}

func percentB(price, upper, lower float64) float64 {
	if upper == lower {
		return 0.5
	}
	return (price - lower) / (upper - lower)
}

// sma averages the last n values, or all of them when fewer exist.
func sma(values []float64, n int) float64 {
	if len(values) > n {
		values = values[len(values)-n:]
	}
	return mean(values)
}

// emaSeries computes an exponential moving average seeded at the first
// value, k = 2/(n+1).
func emaSeries(values []float64, n int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	k := 2.0 / float64(n+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the sample standard deviation around m.
func stdDev(values []float64, m float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

func last(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}
