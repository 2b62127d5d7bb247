package domain

// Technical signal string constants shared by the indicator engine and
// the rule-based persona policies.
const (
	RSIOversold   = "oversold"
	RSINeutral    = "neutral"
	RSIOverbought = "overbought"

	MACDBullish       = "bullish"
	MACDStrongBullish = "strong_bullish"
	MACDBearish       = "bearish"
	MACDStrongBearish = "strong_bearish"

	BBAboveUpper = "above_upper"
	BBUpperHalf  = "upper_half"
	BBLowerHalf  = "lower_half"
	BBBelowLower = "below_lower"

	SignalBullish = "bullish"
	SignalBearish = "bearish"
	SignalNeutral = "neutral"
)

// TechnicalSnapshot is the indicator engine's full output for one date.
// Computed only when at least 50 historical bars are available.
type TechnicalSnapshot struct {
	RSI       float64 // RSI(14), Wilder smoothing
	RSISignal string  // oversold | neutral | overbought

	MACD           float64 // EMA12 - EMA26
	MACDSignalLine float64 // EMA9 of MACD
	MACDHistogram  float64 // MACD - signal line
	MACDTrend      string  // bullish | strong_bullish | bearish | strong_bearish

	SMA50        float64
	SMA200       float64
	EMA50        float64
	EMA200       float64
	PriceVsMA200 string // above | below

	BBUpper    float64
	BBMiddle   float64
	BBLower    float64
	BBPosition string  // above_upper | upper_half | lower_half | below_lower
	BBPercentB float64 // (price - lower) / (upper - lower)
	BBSqueeze  bool    // bandwidth below 10% of middle band

	Overall string // bullish | bearish | neutral
}
