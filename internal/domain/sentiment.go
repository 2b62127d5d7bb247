package domain

// Fear & Greed classification labels as published by the index.
const (
	LabelExtremeFear  = "Extreme Fear"
	LabelFear         = "Fear"
	LabelNeutral      = "Neutral"
	LabelGreed        = "Greed"
	LabelExtremeGreed = "Extreme Greed"
)

// SentimentReading is one day's Fear & Greed index value.
// Corresponds to the sentiment_readings table in PostgreSQL.
type SentimentReading struct {
	Date  string // YYYY-MM-DD
	Value int    // [0,100]
	Label string // classification as published
}

// ClassifySentiment maps an index value to its label. Used when a source
// supplies a bare value without the published classification.
func ClassifySentiment(value int) string {
	switch {
	case value <= 24:
		return LabelExtremeFear
	case value <= 44:
		return LabelFear
	case value <= 55:
		return LabelNeutral
	case value <= 75:
		return LabelGreed
	default:
		return LabelExtremeGreed
	}
}
