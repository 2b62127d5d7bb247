package domain

import (
	"fmt"
	"time"
)

// DateFormat is the canonical calendar-date layout used across the system.
const DateFormat = "2006-01-02"

// Bar represents one daily OHLCV kline for a symbol.
// Corresponds to the bars table in ClickHouse.
type Bar struct {
	Symbol      string  // trading pair, e.g. "BTCUSDT"
	Date        string  // calendar date, YYYY-MM-DD (UTC)
	OpenTimeMs  int64   // kline open time, Unix ms
	Open        float64 // open price
	High        float64 // high price
	Low         float64 // low price
	Close       float64 // close price
	Volume      float64 // base asset volume
	QuoteVolume float64 // quote asset volume
	Trades      int64   // number of trades
}

// ChangePct returns the intraday change percent (close vs open).
func (b *Bar) ChangePct() float64 {
	if b.Open == 0 {
		return 0
	}
	return (b.Close - b.Open) / b.Open * 100
}

// Validate checks structural invariants of a bar.
func (b *Bar) Validate() error {
	if b.Symbol == "" {
		return fmt.Errorf("bar: empty symbol")
	}
	if _, err := time.Parse(DateFormat, b.Date); err != nil {
		return fmt.Errorf("bar: bad date %q: %w", b.Date, err)
	}
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return fmt.Errorf("bar %s: non-positive price", b.Date)
	}
	if b.High < b.Low {
		return fmt.Errorf("bar %s: high %f below low %f", b.Date, b.High, b.Low)
	}
	return nil
}
