// Package collector fetches market data from external sources and loads
// it into the date-keyed stores: daily klines from Binance, the Fear &
// Greed index from alternative.me and cached news headlines from disk.
package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"chronos-lab/internal/domain"
)

const (
	defaultBinanceBaseURL = "https://data-api.binance.vision/api/v3"

	// maxKlineLimit is the hard per-request cap of the klines endpoint.
	maxKlineLimit = 1000
)

// BinanceOptions configures the Binance market data client.
type BinanceOptions struct {
	// BaseURL overrides the public market data endpoint.
	BaseURL string
	// Timeout bounds each HTTP request. Defaults to 30s.
	Timeout time.Duration
}

// BinanceClient fetches klines from the public Binance market data API.
// No API key is required for the data endpoints.
type BinanceClient struct {
	client *resty.Client
}

// NewBinanceClient creates a Binance client. Transient failures, 429s and
// 5xx responses are retried with exponential backoff.
func NewBinanceClient(opts BinanceOptions) *BinanceClient {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBinanceBaseURL
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})

	return &BinanceClient{client: client}
}

// GetKlines fetches up to limit klines for the symbol and interval.
// startMs and endMs filter by kline open time when positive; endMs is
// inclusive. Results arrive oldest first.
func (c *BinanceClient) GetKlines(ctx context.Context, symbol, interval string, startMs, endMs int64, limit int) ([]*domain.Bar, error) {
	if limit <= 0 || limit > maxKlineLimit {
		limit = maxKlineLimit
	}

	params := map[string]string{
		"symbol":   symbol,
		"interval": interval,
		"limit":    strconv.Itoa(limit),
	}
	if startMs > 0 {
		params["startTime"] = strconv.FormatInt(startMs, 10)
	}
	if endMs > 0 {
		params["endTime"] = strconv.FormatInt(endMs, 10)
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get("/klines")
	if err != nil {
		return nil, fmt.Errorf("fetch klines for %s: %w", symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch klines for %s: status %d: %s", symbol, resp.StatusCode(), resp.String())
	}

	var rows [][]any
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return nil, fmt.Errorf("parse klines response: %w", err)
	}

	bars := make([]*domain.Bar, 0, len(rows))
	for i, row := range rows {
		bar, err := parseKlineRow(symbol, row)
		if err != nil {
			return nil, fmt.Errorf("parse kline row %d: %w", i, err)
		}
		bars = append(bars, bar)
	}

	return bars, nil
}

// GetPrice fetches the current ticker price for the symbol.
func (c *BinanceClient) GetPrice(ctx context.Context, symbol string) (float64, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("symbol", symbol).
		Get("/ticker/price")
	if err != nil {
		return 0, fmt.Errorf("fetch ticker for %s: %w", symbol, err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("fetch ticker for %s: status %d: %s", symbol, resp.StatusCode(), resp.String())
	}

	var ticker struct {
		Price string `json:"price"`
	}
	if err := json.Unmarshal(resp.Body(), &ticker); err != nil {
		return 0, fmt.Errorf("parse ticker response: %w", err)
	}

	price, err := strconv.ParseFloat(ticker.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parse ticker price %q: %w", ticker.Price, err)
	}
	return price, nil
}

// parseKlineRow converts one nested-array kline into a Bar. The payload
// carries prices and volumes as strings and timestamps as numbers:
// [openTime, open, high, low, close, volume, closeTime, quoteVolume, trades, ...].
func parseKlineRow(symbol string, row []any) (*domain.Bar, error) {
	if len(row) < 9 {
		return nil, fmt.Errorf("kline row has %d fields, want at least 9", len(row))
	}

	openTime, err := asInt64(row[0])
	if err != nil {
		return nil, fmt.Errorf("open time: %w", err)
	}

	fields := make([]float64, 6)
	for i, idx := range []int{1, 2, 3, 4, 5, 7} {
		v, err := asFloat(row[idx])
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", idx, err)
		}
		fields[i] = v
	}

	trades, err := asInt64(row[8])
	if err != nil {
		return nil, fmt.Errorf("trade count: %w", err)
	}

	bar := &domain.Bar{
		Symbol:      symbol,
		Date:        time.UnixMilli(openTime).UTC().Format(domain.DateFormat),
		OpenTimeMs:  openTime,
		Open:        fields[0],
		High:        fields[1],
		Low:         fields[2],
		Close:       fields[3],
		Volume:      fields[4],
		QuoteVolume: fields[5],
		Trades:      trades,
	}
	if err := bar.Validate(); err != nil {
		return nil, err
	}
	return bar, nil
}

func asFloat(v any) (float64, error) {
	switch t := v.(type) {
	case string:
		return strconv.ParseFloat(t, 64)
	case float64:
		return t, nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}

func asInt64(v any) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
