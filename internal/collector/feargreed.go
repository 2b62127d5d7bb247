package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"chronos-lab/internal/domain"
)

const defaultFearGreedBaseURL = "https://api.alternative.me"

// FearGreedOptions configures the alternative.me index client.
type FearGreedOptions struct {
	BaseURL string
	Timeout time.Duration
}

// FearGreedClient fetches the crypto Fear & Greed index from
// alternative.me. The full history is available without authentication.
type FearGreedClient struct {
	client *resty.Client
}

// NewFearGreedClient creates a Fear & Greed index client.
func NewFearGreedClient(opts FearGreedOptions) *FearGreedClient {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultFearGreedBaseURL
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

	return &FearGreedClient{client: client}
}

// fngResponse mirrors the alternative.me /fng/ payload. All row values
// arrive as strings; timestamps are Unix seconds.
type fngResponse struct {
	Data     []fngRow `json:"data"`
	Metadata struct {
		Error any `json:"error"`
	} `json:"metadata"`
}

type fngRow struct {
	Value               string `json:"value"`
	ValueClassification string `json:"value_classification"`
	Timestamp           string `json:"timestamp"`
}

// GetAll fetches the complete index history, oldest first.
func (c *FearGreedClient) GetAll(ctx context.Context) ([]*domain.SentimentReading, error) {
	return c.fetch(ctx, 0)
}

// GetRecent fetches the most recent days of the index, oldest first.
func (c *FearGreedClient) GetRecent(ctx context.Context, days int) ([]*domain.SentimentReading, error) {
	if days < 1 {
		days = 1
	}
	return c.fetch(ctx, days)
}

// fetch requests limit rows from /fng/; limit 0 means the full history.
// Rows that fail to parse are dropped.
func (c *FearGreedClient) fetch(ctx context.Context, limit int) ([]*domain.SentimentReading, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"limit":  strconv.Itoa(limit),
			"format": "json",
		}).
		Get("/fng/")
	if err != nil {
		return nil, fmt.Errorf("fetch fear & greed index: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch fear & greed index: status %d: %s", resp.StatusCode(), resp.String())
	}

	var payload fngResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("parse fear & greed response: %w", err)
	}
	if payload.Metadata.Error != nil {
		return nil, fmt.Errorf("fear & greed api error: %v", payload.Metadata.Error)
	}

	readings := make([]*domain.SentimentReading, 0, len(payload.Data))
	for _, row := range payload.Data {
		reading, ok := parseFNGRow(row)
		if !ok {
			continue
		}
		readings = append(readings, reading)
	}

	// The API returns newest first.
	sort.Slice(readings, func(i, j int) bool { return readings[i].Date < readings[j].Date })

	return readings, nil
}

func parseFNGRow(row fngRow) (*domain.SentimentReading, bool) {
	value, err := strconv.Atoi(row.Value)
	if err != nil || value < 0 || value > 100 {
		return nil, false
	}
	sec, err := strconv.ParseInt(row.Timestamp, 10, 64)
	if err != nil || sec <= 0 {
		return nil, false
	}

	label := row.ValueClassification
	if label == "" {
		label = domain.ClassifySentiment(value)
	}

	return &domain.SentimentReading{
		Date:  time.Unix(sec, 0).UTC().Format(domain.DateFormat),
		Value: value,
		Label: label,
	}, true
}
