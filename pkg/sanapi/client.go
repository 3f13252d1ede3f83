package sanapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/grexie/derivatives/pkg/series"
)

const DefaultBaseURL = "https://api.santiment.net/graphql"

var (
	ErrNotFound     = errors.New("metric or slug not found")
	ErrRateLimited  = errors.New("api rate limit reached")
	ErrAuthRequired = errors.New("api key required")
)

// Client fetches datetime-indexed metric series from the GraphQL metrics
// API. The API key lives on the client it was constructed with, never in
// process-wide state.
type Client struct {
	http      *resty.Client
	apiKey    string
	baseURL   string
	batchDays int
}

type Option func(*Client)

func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

func WithHTTPClient(http *resty.Client) Option {
	return func(c *Client) { c.http = http }
}

// WithBatchDays sets the size of the day batches long ranges are split into.
func WithBatchDays(days int) Option {
	return func(c *Client) { c.batchDays = days }
}

// New creates a client. An empty key sends unauthenticated requests, which
// the API accepts for free metrics.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		http:      resty.New(),
		apiKey:    apiKey,
		baseURL:   DefaultBaseURL,
		batchDays: 120,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

const timeseriesQuery = `query ($metric: String!, $slug: String!, $from: DateTime!, $to: DateTime!, $interval: interval!) {
  getMetric(metric: $metric) {
    timeseriesData(slug: $slug, from: $from, to: $to, interval: $interval) {
      datetime
      value
    }
  }
}`

// point is the wire shape of one timeseries entry. A null value is an
// absent observation, kept in place.
type point struct {
	Datetime time.Time `json:"datetime"`
	Value    *float64  `json:"value"`
}

type response struct {
	Data struct {
		GetMetric struct {
			TimeseriesData []point `json:"timeseriesData"`
		} `json:"getMetric"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// FetchTimeseries fetches metric data for slug over [from, to). Long ranges
// are fetched in day batches and concatenated; the result is sorted and
// de-duplicated before it is returned as a series named after the metric.
func (c *Client) FetchTimeseries(ctx context.Context, metric, slug string, from, to time.Time, interval string) (*series.Series, error) {
	points := []point{}

	batch := time.Duration(c.batchDays) * 24 * time.Hour
	for start := from; start.Before(to); start = start.Add(batch) {
		end := start.Add(batch)
		if end.After(to) {
			end = to
		}

		fetched, err := c.fetchBatch(ctx, metric, slug, start, end, interval)
		if err != nil {
			return nil, err
		}
		points = append(points, fetched...)
	}

	return newSeriesFromPoints(metric, points)
}

func (c *Client) fetchBatch(ctx context.Context, metric, slug string, from, to time.Time, interval string) ([]point, error) {
	req := c.http.R().SetContext(ctx).SetHeader("Content-Type", "application/json")
	if c.apiKey != "" {
		req.SetHeader("Authorization", "Apikey "+c.apiKey)
	}
	req.SetBody(map[string]any{
		"query": timeseriesQuery,
		"variables": map[string]any{
			"metric":   metric,
			"slug":     slug,
			"from":     from.UTC().Format(time.RFC3339),
			"to":       to.UTC().Format(time.RFC3339),
			"interval": interval,
		},
	})

	resp, err := req.Post(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("api transport: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", ErrAuthRequired, resp.Status())
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, resp.Status())
	}
	if resp.IsError() {
		return nil, fmt.Errorf("api error response: %s - %s", resp.Status(), string(resp.Body()))
	}

	var parsed response
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("api response decode: %w", err)
	}

	if len(parsed.Errors) > 0 {
		msg := parsed.Errors[0].Message
		lower := strings.ToLower(msg)
		if strings.Contains(lower, "not found") || strings.Contains(lower, "not supported") || strings.Contains(lower, "not existing") {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, msg)
		}
		return nil, fmt.Errorf("api query error: %s", msg)
	}

	return parsed.Data.GetMetric.TimeseriesData, nil
}

func newSeriesFromPoints(metric string, points []point) (*series.Series, error) {
	slices.SortFunc(points, func(a, b point) int {
		return a.Datetime.Compare(b.Datetime)
	})
	points = slices.CompactFunc(points, func(a, b point) bool {
		return a.Datetime.Equal(b.Datetime)
	})

	times := make([]time.Time, len(points))
	values := make([]float64, len(points))
	for i, p := range points {
		times[i] = p.Datetime.UTC()
		if p.Value == nil {
			values[i] = math.NaN()
		} else {
			values[i] = *p.Value
		}
	}

	return series.New(metric, times, values)
}
