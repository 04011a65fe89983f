// Package fredapi is a thin client for the FRED HTTP API: latest
// observations for macro series and release-date lists for the economic
// calendar.
package fredapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/meridianhq/meridian/internal/fetch"
)

// requestTimeout bounds each FRED call. The API is slow under load, so
// this is deliberately looser than the general fetch timeout.
const requestTimeout = 30 * time.Second

// missingValue is FRED's placeholder for an absent observation.
const missingValue = "."

// Client calls the FRED API.
type Client struct {
	fetcher *fetch.Client
	baseURL string
	apiKey  string
}

// NewClient builds a FRED client. baseURL carries no trailing slash.
func NewClient(fetcher *fetch.Client, baseURL, apiKey string) *Client {
	return &Client{fetcher: fetcher, baseURL: baseURL, apiKey: apiKey}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool { return c.apiKey != "" }

// Observation is one dated series value.
type Observation struct {
	Date  time.Time
	Value float64
}

type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// LatestValue returns the most recent non-missing observation of series.
func (c *Client) LatestValue(ctx context.Context, series string) (*Observation, error) {
	obs, err := c.Observations(ctx, series, 10)
	if err != nil {
		return nil, err
	}
	if len(obs) == 0 {
		return nil, fmt.Errorf("fred series %s: no observations", series)
	}
	return &obs[0], nil
}

// Observations returns up to limit most recent non-missing observations,
// newest first.
func (c *Client) Observations(ctx context.Context, series string, limit int) ([]Observation, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("fred series %s: no API key configured", series)
	}
	params := url.Values{}
	params.Set("series_id", series)
	params.Set("api_key", c.apiKey)
	params.Set("file_type", "json")
	params.Set("sort_order", "desc")
	params.Set("limit", strconv.Itoa(limit))

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	body, err := c.fetcher.Get(ctx, c.baseURL+"/series/observations?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("fred series %s: %w", series, err)
	}

	var resp observationsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("fred series %s: decode: %w", series, err)
	}

	var out []Observation
	for _, raw := range resp.Observations {
		if raw.Value == missingValue || raw.Value == "" {
			continue
		}
		value, err := strconv.ParseFloat(raw.Value, 64)
		if err != nil {
			continue
		}
		date, err := time.Parse("2006-01-02", raw.Date)
		if err != nil {
			continue
		}
		out = append(out, Observation{Date: date, Value: value})
	}
	return out, nil
}

type releaseDatesResponse struct {
	ReleaseDates []struct {
		Date string `json:"date"`
	} `json:"release_dates"`
}

// ReleaseDates returns the scheduled dates for a release id from `from`
// onward, ascending.
func (c *Client) ReleaseDates(ctx context.Context, releaseID int, from time.Time) ([]time.Time, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("fred release %d: no API key configured", releaseID)
	}
	params := url.Values{}
	params.Set("release_id", strconv.Itoa(releaseID))
	params.Set("api_key", c.apiKey)
	params.Set("file_type", "json")
	params.Set("include_release_dates_with_no_data", "true")
	params.Set("realtime_start", from.UTC().Format("2006-01-02"))

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	body, err := c.fetcher.Get(ctx, c.baseURL+"/release/dates?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("fred release %d: %w", releaseID, err)
	}

	var resp releaseDatesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("fred release %d: decode: %w", releaseID, err)
	}

	var dates []time.Time
	for _, raw := range resp.ReleaseDates {
		date, err := time.Parse("2006-01-02", raw.Date)
		if err != nil {
			continue
		}
		if date.Before(from) {
			continue
		}
		dates = append(dates, date)
	}
	return dates, nil
}
