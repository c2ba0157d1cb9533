/*
Package solar imports daily production data for a cloud-connected solar
water heater.

The vendor API serves per-day aggregates keyed by date. Energy comes
back in Wh and tank temperatures in tenths of a degree; the client
normalizes both. The API rate-limits aggressively, so 429 responses
are retried with exponential backoff before giving up.
*/
package solar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "https://api.my-pv.com/api/v1"
	maxRetries     = 5
	baseRetryDelay = 2 * time.Second
)

// DayData is one day of normalized production data.
type DayData struct {
	Date      string // 2006-01-02
	EnergyKwh float64
	Temp1     *float64 // tank temperature, degrees C
	Temp2     *float64
}

// Client talks to the vendor cloud API for a single device.
type Client struct {
	baseURL      string
	apiKey       string
	serialNumber string
	httpClient   *http.Client
	log          zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint. Used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// NewClient creates a client for the given device credentials.
func NewClient(apiKey, serialNumber string, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:      defaultBaseURL,
		apiKey:       apiKey,
		serialNumber: serialNumber,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		log:          log.With().Str("component", "solar-client").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiDay mirrors the vendor wire format: raw Wh sums and temperature
// means in tenths of a degree.
type apiDay struct {
	Power *struct {
		Sum float64 `json:"sum"`
	} `json:"i_power"`
	Temp1 *struct {
		Mean float64 `json:"mean"`
	} `json:"i_temp1"`
	Temp2 *struct {
		Mean float64 `json:"mean"`
	} `json:"i_temp2"`
}

// GetDailyData fetches per-day aggregates for [startDate, endDate],
// both formatted 2006-01-02. The API requires startDate < endDate.
func (c *Client) GetDailyData(ctx context.Context, startDate, endDate string) ([]DayData, error) {
	reqURL := fmt.Sprintf("%s/device/%s/logdata?beginDate=%s&endDate=%s&timezone=%s&interval=1d",
		c.baseURL, c.serialNumber, startDate, endDate, url.QueryEscape("Europe/Vienna"))

	var body []byte
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("accept", "application/json")
		req.Header.Set("Authorization", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("solar API request failed: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			if attempt >= maxRetries {
				return nil, fmt.Errorf("solar API rate limit exceeded after %d retries", maxRetries)
			}
			delay := baseRetryDelay * time.Duration(math.Pow(2, float64(attempt)))
			c.log.Warn().
				Dur("delay", delay).
				Int("attempt", attempt+1).
				Msg("Rate limit hit, backing off")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("solar API request failed: %d %s", resp.StatusCode, resp.Status)
		}

		body, err = io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}
		break
	}

	// The response is an object keyed by date.
	var raw map[string]apiDay
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("solar API response malformed: %w", err)
	}
	return transform(raw), nil
}

func transform(raw map[string]apiDay) []DayData {
	out := make([]DayData, 0, len(raw))
	for date, day := range raw {
		d := DayData{Date: date}
		if day.Power != nil {
			// Wh to kWh, rounded to 2 decimals.
			d.EnergyKwh = math.Round(day.Power.Sum/1000*100) / 100
		}
		if day.Temp1 != nil {
			t := day.Temp1.Mean / 10
			d.Temp1 = &t
		}
		if day.Temp2 != nil {
			t := day.Temp2.Mean / 10
			d.Temp2 = &t
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// GetYesterdayData fetches the previous day's aggregate, or nil when
// the API has no data for it yet.
func (c *Client) GetYesterdayData(ctx context.Context, now time.Time) (*DayData, error) {
	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")
	today := now.Format("2006-01-02")

	// The API requires beginDate < endDate, so today is included.
	data, err := c.GetDailyData(ctx, yesterday, today)
	if err != nil {
		return nil, err
	}
	for i := range data {
		if data[i].Date == yesterday {
			return &data[i], nil
		}
	}
	return nil, nil
}
