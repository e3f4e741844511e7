// Package stocks implements the stock-return data source used by backtest
// scoring. The client speaks the Alpha Vantage daily time-series protocol but
// works against any provider exposing the same shape.
package stocks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/alanyoungcy/polysignal/internal/domain"
)

const dateLayout = "2006-01-02"

// Client fetches daily close prices and derives day-over-day percentage
// returns.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a stock-return client. baseURL is the provider query
// endpoint, e.g. "https://www.alphavantage.co/query".
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// dailySeries is the provider response envelope. Close prices are
// string-encoded decimals keyed by calendar date.
type dailySeries struct {
	Series map[string]struct {
		Close string `json:"4. close"`
	} `json:"Time Series (Daily)"`
	Note         string `json:"Note"`
	ErrorMessage string `json:"Error Message"`
}

// DailyReturns returns the percentage return for each trading day in
// (start, end], keyed by YYYY-MM-DD. Days outside the window and the first
// observation (which has no prior close) are excluded. An empty map with nil
// error means the provider had no data for the window.
func (c *Client) DailyReturns(ctx context.Context, ticker string, start, end time.Time) (map[string]float64, error) {
	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY")
	params.Set("symbol", ticker)
	params.Set("outputsize", "compact")
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("stocks: create request for %s: %w", ticker, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stocks: fetch %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("stocks: read response for %s: %w", ticker, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("stocks: fetch %s: unexpected status %d", ticker, resp.StatusCode)
	}

	var series dailySeries
	if err := json.Unmarshal(body, &series); err != nil {
		return nil, fmt.Errorf("stocks: decode response for %s: %w", ticker, err)
	}
	if series.ErrorMessage != "" {
		return nil, fmt.Errorf("stocks: provider error for %s: %s", ticker, series.ErrorMessage)
	}
	if len(series.Series) == 0 {
		// Rate-limit notes and unknown tickers both come back as an empty
		// series; treat them as no data.
		return map[string]float64{}, nil
	}

	return returnsFromCloses(series.Series, start, end), nil
}

// returnsFromCloses converts a date->close map into day-over-day percentage
// returns, clipped to (start, end].
func returnsFromCloses(closes map[string]struct {
	Close string `json:"4. close"`
}, start, end time.Time) map[string]float64 {
	dates := make([]string, 0, len(closes))
	for d := range closes {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	startDay := start.Format(dateLayout)
	endDay := end.Format(dateLayout)

	returns := make(map[string]float64)
	prev := math.NaN()
	for _, d := range dates {
		closePx, err := strconv.ParseFloat(closes[d].Close, 64)
		if err != nil || closePx <= 0 {
			continue
		}
		if !math.IsNaN(prev) && d > startDay && d <= endDay {
			pct := (closePx - prev) / prev * 100
			returns[d] = math.Round(pct*100) / 100
		}
		prev = closePx
	}
	return returns
}

// Compile-time interface check.
var _ domain.ReturnsLookup = (*Client)(nil)
