package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	yahooBaseURL = "https://query1.finance.yahoo.com"
	yahooUA      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)"
)

// yahooChartResponse is the v8 chart API response, trimmed to what we read.
type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// ForexClient fetches current exchange rates from Yahoo Finance chart
// endpoints ("EURUSD=X" tickers). It satisfies fx.RateSource.
type ForexClient struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
}

// NewForexClient creates a Yahoo-backed forex rate source. An empty baseURL
// selects the public endpoint.
func NewForexClient(httpClient *http.Client, baseURL string) *ForexClient {
	if baseURL == "" {
		baseURL = yahooBaseURL
	}
	return &ForexClient{httpClient: httpClient, baseURL: baseURL}
}

// Rate fetches the current exchange rate from one currency to another.
func (c *ForexClient) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	ticker := strings.ToUpper(from) + strings.ToUpper(to) + "=X"
	url := c.baseURL + "/v8/finance/chart/" + ticker + "?interval=1d&range=1d"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("building forex request: %w", err)
	}
	req.Header.Set("User-Agent", yahooUA)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("forex http request for %s: %w", ticker, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("forex request for %s: unexpected status %d", ticker, resp.StatusCode)
	}

	var chartResp yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chartResp); err != nil {
		return decimal.Zero, fmt.Errorf("decoding forex response for %s: %w", ticker, err)
	}

	if chartResp.Chart.Error != nil {
		return decimal.Zero, fmt.Errorf("forex chart error for %s: %s: %s", ticker, chartResp.Chart.Error.Code, chartResp.Chart.Error.Description)
	}

	if len(chartResp.Chart.Result) == 0 {
		return decimal.Zero, fmt.Errorf("no forex results for %s", ticker)
	}

	rate := chartResp.Chart.Result[0].Meta.RegularMarketPrice
	if rate <= 0 {
		return decimal.Zero, fmt.Errorf("invalid forex rate for %s: %f", ticker, rate)
	}

	return decimal.NewFromFloat(rate), nil
}
