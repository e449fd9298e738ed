package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

const coinGeckoBaseURL = "https://api.coingecko.com/api/v3"

// coinGeckoSimplePrice is the /simple/price response trimmed to bitcoin.
type coinGeckoSimplePrice struct {
	Bitcoin struct {
		USD          decimal.Decimal `json:"usd"`
		USD24hChange decimal.Decimal `json:"usd_24h_change"`
	} `json:"bitcoin"`
}

// CoinGeckoFeed fetches the current BTC quote from CoinGecko.
type CoinGeckoFeed struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
}

// NewCoinGeckoFeed creates a CoinGecko-backed price feed. An empty baseURL
// selects the public API.
func NewCoinGeckoFeed(httpClient *http.Client, baseURL string) *CoinGeckoFeed {
	if baseURL == "" {
		baseURL = coinGeckoBaseURL
	}
	return &CoinGeckoFeed{httpClient: httpClient, baseURL: baseURL}
}

// Current fetches the current BTC price in USD with its 24h change.
func (f *CoinGeckoFeed) Current(ctx context.Context) (Quote, error) {
	url := f.baseURL + "/simple/price?ids=bitcoin&vs_currencies=usd&include_24hr_change=true"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("building price request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("price http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("price request: unexpected status %d", resp.StatusCode)
	}

	var priceResp coinGeckoSimplePrice
	if err := json.NewDecoder(resp.Body).Decode(&priceResp); err != nil {
		return Quote{}, fmt.Errorf("decoding price response: %w", err)
	}

	price := priceResp.Bitcoin.USD
	if !price.IsPositive() {
		return Quote{}, fmt.Errorf("invalid BTC price: %s", price)
	}

	return Quote{
		Price:        price,
		Change24h:    change24hFromPct(price, priceResp.Bitcoin.USD24hChange),
		ChangePct24h: priceResp.Bitcoin.USD24hChange,
		Currency:     "USD",
	}, nil
}

// change24hFromPct derives the absolute 24h price change from the current
// price and the percentage change the feed reports.
func change24hFromPct(price, pct decimal.Decimal) decimal.Decimal {
	denom := decimal.New(1, 0).Add(pct.Div(decimal.New(100, 0)))
	if !denom.IsPositive() {
		return decimal.Zero
	}
	return price.Sub(price.Div(denom))
}
