// Package prices contains the market-data collaborators of the portfolio
// engine: a BTC price feed and a forex rate source. Both are thin HTTP
// clients with overridable base URLs for tests; neither persists anything.
package prices

import (
	"context"

	"github.com/shopspring/decimal"
)

// Quote is the current BTC price in the feed's base currency plus the
// change over the trailing 24 hours.
type Quote struct {
	Price        decimal.Decimal // current price per BTC
	Change24h    decimal.Decimal // absolute price change over 24h
	ChangePct24h decimal.Decimal // percentage change over 24h
	Currency     string          // base currency of the feed, e.g. "USD"
	Fallback     bool            // true when this is the fixed degradation constant
}

// Feed supplies the current BTC quote.
type Feed interface {
	Current(ctx context.Context) (Quote, error)
}

// fallbackPrice is the fixed constant used when the feed is unavailable and
// the caller prefers a degraded result over a failed one.
var fallbackPrice = decimal.New(100000, 0)

// FallbackQuote returns the degradation quote: a fixed price with no 24h
// movement. Metric reads may degrade to it; the recurring purchase executor
// must never buy at it.
func FallbackQuote() Quote {
	return Quote{Price: fallbackPrice, Currency: "USD", Fallback: true}
}
