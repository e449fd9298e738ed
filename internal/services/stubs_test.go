package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"hodltrack/internal/prices"
)

// stubFeed returns a canned quote (or error) so tests never touch the
// network.
type stubFeed struct {
	quote prices.Quote
	err   error
}

func (f *stubFeed) Current(ctx context.Context) (prices.Quote, error) {
	if f.err != nil {
		return prices.Quote{}, f.err
	}
	return f.quote, nil
}

func usdFeed(price string) *stubFeed {
	return &stubFeed{quote: prices.Quote{
		Price:    decimal.RequireFromString(price),
		Currency: "USD",
	}}
}

// stubRates serves canned exchange rates keyed by source currency. Unknown
// currencies error, which the normalizer turns into a 1.0 fallback.
type stubRates struct {
	rates map[string]string
}

func (r *stubRates) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	if rate, ok := r.rates[from]; ok {
		return decimal.RequireFromString(rate), nil
	}
	return decimal.Decimal{}, fmt.Errorf("no rate for %s/%s", from, to)
}

func noRates() *stubRates { return &stubRates{} }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
