// Package fx normalizes fiat amounts recorded in arbitrary currencies into
// a single reporting currency using current exchange rates. Conversions use
// the rate of the moment for historical transactions too; historical-rate
// accuracy is explicitly out of scope.
package fx

import (
	"context"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// RateSource supplies the current exchange rate between two currencies.
// Implementations only ever know "now" rates.
type RateSource interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// Conversion is the result of normalizing a single amount. UsedFallback is
// true when no rate was available and 1.0 was assumed, so callers can
// surface the degradation without the computation failing.
type Conversion struct {
	Amount       decimal.Decimal `json:"amount"`
	Rate         decimal.Decimal `json:"rate"`
	UsedFallback bool            `json:"used_fallback"`
}

type rateEntry struct {
	rate     decimal.Decimal
	fallback bool
}

// Normalizer converts amounts into a single target currency. Rates (and
// failed lookups) are cached in-memory for the lifetime of the instance, so
// one instance should be used per computation snapshot. A missing rate never
// fails a conversion: the normalizer assumes 1.0 and reports it through the
// Conversion result.
type Normalizer struct {
	source RateSource
	target string
	mu     sync.RWMutex
	rates  map[string]rateEntry
}

// NewNormalizer creates a Normalizer targeting the given reporting currency.
func NewNormalizer(source RateSource, target string) *Normalizer {
	return &Normalizer{
		source: source,
		target: strings.ToUpper(target),
		rates:  make(map[string]rateEntry),
	}
}

// Target returns the reporting currency code.
func (n *Normalizer) Target() string { return n.target }

// NeedsConversion returns true if the given currency differs from the target.
func (n *Normalizer) NeedsConversion(from string) bool {
	return strings.ToUpper(from) != n.target
}

// Convert normalizes amount from the given currency into the target
// currency. It never fails; see Conversion.UsedFallback.
func (n *Normalizer) Convert(ctx context.Context, amount decimal.Decimal, from string) Conversion {
	rate, fallback := n.rate(ctx, from)
	return Conversion{Amount: amount.Mul(rate), Rate: rate, UsedFallback: fallback}
}

// Snapshot prefetches rates for every given currency and returns an
// immutable table that converts synchronously without further network calls.
func (n *Normalizer) Snapshot(ctx context.Context, currencies []string) *Table {
	table := &Table{target: n.target, rates: make(map[string]rateEntry, len(currencies))}
	for _, currency := range currencies {
		currency = strings.ToUpper(currency)
		if currency == "" || currency == n.target {
			continue
		}
		if _, ok := table.rates[currency]; ok {
			continue
		}
		rate, fallback := n.rate(ctx, currency)
		table.rates[currency] = rateEntry{rate: rate, fallback: fallback}
		if fallback {
			table.degraded = true
		}
	}
	return table
}

// rate fetches (or returns cached) the rate from the given currency to the
// target. Lookup failures are cached as 1.0 fallbacks so a bad currency is
// asked about once per instance.
func (n *Normalizer) rate(ctx context.Context, from string) (decimal.Decimal, bool) {
	from = strings.ToUpper(from)
	if from == n.target {
		return decimal.New(1, 0), false
	}

	// Check cache.
	n.mu.RLock()
	entry, ok := n.rates[from]
	n.mu.RUnlock()
	if ok {
		return entry.rate, entry.fallback
	}

	entry = rateEntry{rate: decimal.New(1, 0)}
	rate, err := n.source.Rate(ctx, from, n.target)
	switch {
	case err != nil:
		entry.fallback = true
	case !rate.IsPositive():
		entry.fallback = true
	default:
		entry.rate = rate
	}

	n.mu.Lock()
	n.rates[from] = entry
	n.mu.Unlock()

	return entry.rate, entry.fallback
}
