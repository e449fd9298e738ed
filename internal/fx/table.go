package fx

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Table is an immutable set of prefetched rates into one target currency,
// built by Normalizer.Snapshot. It performs no I/O, which keeps the
// computations consuming it pure.
type Table struct {
	target   string
	rates    map[string]rateEntry
	degraded bool
}

// NewStaticTable builds a Table from fixed rates. Useful for tests and for
// deployments that pin their exchange rates.
func NewStaticTable(target string, rates map[string]decimal.Decimal) *Table {
	table := &Table{target: strings.ToUpper(target), rates: make(map[string]rateEntry, len(rates))}
	for currency, rate := range rates {
		table.rates[strings.ToUpper(currency)] = rateEntry{rate: rate}
	}
	return table
}

// Target returns the reporting currency code.
func (t *Table) Target() string { return t.target }

// Convert normalizes amount into the target currency using only prefetched
// rates. Currencies that were never prefetched fall back to 1.0.
func (t *Table) Convert(amount decimal.Decimal, from string) Conversion {
	rate, fallback := t.RateFor(from)
	return Conversion{Amount: amount.Mul(rate), Rate: rate, UsedFallback: fallback}
}

// ConvertTo converts an amount already denominated in the target currency
// into another currency, using the inverse of that currency's prefetched
// rate. Missing or fallback rates degrade to 1.0 like everything else.
func (t *Table) ConvertTo(amount decimal.Decimal, to string) Conversion {
	to = strings.ToUpper(to)
	if to == t.target {
		return Conversion{Amount: amount, Rate: decimal.New(1, 0)}
	}
	if entry, ok := t.rates[to]; ok && !entry.fallback && entry.rate.IsPositive() {
		rate := decimal.New(1, 0).Div(entry.rate)
		return Conversion{Amount: amount.Mul(rate), Rate: rate}
	}
	return Conversion{Amount: amount, Rate: decimal.New(1, 0), UsedFallback: true}
}

// RateFor returns the prefetched rate for the given currency and whether it
// is a 1.0 fallback.
func (t *Table) RateFor(from string) (decimal.Decimal, bool) {
	from = strings.ToUpper(from)
	if from == t.target {
		return decimal.New(1, 0), false
	}
	if entry, ok := t.rates[from]; ok {
		return entry.rate, entry.fallback
	}
	return decimal.New(1, 0), true
}

// Degraded reports whether any prefetched rate fell back to 1.0.
func (t *Table) Degraded() bool { return t.degraded }
