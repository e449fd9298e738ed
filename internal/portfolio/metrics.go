package portfolio

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"hodltrack/internal/fx"
	"hodltrack/internal/models"
	"hodltrack/internal/prices"
)

// MetricsInput is the snapshot a metrics computation runs over. Transactions
// may arrive in any order; soft-deleted rows must already be filtered out.
type MetricsInput struct {
	Transactions []models.Transaction
	Wallets      []models.Wallet
	Quote        prices.Quote
	Rates        *fx.Table
	Detailed     bool

	// Now anchors the annualized-return computation in the detailed block.
	Now time.Time

	// SecondaryCurrency, when set, adds an extra display conversion of the
	// portfolio value.
	SecondaryCurrency string
}

// WalletBalance is the derived balance of one wallet.
type WalletBalance struct {
	WalletID    string                   `json:"wallet_id"`
	Name        string                   `json:"name"`
	Temperature models.WalletTemperature `json:"temperature"`
	BTC         decimal.Decimal          `json:"btc"`
	Value       decimal.Decimal          `json:"value"`
}

// TemperatureSplit aggregates holdings by custody temperature.
type TemperatureSplit struct {
	HotBTC    decimal.Decimal `json:"hot_btc"`
	ColdBTC   decimal.Decimal `json:"cold_btc"`
	HotValue  decimal.Decimal `json:"hot_value"`
	ColdValue decimal.Decimal `json:"cold_value"`
}

// MonthlySummary is one calendar month of ledger activity in the reporting
// currency.
type MonthlySummary struct {
	Month       string          `json:"month"` // YYYY-MM
	Invested    decimal.Decimal `json:"invested"`
	Received    decimal.Decimal `json:"received"`
	BTCBought   decimal.Decimal `json:"btc_bought"`
	BTCSold     decimal.Decimal `json:"btc_sold"`
	NetBTC      decimal.Decimal `json:"net_btc"`
	AvgBuyPrice decimal.Decimal `json:"avg_buy_price"`
}

// DetailedMetrics carries the extras behind the detailed flag.
type DetailedMetrics struct {
	MonthlyBreakdown    []MonthlySummary `json:"monthly_breakdown"`
	AnnualizedReturnPct decimal.Decimal  `json:"annualized_return_pct"`
	WinningBuys         int              `json:"winning_buys"`
	LosingBuys          int              `json:"losing_buys"`
}

// Metrics is the portfolio report, fully normalized into the reporting
// currency. An empty ledger yields a well-formed zero report, never an error.
type Metrics struct {
	Currency string `json:"currency"`

	CurrentPrice   decimal.Decimal `json:"current_price"`
	PriceChange24h decimal.Decimal `json:"price_change_24h"`

	TotalBought      decimal.Decimal `json:"total_bought"`
	TotalSold        decimal.Decimal `json:"total_sold"`
	TransferredIn    decimal.Decimal `json:"transferred_in"`
	TransferredOut   decimal.Decimal `json:"transferred_out"`
	BTCFeesBurned    decimal.Decimal `json:"btc_fees_burned"`
	CurrentHoldings  decimal.Decimal `json:"current_holdings"`
	BTCWithCostBasis decimal.Decimal `json:"btc_with_cost_basis"`

	AvgBuyPrice  decimal.Decimal `json:"avg_buy_price"`
	AvgSellPrice decimal.Decimal `json:"avg_sell_price"`

	TotalInvested decimal.Decimal `json:"total_invested"`
	TotalReceived decimal.Decimal `json:"total_received"`
	FiatFeesPaid  decimal.Decimal `json:"fiat_fees_paid"`

	CurrentValue          decimal.Decimal  `json:"current_value"`
	SecondaryCurrency     string           `json:"secondary_currency,omitempty"`
	CurrentValueSecondary *decimal.Decimal `json:"current_value_secondary,omitempty"`

	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
	RealizedPnL   decimal.Decimal `json:"realized_pnl"`
	TotalPnL      decimal.Decimal `json:"total_pnl"`
	ROIPct        decimal.Decimal `json:"roi_pct"`

	ValueChange24h    decimal.Decimal `json:"value_change_24h"`
	ValueChange24hPct decimal.Decimal `json:"value_change_24h_pct"`

	Wallets     []WalletBalance  `json:"wallets"`
	Temperature TemperatureSplit `json:"temperature"`

	// Degraded is true when any price or rate fell back to its constant.
	Degraded bool `json:"degraded"`

	Detailed *DetailedMetrics `json:"detailed,omitempty"`
}

// ComputeMetrics derives the full portfolio report from a snapshot.
func ComputeMetrics(in MetricsInput) Metrics {
	entries := normalizeLedger(in.Transactions)

	m := Metrics{
		Currency: in.Rates.Target(),
		Degraded: in.Quote.Fallback || in.Rates.Degraded(),
		Wallets:  []WalletBalance{},
	}

	priceConv := in.Rates.Convert(in.Quote.Price, in.Quote.Currency)
	changeConv := in.Rates.Convert(in.Quote.Change24h, in.Quote.Currency)
	m.CurrentPrice = priceConv.Amount
	m.PriceChange24h = changeConv.Amount
	m.Degraded = m.Degraded || priceConv.UsedFallback

	var weightedBuy, weightedSell decimal.Decimal

	for _, e := range entries {
		switch e.Kind {
		case models.TransactionKindBuy:
			m.TotalBought = m.TotalBought.Add(e.BTCAmount)
			unit := in.Rates.Convert(e.PricePerBTC, e.Currency)
			total := in.Rates.Convert(e.TotalAmount, e.Currency)
			weightedBuy = weightedBuy.Add(unit.Amount.Mul(e.BTCAmount))
			m.TotalInvested = m.TotalInvested.Add(total.Amount)
			m.Degraded = m.Degraded || unit.UsedFallback || total.UsedFallback
		case models.TransactionKindSell:
			m.TotalSold = m.TotalSold.Add(e.BTCAmount)
			unit := in.Rates.Convert(e.PricePerBTC, e.Currency)
			total := in.Rates.Convert(e.TotalAmount, e.Currency)
			weightedSell = weightedSell.Add(unit.Amount.Mul(e.BTCAmount))
			m.TotalReceived = m.TotalReceived.Add(total.Amount)
			m.Degraded = m.Degraded || unit.UsedFallback || total.UsedFallback
		case models.TransactionKindTransfer:
			switch e.category {
			case models.TransferExternalIn:
				m.TransferredIn = m.TransferredIn.Add(e.BTCAmount)
			case models.TransferExternalOut:
				m.TransferredOut = m.TransferredOut.Add(e.BTCAmount)
			}
			m.BTCFeesBurned = m.BTCFeesBurned.Add(e.BTCFee())
		}

		if fee := e.FiatFee(); fee.IsPositive() {
			conv := in.Rates.Convert(fee, e.FeeCurrency)
			m.FiatFeesPaid = m.FiatFeesPaid.Add(conv.Amount)
			m.Degraded = m.Degraded || conv.UsedFallback
		}
	}

	m.CurrentHoldings = m.TotalBought.Sub(m.TotalSold).
		Add(m.TransferredIn).Sub(m.TransferredOut).Sub(m.BTCFeesBurned)

	// Transferred-in coins carry no acquisition cost, so the cost-basis pool
	// is what was bought and not yet sold or burned, capped by what is left.
	m.BTCWithCostBasis = m.TotalBought.Sub(m.TotalSold).Sub(m.BTCFeesBurned)
	if m.BTCWithCostBasis.GreaterThan(m.CurrentHoldings) {
		m.BTCWithCostBasis = m.CurrentHoldings
	}
	if m.BTCWithCostBasis.IsNegative() {
		m.BTCWithCostBasis = decimal.Zero
	}

	if m.TotalBought.IsPositive() {
		m.AvgBuyPrice = weightedBuy.Div(m.TotalBought)
	}
	if m.TotalSold.IsPositive() {
		m.AvgSellPrice = weightedSell.Div(m.TotalSold)
	}

	m.CurrentValue = m.CurrentHoldings.Mul(m.CurrentPrice)
	m.UnrealizedPnL = m.BTCWithCostBasis.Mul(m.CurrentPrice.Sub(m.AvgBuyPrice))
	m.RealizedPnL = m.TotalReceived.Sub(m.TotalSold.Mul(m.AvgBuyPrice))
	m.TotalPnL = m.UnrealizedPnL.Add(m.RealizedPnL).Sub(m.FiatFeesPaid)

	if m.TotalInvested.IsPositive() {
		m.ROIPct = m.CurrentValue.Add(m.TotalReceived).Sub(m.TotalInvested).
			Div(m.TotalInvested).Mul(decimal.New(100, 0))
	}

	m.ValueChange24h = m.CurrentHoldings.Mul(m.PriceChange24h)
	if prev := m.CurrentValue.Sub(m.ValueChange24h); !prev.IsZero() {
		m.ValueChange24hPct = m.ValueChange24h.Div(prev).Mul(decimal.New(100, 0))
	}

	m.Wallets, m.Temperature = balancesAndSplit(entries, in.Wallets, m.CurrentPrice)

	if in.SecondaryCurrency != "" && in.SecondaryCurrency != m.Currency {
		conv := in.Rates.ConvertTo(m.CurrentValue, in.SecondaryCurrency)
		m.SecondaryCurrency = in.SecondaryCurrency
		m.CurrentValueSecondary = &conv.Amount
		m.Degraded = m.Degraded || conv.UsedFallback
	}

	if in.Detailed {
		m.Detailed = computeDetailed(entries, in, m)
	}

	return m
}

// balancesAndSplit derives per-wallet balances for includeInTotal wallets
// and the temperature split. Ledgers with no wallets at all fall back to
// the legacy two-bucket computation.
func balancesAndSplit(entries []entry, wallets []models.Wallet, unitPrice decimal.Decimal) ([]WalletBalance, TemperatureSplit) {
	var split TemperatureSplit
	balances := []WalletBalance{}

	if len(wallets) == 0 {
		hot, cold := legacyTemperatureSplit(entries)
		split.HotBTC, split.ColdBTC = hot, cold
		split.HotValue = hot.Mul(unitPrice)
		split.ColdValue = cold.Mul(unitPrice)
		return balances, split
	}

	flows := walletFlows(entries)
	for _, w := range wallets {
		if !w.IncludeInTotal {
			continue
		}
		btc := flows[w.ID].balance()
		balances = append(balances, WalletBalance{
			WalletID:    w.ID,
			Name:        w.Name,
			Temperature: w.Temperature,
			BTC:         btc,
			Value:       btc.Mul(unitPrice),
		})
		if w.Temperature == models.WalletTemperatureCold {
			split.ColdBTC = split.ColdBTC.Add(btc)
		} else {
			split.HotBTC = split.HotBTC.Add(btc)
		}
	}
	split.HotValue = split.HotBTC.Mul(unitPrice)
	split.ColdValue = split.ColdBTC.Mul(unitPrice)
	return balances, split
}

// BalancesFor derives balances for the given wallets without running the
// rest of the metrics computation. Used by wallet listings; unlike the
// metrics report it includes wallets excluded from totals.
func BalancesFor(transactions []models.Transaction, wallets []models.Wallet, unitPrice decimal.Decimal) []WalletBalance {
	flows := walletFlows(normalizeLedger(transactions))
	balances := make([]WalletBalance, 0, len(wallets))
	for _, w := range wallets {
		btc := flows[w.ID].balance()
		balances = append(balances, WalletBalance{
			WalletID:    w.ID,
			Name:        w.Name,
			Temperature: w.Temperature,
			BTC:         btc,
			Value:       btc.Mul(unitPrice),
		})
	}
	return balances
}

// computeDetailed builds the monthly breakdown, annualized return and
// win/loss counts.
func computeDetailed(entries []entry, in MetricsInput, m Metrics) *DetailedMetrics {
	detailed := &DetailedMetrics{MonthlyBreakdown: []MonthlySummary{}}

	type monthAgg struct {
		summary     MonthlySummary
		weightedBuy decimal.Decimal
	}
	months := make(map[string]*monthAgg)
	var firstBuy *time.Time

	for i := range entries {
		e := entries[i]
		if e.Kind != models.TransactionKindBuy && e.Kind != models.TransactionKindSell {
			continue
		}

		key := monthKey(e.Timestamp)
		agg, ok := months[key]
		if !ok {
			agg = &monthAgg{summary: MonthlySummary{Month: key}}
			months[key] = agg
		}

		unit := in.Rates.Convert(e.PricePerBTC, e.Currency)
		total := in.Rates.Convert(e.TotalAmount, e.Currency)

		if e.Kind == models.TransactionKindBuy {
			agg.summary.Invested = agg.summary.Invested.Add(total.Amount)
			agg.summary.BTCBought = agg.summary.BTCBought.Add(e.BTCAmount)
			agg.weightedBuy = agg.weightedBuy.Add(unit.Amount.Mul(e.BTCAmount))
			if firstBuy == nil {
				t := e.Timestamp
				firstBuy = &t
			}
			if unit.Amount.LessThan(m.CurrentPrice) {
				detailed.WinningBuys++
			} else if unit.Amount.GreaterThan(m.CurrentPrice) {
				detailed.LosingBuys++
			}
		} else {
			agg.summary.Received = agg.summary.Received.Add(total.Amount)
			agg.summary.BTCSold = agg.summary.BTCSold.Add(e.BTCAmount)
		}
	}

	keys := make([]string, 0, len(months))
	for key := range months {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		agg := months[key]
		agg.summary.NetBTC = agg.summary.BTCBought.Sub(agg.summary.BTCSold)
		if agg.summary.BTCBought.IsPositive() {
			agg.summary.AvgBuyPrice = agg.weightedBuy.Div(agg.summary.BTCBought)
		}
		detailed.MonthlyBreakdown = append(detailed.MonthlyBreakdown, agg.summary)
	}

	detailed.AnnualizedReturnPct = annualizedReturn(firstBuy, in.Now, m.TotalInvested, m.CurrentValue.Add(m.TotalReceived))
	return detailed
}

// annualizedReturn computes ((value/invested)^(365.25/days) − 1) × 100,
// zero when the ledger is younger than a day or nothing was invested.
func annualizedReturn(firstBuy *time.Time, now time.Time, invested, value decimal.Decimal) decimal.Decimal {
	if firstBuy == nil || !invested.IsPositive() || !value.IsPositive() {
		return decimal.Zero
	}
	days := now.Sub(*firstBuy).Hours() / 24
	if days < 1 {
		return decimal.Zero
	}
	ratio := value.Div(invested).InexactFloat64()
	annualized := math.Pow(ratio, 365.25/days) - 1
	if math.IsNaN(annualized) || math.IsInf(annualized, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(annualized * 100)
}
