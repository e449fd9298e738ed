// Package portfolio computes cost-basis metrics, profit and loss, and DCA
// strategy analysis from a ledger snapshot. Everything here is pure
// computation: inputs are passed in, nothing is fetched or stored, and the
// same snapshot always yields the same report.
package portfolio

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"hodltrack/internal/models"
)

// entry is a ledger row after ingestion normalization: transfers carry a
// structured category regardless of how the row was recorded, so the math
// below never sees the legacy tag scheme.
type entry struct {
	models.Transaction
	category models.TransferCategory
}

// normalizeLedger classifies transfers and orders the snapshot by event time.
func normalizeLedger(transactions []models.Transaction) []entry {
	entries := make([]entry, 0, len(transactions))
	for _, tx := range transactions {
		e := entry{Transaction: tx}
		if tx.Kind == models.TransactionKindTransfer {
			e.category = resolveTransferCategory(tx)
		}
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries
}

// resolveTransferCategory returns the structured category, falling back to
// the legacy direction tags on rows recorded before the field existed.
// Unclassifiable transfers count as internal moves: they stay out of the
// external flow sums, though a BTC fee still burns.
func resolveTransferCategory(tx models.Transaction) models.TransferCategory {
	if tx.TransferCategory != "" {
		return tx.TransferCategory
	}
	switch {
	case tx.Tags.Has(models.TagLegacyTransferInternal):
		return models.TransferInternal
	case tx.Tags.Has(models.TagLegacyTransferIn):
		return models.TransferExternalIn
	case tx.Tags.Has(models.TagLegacyTransferOut):
		return models.TransferExternalOut
	default:
		return models.TransferInternal
	}
}

// walletFlow accumulates the BTC moving through one wallet.
type walletFlow struct {
	incoming decimal.Decimal
	outgoing decimal.Decimal
	fees     decimal.Decimal
}

// balance is the wallet's derived BTC balance, clamped at zero so a wallet
// with incomplete bookkeeping never reports negative holdings.
func (f walletFlow) balance() decimal.Decimal {
	b := f.incoming.Sub(f.outgoing).Sub(f.fees)
	if b.IsNegative() {
		return decimal.Zero
	}
	return b
}

// walletFlows sums incoming, outgoing and BTC fees per referenced wallet.
// Any transaction kind counts: buys attribute to their destination wallet,
// sells to their source, transfers to both sides. The BTC fee is charged to
// the source side only; the destination receives the gross amount.
func walletFlows(entries []entry) map[string]walletFlow {
	flows := make(map[string]walletFlow)
	for _, e := range entries {
		if e.SourceWalletID != nil {
			flow := flows[*e.SourceWalletID]
			flow.outgoing = flow.outgoing.Add(e.BTCAmount)
			flow.fees = flow.fees.Add(e.BTCFee())
			flows[*e.SourceWalletID] = flow
		}
		if e.DestinationWalletID != nil {
			flow := flows[*e.DestinationWalletID]
			flow.incoming = flow.incoming.Add(e.BTCAmount)
			flows[*e.DestinationWalletID] = flow
		}
	}
	return flows
}

// legacyTemperatureSplit derives the hot/cold split for ledgers recorded
// before wallets existed: buys, sells and external flows act on the hot
// bucket, internal transfers move coins hot to cold, and BTC fees are
// charged to the bucket the coins leave. Buckets are clamped at zero.
func legacyTemperatureSplit(entries []entry) (hot, cold decimal.Decimal) {
	for _, e := range entries {
		switch e.Kind {
		case models.TransactionKindBuy:
			hot = hot.Add(e.BTCAmount)
		case models.TransactionKindSell:
			hot = hot.Sub(e.BTCAmount)
		case models.TransactionKindTransfer:
			switch e.category {
			case models.TransferInternal:
				hot = hot.Sub(e.BTCAmount).Sub(e.BTCFee())
				cold = cold.Add(e.BTCAmount)
			case models.TransferExternalIn:
				hot = hot.Add(e.BTCAmount)
			case models.TransferExternalOut:
				hot = hot.Sub(e.BTCAmount).Sub(e.BTCFee())
			}
		}
	}
	if hot.IsNegative() {
		hot = decimal.Zero
	}
	if cold.IsNegative() {
		cold = decimal.Zero
	}
	return hot, cold
}

// monthKey buckets a timestamp into its UTC calendar month.
func monthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// monthSpan counts calendar months between two timestamps, inclusive.
func monthSpan(first, last time.Time) int {
	f, l := first.UTC(), last.UTC()
	return (l.Year()-f.Year())*12 + int(l.Month()) - int(f.Month()) + 1
}
