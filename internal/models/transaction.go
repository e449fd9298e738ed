package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind represents the kind of ledger transaction
type TransactionKind string

const (
	TransactionKindBuy      TransactionKind = "buy"
	TransactionKindSell     TransactionKind = "sell"
	TransactionKindTransfer TransactionKind = "transfer"
)

// TransferCategory classifies a transfer's direction. It is empty on rows
// recorded before the structured field existed; those carry one of the
// legacy direction tags instead and are normalized at read time.
type TransferCategory string

const (
	TransferInternal    TransferCategory = "internal"
	TransferExternalIn  TransferCategory = "external_in"
	TransferExternalOut TransferCategory = "external_out"
)

// Legacy free-text tags that classified transfer direction before
// TransferCategory existed. Old rows keep working without a rewrite.
const (
	TagLegacyTransferInternal = "transfer:internal"
	TagLegacyTransferIn       = "transfer:in"
	TagLegacyTransferOut      = "transfer:out"
)

// TagAutoDCA marks transactions appended by the recurring purchase scheduler.
const TagAutoDCA = "auto-dca"

// FeeCurrencyBTC marks a fee denominated in BTC. BTC fees burn holdings;
// fiat fees only reduce P&L.
const FeeCurrencyBTC = "BTC"

// TagList stores free-form tags as a single comma-separated text column
// while exposing them as a JSON array.
type TagList []string

// Value implements driver.Valuer.
func (l TagList) Value() (driver.Value, error) {
	return strings.Join(l, ","), nil
}

// Scan implements sql.Scanner.
func (l *TagList) Scan(value interface{}) error {
	var raw string
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("unsupported tag list type %T", value)
	}

	*l = nil
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			*l = append(*l, tag)
		}
	}
	return nil
}

// GormDataType tells gorm which column type to migrate to.
func (TagList) GormDataType() string { return "text" }

// Has reports whether the list contains tag.
func (l TagList) Has(tag string) bool {
	for _, existing := range l {
		if existing == tag {
			return true
		}
	}
	return false
}

// Transaction is one append-only row of the BTC ledger. Amounts are recorded
// in their native currency at event time; all reporting-currency conversion
// happens at read time with current rates.
type Transaction struct {
	Base
	UserID string          `gorm:"type:uuid;not null;index:idx_transactions_user_time,priority:1" json:"user_id"`
	Kind   TransactionKind `gorm:"not null" json:"kind"`

	// Only meaningful when Kind is transfer.
	TransferCategory TransferCategory `json:"transfer_category,omitempty"`

	// BTCAmount is the gross amount moved; for transfers it leaves the
	// source before the BTC fee is charged on top.
	BTCAmount   decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"btc_amount"`
	PricePerBTC decimal.Decimal `gorm:"type:numeric(20,8)" json:"price_per_btc"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(20,8)" json:"total_amount"`
	Currency    string          `gorm:"not null;default:'USD'" json:"currency"`

	Fee         decimal.Decimal `gorm:"type:numeric(20,8)" json:"fee"`
	FeeCurrency string          `gorm:"not null;default:'USD'" json:"fee_currency"`

	// Timestamp is the event time and the total order for all temporal logic.
	Timestamp time.Time `gorm:"not null;index:idx_transactions_user_time,priority:2" json:"timestamp"`

	SourceWalletID      *string `gorm:"type:uuid" json:"source_wallet_id,omitempty"`
	DestinationWalletID *string `gorm:"type:uuid" json:"destination_wallet_id,omitempty"`

	Tags  TagList `json:"tags,omitempty"`
	Notes string  `json:"notes,omitempty"`

	// PlanID is set on rows appended by the recurring purchase scheduler.
	PlanID *string `gorm:"type:uuid;index" json:"plan_id,omitempty"`
}

// BTCFee returns the fee when it is denominated in BTC, zero otherwise.
func (t *Transaction) BTCFee() decimal.Decimal {
	if t.FeeCurrency == FeeCurrencyBTC {
		return t.Fee
	}
	return decimal.Zero
}

// FiatFee returns the fee when it is denominated in a fiat currency,
// zero otherwise.
func (t *Transaction) FiatFee() decimal.Decimal {
	if t.FeeCurrency == FeeCurrencyBTC {
		return decimal.Zero
	}
	return t.Fee
}
