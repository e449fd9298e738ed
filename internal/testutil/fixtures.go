package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"hodltrack/internal/models"
	"hodltrack/internal/uuid"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// NewUserID returns a fresh owner id. There is no user table; ownership
// comes from the access token, so tests just mint an id.
func NewUserID() string {
	return uuid.New()
}

// CreateTestWallet creates a wallet of the given temperature, included in
// portfolio totals.
func CreateTestWallet(t *testing.T, db *gorm.DB, userID string, temperature models.WalletTemperature) *models.Wallet {
	t.Helper()

	wallet := &models.Wallet{
		UserID:         userID,
		Name:           fmt.Sprintf("Test Wallet %d", nextID()),
		Temperature:    temperature,
		IncludeInTotal: true,
	}
	if err := db.Create(wallet).Error; err != nil {
		t.Fatalf("failed to create test wallet: %v", err)
	}
	return wallet
}

// CreateTestBuy creates a buy of the given size at the given USD unit price.
func CreateTestBuy(t *testing.T, db *gorm.DB, userID, btc, price string, at time.Time) *models.Transaction {
	t.Helper()

	amount := decimal.RequireFromString(btc)
	unit := decimal.RequireFromString(price)
	tx := &models.Transaction{
		UserID:      userID,
		Kind:        models.TransactionKindBuy,
		BTCAmount:   amount,
		PricePerBTC: unit,
		TotalAmount: amount.Mul(unit),
		Currency:    "USD",
		FeeCurrency: "USD",
		Timestamp:   at,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test buy: %v", err)
	}
	return tx
}

// CreateTestSell creates a sell of the given size at the given USD unit price.
func CreateTestSell(t *testing.T, db *gorm.DB, userID, btc, price string, at time.Time) *models.Transaction {
	t.Helper()

	amount := decimal.RequireFromString(btc)
	unit := decimal.RequireFromString(price)
	tx := &models.Transaction{
		UserID:      userID,
		Kind:        models.TransactionKindSell,
		BTCAmount:   amount,
		PricePerBTC: unit,
		TotalAmount: amount.Mul(unit),
		Currency:    "USD",
		FeeCurrency: "USD",
		Timestamp:   at,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test sell: %v", err)
	}
	return tx
}

// CreateTestTransfer creates a transfer of the given category and size.
func CreateTestTransfer(t *testing.T, db *gorm.DB, userID string, category models.TransferCategory, btc string, at time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:           userID,
		Kind:             models.TransactionKindTransfer,
		TransferCategory: category,
		BTCAmount:        decimal.RequireFromString(btc),
		Currency:         "USD",
		FeeCurrency:      "USD",
		Timestamp:        at,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transfer: %v", err)
	}
	return tx
}

// CreateTestPlan creates an active recurring buy plan due now. Tests that
// need a specific schedule mutate the returned plan and save it.
func CreateTestPlan(t *testing.T, db *gorm.DB, userID string, frequency models.PlanFrequency) *models.RecurringPlan {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Minute)
	plan := &models.RecurringPlan{
		UserID:        userID,
		Name:          fmt.Sprintf("Test Plan %d", nextID()),
		Kind:          models.TransactionKindBuy,
		FiatAmount:    decimal.RequireFromString("100"),
		Currency:      "USD",
		FeeCurrency:   "USD",
		Frequency:     frequency,
		StartDate:     now,
		NextExecution: now,
		IsActive:      true,
	}
	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("failed to create test plan: %v", err)
	}
	return plan
}

// CreateTestSettings creates the user's currency settings row.
func CreateTestSettings(t *testing.T, db *gorm.DB, userID string) *models.UserSettings {
	t.Helper()

	settings := models.DefaultSettings(userID)
	if err := db.Create(settings).Error; err != nil {
		t.Fatalf("failed to create test settings: %v", err)
	}
	return settings
}
