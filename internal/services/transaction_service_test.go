package services

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"hodltrack/internal/models"
	"hodltrack/internal/pagination"
	"hodltrack/internal/testutil"
)

func newTestTransactionService(db *gorm.DB) TransactionServicer {
	walletSvc := NewWalletService(db, usdFeed("50000"), noRates(), NewSettingsService(db))
	return NewTransactionService(db, walletSvc)
}

func TestCreateTransaction(t *testing.T) {
	t.Run("buy_with_defaults", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		userID := testutil.NewUserID()

		tx, err := svc.CreateTransaction(userID, TransactionInput{
			Kind:        models.TransactionKindBuy,
			BTCAmount:   dec("0.5"),
			PricePerBTC: dec("40000"),
		})
		testutil.AssertNoError(t, err)

		if tx.ID == "" {
			t.Fatal("expected non-empty transaction ID")
		}
		if tx.Currency != "USD" {
			t.Errorf("expected default currency USD, got %q", tx.Currency)
		}
		if tx.FeeCurrency != "USD" {
			t.Errorf("expected fee currency to default to currency, got %q", tx.FeeCurrency)
		}
		testutil.AssertDecimal(t, "20000", tx.TotalAmount)
		if tx.Timestamp.IsZero() {
			t.Error("expected timestamp to be defaulted to now, got zero")
		}
	})

	t.Run("keeps_explicit_total_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		userID := testutil.NewUserID()

		tx, err := svc.CreateTransaction(userID, TransactionInput{
			Kind:        models.TransactionKindBuy,
			BTCAmount:   dec("0.5"),
			PricePerBTC: dec("40000"),
			TotalAmount: dec("19950"),
		})
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "19950", tx.TotalAmount)
	})

	t.Run("zero_btc_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		userID := testutil.NewUserID()

		_, err := svc.CreateTransaction(userID, TransactionInput{
			Kind:        models.TransactionKindBuy,
			BTCAmount:   dec("0"),
			PricePerBTC: dec("40000"),
		})
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")
	})

	t.Run("negative_btc_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		userID := testutil.NewUserID()

		_, err := svc.CreateTransaction(userID, TransactionInput{
			Kind:        models.TransactionKindBuy,
			BTCAmount:   dec("-0.1"),
			PricePerBTC: dec("40000"),
		})
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")
	})

	t.Run("negative_fee", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		userID := testutil.NewUserID()

		_, err := svc.CreateTransaction(userID, TransactionInput{
			Kind:        models.TransactionKindBuy,
			BTCAmount:   dec("0.5"),
			PricePerBTC: dec("40000"),
			Fee:         dec("-5"),
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("buy_without_price", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		userID := testutil.NewUserID()

		_, err := svc.CreateTransaction(userID, TransactionInput{
			Kind:      models.TransactionKindBuy,
			BTCAmount: dec("0.5"),
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("buy_with_transfer_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		userID := testutil.NewUserID()

		_, err := svc.CreateTransaction(userID, TransactionInput{
			Kind:             models.TransactionKindBuy,
			TransferCategory: models.TransferInternal,
			BTCAmount:        dec("0.5"),
			PricePerBTC:      dec("40000"),
		})
		testutil.AssertAppError(t, err, "INVALID_TRANSFER_INFO")
	})

	t.Run("transfer_requires_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		userID := testutil.NewUserID()

		_, err := svc.CreateTransaction(userID, TransactionInput{
			Kind:      models.TransactionKindTransfer,
			BTCAmount: dec("0.5"),
		})
		testutil.AssertAppError(t, err, "INVALID_TRANSFER_INFO")
	})

	t.Run("transfer_unknown_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		userID := testutil.NewUserID()

		_, err := svc.CreateTransaction(userID, TransactionInput{
			Kind:             models.TransactionKindTransfer,
			TransferCategory: models.TransferCategory("sideways"),
			BTCAmount:        dec("0.5"),
		})
		testutil.AssertAppError(t, err, "INVALID_TRANSFER_INFO")
	})

	t.Run("transfer_keeps_zero_total", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		userID := testutil.NewUserID()

		tx, err := svc.CreateTransaction(userID, TransactionInput{
			Kind:             models.TransactionKindTransfer,
			TransferCategory: models.TransferInternal,
			BTCAmount:        dec("0.5"),
		})
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "0", tx.TotalAmount)
	})

	t.Run("unknown_kind", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		userID := testutil.NewUserID()

		_, err := svc.CreateTransaction(userID, TransactionInput{
			Kind:      models.TransactionKind("airdrop"),
			BTCAmount: dec("0.5"),
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("same_wallet_transfer", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		userID := testutil.NewUserID()
		wallet := testutil.CreateTestWallet(t, db, userID, models.WalletTemperatureHot)

		_, err := svc.CreateTransaction(userID, TransactionInput{
			Kind:                models.TransactionKindTransfer,
			TransferCategory:    models.TransferInternal,
			BTCAmount:           dec("0.5"),
			SourceWalletID:      &wallet.ID,
			DestinationWalletID: &wallet.ID,
		})
		testutil.AssertAppError(t, err, "SAME_WALLET_TRANSFER")
	})

	t.Run("rejects_foreign_wallet", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		owner := testutil.NewUserID()
		intruder := testutil.NewUserID()
		wallet := testutil.CreateTestWallet(t, db, owner, models.WalletTemperatureHot)

		_, err := svc.CreateTransaction(intruder, TransactionInput{
			Kind:                models.TransactionKindBuy,
			BTCAmount:           dec("0.5"),
			PricePerBTC:         dec("40000"),
			DestinationWalletID: &wallet.ID,
		})
		testutil.AssertAppError(t, err, "WALLET_NOT_FOUND")
	})

	t.Run("persists_tags", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		userID := testutil.NewUserID()

		created, err := svc.CreateTransaction(userID, TransactionInput{
			Kind:        models.TransactionKindBuy,
			BTCAmount:   dec("0.1"),
			PricePerBTC: dec("40000"),
			Tags:        []string{"kraken", "dca"},
		})
		testutil.AssertNoError(t, err)

		reloaded, err := svc.GetTransactionByID(userID, created.ID)
		testutil.AssertNoError(t, err)
		if len(reloaded.Tags) != 2 || reloaded.Tags[0] != "kraken" || reloaded.Tags[1] != "dca" {
			t.Errorf("expected tags [kraken dca], got %v", reloaded.Tags)
		}
	})
}

func TestGetUserTransactions(t *testing.T) {
	t.Run("newest_first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		userID := testutil.NewUserID()

		base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		testutil.CreateTestBuy(t, db, userID, "0.1", "40000", base)
		testutil.CreateTestBuy(t, db, userID, "0.2", "42000", base.AddDate(0, 0, 2))
		testutil.CreateTestBuy(t, db, userID, "0.3", "44000", base.AddDate(0, 0, 1))

		page := pagination.PageRequest{Page: 1, PageSize: 20}
		result, err := svc.GetUserTransactions(userID, page, TransactionFilter{})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 3 {
			t.Fatalf("expected 3 transactions, got %d", result.TotalItems)
		}
		testutil.AssertDecimal(t, "0.2", result.Data[0].BTCAmount)
		testutil.AssertDecimal(t, "0.1", result.Data[2].BTCAmount)
	})

	t.Run("paginates", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		userID := testutil.NewUserID()

		base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		for i := 0; i < 5; i++ {
			testutil.CreateTestBuy(t, db, userID, "0.1", "40000", base.AddDate(0, 0, i))
		}

		page := pagination.PageRequest{Page: 1, PageSize: 2}
		result, err := svc.GetUserTransactions(userID, page, TransactionFilter{})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 5 {
			t.Errorf("expected total 5, got %d", result.TotalItems)
		}
		if len(result.Data) != 2 {
			t.Errorf("expected 2 items on page, got %d", len(result.Data))
		}
		if result.TotalPages != 3 {
			t.Errorf("expected 3 total pages, got %d", result.TotalPages)
		}
	})

	t.Run("filters_by_kind", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		userID := testutil.NewUserID()

		base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		testutil.CreateTestBuy(t, db, userID, "0.5", "40000", base)
		testutil.CreateTestBuy(t, db, userID, "0.5", "41000", base.AddDate(0, 0, 1))
		testutil.CreateTestSell(t, db, userID, "0.2", "45000", base.AddDate(0, 0, 2))

		kind := models.TransactionKindSell
		page := pagination.PageRequest{Page: 1, PageSize: 20}
		result, err := svc.GetUserTransactions(userID, page, TransactionFilter{Kind: &kind})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 1 {
			t.Errorf("expected 1 sell, got %d", result.TotalItems)
		}
	})

	t.Run("filters_by_date_range", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		userID := testutil.NewUserID()

		base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		testutil.CreateTestBuy(t, db, userID, "0.1", "40000", base)
		testutil.CreateTestBuy(t, db, userID, "0.2", "41000", base.AddDate(0, 1, 0))
		testutil.CreateTestBuy(t, db, userID, "0.3", "42000", base.AddDate(0, 2, 0))

		from := base.AddDate(0, 0, 15)
		to := base.AddDate(0, 1, 15)
		page := pagination.PageRequest{Page: 1, PageSize: 20}
		result, err := svc.GetUserTransactions(userID, page, TransactionFilter{FromDate: &from, ToDate: &to})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 1 {
			t.Fatalf("expected 1 transaction in range, got %d", result.TotalItems)
		}
		testutil.AssertDecimal(t, "0.2", result.Data[0].BTCAmount)
	})

	t.Run("filters_by_wallet", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		userID := testutil.NewUserID()
		hot := testutil.CreateTestWallet(t, db, userID, models.WalletTemperatureHot)
		cold := testutil.CreateTestWallet(t, db, userID, models.WalletTemperatureCold)

		base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		// Buy into hot, move to cold, then a buy that touches neither.
		_, err := svc.CreateTransaction(userID, TransactionInput{
			Kind: models.TransactionKindBuy, BTCAmount: dec("1"), PricePerBTC: dec("40000"),
			Timestamp: base, DestinationWalletID: &hot.ID,
		})
		testutil.AssertNoError(t, err)
		_, err = svc.CreateTransaction(userID, TransactionInput{
			Kind: models.TransactionKindTransfer, TransferCategory: models.TransferInternal,
			BTCAmount: dec("0.5"), Timestamp: base.AddDate(0, 0, 1),
			SourceWalletID: &hot.ID, DestinationWalletID: &cold.ID,
		})
		testutil.AssertNoError(t, err)
		testutil.CreateTestBuy(t, db, userID, "0.1", "41000", base.AddDate(0, 0, 2))

		page := pagination.PageRequest{Page: 1, PageSize: 20}
		result, err := svc.GetUserTransactions(userID, page, TransactionFilter{WalletID: &hot.ID})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 2 {
			t.Errorf("expected 2 transactions touching the hot wallet, got %d", result.TotalItems)
		}
	})

	t.Run("user_isolation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		user1 := testutil.NewUserID()
		user2 := testutil.NewUserID()

		base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		testutil.CreateTestBuy(t, db, user1, "0.1", "40000", base)
		testutil.CreateTestBuy(t, db, user2, "0.2", "40000", base)

		page := pagination.PageRequest{Page: 1, PageSize: 20}
		result, err := svc.GetUserTransactions(user1, page, TransactionFilter{})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 1 {
			t.Errorf("expected 1 transaction for user1, got %d", result.TotalItems)
		}
	})
}

func TestGetAllUserTransactions(t *testing.T) {
	t.Run("oldest_first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		userID := testutil.NewUserID()

		base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		testutil.CreateTestBuy(t, db, userID, "0.2", "42000", base.AddDate(0, 0, 5))
		testutil.CreateTestBuy(t, db, userID, "0.1", "40000", base)

		all, err := svc.GetAllUserTransactions(userID)
		testutil.AssertNoError(t, err)

		if len(all) != 2 {
			t.Fatalf("expected 2 transactions, got %d", len(all))
		}
		testutil.AssertDecimal(t, "0.1", all[0].BTCAmount)
		testutil.AssertDecimal(t, "0.2", all[1].BTCAmount)
	})

	t.Run("empty_ledger", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)

		all, err := svc.GetAllUserTransactions(testutil.NewUserID())
		testutil.AssertNoError(t, err)
		if len(all) != 0 {
			t.Errorf("expected empty ledger, got %d rows", len(all))
		}
	})
}

func TestGetTransactionByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		userID := testutil.NewUserID()
		created := testutil.CreateTestBuy(t, db, userID, "0.25", "40000", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

		tx, err := svc.GetTransactionByID(userID, created.ID)
		testutil.AssertNoError(t, err)

		if tx.ID != created.ID {
			t.Errorf("expected transaction ID %s, got %s", created.ID, tx.ID)
		}
		testutil.AssertDecimal(t, "0.25", tx.BTCAmount)
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)

		_, err := svc.GetTransactionByID(testutil.NewUserID(), testutil.NewUserID())
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})

	t.Run("wrong_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		owner := testutil.NewUserID()
		created := testutil.CreateTestBuy(t, db, owner, "0.25", "40000", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

		_, err := svc.GetTransactionByID(testutil.NewUserID(), created.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}

func TestUpdateTransaction(t *testing.T) {
	t.Run("corrects_amount_without_rederiving_total", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		userID := testutil.NewUserID()
		created := testutil.CreateTestBuy(t, db, userID, "0.5", "40000", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

		newAmount := dec("0.6")
		updated, err := svc.UpdateTransaction(userID, created.ID, TransactionUpdateFields{BTCAmount: &newAmount})
		testutil.AssertNoError(t, err)

		testutil.AssertDecimal(t, "0.6", updated.BTCAmount)
		// Corrections are explicit; the total stays as recorded.
		testutil.AssertDecimal(t, "20000", updated.TotalAmount)
	})

	t.Run("allows_buy_to_sell", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		userID := testutil.NewUserID()
		created := testutil.CreateTestBuy(t, db, userID, "0.5", "40000", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

		sell := models.TransactionKindSell
		updated, err := svc.UpdateTransaction(userID, created.ID, TransactionUpdateFields{Kind: &sell})
		testutil.AssertNoError(t, err)

		if updated.Kind != models.TransactionKindSell {
			t.Errorf("expected kind sell, got %s", updated.Kind)
		}
	})

	t.Run("rejects_buy_to_transfer", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		userID := testutil.NewUserID()
		created := testutil.CreateTestBuy(t, db, userID, "0.5", "40000", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

		transfer := models.TransactionKindTransfer
		_, err := svc.UpdateTransaction(userID, created.ID, TransactionUpdateFields{Kind: &transfer})
		testutil.AssertAppError(t, err, "UNSUPPORTED_KIND_CHANGE")
	})

	t.Run("rejects_transfer_to_buy", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		userID := testutil.NewUserID()
		created := testutil.CreateTestTransfer(t, db, userID, models.TransferInternal, "0.5", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

		buy := models.TransactionKindBuy
		_, err := svc.UpdateTransaction(userID, created.ID, TransactionUpdateFields{Kind: &buy})
		testutil.AssertAppError(t, err, "UNSUPPORTED_KIND_CHANGE")
	})

	t.Run("revalidates_result", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		userID := testutil.NewUserID()
		created := testutil.CreateTestBuy(t, db, userID, "0.5", "40000", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

		bad := dec("-1")
		_, err := svc.UpdateTransaction(userID, created.ID, TransactionUpdateFields{BTCAmount: &bad})
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")
	})

	t.Run("checks_new_wallet_ownership", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		userID := testutil.NewUserID()
		created := testutil.CreateTestBuy(t, db, userID, "0.5", "40000", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
		foreign := testutil.CreateTestWallet(t, db, testutil.NewUserID(), models.WalletTemperatureHot)

		_, err := svc.UpdateTransaction(userID, created.ID, TransactionUpdateFields{DestinationWalletID: &foreign.ID})
		testutil.AssertAppError(t, err, "WALLET_NOT_FOUND")
	})

	t.Run("replaces_tags", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		userID := testutil.NewUserID()
		created := testutil.CreateTestBuy(t, db, userID, "0.5", "40000", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

		tags := []string{"rebalance"}
		updated, err := svc.UpdateTransaction(userID, created.ID, TransactionUpdateFields{Tags: &tags})
		testutil.AssertNoError(t, err)

		if len(updated.Tags) != 1 || updated.Tags[0] != "rebalance" {
			t.Errorf("expected tags [rebalance], got %v", updated.Tags)
		}
	})

	t.Run("wrong_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		owner := testutil.NewUserID()
		created := testutil.CreateTestBuy(t, db, owner, "0.5", "40000", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

		newAmount := dec("1")
		_, err := svc.UpdateTransaction(testutil.NewUserID(), created.ID, TransactionUpdateFields{BTCAmount: &newAmount})
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}

func TestDeleteTransaction(t *testing.T) {
	t.Run("removes_row", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		userID := testutil.NewUserID()
		created := testutil.CreateTestBuy(t, db, userID, "0.5", "40000", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

		err := svc.DeleteTransaction(userID, created.ID)
		testutil.AssertNoError(t, err)

		_, err = svc.GetTransactionByID(userID, created.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)

		err := svc.DeleteTransaction(testutil.NewUserID(), testutil.NewUserID())
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})

	t.Run("wrong_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		owner := testutil.NewUserID()
		created := testutil.CreateTestBuy(t, db, owner, "0.5", "40000", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

		err := svc.DeleteTransaction(testutil.NewUserID(), created.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}
