package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"hodltrack/internal/models"
	"hodltrack/internal/pagination"
	"hodltrack/internal/prices"
	"hodltrack/internal/testutil"
)

func newTestWalletService(db *gorm.DB, feed prices.Feed) WalletServicer {
	return NewWalletService(db, feed, noRates(), NewSettingsService(db))
}

func TestCreateWallet(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestWalletService(db, usdFeed("50000"))
		userID := testutil.NewUserID()

		wallet, err := svc.CreateWallet(userID, "Ledger Nano", models.WalletTemperatureCold, "hardware wallet", nil)
		testutil.AssertNoError(t, err)

		if wallet.ID == "" {
			t.Fatal("expected non-empty wallet ID")
		}
		if wallet.Name != "Ledger Nano" {
			t.Errorf("expected name 'Ledger Nano', got %q", wallet.Name)
		}
		if wallet.Temperature != models.WalletTemperatureCold {
			t.Errorf("expected cold temperature, got %s", wallet.Temperature)
		}
		if !wallet.IncludeInTotal {
			t.Error("expected include_in_total to default to true")
		}
	})

	t.Run("defaults_temperature_to_hot", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestWalletService(db, usdFeed("50000"))

		wallet, err := svc.CreateWallet(testutil.NewUserID(), "Exchange", "", "", nil)
		testutil.AssertNoError(t, err)

		if wallet.Temperature != models.WalletTemperatureHot {
			t.Errorf("expected hot temperature, got %s", wallet.Temperature)
		}
	})

	t.Run("explicit_exclude_from_total", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestWalletService(db, usdFeed("50000"))

		exclude := false
		wallet, err := svc.CreateWallet(testutil.NewUserID(), "Watch-only", models.WalletTemperatureHot, "", &exclude)
		testutil.AssertNoError(t, err)

		if wallet.IncludeInTotal {
			t.Error("expected include_in_total false")
		}
	})

	t.Run("missing_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestWalletService(db, usdFeed("50000"))

		_, err := svc.CreateWallet(testutil.NewUserID(), "", models.WalletTemperatureHot, "", nil)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("invalid_temperature", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestWalletService(db, usdFeed("50000"))

		_, err := svc.CreateWallet(testutil.NewUserID(), "Vault", models.WalletTemperature("warm"), "", nil)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetUserWallets(t *testing.T) {
	t.Run("lists_in_creation_order", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestWalletService(db, usdFeed("50000"))
		userID := testutil.NewUserID()

		first, err := svc.CreateWallet(userID, "First", models.WalletTemperatureHot, "", nil)
		testutil.AssertNoError(t, err)
		_, err = svc.CreateWallet(userID, "Second", models.WalletTemperatureCold, "", nil)
		testutil.AssertNoError(t, err)

		page := pagination.PageRequest{Page: 1, PageSize: 20}
		result, err := svc.GetUserWallets(userID, page)
		testutil.AssertNoError(t, err)

		if result.TotalItems != 2 {
			t.Fatalf("expected 2 wallets, got %d", result.TotalItems)
		}
		if result.Data[0].ID != first.ID {
			t.Errorf("expected oldest wallet first, got %q", result.Data[0].Name)
		}
	})

	t.Run("user_isolation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestWalletService(db, usdFeed("50000"))
		user1 := testutil.NewUserID()
		user2 := testutil.NewUserID()
		testutil.CreateTestWallet(t, db, user1, models.WalletTemperatureHot)
		testutil.CreateTestWallet(t, db, user2, models.WalletTemperatureHot)

		page := pagination.PageRequest{Page: 1, PageSize: 20}
		result, err := svc.GetUserWallets(user1, page)
		testutil.AssertNoError(t, err)

		if result.TotalItems != 1 {
			t.Errorf("expected 1 wallet for user1, got %d", result.TotalItems)
		}
	})
}

func TestGetWalletByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestWalletService(db, usdFeed("50000"))
		userID := testutil.NewUserID()
		created := testutil.CreateTestWallet(t, db, userID, models.WalletTemperatureCold)

		wallet, err := svc.GetWalletByID(userID, created.ID)
		testutil.AssertNoError(t, err)

		if wallet.ID != created.ID {
			t.Errorf("expected wallet ID %s, got %s", created.ID, wallet.ID)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestWalletService(db, usdFeed("50000"))

		_, err := svc.GetWalletByID(testutil.NewUserID(), testutil.NewUserID())
		testutil.AssertAppError(t, err, "WALLET_NOT_FOUND")
	})

	t.Run("wrong_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestWalletService(db, usdFeed("50000"))
		owner := testutil.NewUserID()
		created := testutil.CreateTestWallet(t, db, owner, models.WalletTemperatureHot)

		_, err := svc.GetWalletByID(testutil.NewUserID(), created.ID)
		testutil.AssertAppError(t, err, "WALLET_NOT_FOUND")
	})
}

func TestUpdateWallet(t *testing.T) {
	t.Run("renames_and_retempers", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestWalletService(db, usdFeed("50000"))
		userID := testutil.NewUserID()
		created := testutil.CreateTestWallet(t, db, userID, models.WalletTemperatureHot)

		name := "Cold Storage"
		cold := models.WalletTemperatureCold
		updated, err := svc.UpdateWallet(userID, created.ID, WalletUpdateFields{Name: &name, Temperature: &cold})
		testutil.AssertNoError(t, err)

		if updated.Name != "Cold Storage" {
			t.Errorf("expected name 'Cold Storage', got %q", updated.Name)
		}
		if updated.Temperature != models.WalletTemperatureCold {
			t.Errorf("expected cold temperature, got %s", updated.Temperature)
		}
	})

	t.Run("invalid_temperature", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestWalletService(db, usdFeed("50000"))
		userID := testutil.NewUserID()
		created := testutil.CreateTestWallet(t, db, userID, models.WalletTemperatureHot)

		warm := models.WalletTemperature("warm")
		_, err := svc.UpdateWallet(userID, created.ID, WalletUpdateFields{Temperature: &warm})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("excludes_from_total", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestWalletService(db, usdFeed("50000"))
		userID := testutil.NewUserID()
		created := testutil.CreateTestWallet(t, db, userID, models.WalletTemperatureHot)

		exclude := false
		updated, err := svc.UpdateWallet(userID, created.ID, WalletUpdateFields{IncludeInTotal: &exclude})
		testutil.AssertNoError(t, err)

		if updated.IncludeInTotal {
			t.Error("expected include_in_total false after update")
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestWalletService(db, usdFeed("50000"))

		name := "Ghost"
		_, err := svc.UpdateWallet(testutil.NewUserID(), testutil.NewUserID(), WalletUpdateFields{Name: &name})
		testutil.AssertAppError(t, err, "WALLET_NOT_FOUND")
	})
}

func TestDeleteWallet(t *testing.T) {
	t.Run("deletes_unreferenced", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestWalletService(db, usdFeed("50000"))
		userID := testutil.NewUserID()
		created := testutil.CreateTestWallet(t, db, userID, models.WalletTemperatureHot)

		err := svc.DeleteWallet(userID, created.ID)
		testutil.AssertNoError(t, err)

		_, err = svc.GetWalletByID(userID, created.ID)
		testutil.AssertAppError(t, err, "WALLET_NOT_FOUND")
	})

	t.Run("rejects_referenced_as_destination", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestWalletService(db, usdFeed("50000"))
		txSvc := NewTransactionService(db, svc)
		userID := testutil.NewUserID()
		wallet := testutil.CreateTestWallet(t, db, userID, models.WalletTemperatureHot)

		_, err := txSvc.CreateTransaction(userID, TransactionInput{
			Kind: models.TransactionKindBuy, BTCAmount: dec("0.1"), PricePerBTC: dec("40000"),
			DestinationWalletID: &wallet.ID,
		})
		testutil.AssertNoError(t, err)

		err = svc.DeleteWallet(userID, wallet.ID)
		testutil.AssertAppError(t, err, "WALLET_IN_USE")
	})

	t.Run("rejects_referenced_as_source", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestWalletService(db, usdFeed("50000"))
		txSvc := NewTransactionService(db, svc)
		userID := testutil.NewUserID()
		wallet := testutil.CreateTestWallet(t, db, userID, models.WalletTemperatureHot)

		_, err := txSvc.CreateTransaction(userID, TransactionInput{
			Kind: models.TransactionKindTransfer, TransferCategory: models.TransferExternalOut,
			BTCAmount: dec("0.1"), SourceWalletID: &wallet.ID,
		})
		testutil.AssertNoError(t, err)

		err = svc.DeleteWallet(userID, wallet.ID)
		testutil.AssertAppError(t, err, "WALLET_IN_USE")
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestWalletService(db, usdFeed("50000"))

		err := svc.DeleteWallet(testutil.NewUserID(), testutil.NewUserID())
		testutil.AssertAppError(t, err, "WALLET_NOT_FOUND")
	})
}

func TestListWithBalances(t *testing.T) {
	t.Run("values_per_wallet_flows", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestWalletService(db, usdFeed("50000"))
		txSvc := NewTransactionService(db, svc)
		userID := testutil.NewUserID()
		hot := testutil.CreateTestWallet(t, db, userID, models.WalletTemperatureHot)
		cold := testutil.CreateTestWallet(t, db, userID, models.WalletTemperatureCold)

		base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		_, err := txSvc.CreateTransaction(userID, TransactionInput{
			Kind: models.TransactionKindBuy, BTCAmount: dec("1"), PricePerBTC: dec("40000"),
			Timestamp: base, DestinationWalletID: &hot.ID,
		})
		testutil.AssertNoError(t, err)
		_, err = txSvc.CreateTransaction(userID, TransactionInput{
			Kind: models.TransactionKindTransfer, TransferCategory: models.TransferInternal,
			BTCAmount: dec("0.4"), Timestamp: base.AddDate(0, 0, 1),
			SourceWalletID: &hot.ID, DestinationWalletID: &cold.ID,
		})
		testutil.AssertNoError(t, err)

		balances, err := svc.ListWithBalances(context.Background(), userID)
		testutil.AssertNoError(t, err)

		if len(balances) != 2 {
			t.Fatalf("expected 2 wallet balances, got %d", len(balances))
		}
		byID := map[string]int{balances[0].WalletID: 0, balances[1].WalletID: 1}
		hotBal := balances[byID[hot.ID]]
		coldBal := balances[byID[cold.ID]]

		testutil.AssertDecimal(t, "0.6", hotBal.BTC)
		testutil.AssertDecimal(t, "30000", hotBal.Value)
		testutil.AssertDecimal(t, "0.4", coldBal.BTC)
		testutil.AssertDecimal(t, "20000", coldBal.Value)
	})

	t.Run("degrades_to_fallback_quote", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		feed := &stubFeed{err: errors.New("feed down")}
		svc := newTestWalletService(db, feed)
		txSvc := NewTransactionService(db, svc)
		userID := testutil.NewUserID()
		wallet := testutil.CreateTestWallet(t, db, userID, models.WalletTemperatureHot)

		_, err := txSvc.CreateTransaction(userID, TransactionInput{
			Kind: models.TransactionKindBuy, BTCAmount: dec("0.5"), PricePerBTC: dec("40000"),
			DestinationWalletID: &wallet.ID,
		})
		testutil.AssertNoError(t, err)

		balances, err := svc.ListWithBalances(context.Background(), userID)
		testutil.AssertNoError(t, err)

		if len(balances) != 1 {
			t.Fatalf("expected 1 wallet balance, got %d", len(balances))
		}
		// Valued at the fixed fallback price.
		testutil.AssertDecimal(t, "50000", balances[0].Value)
	})

	t.Run("empty", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestWalletService(db, usdFeed("50000"))

		balances, err := svc.ListWithBalances(context.Background(), testutil.NewUserID())
		testutil.AssertNoError(t, err)
		if len(balances) != 0 {
			t.Errorf("expected no balances, got %d", len(balances))
		}
	})
}
