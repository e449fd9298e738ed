package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"hodltrack/internal/prices"
	"hodltrack/internal/testutil"
)

func newTestPortfolioService(db *gorm.DB, feed prices.Feed) PortfolioServicer {
	// Default settings report in USD with EUR as secondary.
	rates := &stubRates{rates: map[string]string{"EUR": "0.8"}}
	return NewPortfolioService(db, feed, rates, NewSettingsService(db))
}

func TestPortfolioMetricsService(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("computes_from_ledger", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestPortfolioService(db, usdFeed("50000"))
		userID := testutil.NewUserID()

		testutil.CreateTestBuy(t, db, userID, "1", "40000", base)

		metrics, err := svc.Metrics(ctx, userID, false)
		testutil.AssertNoError(t, err)

		if metrics.Currency != "USD" {
			t.Errorf("expected USD report, got %s", metrics.Currency)
		}
		testutil.AssertDecimal(t, "1", metrics.CurrentHoldings)
		testutil.AssertDecimal(t, "50000", metrics.CurrentValue)
		testutil.AssertDecimal(t, "40000", metrics.TotalInvested)
		testutil.AssertDecimal(t, "10000", metrics.UnrealizedPnL)
		if metrics.Degraded {
			t.Error("expected non-degraded metrics")
		}
		if metrics.Detailed != nil {
			t.Error("expected no detailed section without the flag")
		}
		if metrics.SecondaryCurrency != "EUR" || metrics.CurrentValueSecondary == nil {
			t.Fatal("expected secondary value in EUR")
		}
		testutil.AssertDecimal(t, "62500", *metrics.CurrentValueSecondary)
	})

	t.Run("detailed_flag", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestPortfolioService(db, usdFeed("50000"))
		userID := testutil.NewUserID()

		testutil.CreateTestBuy(t, db, userID, "0.5", "40000", base)

		metrics, err := svc.Metrics(ctx, userID, true)
		testutil.AssertNoError(t, err)

		if metrics.Detailed == nil {
			t.Fatal("expected detailed section")
		}
		if len(metrics.Detailed.MonthlyBreakdown) != 1 {
			t.Errorf("expected 1 active month, got %d", len(metrics.Detailed.MonthlyBreakdown))
		}
	})

	t.Run("normalizes_foreign_currency", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestPortfolioService(db, usdFeed("50000"))
		userID := testutil.NewUserID()

		tx := testutil.CreateTestBuy(t, db, userID, "0.5", "40000", base)
		db.Model(tx).Update("currency", "EUR")

		metrics, err := svc.Metrics(ctx, userID, false)
		testutil.AssertNoError(t, err)

		// 20000 EUR at 0.8 EUR/USD.
		testutil.AssertDecimal(t, "16000", metrics.TotalInvested)
		if metrics.Degraded {
			t.Error("expected non-degraded metrics with a known rate")
		}
	})

	t.Run("degrades_on_missing_rate", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestPortfolioService(db, usdFeed("50000"))
		userID := testutil.NewUserID()

		tx := testutil.CreateTestBuy(t, db, userID, "0.5", "40000", base)
		db.Model(tx).Update("currency", "CHF")

		metrics, err := svc.Metrics(ctx, userID, false)
		testutil.AssertNoError(t, err)

		// The amount passes through at 1.0 and the report is flagged.
		testutil.AssertDecimal(t, "20000", metrics.TotalInvested)
		if !metrics.Degraded {
			t.Error("expected degraded metrics for an unknown currency")
		}
	})

	t.Run("degrades_on_feed_error", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestPortfolioService(db, &stubFeed{err: errors.New("feed down")})
		userID := testutil.NewUserID()

		testutil.CreateTestBuy(t, db, userID, "0.5", "40000", base)

		metrics, err := svc.Metrics(ctx, userID, false)
		testutil.AssertNoError(t, err)

		testutil.AssertDecimal(t, "100000", metrics.CurrentPrice)
		if !metrics.Degraded {
			t.Error("expected degraded metrics on feed failure")
		}
	})

	t.Run("user_scoped", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestPortfolioService(db, usdFeed("50000"))
		other := testutil.NewUserID()
		testutil.CreateTestBuy(t, db, other, "1", "40000", base)

		metrics, err := svc.Metrics(ctx, testutil.NewUserID(), false)
		testutil.AssertNoError(t, err)

		testutil.AssertDecimal(t, "0", metrics.CurrentHoldings)
	})
}

func TestPortfolioDCAAnalysisService(t *testing.T) {
	ctx := context.Background()

	t.Run("scores_buy_history", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestPortfolioService(db, usdFeed("50000"))
		userID := testutil.NewUserID()

		base := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
		testutil.CreateTestBuy(t, db, userID, "0.01", "30000", base)
		testutil.CreateTestBuy(t, db, userID, "0.01", "50000", base.AddDate(0, 1, 0))

		analysis, err := svc.DCAAnalysis(ctx, userID)
		testutil.AssertNoError(t, err)

		if analysis.Timing.BuysAnalyzed != 2 {
			t.Errorf("expected 2 buys analyzed, got %d", analysis.Timing.BuysAnalyzed)
		}
		testutil.AssertDecimal(t, "800", analysis.TotalInvested)
		testutil.AssertDecimal(t, "0.02", analysis.TotalBTC)
		testutil.AssertDecimal(t, "40000", analysis.AvgBuyPrice)
		testutil.AssertDecimal(t, "1000", analysis.CurrentValue)
		if analysis.Scores.Overall <= 0 {
			t.Errorf("expected positive overall score, got %v", analysis.Scores.Overall)
		}
		if len(analysis.Scenarios) == 0 {
			t.Error("expected what-if scenarios")
		}
	})

	t.Run("empty_ledger_recommends_getting_started", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestPortfolioService(db, usdFeed("50000"))

		analysis, err := svc.DCAAnalysis(ctx, testutil.NewUserID())
		testutil.AssertNoError(t, err)

		if analysis.Timing.BuysAnalyzed != 0 {
			t.Errorf("expected no buys analyzed, got %d", analysis.Timing.BuysAnalyzed)
		}
		if len(analysis.Recommendations) != 1 || analysis.Recommendations[0].Code != "get_started" {
			t.Errorf("expected a single get_started recommendation, got %v", analysis.Recommendations)
		}
	})

	t.Run("ignores_other_users", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestPortfolioService(db, usdFeed("50000"))
		testutil.CreateTestBuy(t, db, testutil.NewUserID(), "1", "40000", time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC))

		analysis, err := svc.DCAAnalysis(ctx, testutil.NewUserID())
		testutil.AssertNoError(t, err)

		if analysis.Timing.BuysAnalyzed != 0 {
			t.Errorf("expected no buys for a fresh user, got %d", analysis.Timing.BuysAnalyzed)
		}
	})
}
