package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	apperrors "hodltrack/internal/errors"
	"hodltrack/internal/fx"
	"hodltrack/internal/logger"
	"hodltrack/internal/models"
	"hodltrack/internal/portfolio"
	"hodltrack/internal/prices"
)

// portfolioService assembles ledger snapshots and delegates the math to the
// portfolio engine. Nothing here is persisted; every call recomputes from
// the ledger.
type portfolioService struct {
	db       *gorm.DB
	feed     prices.Feed
	rates    fx.RateSource
	settings SettingsServicer
}

// NewPortfolioService creates a new PortfolioServicer.
func NewPortfolioService(db *gorm.DB, feed prices.Feed, rates fx.RateSource, settings SettingsServicer) PortfolioServicer {
	return &portfolioService{
		db:       db,
		feed:     feed,
		rates:    rates,
		settings: settings,
	}
}

// ledgerSnapshot is everything a single metrics or analysis pass needs,
// loaded once per request.
type ledgerSnapshot struct {
	transactions []models.Transaction
	wallets      []models.Wallet
	settings     *models.UserSettings
	quote        prices.Quote
	rates        *fx.Table
}

func (s *portfolioService) loadSnapshot(ctx context.Context, userID string) (*ledgerSnapshot, error) {
	var transactions []models.Transaction
	if err := s.db.Where("user_id = ?", userID).Order("timestamp ASC").Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var wallets []models.Wallet
	if err := s.db.Where("user_id = ?", userID).Find(&wallets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	settings, err := s.settings.GetSettings(userID)
	if err != nil {
		return nil, err
	}

	quote, err := s.feed.Current(ctx)
	if err != nil {
		logger.Get().Warnw("price feed unavailable, using fallback quote", "error", err)
		quote = prices.FallbackQuote()
	}

	currencies := map[string]struct{}{
		quote.Currency:             {},
		settings.SecondaryCurrency: {},
	}
	for _, tx := range transactions {
		currencies[tx.Currency] = struct{}{}
		if tx.FeeCurrency != models.FeeCurrencyBTC {
			currencies[tx.FeeCurrency] = struct{}{}
		}
	}
	needed := make([]string, 0, len(currencies))
	for c := range currencies {
		if c != "" {
			needed = append(needed, c)
		}
	}

	table := fx.NewNormalizer(s.rates, settings.MainCurrency).Snapshot(ctx, needed)

	return &ledgerSnapshot{
		transactions: transactions,
		wallets:      wallets,
		settings:     settings,
		quote:        quote,
		rates:        table,
	}, nil
}

// Metrics computes the full portfolio snapshot in the user's main currency.
func (s *portfolioService) Metrics(ctx context.Context, userID string, detailed bool) (*portfolio.Metrics, error) {
	snap, err := s.loadSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	metrics := portfolio.ComputeMetrics(portfolio.MetricsInput{
		Transactions:      snap.transactions,
		Wallets:           snap.wallets,
		Quote:             snap.quote,
		Rates:             snap.rates,
		Detailed:          detailed,
		Now:               time.Now().UTC(),
		SecondaryCurrency: snap.settings.SecondaryCurrency,
	})

	logger.Get().Debugw("portfolio metrics computed",
		"user_id", userID,
		"transactions", len(snap.transactions),
		"holdings_btc", metrics.CurrentHoldings,
		"degraded", metrics.Degraded)
	return &metrics, nil
}

// DCAAnalysis scores the user's purchase history and builds what-if
// scenarios, in the user's main currency.
func (s *portfolioService) DCAAnalysis(ctx context.Context, userID string) (*portfolio.Analysis, error) {
	snap, err := s.loadSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	analysis := portfolio.AnalyzeDCA(portfolio.DCAInput{
		Transactions: snap.transactions,
		Quote:        snap.quote,
		Rates:        snap.rates,
		Now:          time.Now().UTC(),
	})

	logger.Get().Debugw("dca analysis computed",
		"user_id", userID,
		"buys", analysis.Timing.BuysAnalyzed,
		"overall_score", analysis.Scores.Overall,
		"degraded", analysis.Degraded)
	return &analysis, nil
}
