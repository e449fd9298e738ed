package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "hodltrack/internal/errors"
	"hodltrack/internal/fx"
	"hodltrack/internal/logger"
	"hodltrack/internal/models"
	"hodltrack/internal/pagination"
	"hodltrack/internal/portfolio"
	"hodltrack/internal/prices"
)

// walletService handles wallet-related business logic.
type walletService struct {
	db       *gorm.DB
	feed     prices.Feed
	rates    fx.RateSource
	settings SettingsServicer
}

// NewWalletService creates a new WalletServicer. The price feed and rate
// source are used to value balances in the balance listing.
func NewWalletService(db *gorm.DB, feed prices.Feed, rates fx.RateSource, settings SettingsServicer) WalletServicer {
	return &walletService{
		db:       db,
		feed:     feed,
		rates:    rates,
		settings: settings,
	}
}

// CreateWallet creates a new wallet for a user.
func (s *walletService) CreateWallet(userID, name string, temperature models.WalletTemperature, description string, includeInTotal *bool) (*models.Wallet, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "wallet name is required")
	}
	if temperature == "" {
		temperature = models.WalletTemperatureHot
	}
	if temperature != models.WalletTemperatureHot && temperature != models.WalletTemperatureCold {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "wallet temperature must be hot or cold")
	}

	wallet := &models.Wallet{
		UserID:         userID,
		Name:           name,
		Temperature:    temperature,
		Description:    description,
		IncludeInTotal: true,
	}
	if includeInTotal != nil {
		wallet.IncludeInTotal = *includeInTotal
	}

	if err := s.db.Create(wallet).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return wallet, nil
}

// GetUserWallets retrieves a paginated list of wallets for a user.
func (s *walletService) GetUserWallets(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Wallet], error) {
	page.Defaults()

	base := s.db.Model(&models.Wallet{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var wallets []models.Wallet
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at ASC").
		Find(&wallets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(wallets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetWalletByID retrieves a wallet by ID for a specific user.
func (s *walletService) GetWalletByID(userID, walletID string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := s.db.Where("id = ? AND user_id = ?", walletID, userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrWalletNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &wallet, nil
}

// UpdateWallet updates an existing wallet.
func (s *walletService) UpdateWallet(userID, walletID string, fields WalletUpdateFields) (*models.Wallet, error) {
	wallet, err := s.GetWalletByID(userID, walletID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Name != nil && *fields.Name != "" {
		updates["name"] = *fields.Name
	}
	if fields.Temperature != nil {
		if *fields.Temperature != models.WalletTemperatureHot && *fields.Temperature != models.WalletTemperatureCold {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "wallet temperature must be hot or cold")
		}
		updates["temperature"] = *fields.Temperature
	}
	if fields.Description != nil {
		updates["description"] = *fields.Description
	}
	if fields.IncludeInTotal != nil {
		updates["include_in_total"] = *fields.IncludeInTotal
	}

	if len(updates) > 0 {
		if err := s.db.Model(wallet).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.db.Where("id = ?", wallet.ID).First(wallet).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return wallet, nil
}

// DeleteWallet soft-deletes a wallet. Wallets referenced by ledger rows
// cannot be deleted; history would lose its attribution.
func (s *walletService) DeleteWallet(userID, walletID string) error {
	wallet, err := s.GetWalletByID(userID, walletID)
	if err != nil {
		return err
	}

	var refs int64
	if err := s.db.Model(&models.Transaction{}).
		Where("user_id = ?", userID).
		Where("source_wallet_id = ? OR destination_wallet_id = ?", walletID, walletID).
		Count(&refs).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if refs > 0 {
		return apperrors.ErrWalletInUse
	}

	if err := s.db.Delete(wallet).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ListWithBalances returns every wallet of the user with its derived BTC
// balance and value in the reporting currency. Unlike the portfolio report
// this includes wallets excluded from totals.
func (s *walletService) ListWithBalances(ctx context.Context, userID string) ([]portfolio.WalletBalance, error) {
	var wallets []models.Wallet
	if err := s.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&wallets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := s.db.Where("user_id = ?", userID).Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	settings, err := s.settings.GetSettings(userID)
	if err != nil {
		return nil, err
	}

	quote, err := s.feed.Current(ctx)
	if err != nil {
		logger.Get().Warnw("price feed unavailable, valuing balances at fallback price", "error", err)
		quote = prices.FallbackQuote()
	}

	table := fx.NewNormalizer(s.rates, settings.MainCurrency).Snapshot(ctx, []string{quote.Currency})
	price := table.Convert(quote.Price, quote.Currency).Amount

	return portfolio.BalancesFor(transactions, wallets, price), nil
}
