package services

import (
	"errors"
	"strings"

	"github.com/Rhymond/go-money"
	"gorm.io/gorm"

	apperrors "hodltrack/internal/errors"
	"hodltrack/internal/models"
)

// settingsService handles per-user display settings.
type settingsService struct {
	db *gorm.DB
}

// NewSettingsService creates a new SettingsServicer.
func NewSettingsService(db *gorm.DB) SettingsServicer {
	return &settingsService{db: db}
}

// GetSettings returns the user's settings, falling back to the in-code
// defaults when no row exists. The fallback is not persisted.
func (s *settingsService) GetSettings(userID string) (*models.UserSettings, error) {
	var settings models.UserSettings
	if err := s.db.Where("user_id = ?", userID).First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.DefaultSettings(userID), nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &settings, nil
}

// UpdateSettings stores the user's reporting and secondary display
// currencies, creating the row on first write.
func (s *settingsService) UpdateSettings(userID, mainCurrency, secondaryCurrency string) (*models.UserSettings, error) {
	mainCurrency = strings.ToUpper(mainCurrency)
	secondaryCurrency = strings.ToUpper(secondaryCurrency)
	for _, code := range []string{mainCurrency, secondaryCurrency} {
		if money.GetCurrency(code) == nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown currency code "+code)
		}
	}

	var settings models.UserSettings
	err := s.db.Where("user_id = ?", userID).First(&settings).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		settings = models.UserSettings{
			UserID:            userID,
			MainCurrency:      mainCurrency,
			SecondaryCurrency: secondaryCurrency,
		}
		if err := s.db.Create(&settings).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	case err != nil:
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	default:
		updates := map[string]interface{}{
			"main_currency":      mainCurrency,
			"secondary_currency": secondaryCurrency,
		}
		if err := s.db.Model(&settings).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return &settings, nil
}
