package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"hodltrack/internal/models"
	"hodltrack/internal/services"
)

// --- mock settings service ---

type mockSettingsService struct {
	getSettingsFn    func(userID string) (*models.UserSettings, error)
	updateSettingsFn func(userID, mainCurrency, secondaryCurrency string) (*models.UserSettings, error)
}

func (m *mockSettingsService) GetSettings(userID string) (*models.UserSettings, error) {
	if m.getSettingsFn != nil {
		return m.getSettingsFn(userID)
	}
	return models.DefaultSettings(userID), nil
}

func (m *mockSettingsService) UpdateSettings(userID, mainCurrency, secondaryCurrency string) (*models.UserSettings, error) {
	if m.updateSettingsFn != nil {
		return m.updateSettingsFn(userID, mainCurrency, secondaryCurrency)
	}
	return &models.UserSettings{UserID: userID, MainCurrency: mainCurrency, SecondaryCurrency: secondaryCurrency}, nil
}

var _ services.SettingsServicer = (*mockSettingsService)(nil)

func setupSettingsRouter(handler *SettingsHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.GET("/settings", handler.GetSettings)
	auth.PUT("/settings", handler.UpdateSettings)
	return r
}

func TestSettingsHandler_GetSettings(t *testing.T) {
	t.Run("returns defaults for a fresh user", func(t *testing.T) {
		r := setupSettingsRouter(NewSettingsHandler(&mockSettingsService{}))

		rec := doRequest(r, "GET", "/settings", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		settings := result["settings"].(map[string]interface{})
		if settings["main_currency"] != "USD" {
			t.Errorf("expected USD, got %v", settings["main_currency"])
		}
		if settings["secondary_currency"] != "EUR" {
			t.Errorf("expected EUR, got %v", settings["secondary_currency"])
		}
	})
}

func TestSettingsHandler_UpdateSettings(t *testing.T) {
	t.Run("updates both currencies", func(t *testing.T) {
		var gotMain, gotSecondary string
		settingsSvc := &mockSettingsService{
			updateSettingsFn: func(userID, main, secondary string) (*models.UserSettings, error) {
				gotMain, gotSecondary = main, secondary
				return &models.UserSettings{UserID: userID, MainCurrency: main, SecondaryCurrency: secondary}, nil
			},
		}
		r := setupSettingsRouter(NewSettingsHandler(settingsSvc))

		rec := doRequest(r, "PUT", "/settings", `{"main_currency":"CHF","secondary_currency":"GBP"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotMain != "CHF" || gotSecondary != "GBP" {
			t.Errorf("expected CHF/GBP, got %s/%s", gotMain, gotSecondary)
		}
	})

	t.Run("returns 400 on unknown currency code", func(t *testing.T) {
		r := setupSettingsRouter(NewSettingsHandler(&mockSettingsService{}))

		rec := doRequest(r, "PUT", "/settings", `{"main_currency":"ZZZ","secondary_currency":"EUR"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on missing secondary currency", func(t *testing.T) {
		r := setupSettingsRouter(NewSettingsHandler(&mockSettingsService{}))

		rec := doRequest(r, "PUT", "/settings", `{"main_currency":"USD"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
