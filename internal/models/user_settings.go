package models

// Default currencies used when a user has no stored settings.
const (
	DefaultMainCurrency      = "USD"
	DefaultSecondaryCurrency = "EUR"
)

// UserSettings holds per-user display preferences. MainCurrency is the
// reporting currency every metric is normalized into; SecondaryCurrency is
// an additional display conversion of the portfolio value.
type UserSettings struct {
	Base
	UserID            string `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	MainCurrency      string `gorm:"not null;default:'USD'" json:"main_currency"`
	SecondaryCurrency string `gorm:"not null;default:'EUR'" json:"secondary_currency"`
}

// DefaultSettings returns the settings used when a user has no stored row.
func DefaultSettings(userID string) *UserSettings {
	return &UserSettings{
		UserID:            userID,
		MainCurrency:      DefaultMainCurrency,
		SecondaryCurrency: DefaultSecondaryCurrency,
	}
}
