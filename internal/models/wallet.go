package models

// WalletTemperature indicates custody exposure: hot wallets are online
// (exchanges, mobile apps), cold wallets are offline (hardware, paper).
type WalletTemperature string

const (
	WalletTemperatureHot  WalletTemperature = "hot"
	WalletTemperatureCold WalletTemperature = "cold"
)

// Wallet represents a custody location for BTC. Balances are always derived
// from the transaction ledger, never stored on the wallet.
type Wallet struct {
	Base
	UserID         string            `gorm:"type:uuid;not null;index" json:"user_id"`
	Name           string            `gorm:"not null" json:"name"`
	Temperature    WalletTemperature `gorm:"not null;default:'hot'" json:"temperature"`
	Description    string            `json:"description,omitempty"`
	IncludeInTotal bool              `gorm:"default:true" json:"include_in_total"`
}
