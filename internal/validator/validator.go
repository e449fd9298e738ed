// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/Rhymond/go-money"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("iso4217", validateISO4217)
		_ = v.RegisterValidation("fee_currency", validateFeeCurrency)
		_ = v.RegisterValidation("transaction_kind", validateTransactionKind)
		_ = v.RegisterValidation("transfer_category", validateTransferCategory)
		_ = v.RegisterValidation("plan_kind", validatePlanKind)
		_ = v.RegisterValidation("plan_frequency", validatePlanFrequency)
		_ = v.RegisterValidation("wallet_temperature", validateWalletTemperature)
	}
}

// validateISO4217 checks the code against the go-money currency registry.
func validateISO4217(fl validator.FieldLevel) bool {
	return money.GetCurrency(fl.Field().String()) != nil
}

// validateFeeCurrency accepts ISO 4217 codes plus the literal "BTC" for
// fees charged in bitcoin.
func validateFeeCurrency(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	return code == "BTC" || money.GetCurrency(code) != nil
}

func validateTransactionKind(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "buy", "sell", "transfer":
		return true
	}
	return false
}

func validateTransferCategory(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "internal", "external_in", "external_out":
		return true
	}
	return false
}

// validatePlanKind restricts recurring plans to buys and sells.
func validatePlanKind(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "buy", "sell":
		return true
	}
	return false
}

func validatePlanFrequency(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "daily", "weekly", "biweekly", "monthly":
		return true
	}
	return false
}

func validateWalletTemperature(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "hot", "cold":
		return true
	}
	return false
}
