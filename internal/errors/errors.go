// Package errors provides custom error types for the hodltrack API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrForbidden    = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Transaction errors.
var (
	ErrTransactionNotFound   = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrInvalidTransferInfo   = &AppError{Code: "INVALID_TRANSFER_INFO", Message: "Transfer category is required for transfers and not allowed otherwise", StatusCode: http.StatusBadRequest}
	ErrSameWalletTransfer    = &AppError{Code: "SAME_WALLET_TRANSFER", Message: "Cannot transfer to the same wallet", StatusCode: http.StatusBadRequest}
	ErrInvalidAmount         = &AppError{Code: "INVALID_AMOUNT", Message: "Amount must be greater than zero", StatusCode: http.StatusBadRequest}
	ErrUnsupportedKindChange = &AppError{Code: "UNSUPPORTED_KIND_CHANGE", Message: "Cannot change a transaction between transfer and non-transfer kinds", StatusCode: http.StatusBadRequest}
)

// Wallet errors.
var (
	ErrWalletNotFound = &AppError{Code: "WALLET_NOT_FOUND", Message: "Wallet not found", StatusCode: http.StatusNotFound}
	ErrWalletInUse    = &AppError{Code: "WALLET_IN_USE", Message: "Wallet is referenced by existing transactions", StatusCode: http.StatusConflict}
)

// Recurring plan errors.
var (
	ErrPlanNotFound     = &AppError{Code: "PLAN_NOT_FOUND", Message: "Recurring plan not found", StatusCode: http.StatusNotFound}
	ErrPlanInactive     = &AppError{Code: "PLAN_INACTIVE", Message: "Recurring plan is deactivated", StatusCode: http.StatusConflict}
	ErrPlanCompleted    = &AppError{Code: "PLAN_COMPLETED", Message: "Recurring plan has reached its occurrence limit", StatusCode: http.StatusConflict}
	ErrPlanSchedule     = &AppError{Code: "INVALID_PLAN_SCHEDULE", Message: "End date must be after start date", StatusCode: http.StatusBadRequest}
	ErrPlanClaimed      = &AppError{Code: "PLAN_CLAIMED", Message: "Plan execution was already claimed by another run", StatusCode: http.StatusConflict}
	ErrPriceUnavailable = &AppError{Code: "PRICE_UNAVAILABLE", Message: "Current price is unavailable, try again later", StatusCode: http.StatusServiceUnavailable}
)
