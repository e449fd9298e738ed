package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"hodltrack/internal/models"
	"hodltrack/internal/pagination"
	"hodltrack/internal/portfolio"
)

// TransactionInput holds the caller-provided fields of a new ledger row.
type TransactionInput struct {
	Kind                models.TransactionKind
	TransferCategory    models.TransferCategory
	BTCAmount           decimal.Decimal
	PricePerBTC         decimal.Decimal
	TotalAmount         decimal.Decimal
	Currency            string
	Fee                 decimal.Decimal
	FeeCurrency         string
	Timestamp           time.Time
	SourceWalletID      *string
	DestinationWalletID *string
	Tags                []string
	Notes               string
}

// TransactionUpdateFields holds the optional corrections applied to an
// existing ledger row. Nil fields are left unchanged.
type TransactionUpdateFields struct {
	Kind                *models.TransactionKind
	TransferCategory    *models.TransferCategory
	BTCAmount           *decimal.Decimal
	PricePerBTC         *decimal.Decimal
	TotalAmount         *decimal.Decimal
	Currency            *string
	Fee                 *decimal.Decimal
	FeeCurrency         *string
	Timestamp           *time.Time
	SourceWalletID      *string
	DestinationWalletID *string
	Tags                *[]string
	Notes               *string
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate *time.Time
	ToDate   *time.Time
	Kind     *models.TransactionKind
	WalletID *string
}

// TransactionServicer defines the contract for ledger-related business logic.
type TransactionServicer interface {
	CreateTransaction(userID string, in TransactionInput) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetAllUserTransactions(userID string) ([]models.Transaction, error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, fields TransactionUpdateFields) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
}

// WalletUpdateFields holds the optional changes applied to a wallet.
type WalletUpdateFields struct {
	Name           *string
	Temperature    *models.WalletTemperature
	Description    *string
	IncludeInTotal *bool
}

// WalletServicer defines the contract for wallet-related business logic.
type WalletServicer interface {
	CreateWallet(userID, name string, temperature models.WalletTemperature, description string, includeInTotal *bool) (*models.Wallet, error)
	GetUserWallets(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Wallet], error)
	GetWalletByID(userID, walletID string) (*models.Wallet, error)
	UpdateWallet(userID, walletID string, fields WalletUpdateFields) (*models.Wallet, error)
	DeleteWallet(userID, walletID string) error
	ListWithBalances(ctx context.Context, userID string) ([]portfolio.WalletBalance, error)
}

// PlanInput holds the caller-provided fields of a new recurring plan.
type PlanInput struct {
	Name                string
	Kind                models.TransactionKind
	FiatAmount          decimal.Decimal
	Currency            string
	Fee                 decimal.Decimal
	FeeCurrency         string
	Frequency           models.PlanFrequency
	StartDate           time.Time
	EndDate             *time.Time
	MaxOccurrences      *int
	DestinationWalletID *string
}

// PlanUpdateFields holds the optional changes applied to a recurring plan.
// Schedule state (next execution, execution count) is owned by the executor
// and cannot be edited directly.
type PlanUpdateFields struct {
	Name                *string
	FiatAmount          *decimal.Decimal
	Currency            *string
	Fee                 *decimal.Decimal
	FeeCurrency         *string
	Frequency           *models.PlanFrequency
	EndDate             *time.Time
	MaxOccurrences      *int
	DestinationWalletID *string
}

// PlanServicer defines the contract for recurring purchase plans, including
// the execution step shared by the scheduler and the manual trigger.
type PlanServicer interface {
	CreatePlan(userID string, in PlanInput) (*models.RecurringPlan, error)
	GetUserPlans(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.RecurringPlan], error)
	GetPlanByID(userID, planID string) (*models.RecurringPlan, error)
	UpdatePlan(userID, planID string, fields PlanUpdateFields) (*models.RecurringPlan, error)
	PausePlan(userID, planID string) (*models.RecurringPlan, error)
	ResumePlan(userID, planID string) (*models.RecurringPlan, error)
	DeactivatePlan(userID, planID string) error
	DuePlans(now time.Time) ([]models.RecurringPlan, error)
	Execute(ctx context.Context, plan *models.RecurringPlan, now time.Time) (*models.Transaction, error)
	ExecuteNow(ctx context.Context, userID, planID string) (*models.Transaction, error)
}

// PortfolioServicer assembles ledger snapshots and delegates to the pure
// portfolio engine.
type PortfolioServicer interface {
	Metrics(ctx context.Context, userID string, detailed bool) (*portfolio.Metrics, error)
	DCAAnalysis(ctx context.Context, userID string) (*portfolio.Analysis, error)
}

// SettingsServicer defines the contract for per-user display settings.
type SettingsServicer interface {
	GetSettings(userID string) (*models.UserSettings, error)
	UpdateSettings(userID, mainCurrency, secondaryCurrency string) (*models.UserSettings, error)
}
