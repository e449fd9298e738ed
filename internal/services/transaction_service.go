package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "hodltrack/internal/errors"
	"hodltrack/internal/models"
	"hodltrack/internal/pagination"
)

// transactionService handles ledger-related business logic.
type transactionService struct {
	db            *gorm.DB
	walletService WalletServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, walletService WalletServicer) TransactionServicer {
	return &transactionService{
		db:            db,
		walletService: walletService,
	}
}

// CreateTransaction records a new ledger row for the user.
func (s *transactionService) CreateTransaction(userID string, in TransactionInput) (*models.Transaction, error) {
	if in.Currency == "" {
		in.Currency = "USD"
	}
	if in.FeeCurrency == "" {
		in.FeeCurrency = in.Currency
	}
	if in.Timestamp.IsZero() {
		in.Timestamp = time.Now().UTC()
	}
	if in.TotalAmount.IsZero() && in.Kind != models.TransactionKindTransfer {
		in.TotalAmount = in.BTCAmount.Mul(in.PricePerBTC)
	}

	transaction := &models.Transaction{
		UserID:              userID,
		Kind:                in.Kind,
		TransferCategory:    in.TransferCategory,
		BTCAmount:           in.BTCAmount,
		PricePerBTC:         in.PricePerBTC,
		TotalAmount:         in.TotalAmount,
		Currency:            in.Currency,
		Fee:                 in.Fee,
		FeeCurrency:         in.FeeCurrency,
		Timestamp:           in.Timestamp,
		SourceWalletID:      in.SourceWalletID,
		DestinationWalletID: in.DestinationWalletID,
		Tags:                models.TagList(in.Tags),
		Notes:               in.Notes,
	}

	if err := validateTransaction(transaction); err != nil {
		return nil, err
	}
	if err := s.checkWalletOwnership(userID, transaction.SourceWalletID, transaction.DestinationWalletID); err != nil {
		return nil, err
	}

	if err := s.db.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transaction, nil
}

// validateTransaction enforces the ledger row invariants shared by create
// and update.
func validateTransaction(tx *models.Transaction) error {
	if !tx.BTCAmount.IsPositive() {
		return apperrors.ErrInvalidAmount
	}
	if tx.Fee.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "fee cannot be negative")
	}

	switch tx.Kind {
	case models.TransactionKindBuy, models.TransactionKindSell:
		if tx.TransferCategory != "" {
			return apperrors.ErrInvalidTransferInfo
		}
		if !tx.PricePerBTC.IsPositive() {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "price per BTC must be greater than zero")
		}
		if !tx.TotalAmount.IsPositive() {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "total amount must be greater than zero")
		}
	case models.TransactionKindTransfer:
		switch tx.TransferCategory {
		case models.TransferInternal, models.TransferExternalIn, models.TransferExternalOut:
		default:
			return apperrors.ErrInvalidTransferInfo
		}
	default:
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown transaction kind")
	}

	if tx.SourceWalletID != nil && tx.DestinationWalletID != nil && *tx.SourceWalletID == *tx.DestinationWalletID {
		return apperrors.ErrSameWalletTransfer
	}
	return nil
}

// checkWalletOwnership verifies every referenced wallet exists and belongs
// to the user.
func (s *transactionService) checkWalletOwnership(userID string, walletIDs ...*string) error {
	for _, id := range walletIDs {
		if id == nil {
			continue
		}
		if _, err := s.walletService.GetWalletByID(userID, *id); err != nil {
			return err
		}
	}
	return nil
}

// GetUserTransactions retrieves a paginated, filtered list of the user's
// transactions, newest first.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Order("timestamp DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("timestamp >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("timestamp <= ?", *f.ToDate)
	}
	if f.Kind != nil {
		q = q.Where("kind = ?", *f.Kind)
	}
	if f.WalletID != nil {
		q = q.Where("source_wallet_id = ? OR destination_wallet_id = ?", *f.WalletID, *f.WalletID)
	}
	return q
}

// GetAllUserTransactions returns the user's full ledger ordered by event
// time, the snapshot the portfolio engine computes over.
func (s *transactionService) GetAllUserTransactions(userID string) ([]models.Transaction, error) {
	var transactions []models.Transaction
	if err := s.db.Where("user_id = ?", userID).
		Order("timestamp ASC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, nil
}

// GetTransactionByID retrieves a transaction by ID for a specific user.
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateTransaction applies an explicit correction to a ledger row. A row
// cannot change between transfer and non-transfer kinds; correcting that
// requires a delete and a fresh entry.
func (s *transactionService) UpdateTransaction(userID, transactionID string, fields TransactionUpdateFields) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}

	updated := *transaction
	if fields.Kind != nil {
		wasTransfer := transaction.Kind == models.TransactionKindTransfer
		isTransfer := *fields.Kind == models.TransactionKindTransfer
		if wasTransfer != isTransfer {
			return nil, apperrors.ErrUnsupportedKindChange
		}
		updated.Kind = *fields.Kind
	}
	if fields.TransferCategory != nil {
		updated.TransferCategory = *fields.TransferCategory
	}
	if fields.BTCAmount != nil {
		updated.BTCAmount = *fields.BTCAmount
	}
	if fields.PricePerBTC != nil {
		updated.PricePerBTC = *fields.PricePerBTC
	}
	if fields.TotalAmount != nil {
		updated.TotalAmount = *fields.TotalAmount
	}
	if fields.Currency != nil {
		updated.Currency = *fields.Currency
	}
	if fields.Fee != nil {
		updated.Fee = *fields.Fee
	}
	if fields.FeeCurrency != nil {
		updated.FeeCurrency = *fields.FeeCurrency
	}
	if fields.Timestamp != nil {
		updated.Timestamp = *fields.Timestamp
	}
	if fields.SourceWalletID != nil {
		updated.SourceWalletID = fields.SourceWalletID
	}
	if fields.DestinationWalletID != nil {
		updated.DestinationWalletID = fields.DestinationWalletID
	}
	if fields.Tags != nil {
		updated.Tags = models.TagList(*fields.Tags)
	}
	if fields.Notes != nil {
		updated.Notes = *fields.Notes
	}

	if err := validateTransaction(&updated); err != nil {
		return nil, err
	}
	if err := s.checkWalletOwnership(userID, updated.SourceWalletID, updated.DestinationWalletID); err != nil {
		return nil, err
	}

	if err := s.db.Save(&updated).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &updated, nil
}

// DeleteTransaction soft-deletes a ledger row. Balances and metrics are
// derived, so no counter updates are needed.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(transaction).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
