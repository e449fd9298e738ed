package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "hodltrack/internal/errors"
	"hodltrack/internal/models"
	"hodltrack/internal/pagination"
	"hodltrack/internal/services"
	"hodltrack/internal/uuid"
)

// TransactionHandler handles ledger transaction requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// CreateTransactionRequest represents the request payload for creating a ledger transaction
type CreateTransactionRequest struct {
	Kind                models.TransactionKind  `json:"kind" binding:"required,transaction_kind"`
	TransferCategory    models.TransferCategory `json:"transfer_category" binding:"omitempty,transfer_category"`
	BTCAmount           decimal.Decimal         `json:"btc_amount" binding:"required"`
	PricePerBTC         decimal.Decimal         `json:"price_per_btc"`
	TotalAmount         decimal.Decimal         `json:"total_amount"`
	Currency            string                  `json:"currency" binding:"omitempty,iso4217"`
	Fee                 decimal.Decimal         `json:"fee"`
	FeeCurrency         string                  `json:"fee_currency" binding:"omitempty,fee_currency"`
	Timestamp           *string                 `json:"timestamp"`
	SourceWalletID      *string                 `json:"source_wallet_id"`
	DestinationWalletID *string                 `json:"destination_wallet_id"`
	Tags                []string                `json:"tags"`
	Notes               string                  `json:"notes" binding:"max=1000"`
}

// CreateTransaction handles the creation of a new ledger transaction
// @Summary     Record a transaction
// @Description Append a buy, sell, or transfer to the BTC ledger. Transfers require a transfer_category.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	timestamp := time.Now().UTC()
	if req.Timestamp != nil && *req.Timestamp != "" {
		parsed, parseErr := parseFlexibleTime(*req.Timestamp)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, parseErr.Error()))
			return
		}
		timestamp = parsed
	}

	transaction, err := h.transactionService.CreateTransaction(userID, services.TransactionInput{
		Kind:                req.Kind,
		TransferCategory:    req.TransferCategory,
		BTCAmount:           req.BTCAmount,
		PricePerBTC:         req.PricePerBTC,
		TotalAmount:         req.TotalAmount,
		Currency:            req.Currency,
		Fee:                 req.Fee,
		FeeCurrency:         req.FeeCurrency,
		Timestamp:           timestamp,
		SourceWalletID:      req.SourceWalletID,
		DestinationWalletID: req.DestinationWalletID,
		Tags:                req.Tags,
		Notes:               req.Notes,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// GetUserTransactions handles the retrieval of all transactions for the authenticated user
// @Summary     Get user transactions
// @Description Get a paginated list of ledger transactions with optional filters, newest first
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 50, max 200)"
// @Param       from_date query string false "Filter by start date (RFC3339 e.g. 2024-01-01T00:00:00Z, or YYYY-MM-DD)"
// @Param       to_date   query string false "Filter by end date (RFC3339 or YYYY-MM-DD)"
// @Param       kind      query string false "Filter by transaction kind (buy, sell, transfer)"
// @Param       wallet_id query string false "Filter by wallet ID (source or destination)"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) GetUserTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.GetUserTransactions(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	if v := c.Query("from_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid from_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.FromDate = &t
	}

	if v := c.Query("to_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid to_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.ToDate = &t
	}

	if v := c.Query("kind"); v != "" {
		kind := models.TransactionKind(v)
		switch kind {
		case models.TransactionKindBuy, models.TransactionKindSell, models.TransactionKindTransfer:
			filter.Kind = &kind
		default:
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid kind, must be buy, sell, or transfer")
		}
	}

	if v := c.Query("wallet_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid wallet_id")
		}
		filter.WalletID = &id
	}

	return filter, nil
}

// GetTransactionByID handles the retrieval of a specific transaction
// @Summary     Get transaction by ID
// @Description Get a specific ledger transaction by ID
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction details"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// UpdateTransactionRequest represents the request payload for correcting a transaction.
type UpdateTransactionRequest struct {
	Kind                *models.TransactionKind  `json:"kind" binding:"omitempty,transaction_kind"`
	TransferCategory    *models.TransferCategory `json:"transfer_category" binding:"omitempty,transfer_category"`
	BTCAmount           *decimal.Decimal         `json:"btc_amount"`
	PricePerBTC         *decimal.Decimal         `json:"price_per_btc"`
	TotalAmount         *decimal.Decimal         `json:"total_amount"`
	Currency            *string                  `json:"currency" binding:"omitempty,iso4217"`
	Fee                 *decimal.Decimal         `json:"fee"`
	FeeCurrency         *string                  `json:"fee_currency" binding:"omitempty,fee_currency"`
	Timestamp           *string                  `json:"timestamp"`
	SourceWalletID      *string                  `json:"source_wallet_id"`
	DestinationWalletID *string                  `json:"destination_wallet_id"`
	Tags                *[]string                `json:"tags"`
	Notes               *string                  `json:"notes" binding:"omitempty,max=1000"`
}

// UpdateTransaction handles correcting an existing transaction
// @Summary     Update transaction
// @Description Correct an existing ledger transaction. A row cannot change between transfer and non-transfer kinds.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to update"
// @Success     200 {object} models.Transaction "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input or unsupported kind change"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	updateFields := services.TransactionUpdateFields{
		Kind:                req.Kind,
		TransferCategory:    req.TransferCategory,
		BTCAmount:           req.BTCAmount,
		PricePerBTC:         req.PricePerBTC,
		TotalAmount:         req.TotalAmount,
		Currency:            req.Currency,
		Fee:                 req.Fee,
		FeeCurrency:         req.FeeCurrency,
		SourceWalletID:      req.SourceWalletID,
		DestinationWalletID: req.DestinationWalletID,
		Tags:                req.Tags,
		Notes:               req.Notes,
	}

	if req.Timestamp != nil && *req.Timestamp != "" {
		parsed, parseErr := parseFlexibleTime(*req.Timestamp)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, parseErr.Error()))
			return
		}
		updateFields.Timestamp = &parsed
	}

	transaction, err := h.transactionService.UpdateTransaction(userID, transactionID, updateFields)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction handles the deletion of a transaction
// @Summary     Delete transaction
// @Description Delete a ledger transaction by ID. Derived balances and metrics recompute on the next read.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} MessageResponse "Transaction deleted"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
}
