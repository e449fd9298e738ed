package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "hodltrack/internal/errors"
	"hodltrack/internal/models"
	"hodltrack/internal/pagination"
	"hodltrack/internal/services"
)

// WalletHandler handles wallet-related requests.
type WalletHandler struct {
	walletService services.WalletServicer
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletService services.WalletServicer) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// CreateWalletRequest represents the request payload for creating a wallet
type CreateWalletRequest struct {
	Name           string                   `json:"name" binding:"required,max=100"`
	Temperature    models.WalletTemperature `json:"temperature" binding:"omitempty,wallet_temperature"`
	Description    string                   `json:"description" binding:"max=500"`
	IncludeInTotal *bool                    `json:"include_in_total"`
}

// CreateWallet handles the creation of a new wallet
// @Summary     Create a wallet
// @Description Create a new hot or cold wallet. Balances are derived from the ledger, never stored.
// @Tags        wallets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateWalletRequest true "Wallet details"
// @Success     201 {object} models.Wallet "Wallet created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /wallets [post]
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	wallet, err := h.walletService.CreateWallet(userID, req.Name, req.Temperature, req.Description, req.IncludeInTotal)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"wallet": wallet})
}

// GetUserWallets handles the retrieval of all wallets for the authenticated user
// @Summary     Get user wallets
// @Description Get a paginated list of the user's wallets
// @Tags        wallets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 50, max 200)"
// @Success     200 {object} pagination.PageResponse[models.Wallet] "Paginated wallets"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /wallets [get]
func (h *WalletHandler) GetUserWallets(c *gin.Context) {
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

	result, err := h.walletService.GetUserWallets(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetWalletBalances handles the retrieval of derived wallet balances
// @Summary     Get wallet balances
// @Description Get every wallet with its BTC balance derived from the ledger, valued in the reporting currency
// @Tags        wallets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string][]portfolio.WalletBalance "Wallet balances"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /wallets/balances [get]
func (h *WalletHandler) GetWalletBalances(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	balances, err := h.walletService.ListWithBalances(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balances": balances})
}

// GetWalletByID handles the retrieval of a specific wallet
// @Summary     Get wallet by ID
// @Description Get a specific wallet by ID
// @Tags        wallets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Wallet ID"
// @Success     200 {object} models.Wallet "Wallet details"
// @Failure     400 {object} ErrorResponse "Invalid wallet ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Wallet not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /wallets/{id} [get]
func (h *WalletHandler) GetWalletByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	walletID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	wallet, err := h.walletService.GetWalletByID(userID, walletID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"wallet": wallet})
}

// UpdateWalletRequest represents the request payload for updating a wallet.
type UpdateWalletRequest struct {
	Name           *string                   `json:"name" binding:"omitempty,max=100"`
	Temperature    *models.WalletTemperature `json:"temperature" binding:"omitempty,wallet_temperature"`
	Description    *string                   `json:"description" binding:"omitempty,max=500"`
	IncludeInTotal *bool                     `json:"include_in_total"`
}

// UpdateWallet handles updating an existing wallet
// @Summary     Update wallet
// @Description Update a wallet's name, temperature, description, or inclusion in portfolio totals
// @Tags        wallets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Wallet ID"
// @Param       request body UpdateWalletRequest true "Fields to update"
// @Success     200 {object} models.Wallet "Updated wallet"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Wallet not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /wallets/{id} [put]
func (h *WalletHandler) UpdateWallet(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	walletID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	wallet, err := h.walletService.UpdateWallet(userID, walletID, services.WalletUpdateFields{
		Name:           req.Name,
		Temperature:    req.Temperature,
		Description:    req.Description,
		IncludeInTotal: req.IncludeInTotal,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"wallet": wallet})
}

// DeleteWallet handles the deletion of a wallet
// @Summary     Delete wallet
// @Description Delete a wallet. Wallets referenced by ledger transactions cannot be deleted.
// @Tags        wallets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Wallet ID"
// @Success     200 {object} MessageResponse "Wallet deleted"
// @Failure     400 {object} ErrorResponse "Invalid wallet ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Wallet not found"
// @Failure     409 {object} ErrorResponse "Wallet referenced by transactions"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /wallets/{id} [delete]
func (h *WalletHandler) DeleteWallet(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	walletID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.walletService.DeleteWallet(userID, walletID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Wallet deleted successfully"})
}
