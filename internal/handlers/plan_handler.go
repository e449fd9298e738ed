package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "hodltrack/internal/errors"
	"hodltrack/internal/models"
	"hodltrack/internal/pagination"
	"hodltrack/internal/services"
)

// PlanHandler handles recurring purchase plan requests.
type PlanHandler struct {
	planService services.PlanServicer
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planService services.PlanServicer) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// CreatePlanRequest represents the request payload for creating a recurring plan
type CreatePlanRequest struct {
	Name                string               `json:"name" binding:"required,max=100"`
	Kind                string               `json:"kind" binding:"omitempty,plan_kind"`
	FiatAmount          decimal.Decimal      `json:"fiat_amount" binding:"required"`
	Currency            string               `json:"currency" binding:"omitempty,iso4217"`
	Fee                 decimal.Decimal      `json:"fee"`
	FeeCurrency         string               `json:"fee_currency" binding:"omitempty,fee_currency"`
	Frequency           models.PlanFrequency `json:"frequency" binding:"required,plan_frequency"`
	StartDate           *string              `json:"start_date"`
	EndDate             *string              `json:"end_date"`
	MaxOccurrences      *int                 `json:"max_occurrences"`
	DestinationWalletID *string              `json:"destination_wallet_id"`
}

// CreatePlan handles the creation of a new recurring plan
// @Summary     Create a recurring plan
// @Description Schedule automatic fixed-fiat-amount purchases. The first execution is due at the start date.
// @Tags        plans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreatePlanRequest true "Plan details"
// @Success     201 {object} models.RecurringPlan "Plan created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /plans [post]
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input := services.PlanInput{
		Name:                req.Name,
		Kind:                models.TransactionKind(req.Kind),
		FiatAmount:          req.FiatAmount,
		Currency:            req.Currency,
		Fee:                 req.Fee,
		FeeCurrency:         req.FeeCurrency,
		Frequency:           req.Frequency,
		MaxOccurrences:      req.MaxOccurrences,
		DestinationWalletID: req.DestinationWalletID,
	}

	if req.StartDate != nil && *req.StartDate != "" {
		parsed, parseErr := parseFlexibleTime(*req.StartDate)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, parseErr.Error()))
			return
		}
		input.StartDate = parsed
	}
	if req.EndDate != nil && *req.EndDate != "" {
		parsed, parseErr := parseFlexibleTime(*req.EndDate)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, parseErr.Error()))
			return
		}
		input.EndDate = &parsed
	}

	plan, err := h.planService.CreatePlan(userID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"plan": plan})
}

// GetUserPlans handles the retrieval of all active plans for the authenticated user
// @Summary     Get user plans
// @Description Get a paginated list of the user's active recurring plans
// @Tags        plans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 50, max 200)"
// @Success     200 {object} pagination.PageResponse[models.RecurringPlan] "Paginated plans"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /plans [get]
func (h *PlanHandler) GetUserPlans(c *gin.Context) {
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

	result, err := h.planService.GetUserPlans(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPlanByID handles the retrieval of a specific plan
// @Summary     Get plan by ID
// @Description Get a specific recurring plan by ID
// @Tags        plans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Plan ID"
// @Success     200 {object} models.RecurringPlan "Plan details"
// @Failure     400 {object} ErrorResponse "Invalid plan ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Plan not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /plans/{id} [get]
func (h *PlanHandler) GetPlanByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	planID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	plan, err := h.planService.GetPlanByID(userID, planID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"plan": plan})
}

// UpdatePlanRequest represents the request payload for updating a plan.
// Schedule state advanced by the executor cannot be edited.
type UpdatePlanRequest struct {
	Name                *string               `json:"name" binding:"omitempty,max=100"`
	FiatAmount          *decimal.Decimal      `json:"fiat_amount"`
	Currency            *string               `json:"currency" binding:"omitempty,iso4217"`
	Fee                 *decimal.Decimal      `json:"fee"`
	FeeCurrency         *string               `json:"fee_currency" binding:"omitempty,fee_currency"`
	Frequency           *models.PlanFrequency `json:"frequency" binding:"omitempty,plan_frequency"`
	EndDate             *string               `json:"end_date"`
	MaxOccurrences      *int                  `json:"max_occurrences"`
	DestinationWalletID *string               `json:"destination_wallet_id"`
}

// UpdatePlan handles updating an existing plan
// @Summary     Update plan
// @Description Update a recurring plan's amount, schedule, or destination wallet
// @Tags        plans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string            true "Plan ID"
// @Param       request body UpdatePlanRequest true "Fields to update"
// @Success     200 {object} models.RecurringPlan "Updated plan"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Plan not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /plans/{id} [put]
func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	planID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	fields := services.PlanUpdateFields{
		Name:                req.Name,
		FiatAmount:          req.FiatAmount,
		Currency:            req.Currency,
		Fee:                 req.Fee,
		FeeCurrency:         req.FeeCurrency,
		Frequency:           req.Frequency,
		MaxOccurrences:      req.MaxOccurrences,
		DestinationWalletID: req.DestinationWalletID,
	}

	if req.EndDate != nil && *req.EndDate != "" {
		parsed, parseErr := parseFlexibleTime(*req.EndDate)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, parseErr.Error()))
			return
		}
		fields.EndDate = &parsed
	}

	plan, err := h.planService.UpdatePlan(userID, planID, fields)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"plan": plan})
}

// PausePlan handles suspending a plan's automatic execution
// @Summary     Pause plan
// @Description Suspend a recurring plan's automatic execution
// @Tags        plans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Plan ID"
// @Success     200 {object} models.RecurringPlan "Paused plan"
// @Failure     400 {object} ErrorResponse "Invalid plan ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Plan not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /plans/{id}/pause [post]
func (h *PlanHandler) PausePlan(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	planID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	plan, err := h.planService.PausePlan(userID, planID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"plan": plan})
}

// ResumePlan handles re-enabling a paused plan
// @Summary     Resume plan
// @Description Re-enable a paused recurring plan. Completed or ended plans cannot be resumed.
// @Tags        plans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Plan ID"
// @Success     200 {object} models.RecurringPlan "Resumed plan"
// @Failure     400 {object} ErrorResponse "Invalid plan ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Plan not found"
// @Failure     409 {object} ErrorResponse "Plan completed or past its end date"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /plans/{id}/resume [post]
func (h *PlanHandler) ResumePlan(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	planID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	plan, err := h.planService.ResumePlan(userID, planID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"plan": plan})
}

// ExecutePlanNow handles the manual execution trigger
// @Summary     Execute plan now
// @Description Run one occurrence of the plan immediately, bypassing the due-time check. The next automatic execution is rescheduled from now.
// @Tags        plans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Plan ID"
// @Success     201 {object} models.Transaction "Generated transaction"
// @Failure     400 {object} ErrorResponse "Invalid plan ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Plan not found"
// @Failure     409 {object} ErrorResponse "Plan completed or past its end date"
// @Failure     503 {object} ErrorResponse "Current price unavailable"
// @Router      /plans/{id}/execute [post]
func (h *PlanHandler) ExecutePlanNow(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	planID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.planService.ExecuteNow(c.Request.Context(), userID, planID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// DeactivatePlan handles the logical deletion of a plan
// @Summary     Delete plan
// @Description Deactivate a recurring plan. Plans are never removed physically; generated transactions keep referencing them.
// @Tags        plans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Plan ID"
// @Success     200 {object} MessageResponse "Plan deactivated"
// @Failure     400 {object} ErrorResponse "Invalid plan ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Plan not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /plans/{id} [delete]
func (h *PlanHandler) DeactivatePlan(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	planID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.planService.DeactivatePlan(userID, planID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Plan deactivated successfully"})
}
