package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hodltrack/internal/services"
)

// PortfolioHandler serves the derived portfolio reports. Everything returned
// here is recomputed from the ledger on each request.
type PortfolioHandler struct {
	portfolioService services.PortfolioServicer
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(portfolioService services.PortfolioServicer) *PortfolioHandler {
	return &PortfolioHandler{portfolioService: portfolioService}
}

// GetMetrics handles the portfolio metrics query
// @Summary     Get portfolio metrics
// @Description Get holdings, cost basis, realized/unrealized P&L, ROI, 24h change, and per-wallet balances in the reporting currency. An empty ledger returns a zeroed report.
// @Tags        portfolio
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       detailed query bool false "Include monthly breakdown, annualized return, and win/loss counts"
// @Success     200 {object} portfolio.Metrics "Portfolio metrics"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /portfolio/metrics [get]
func (h *PortfolioHandler) GetMetrics(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	detailed := c.Query("detailed") == "true"

	metrics, err := h.portfolioService.Metrics(c.Request.Context(), userID, detailed)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"metrics": metrics})
}

// GetDCAAnalysis handles the DCA strategy analysis query
// @Summary     Get DCA analysis
// @Description Score the user's dollar-cost-averaging strategy: timing, consistency, performance, what-if scenarios, and recommendations. An empty ledger returns a zero-scored analysis.
// @Tags        portfolio
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} portfolio.Analysis "DCA analysis"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /portfolio/dca-analysis [get]
func (h *PortfolioHandler) GetDCAAnalysis(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	analysis, err := h.portfolioService.DCAAnalysis(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"analysis": analysis})
}
