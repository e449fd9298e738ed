package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"hodltrack/internal/config"
	"hodltrack/internal/database"
	"hodltrack/internal/handlers"
	"hodltrack/internal/logger"
	"hodltrack/internal/middleware"
	"hodltrack/internal/prices"
	"hodltrack/internal/scheduler"
	"hodltrack/internal/services"
	"hodltrack/internal/validator"

	_ "hodltrack/internal/docs" // Import swagger docs
)

// @title           Hodltrack API
// @version         1.0
// @description     Hodltrack is a self-hosted Bitcoin portfolio tracker: a multi-wallet ledger with cost-basis accounting, DCA strategy analysis, and recurring purchase plans.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if closeErr := dbManager.Close(); closeErr != nil {
			log.Errorw("failed to close database", "error", closeErr)
		}
	}()

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register request validators
	validator.Register()

	// Market data clients
	httpClient := &http.Client{Timeout: appConfig.HTTPClientTimeout}
	priceFeed := prices.NewCoinGeckoFeed(httpClient, appConfig.PriceFeedBaseURL)
	forexClient := prices.NewForexClient(httpClient, appConfig.ForexBaseURL)

	// Initialize services
	db := dbManager.DB()
	settingsService := services.NewSettingsService(db)
	walletService := services.NewWalletService(db, priceFeed, forexClient, settingsService)
	transactionService := services.NewTransactionService(db, walletService)
	portfolioService := services.NewPortfolioService(db, priceFeed, forexClient, settingsService)
	planService := services.NewPlanService(db, priceFeed, forexClient, walletService, portfolioService)

	// Initialize handlers
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	walletHandler := handlers.NewWalletHandler(walletService)
	planHandler := handlers.NewPlanHandler(planService)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService)
	settingsHandler := handlers.NewSettingsHandler(settingsService)

	// Recurring purchase scheduler
	planScheduler := scheduler.New(planService, planService, appConfig.SchedulerInterval, log)
	planScheduler.Start()

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group. Every route requires a valid access token issued by the
	// external auth service.
	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware())

	// Ledger routes
	transactions := v1.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	// Wallet routes
	wallets := v1.Group("/wallets")
	wallets.POST("", walletHandler.CreateWallet)
	wallets.GET("", walletHandler.GetUserWallets)
	wallets.GET("/balances", walletHandler.GetWalletBalances)
	wallets.GET("/:id", walletHandler.GetWalletByID)
	wallets.PUT("/:id", walletHandler.UpdateWallet)
	wallets.DELETE("/:id", walletHandler.DeleteWallet)

	// Recurring plan routes
	plans := v1.Group("/plans")
	plans.POST("", planHandler.CreatePlan)
	plans.GET("", planHandler.GetUserPlans)
	plans.GET("/:id", planHandler.GetPlanByID)
	plans.PUT("/:id", planHandler.UpdatePlan)
	plans.POST("/:id/pause", planHandler.PausePlan)
	plans.POST("/:id/resume", planHandler.ResumePlan)
	plans.POST("/:id/execute", planHandler.ExecutePlanNow)
	plans.DELETE("/:id", planHandler.DeactivatePlan)

	// Portfolio routes
	portfolio := v1.Group("/portfolio")
	portfolio.GET("/metrics", portfolioHandler.GetMetrics)
	portfolio.GET("/dca-analysis", portfolioHandler.GetDCAAnalysis)

	// Settings routes
	settings := v1.Group("/settings")
	settings.GET("", settingsHandler.GetSettings)
	settings.PUT("", settingsHandler.UpdateSettings)

	server := &http.Server{
		Addr:    ":" + appConfig.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Hodltrack backend server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := planScheduler.Stop(shutdownCtx); err != nil {
		log.Errorw("scheduler did not stop cleanly", "error", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
