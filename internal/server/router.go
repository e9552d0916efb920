// Package server assembles the HTTP API: services, handlers, middleware and
// routes over a single database handle.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kuberan/loansync/internal/config"
	"github.com/kuberan/loansync/internal/currency"
	_ "github.com/kuberan/loansync/internal/docs" // swagger spec
	"github.com/kuberan/loansync/internal/handlers"
	"github.com/kuberan/loansync/internal/loansync"
	"github.com/kuberan/loansync/internal/middleware"
	"github.com/kuberan/loansync/internal/services"
	"github.com/kuberan/loansync/internal/validator"
)

// NewRouter wires the application. Conversions quote through rates; quotes
// pushed by the rate feed land in rateStore.
func NewRouter(cfg *config.Config, db *gorm.DB, rates currency.RateSource, rateStore currency.RateStore, log *zap.SugaredLogger) *gin.Engine {
	converter := currency.NewConverter(rates, cfg.BaseCurrency, log.Named("currency"))
	syncCfg := loansync.Config{
		BaseCurrency: cfg.BaseCurrency,
		Concurrency:  cfg.RecalcConcurrency,
	}
	locks := services.NewLoanLocks()
	syncLog := log.Named("loansync")

	// Services
	accountService := services.NewAccountService(db, cfg.BaseCurrency)
	loanService := services.NewLoanService(db, converter, syncCfg, locks, syncLog)
	recordService := services.NewLoanRecordService(db, converter, locks, syncLog)
	transactionService := services.NewTransactionService(db, converter, syncCfg, locks, syncLog)
	auditService := services.NewAuditService(db, log.Named("audit"))

	// Handlers
	accountHandler := handlers.NewAccountHandler(accountService, auditService)
	loanHandler := handlers.NewLoanHandler(loanService, recordService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	rateHandler := handlers.NewRateHandler(rates, rateStore)

	validator.Register()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	internal := router.Group("/api/internal")
	internal.Use(middleware.RateFeedAuth(cfg.RateFeedAPIKey))
	internal.PUT("/rates", rateHandler.PutRates)

	protected := router.Group("/api/v1")
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	accounts := protected.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetUserAccounts)
	accounts.GET("/:id", accountHandler.GetAccountByID)

	loans := protected.Group("/loans")
	loans.POST("", loanHandler.CreateLoan)
	loans.GET("", loanHandler.GetUserLoans)
	loans.GET("/:id", loanHandler.GetLoanByID)
	loans.PUT("/:id", loanHandler.UpdateLoan)
	loans.DELETE("/:id", loanHandler.DeleteLoan)
	loans.POST("/:id/records", loanHandler.CreateLoanRecord)
	loans.GET("/:id/records", loanHandler.GetLoanRecords)

	transactions := protected.Group("/transactions")
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)

	protected.GET("/rates", rateHandler.GetRate)

	return router
}
