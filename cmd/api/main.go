package main

import (
	"fmt"
	"net/http"

	"github.com/kuberan/loansync/internal/config"
	"github.com/kuberan/loansync/internal/currency"
	"github.com/kuberan/loansync/internal/database"
	"github.com/kuberan/loansync/internal/logger"
	"github.com/kuberan/loansync/internal/repository"
	"github.com/kuberan/loansync/internal/server"
)

// @title           Loan Sync API
// @version         1.0
// @description     Loans, their mirror transactions and loan records kept in sync across account currencies.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Init(cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	log := logger.Get()

	dbManager, err := database.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	db := dbManager.DB()
	storedRates := repository.NewStoredRates(db)
	liveRates := currency.NewYahooRates(&http.Client{Timeout: cfg.RatesTimeout}, cfg.RatesAPIURL, cfg.RatesCacheTTL)
	rates := currency.NewFallbackRates(liveRates, storedRates, logger.Named("rates"))

	router := server.NewRouter(cfg, db, rates, storedRates, log)

	if cfg.RateFeedAPIKey == "" {
		log.Warn("RATE_FEED_API_KEY not set, rate feed endpoint disabled")
	}
	log.Infof("Starting loan sync server on port %s (base currency %s)", cfg.Port, cfg.BaseCurrency)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", cfg.Port)
	return router.Run(":" + cfg.Port)
}
