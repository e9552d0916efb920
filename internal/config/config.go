// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Runtime
	Env      string
	LogLevel string

	// Server
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret string

	// RateFeedAPIKey guards the internal endpoint rate feeds push quotes to.
	// Empty disables the endpoint.
	RateFeedAPIKey string

	// Currency
	BaseCurrency      string        // used when a loan or record has no account
	RatesAPIURL       string        // Yahoo Finance chart endpoint
	RatesTimeout      time.Duration // per request to the rates API
	RatesCacheTTL     time.Duration // how long a fetched quote is reused; 0 disables
	RecalcConcurrency int           // parallel conversions per recalculation pass
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", ""),

		Port: getEnv("PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "loansync"),
		DBPassword: getEnv("DB_PASSWORD", "loansync"),
		DBName:     getEnv("DB_NAME", "loansync"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:      getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
		RateFeedAPIKey: getEnv("RATE_FEED_API_KEY", ""),

		BaseCurrency: strings.ToUpper(getEnv("BASE_CURRENCY", "USD")),
		RatesAPIURL:  getEnv("RATES_API_URL", "https://query1.finance.yahoo.com/v8/finance/chart"),
	}

	if money.GetCurrency(cfg.BaseCurrency) == nil {
		return nil, fmt.Errorf("invalid BASE_CURRENCY %q: not an ISO 4217 code", cfg.BaseCurrency)
	}

	timeoutStr := getEnv("RATES_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("invalid RATES_TIMEOUT %q: must be a positive duration", timeoutStr)
	}
	cfg.RatesTimeout = timeout

	ttlStr := getEnv("RATES_CACHE_TTL", "15m")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil || ttl < 0 {
		return nil, fmt.Errorf("invalid RATES_CACHE_TTL %q: must be a non-negative duration", ttlStr)
	}
	cfg.RatesCacheTTL = ttl

	concStr := getEnv("RECALC_CONCURRENCY", "8")
	conc, err := strconv.Atoi(concStr)
	if err != nil || conc < 1 {
		return nil, fmt.Errorf("invalid RECALC_CONCURRENCY %q: must be a positive integer", concStr)
	}
	cfg.RecalcConcurrency = conc

	return cfg, nil
}

// DSN returns the PostgreSQL connection string for gorm.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// MigrationURL returns the postgres:// URL golang-migrate expects.
func (c *Config) MigrationURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
