package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"BASE_CURRENCY", "RATES_TIMEOUT", "RATES_CACHE_TTL", "RECALC_CONCURRENCY", "PORT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BaseCurrency != "USD" {
		t.Errorf("BaseCurrency = %q, want USD", cfg.BaseCurrency)
	}
	if cfg.RatesTimeout != 10*time.Second {
		t.Errorf("RatesTimeout = %v, want 10s", cfg.RatesTimeout)
	}
	if cfg.RatesCacheTTL != 15*time.Minute {
		t.Errorf("RatesCacheTTL = %v, want 15m", cfg.RatesCacheTTL)
	}
	if cfg.RecalcConcurrency != 8 {
		t.Errorf("RecalcConcurrency = %d, want 8", cfg.RecalcConcurrency)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
}

func TestLoad_BaseCurrency(t *testing.T) {
	t.Run("normalizes case", func(t *testing.T) {
		t.Setenv("BASE_CURRENCY", "eur")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.BaseCurrency != "EUR" {
			t.Errorf("BaseCurrency = %q, want EUR", cfg.BaseCurrency)
		}
	})

	t.Run("rejects unknown code", func(t *testing.T) {
		t.Setenv("BASE_CURRENCY", "XYZ")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for unknown currency")
		}
	})
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"RATES_TIMEOUT", "soon"},
		{"RATES_TIMEOUT", "-1s"},
		{"RATES_CACHE_TTL", "forever"},
		{"RATES_CACHE_TTL", "-5m"},
		{"RECALC_CONCURRENCY", "0"},
		{"RECALC_CONCURRENCY", "many"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_RatesCacheTTLZeroDisables(t *testing.T) {
	t.Setenv("RATES_CACHE_TTL", "0")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RatesCacheTTL != 0 {
		t.Errorf("RatesCacheTTL = %v, want 0", cfg.RatesCacheTTL)
	}
}

func TestConfig_URLs(t *testing.T) {
	cfg := &Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "loans", DBSSLMode: "disable"}

	if got, want := cfg.DSN(), "host=db port=5432 user=u password=p dbname=loans sslmode=disable"; got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
	if got, want := cfg.MigrationURL(), "postgres://u:p@db:5432/loans?sslmode=disable"; got != want {
		t.Errorf("MigrationURL() = %q, want %q", got, want)
	}
}
