package services

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kuberan/loansync/internal/currency"
	"github.com/kuberan/loansync/internal/loansync"
)

// fixedRates quotes a fixed rate per "FROM:TO" pair.
type fixedRates map[string]string

func (f fixedRates) Rate(_ context.Context, from, to string) (decimal.Decimal, error) {
	if r, ok := f[from+":"+to]; ok {
		return decimal.RequireFromString(r), nil
	}
	return decimal.Zero, currency.ErrRateUnavailable
}

var testRates = fixedRates{
	"USD:EUR": "0.9",
	"EUR:USD": "1.1",
	"GBP:EUR": "1.15",
}

var testSyncConfig = loansync.Config{BaseCurrency: "USD", Concurrency: 4}

func newTestConverter() *currency.Converter {
	return currency.NewConverter(testRates, "USD", zap.NewNop().Sugar())
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }
