package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kuberan/loansync/internal/currency"
	"github.com/kuberan/loansync/internal/models"
)

// StoredRates keeps the last known quote per currency pair in the
// exchange_rates table.
type StoredRates struct {
	db *gorm.DB
}

// NewStoredRates creates a StoredRates.
func NewStoredRates(db *gorm.DB) *StoredRates {
	return &StoredRates{db: db}
}

// Rate returns the stored quote, or currency.ErrRateUnavailable.
func (s *StoredRates) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	var rate models.ExchangeRate
	err := s.db.WithContext(ctx).
		Where("from_currency = ? AND to_currency = ?", strings.ToUpper(from), strings.ToUpper(to)).
		First(&rate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, currency.ErrRateUnavailable
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("load exchange rate: %w", err)
	}
	return rate.Rate, nil
}

// SaveRate inserts or replaces the quote for the pair. A stored quote
// fetched later than fetchedAt is kept.
func (s *StoredRates) SaveRate(ctx context.Context, from, to string, rate decimal.Decimal, fetchedAt time.Time) error {
	return saveQuote(s.db.WithContext(ctx), currency.Quote{From: from, To: to, Rate: rate, FetchedAt: fetchedAt})
}

// SaveRates stores a batch of quotes in one transaction.
func (s *StoredRates) SaveRates(ctx context.Context, quotes []currency.Quote) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, q := range quotes {
			if err := saveQuote(tx, q); err != nil {
				return fmt.Errorf("save %s%s: %w", q.From, q.To, err)
			}
		}
		return nil
	})
}

func saveQuote(db *gorm.DB, q currency.Quote) error {
	row := &models.ExchangeRate{
		FromCurrency: strings.ToUpper(q.From),
		ToCurrency:   strings.ToUpper(q.To),
		Rate:         q.Rate,
		FetchedAt:    q.FetchedAt.UTC(),
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "from_currency"}, {Name: "to_currency"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate", "fetched_at", "updated_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "exchange_rates.fetched_at <= excluded.fetched_at"},
		}},
	}).Create(row).Error
}
