package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is the last known quote for one unit of FromCurrency
// expressed in ToCurrency.
type ExchangeRate struct {
	Base
	FromCurrency string          `gorm:"size:3;not null;uniqueIndex:idx_exchange_rates_pair" json:"from_currency"`
	ToCurrency   string          `gorm:"size:3;not null;uniqueIndex:idx_exchange_rates_pair" json:"to_currency"`
	Rate         decimal.Decimal `gorm:"type:numeric;not null" json:"rate"`
	FetchedAt    time.Time       `gorm:"not null" json:"fetched_at"`
}
