package currency

import (
	"context"
	"errors"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kuberan/loansync/internal/models"
)

// ConversionRequest describes a loan record before and after an edit plus the
// loan's backing account. Amounts are in minor units of the record account's
// currency.
type ConversionRequest struct {
	OldRecordAccountID *string
	OldRecordAmount    int64
	OldConvertedAmount *int64

	NewRecordAccountID *string
	NewRecordAmount    int64

	LoanAccountID *string

	// Recalculate forces a fresh quote even when the record itself is
	// unchanged, e.g. because the loan moved to another account.
	Recalculate bool
}

// Converter computes LoanRecord converted amounts.
type Converter struct {
	rates        RateSource
	baseCurrency string
	log          *zap.SugaredLogger
}

// NewConverter creates a Converter. baseCurrency is used for records and
// loans that have no account.
func NewConverter(rates RateSource, baseCurrency string, log *zap.SugaredLogger) *Converter {
	return &Converter{
		rates:        rates,
		baseCurrency: strings.ToUpper(baseCurrency),
		log:          log,
	}
}

// ConvertedAmount returns the record amount expressed in the loan account's
// currency, or nil when the currencies match or no rate exists.
func (c *Converter) ConvertedAmount(ctx context.Context, req ConversionRequest, accounts []models.Account) (*int64, error) {
	recordCurrency := Resolve(req.NewRecordAccountID, accounts, c.baseCurrency)
	loanCurrency := Resolve(req.LoanAccountID, accounts, c.baseCurrency)

	if recordCurrency == loanCurrency {
		return nil, nil
	}

	if !req.Recalculate && req.OldConvertedAmount != nil &&
		req.OldRecordAmount == req.NewRecordAmount &&
		Resolve(req.OldRecordAccountID, accounts, c.baseCurrency) == recordCurrency {
		kept := *req.OldConvertedAmount
		return &kept, nil
	}

	rate, err := c.rates.Rate(ctx, recordCurrency, loanCurrency)
	if err != nil {
		if errors.Is(err, ErrRateUnavailable) {
			c.log.Debugw("no rate for loan record conversion", "from", recordCurrency, "to", loanCurrency)
			return nil, nil
		}
		return nil, err
	}

	converted := ConvertMinor(req.NewRecordAmount, recordCurrency, loanCurrency, rate)
	return &converted, nil
}

// Resolve returns the currency of accountID, or base when the id is nil or
// not among accounts.
func Resolve(accountID *string, accounts []models.Account, base string) string {
	if accountID == nil {
		return strings.ToUpper(base)
	}
	for i := range accounts {
		if accounts[i].ID == *accountID {
			return strings.ToUpper(accounts[i].Currency)
		}
	}
	return strings.ToUpper(base)
}

// ConvertMinor converts an amount in minor units of from into minor units of
// to, honoring each currency's number of decimal places.
func ConvertMinor(amount int64, from, to string, rate decimal.Decimal) int64 {
	major := decimal.New(amount, -fraction(from))
	return major.Mul(rate).Shift(fraction(to)).Round(0).IntPart()
}

// fraction is the number of minor-unit digits; unknown codes get 2.
func fraction(code string) int32 {
	if cur := money.GetCurrency(strings.ToUpper(code)); cur != nil {
		return int32(cur.Fraction)
	}
	return 2
}
