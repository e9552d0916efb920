package loansync

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kuberan/loansync/internal/currency"
	"github.com/kuberan/loansync/internal/models"
)

const defaultConcurrency = 8

// Config holds the engine settings.
type Config struct {
	// BaseCurrency is used for loans and records without an account.
	BaseCurrency string
	// Concurrency bounds the parallel conversions of one recalculation pass.
	Concurrency int
}

func (c Config) concurrency() int {
	if c.Concurrency < 1 {
		return defaultConcurrency
	}
	return c.Concurrency
}

// Recalculator recomputes converted amounts for all records of a loan.
type Recalculator struct {
	accounts  AccountLister
	records   LoanRecordStore
	converter AmountConverter
	cfg       Config
	log       *zap.SugaredLogger
}

// NewRecalculator creates a Recalculator.
func NewRecalculator(accounts AccountLister, records LoanRecordStore, converter AmountConverter, cfg Config, log *zap.SugaredLogger) *Recalculator {
	return &Recalculator{
		accounts:  accounts,
		records:   records,
		converter: converter,
		cfg:       cfg,
		log:       log,
	}
}

// Recalculate returns every record of the loan with ConvertedAmount computed
// against newAccountID. Conversions run concurrently; a conversion that fails
// leaves that record's ConvertedAmount nil and does not affect the others.
// Records come back in the store's order with all other fields untouched.
// Nothing is persisted.
func (r *Recalculator) Recalculate(ctx context.Context, loanID string, newAccountID *string) ([]models.LoanRecord, error) {
	records, err := r.records.ListLoanRecords(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("list loan records: %w", err)
	}
	if len(records) == 0 {
		return records, nil
	}

	accounts, err := r.accounts.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	out := make([]models.LoanRecord, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.concurrency())

	for i := range records {
		g.Go(func() error {
			rec := records[i]
			converted, err := r.converter.ConvertedAmount(gctx, currency.ConversionRequest{
				OldRecordAccountID: rec.AccountID,
				OldRecordAmount:    rec.Amount,
				OldConvertedAmount: rec.ConvertedAmount,
				NewRecordAccountID: rec.AccountID,
				NewRecordAmount:    rec.Amount,
				LoanAccountID:      newAccountID,
				Recalculate:        true,
			}, accounts)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				r.log.Warnw("loan record conversion failed",
					"loan_id", loanID,
					"record_id", rec.ID,
					"error", err,
				)
				converted = nil
			}
			rec.ConvertedAmount = converted
			out[i] = rec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("recalculate loan records: %w", err)
	}

	r.log.Debugw("recalculated loan records", "loan_id", loanID, "count", len(out))
	return out, nil
}

// ResolveCurrency returns the currency of accountID among accounts, or the
// base currency when the id is nil or unknown.
func (r *Recalculator) ResolveCurrency(accountID *string, accounts []models.Account) string {
	return currency.Resolve(accountID, accounts, r.cfg.BaseCurrency)
}
