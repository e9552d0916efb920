package loansync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kuberan/loansync/internal/models"
)

// Hooks let the caller observe background work of UpdateAssociatedLoan.
//
// OnStart runs only once real work begins, i.e. the transaction is linked to
// a loan. OnEnd always runs when UpdateAssociatedLoan returns: after early
// exits, after failures and after OnStart-less no-ops alike. Callers pairing
// the two (e.g. a spinner) must tolerate an OnEnd without OnStart.
type Hooks struct {
	OnStart func(ctx context.Context)
	OnEnd   func(ctx context.Context)
}

func (h Hooks) start(ctx context.Context) {
	if h.OnStart != nil {
		h.OnStart(ctx)
	}
}

func (h Hooks) end(ctx context.Context) {
	if h.OnEnd != nil {
		h.OnEnd(ctx)
	}
}

// Propagator applies edits of a mirror transaction to its loan.
type Propagator struct {
	accounts AccountLister
	loans    LoanStore
	records  LoanRecordStore
	recalc   *Recalculator
	log      *zap.SugaredLogger
}

// NewPropagator creates a Propagator.
func NewPropagator(accounts AccountLister, loans LoanStore, records LoanRecordStore, recalc *Recalculator, log *zap.SugaredLogger) *Propagator {
	return &Propagator{
		accounts: accounts,
		loans:    loans,
		records:  records,
		recalc:   recalc,
		log:      log,
	}
}

// UpdateAssociatedLoan copies amount, title, direction and account of tx onto
// the loan it mirrors. A transaction without a loan link, or a link to a
// missing loan, is a no-op. When accountsChanged is set the loan's records
// are recalculated against tx's account and saved before the loan is.
func (p *Propagator) UpdateAssociatedLoan(ctx context.Context, tx *models.Transaction, hooks Hooks, accountsChanged bool) error {
	defer hooks.end(ctx)

	if !tx.HasLoan() {
		return nil
	}

	hooks.start(ctx)

	loanID := *tx.LoanID
	loan, err := p.loans.FindLoan(ctx, loanID)
	if err != nil {
		return fmt.Errorf("find loan %s: %w", loanID, err)
	}
	if loan == nil {
		p.log.Debugw("transaction links a missing loan", "transaction_id", tx.ID, "loan_id", loanID)
		return nil
	}

	accountID := tx.AccountID

	if accountsChanged {
		records, err := p.recalc.Recalculate(ctx, loanID, &accountID)
		if err != nil {
			return err
		}
		if err := p.records.SaveLoanRecords(ctx, records); err != nil {
			return fmt.Errorf("save loan records: %w", err)
		}
	}

	updated := *loan
	updated.Amount = tx.Amount
	if tx.Title != "" {
		updated.Name = tx.Title
	}
	updated.Type = models.LoanTypeFor(tx.Type)
	updated.AccountID = &accountID

	if err := p.loans.SaveLoan(ctx, &updated); err != nil {
		return fmt.Errorf("save loan %s: %w", loanID, err)
	}

	p.log.Debugw("loan updated from transaction",
		"loan_id", loanID,
		"transaction_id", tx.ID,
		"accounts_changed", accountsChanged,
	)
	return nil
}

// RecalculateLoanRecords recalculates and saves the loan's records when the
// loan moves from oldAccountID to newAccountID and the two resolve to
// different currencies. Equal currencies, including two unset accounts, touch
// nothing.
func (p *Propagator) RecalculateLoanRecords(ctx context.Context, oldAccountID, newAccountID *string, loanID string) error {
	if sameAccount(oldAccountID, newAccountID) {
		return nil
	}

	accounts, err := p.accounts.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}
	if p.recalc.ResolveCurrency(oldAccountID, accounts) == p.recalc.ResolveCurrency(newAccountID, accounts) {
		return nil
	}

	records, err := p.recalc.Recalculate(ctx, loanID, newAccountID)
	if err != nil {
		return err
	}
	if err := p.records.SaveLoanRecords(ctx, records); err != nil {
		return fmt.Errorf("save loan records: %w", err)
	}
	return nil
}

func sameAccount(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
