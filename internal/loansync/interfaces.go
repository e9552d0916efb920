// Package loansync keeps loans, their mirror transactions and their records
// consistent with each other.
//
// Three components share the collaborators declared here:
//
//   - Synchronizer writes the transaction that mirrors a loan.
//   - Propagator copies edits of a mirror transaction back onto its loan.
//   - Recalculator re-expresses every record of a loan in the currency of the
//     loan's backing account.
//
// The package takes no locks. Callers must not run two recalculations for
// the same loan at once.
package loansync

import (
	"context"

	"github.com/kuberan/loansync/internal/currency"
	"github.com/kuberan/loansync/internal/models"
)

// AccountLister lists the accounts used to resolve currencies. Accounts are
// returned oldest first; the first one is the default booking account.
type AccountLister interface {
	ListAccounts(ctx context.Context) ([]models.Account, error)
}

// LoanStore fetches and persists loans. FindLoan returns nil, nil when the
// loan does not exist.
type LoanStore interface {
	FindLoan(ctx context.Context, id string) (*models.Loan, error)
	SaveLoan(ctx context.Context, loan *models.Loan) error
}

// LoanRecordStore fetches and persists loan records.
type LoanRecordStore interface {
	ListLoanRecords(ctx context.Context, loanID string) ([]models.LoanRecord, error)
	SaveLoanRecords(ctx context.Context, records []models.LoanRecord) error
}

// TransactionStore persists mirror transactions. FindLoanTransaction returns
// nil, nil when the loan has no mirror.
type TransactionStore interface {
	FindLoanTransaction(ctx context.Context, loanID string) (*models.Transaction, error)
	SaveTransaction(ctx context.Context, tx *models.Transaction) error
	DeleteLoanTransactions(ctx context.Context, loanID string) error
}

// AmountConverter computes a record's amount in the loan account's currency.
// A nil result means no conversion applies or no rate is known.
type AmountConverter interface {
	ConvertedAmount(ctx context.Context, req currency.ConversionRequest, accounts []models.Account) (*int64, error)
}

// Stores bundles every persistence collaborator.
type Stores interface {
	AccountLister
	LoanStore
	LoanRecordStore
	TransactionStore
}
