package loansync

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/kuberan/loansync/internal/errors"
	"github.com/kuberan/loansync/internal/models"
)

// LoanInput is the data a loan is created from.
type LoanInput struct {
	UserID    string
	Name      string
	Amount    int64
	Type      models.LoanType
	AccountID *string
	// CreateTransaction asks for a mirror transaction to be booked.
	CreateTransaction bool
	// Date of the mirror transaction; zero means now.
	Date time.Time
}

// Synchronizer maintains the mirror transaction of a loan.
type Synchronizer struct {
	accounts     AccountLister
	transactions TransactionStore
	log          *zap.SugaredLogger
	now          func() time.Time
}

// NewSynchronizer creates a Synchronizer.
func NewSynchronizer(accounts AccountLister, transactions TransactionStore, log *zap.SugaredLogger) *Synchronizer {
	return &Synchronizer{
		accounts:     accounts,
		transactions: transactions,
		log:          log,
		now:          time.Now,
	}
}

// CreateAssociatedTransaction books the mirror transaction of a new loan when
// in.CreateTransaction is set.
func (s *Synchronizer) CreateAssociatedTransaction(ctx context.Context, in LoanInput, loanID string) error {
	if !in.CreateTransaction {
		return nil
	}

	accountID, err := s.bookingAccount(ctx, in.AccountID)
	if err != nil {
		return err
	}

	date := in.Date
	if date.IsZero() {
		date = s.now()
	}

	tx := &models.Transaction{
		UserID:       in.UserID,
		AccountID:    accountID,
		LoanID:       &loanID,
		IsLoanRecord: false,
		Type:         in.Type.TransactionType(),
		Amount:       in.Amount,
		Title:        in.Name,
		Date:         date,
	}
	if err := s.transactions.SaveTransaction(ctx, tx); err != nil {
		return fmt.Errorf("save loan transaction: %w", err)
	}

	s.log.Debugw("loan transaction created", "loan_id", loanID, "transaction_id", tx.ID)
	return nil
}

// EditAssociatedTransaction rewrites the mirror of loan from the loan's
// current amount, type, name and account. existing is used when given,
// otherwise the stored mirror is looked up. Without a mirror a new one is
// created only if createIfMissing is set. The mirror keeps its date.
func (s *Synchronizer) EditAssociatedTransaction(ctx context.Context, loan *models.Loan, createIfMissing bool, existing *models.Transaction) error {
	tx := existing
	if tx == nil {
		found, err := s.transactions.FindLoanTransaction(ctx, loan.ID)
		if err != nil {
			return fmt.Errorf("find loan transaction: %w", err)
		}
		tx = found
	}

	if tx == nil {
		if !createIfMissing {
			return nil
		}
		tx = &models.Transaction{UserID: loan.UserID, Date: s.now()}
	}

	accountID, err := s.bookingAccount(ctx, loan.AccountID)
	if err != nil {
		return err
	}

	loanID := loan.ID
	updated := *tx
	updated.LoanID = &loanID
	updated.IsLoanRecord = false
	updated.AccountID = accountID
	updated.Type = loan.Type.TransactionType()
	updated.Amount = loan.Amount
	updated.Title = loan.Name
	if updated.Date.IsZero() {
		updated.Date = s.now()
	}

	if err := s.transactions.SaveTransaction(ctx, &updated); err != nil {
		return fmt.Errorf("save loan transaction: %w", err)
	}
	return nil
}

// DeleteAssociatedTransactions removes every transaction linked to the loan.
// A loan without transactions is not an error.
func (s *Synchronizer) DeleteAssociatedTransactions(ctx context.Context, loanID string) error {
	if err := s.transactions.DeleteLoanTransactions(ctx, loanID); err != nil {
		return fmt.Errorf("delete loan transactions: %w", err)
	}
	return nil
}

// bookingAccount returns accountID, or the default account when it is nil.
func (s *Synchronizer) bookingAccount(ctx context.Context, accountID *string) (string, error) {
	if accountID != nil {
		return *accountID, nil
	}

	accounts, err := s.accounts.ListAccounts(ctx)
	if err != nil {
		return "", fmt.Errorf("list accounts: %w", err)
	}
	if len(accounts) == 0 {
		return "", apperrors.WithMessage(apperrors.ErrAccountNotFound, "an account is required to book the loan transaction")
	}
	return accounts[0].ID, nil
}
