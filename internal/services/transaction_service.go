package services

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "github.com/kuberan/loansync/internal/errors"
	"github.com/kuberan/loansync/internal/loansync"
	"github.com/kuberan/loansync/internal/models"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db     *gorm.DB
	engine syncEngine
	locks  *LoanLocks
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, converter loansync.AmountConverter, cfg loansync.Config, locks *LoanLocks, log *zap.SugaredLogger) TransactionServicer {
	return &transactionService{
		db:     db,
		engine: syncEngine{converter: converter, cfg: cfg, log: log},
		locks:  locks,
	}
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateTransaction edits a transaction. When it mirrors a loan the loan
// follows, and a change of account recalculates the loan's records.
func (s *transactionService) UpdateTransaction(ctx context.Context, userID, transactionID string, in UpdateTransactionInput) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}
	if transaction.IsLoanRecord {
		return nil, apperrors.ErrLoanRecordTransaction
	}

	if transaction.HasLoan() {
		unlock := s.locks.Lock(*transaction.LoanID)
		defer unlock()

		// Reload under the lock; a concurrent loan edit may have rewritten it.
		if transaction, err = s.GetTransactionByID(ctx, userID, transactionID); err != nil {
			return nil, err
		}
	}

	accountsChanged := false
	if in.AccountID != nil && *in.AccountID != transaction.AccountID {
		if _, err := findAccount(ctx, s.db, userID, *in.AccountID); err != nil {
			return nil, err
		}
		transaction.AccountID = *in.AccountID
		accountsChanged = true
	}
	if in.Type != nil {
		switch *in.Type {
		case models.TransactionTypeIncome, models.TransactionTypeExpense:
			transaction.Type = *in.Type
		default:
			return nil, apperrors.ErrInvalidTransactionType
		}
	}
	if in.Amount != nil {
		if *in.Amount <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		transaction.Amount = *in.Amount
	}
	if in.Title != nil {
		transaction.Title = *in.Title
	}
	if in.Date != nil && !in.Date.IsZero() {
		transaction.Date = *in.Date
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(transaction).Error; err != nil {
			return err
		}
		return s.engine.forUser(tx, userID).UpdateAssociatedLoan(ctx, transaction, s.engine.hooks(transaction.ID), accountsChanged)
	})
	if err != nil {
		return nil, toAppError(err)
	}

	return transaction, nil
}
