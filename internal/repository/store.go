// Package repository implements the loan sync stores on top of gorm.
package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kuberan/loansync/internal/models"
)

// Store gives the sync engine access to one user's accounts, loans, loan
// records and transactions. Every query is scoped to that user.
type Store struct {
	db     *gorm.DB
	userID string
}

// New returns a Store scoped to userID. db may be a gorm transaction.
func New(db *gorm.DB, userID string) *Store {
	return &Store{db: db, userID: userID}
}

// ListAccounts returns the user's accounts, oldest first.
func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", s.userID).
		Order("created_at ASC").
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// FindLoan returns the loan or nil when the user has no such loan.
func (s *Store) FindLoan(ctx context.Context, id string) (*models.Loan, error) {
	var loan models.Loan
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, s.userID).First(&loan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// SaveLoan writes the loan's own columns. Records are saved separately.
func (s *Store) SaveLoan(ctx context.Context, loan *models.Loan) error {
	if loan.UserID != s.userID {
		return fmt.Errorf("loan %s belongs to another user", loan.ID)
	}
	return s.db.WithContext(ctx).Omit(clause.Associations).Save(loan).Error
}

// ListLoanRecords returns the records of a loan in creation order.
func (s *Store) ListLoanRecords(ctx context.Context, loanID string) ([]models.LoanRecord, error) {
	var records []models.LoanRecord
	if err := s.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Where("loan_id IN (?)", s.db.WithContext(ctx).Model(&models.Loan{}).Select("id").Where("user_id = ?", s.userID)).
		Order("created_at ASC, id ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// SaveLoanRecords writes the converted amount of every record in one
// database transaction.
func (s *Store) SaveLoanRecords(ctx context.Context, records []models.LoanRecord) error {
	if len(records) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range records {
			var value interface{} = gorm.Expr("NULL")
			if records[i].ConvertedAmount != nil {
				value = *records[i].ConvertedAmount
			}
			if err := tx.Model(&models.LoanRecord{}).
				Where("id = ?", records[i].ID).
				Update("converted_amount", value).Error; err != nil {
				return fmt.Errorf("update loan record %s: %w", records[i].ID, err)
			}
		}
		return nil
	})
}

// FindLoanTransaction returns the mirror transaction of a loan, or nil.
func (s *Store) FindLoanTransaction(ctx context.Context, loanID string) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.db.WithContext(ctx).
		Where("loan_id = ? AND user_id = ? AND is_loan_record = ?", loanID, s.userID, false).
		Order("created_at ASC").
		First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// SaveTransaction creates tx when it has no ID and updates it otherwise.
func (s *Store) SaveTransaction(ctx context.Context, tx *models.Transaction) error {
	if tx.UserID == "" {
		tx.UserID = s.userID
	}
	if tx.UserID != s.userID {
		return fmt.Errorf("transaction %s belongs to another user", tx.ID)
	}
	if !tx.Persisted() {
		return s.db.WithContext(ctx).Create(tx).Error
	}
	return s.db.WithContext(ctx).Save(tx).Error
}

// DeleteLoanTransactions soft-deletes every transaction linked to the loan.
func (s *Store) DeleteLoanTransactions(ctx context.Context, loanID string) error {
	return s.db.WithContext(ctx).
		Where("loan_id = ? AND user_id = ?", loanID, s.userID).
		Delete(&models.Transaction{}).Error
}
