package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kuberan/loansync/internal/models"
	"github.com/kuberan/loansync/internal/uuid"

	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// NewUserID returns a fresh user id. Users live in the identity provider, so
// there is no row to create.
func NewUserID() string {
	return uuid.New()
}

// CreateTestAccount creates an account in the given currency. Accounts are
// created with strictly increasing timestamps so the first one created is the
// user's default account.
func CreateTestAccount(t *testing.T, db *gorm.DB, userID, currency string) *models.Account {
	t.Helper()

	n := nextID()
	account := &models.Account{
		Base:     models.Base{CreatedAt: time.Now().Add(time.Duration(n) * time.Millisecond)},
		UserID:   userID,
		Name:     fmt.Sprintf("Test Account %d", n),
		Currency: currency,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestLoan creates a loan of the given type and amount (in cents).
// accountID may be nil.
func CreateTestLoan(t *testing.T, db *gorm.DB, userID string, accountID *string, loanType models.LoanType, amount int64) *models.Loan {
	t.Helper()

	loan := &models.Loan{
		UserID:    userID,
		Name:      fmt.Sprintf("Test Loan %d", nextID()),
		Amount:    amount,
		Type:      loanType,
		AccountID: accountID,
	}
	if err := db.Create(loan).Error; err != nil {
		t.Fatalf("failed to create test loan: %v", err)
	}
	return loan
}

// CreateTestLoanRecord creates a record against the loan. convertedAmount may be nil.
func CreateTestLoanRecord(t *testing.T, db *gorm.DB, loanID string, accountID *string, amount int64, convertedAmount *int64) *models.LoanRecord {
	t.Helper()

	record := &models.LoanRecord{
		LoanID:          loanID,
		AccountID:       accountID,
		Amount:          amount,
		ConvertedAmount: convertedAmount,
		Note:            fmt.Sprintf("Test Record %d", nextID()),
		Date:            time.Now(),
	}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("failed to create test loan record: %v", err)
	}
	return record
}

// CreateTestTransaction creates a transaction of the given type and amount (in cents).
// A non-nil loanID makes it the loan's mirror.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, accountID string, loanID *string, txType models.TransactionType, amount int64) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:    userID,
		AccountID: accountID,
		LoanID:    loanID,
		Type:      txType,
		Amount:    amount,
		Title:     fmt.Sprintf("Test Transaction %d", nextID()),
		Date:      time.Now(),
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}
