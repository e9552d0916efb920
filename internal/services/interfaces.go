package services

import (
	"context"
	"time"

	"github.com/kuberan/loansync/internal/models"
	"github.com/kuberan/loansync/internal/pagination"
)

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(ctx context.Context, userID, name, description, currency string) (*models.Account, error)
	GetUserAccounts(ctx context.Context, userID string) ([]models.Account, error)
	GetAccountByID(ctx context.Context, userID, accountID string) (*models.Account, error)
}

// CreateLoanInput holds the fields of a new loan.
type CreateLoanInput struct {
	Name      string
	Amount    int64
	Type      models.LoanType
	AccountID *string
	Note      string
	// CreateTransaction books a mirror transaction for the loan.
	CreateTransaction bool
	Date              time.Time
}

// UpdateLoanInput holds optional loan changes. Nil fields are left alone.
type UpdateLoanInput struct {
	Name      *string
	Amount    *int64
	Type      *models.LoanType
	AccountID *string
	Note      *string
	// CreateTransaction books a mirror when the loan has none yet.
	CreateTransaction bool
}

// LoanServicer defines the contract for loan-related business logic.
type LoanServicer interface {
	CreateLoan(ctx context.Context, userID string, in CreateLoanInput) (*models.Loan, error)
	GetLoanByID(ctx context.Context, userID, loanID string) (*models.Loan, error)
	GetUserLoans(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Loan], error)
	UpdateLoan(ctx context.Context, userID, loanID string, in UpdateLoanInput) (*models.Loan, error)
	DeleteLoan(ctx context.Context, userID, loanID string) error
}

// CreateLoanRecordInput holds the fields of a new loan record.
type CreateLoanRecordInput struct {
	AccountID *string
	Amount    int64
	Note      string
	Date      time.Time
}

// LoanRecordServicer defines the contract for loan record business logic.
type LoanRecordServicer interface {
	CreateLoanRecord(ctx context.Context, userID, loanID string, in CreateLoanRecordInput) (*models.LoanRecord, error)
	GetLoanRecords(ctx context.Context, userID, loanID string) ([]models.LoanRecord, error)
}

// UpdateTransactionInput holds optional transaction changes.
type UpdateTransactionInput struct {
	AccountID *string
	Type      *models.TransactionType
	Amount    *int64
	Title     *string
	Date      *time.Time
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, transactionID string, in UpdateTransactionInput) (*models.Transaction, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
