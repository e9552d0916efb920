package models

import "time"

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Transaction represents a ledger entry. A transaction carrying LoanID with
// IsLoanRecord unset is the mirror of that loan's principal.
type Transaction struct {
	Base
	UserID       string          `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID    string          `gorm:"type:uuid;not null;index" json:"account_id"`
	LoanID       *string         `gorm:"type:uuid;index" json:"loan_id,omitempty"`
	IsLoanRecord bool            `gorm:"not null;default:false" json:"is_loan_record"`
	Type         TransactionType `gorm:"not null" json:"type"`
	Amount       int64           `gorm:"type:bigint;not null" json:"amount"`
	Title        string          `json:"title"`
	Date         time.Time       `gorm:"not null" json:"date"`
}

// HasLoan reports whether the transaction is linked to a loan.
func (t *Transaction) HasLoan() bool {
	return t != nil && t.LoanID != nil && *t.LoanID != ""
}
