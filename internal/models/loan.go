package models

// LoanType says whether the user borrowed or lent the money.
type LoanType string

const (
	LoanTypeBorrow LoanType = "borrow"
	LoanTypeLend   LoanType = "lend"
)

// TransactionType returns the ledger direction of the loan's principal:
// borrowed money comes in, lent money goes out.
func (t LoanType) TransactionType() TransactionType {
	if t == LoanTypeBorrow {
		return TransactionTypeIncome
	}
	return TransactionTypeExpense
}

// LoanTypeFor derives the loan type from the mirror transaction's direction.
func LoanTypeFor(t TransactionType) LoanType {
	if t == TransactionTypeIncome {
		return LoanTypeBorrow
	}
	return LoanTypeLend
}

// Loan is a tracked lending or borrowing obligation. AccountID is the backing
// account whose currency is the loan's reporting currency.
type Loan struct {
	Base
	UserID    string   `gorm:"type:uuid;not null;index" json:"user_id"`
	Name      string   `gorm:"not null" json:"name"`
	Amount    int64    `gorm:"type:bigint;not null" json:"amount"`
	Type      LoanType `gorm:"not null" json:"type"`
	AccountID *string  `gorm:"type:uuid;index" json:"account_id,omitempty"`
	Note      string   `json:"note"`

	Records []LoanRecord `gorm:"foreignKey:LoanID" json:"records,omitempty"`
}
