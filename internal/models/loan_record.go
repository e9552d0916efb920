package models

import "time"

// LoanRecord is a partial payment or settlement against a loan, denominated
// in its own account's currency. ConvertedAmount re-expresses Amount in the
// loan's backing-account currency and is nil when the currencies match or no
// rate was available.
type LoanRecord struct {
	Base
	LoanID          string    `gorm:"type:uuid;not null;index" json:"loan_id"`
	AccountID       *string   `gorm:"type:uuid" json:"account_id,omitempty"`
	Amount          int64     `gorm:"type:bigint;not null" json:"amount"`
	ConvertedAmount *int64    `gorm:"type:bigint" json:"converted_amount"`
	Note            string    `json:"note"`
	Date            time.Time `gorm:"not null" json:"date"`
}
