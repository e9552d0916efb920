package models

// Account is a money container owned by a user. Its currency decides how
// loans backed by it are reported.
type Account struct {
	Base
	UserID      string `gorm:"type:uuid;not null;index" json:"user_id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	Currency    string `gorm:"size:3;not null;default:'USD'" json:"currency"`
}
