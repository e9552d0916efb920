// Package models holds the gorm models shared by the stores and the API.
package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/kuberan/loansync/internal/uuid"
)

// Base is embedded by every table: a UUIDv7 primary key, timestamps and
// soft deletion.
type Base struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// Persisted reports whether the row already has an ID.
func (b *Base) Persisted() bool {
	return b.ID != ""
}

// BeforeCreate assigns a UUIDv7 to new rows and rejects malformed preset IDs.
func (b *Base) BeforeCreate(*gorm.DB) error {
	if !b.Persisted() {
		b.ID = uuid.New()
		return nil
	}
	if !uuid.IsValid(b.ID) {
		return fmt.Errorf("invalid id %q", b.ID)
	}
	return nil
}
