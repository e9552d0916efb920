package services

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kuberan/loansync/internal/models"
)

const auditWriteTimeout = 2 * time.Second

// auditService records who changed which loan, record, account or
// transaction.
type auditService struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB, log *zap.SugaredLogger) AuditServicer {
	return &auditService{db: db, log: log}
}

// Log writes one audit entry. Failures are logged and swallowed; the write
// is bounded by auditWriteTimeout and detached from the request context so a
// cancelled request still leaves its trail. Entries without a user are
// dropped.
func (s *auditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{}) {
	if userID == "" {
		s.log.Warnw("dropping audit entry without user", "action", action, "resource_type", resourceType)
		return
	}

	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
	}
	if len(changes) > 0 {
		data, err := json.Marshal(changes)
		if err != nil {
			s.log.Errorw("failed to marshal audit changes", "action", action, "error", err)
			data = []byte("{}")
		}
		entry.Changes = string(data)
	}

	ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
	defer cancel()

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		s.log.Errorw("failed to write audit entry",
			"error", err,
			"user_id", userID,
			"action", action,
			"resource", resourceType+"/"+resourceID,
		)
	}
}
