package services

import (
	"encoding/json"
	"strings"

	"gorm.io/gorm"

	"fintrack/internal/logger"
	"fintrack/internal/models"
)

type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log appends an entry to the audit trail. Entries without an acting user
// are dropped. Storage failures are logged and never reach the caller.
func (s *auditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any) {
	log := logger.Named("audit")

	if userID == "" {
		log.Warnw("audit entry without user dropped", "action", action, "resource_type", resourceType)
		return
	}

	entry := models.AuditLog{
		UserID:       userID,
		Action:       strings.ToUpper(action),
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      encodeChanges(changes),
	}
	if err := s.db.Create(&entry).Error; err != nil {
		log.Errorw("audit entry not stored",
			"error", err,
			"user_id", userID,
			"action", entry.Action,
			"resource", resourceType+"/"+resourceID,
		)
	}
}

// encodeChanges renders the change set as JSON. Decimal values marshal as
// numbers. An empty set is stored as the empty string.
func encodeChanges(changes map[string]any) string {
	if len(changes) == 0 {
		return ""
	}
	data, err := json.Marshal(changes)
	if err != nil {
		logger.Named("audit").Warnw("audit changes not encodable", "error", err)
		return "{}"
	}
	return string(data)
}
