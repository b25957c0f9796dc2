package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/enums"
)

// AuditLogEntry records a single state transition or validation attempt.
// Rows are append-only; nothing in the codebase updates or deletes them.
// ActorUserID is nil for system-initiated actions such as expiry sweeps.
type AuditLogEntry struct {
	ID                   uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Action               enums.AuditAction `gorm:"column:action;type:audit_action;not null;index"`
	InvitationID         *uuid.UUID        `gorm:"column:invitation_id;type:uuid;index"`
	PermissionOverrideID *uuid.UUID        `gorm:"column:permission_override_id;type:uuid"`
	ActorUserID          *uuid.UUID        `gorm:"column:actor_user_id;type:uuid"`
	PreviousStatus       *string           `gorm:"column:previous_status;type:text"`
	NewStatus            *string           `gorm:"column:new_status;type:text"`
	Success              bool              `gorm:"column:success;not null"`
	Details              json.RawMessage   `gorm:"column:details;type:jsonb"`
	CreatedAt            time.Time         `gorm:"column:created_at;autoCreateTime;index"`
}
