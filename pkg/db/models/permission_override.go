package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/enums"
)

// PermissionOverride is a per-user exception layered on top of role-default
// permissions. One row exists per (user, permission); writers upsert so the
// last write wins.
type PermissionOverride struct {
	ID              uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID        `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_override_user_perm"`
	Permission      enums.Permission `gorm:"column:permission;type:text;not null;uniqueIndex:idx_override_user_perm"`
	Granted         bool             `gorm:"column:granted;not null"`
	Reason          string           `gorm:"column:reason;type:text;not null"`
	GrantedByUserID *uuid.UUID       `gorm:"column:granted_by_user_id;type:uuid"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
