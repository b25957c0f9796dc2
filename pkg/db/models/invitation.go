package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/enums"
)

// Invitation provisions a user account through a time-boxed token. Only the
// SHA-256 hash of the token is persisted; the raw value is returned to the
// caller exactly once at creation.
//
// A partial unique index on (email, organization_id) where status = 'pending'
// backs the at-most-one-pending invariant.
type Invitation struct {
	ID               uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email            string                 `gorm:"type:text;not null;index"`
	Role             enums.UserRole         `gorm:"column:role;type:user_role;not null"`
	OrganizationID   uuid.UUID              `gorm:"column:organization_id;type:uuid;not null;index"`
	BuildingID       *uuid.UUID             `gorm:"column:building_id;type:uuid"`
	ResidenceID      *uuid.UUID             `gorm:"column:residence_id;type:uuid"`
	TokenHash        string                 `gorm:"column:token_hash;type:text;not null;uniqueIndex"`
	Status           enums.InvitationStatus `gorm:"column:status;type:invitation_status;not null;default:pending"`
	PersonalMessage  *string                `gorm:"column:personal_message"`
	ExpiresAt        time.Time              `gorm:"column:expires_at;not null"`
	AcceptedAt       *time.Time             `gorm:"column:accepted_at"`
	AcceptedByUserID *uuid.UUID             `gorm:"column:accepted_by_user_id;type:uuid"`
	CreatedByUserID  *uuid.UUID             `gorm:"column:created_by_user_id;type:uuid"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
