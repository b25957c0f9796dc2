package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/enums"
)

// MembershipEdge links a user to a scope in the property hierarchy with a
// relationship role. Edges are created by invitation acceptance or direct
// admin assignment and deactivated when their scope entity is deleted.
//
// AllAccess is meaningful on organization edges only: it extends the edge to
// every building and residence under the organization.
type MembershipEdge struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index"`
	ScopeKind       enums.ScopeKind `gorm:"column:scope_kind;type:scope_kind;not null"`
	ScopeID         uuid.UUID       `gorm:"column:scope_id;type:uuid;not null;index"`
	Role            enums.UserRole  `gorm:"column:role;type:user_role;not null"`
	AllAccess       bool            `gorm:"column:all_access;not null;default:false"`
	IsActive        bool            `gorm:"column:is_active;not null;default:true"`
	InvitedByUserID *uuid.UUID      `gorm:"column:invited_by_user_id;type:uuid"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
