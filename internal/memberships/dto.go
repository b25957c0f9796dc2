package memberships

import (
	"time"

	"github.com/google/uuid"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/db/models"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/enums"
)

// EdgeDTO is the transport shape for a membership edge.
type EdgeDTO struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	ScopeKind       enums.ScopeKind `json:"scope_kind"`
	ScopeID         uuid.UUID       `json:"scope_id"`
	Role            enums.UserRole  `json:"role"`
	AllAccess       bool            `json:"all_access"`
	IsActive        bool            `json:"is_active"`
	InvitedByUserID *uuid.UUID      `json:"invited_by_user_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ToDTO converts a model to the external DTO.
func ToDTO(m *models.MembershipEdge) *EdgeDTO {
	if m == nil {
		return nil
	}
	return &EdgeDTO{
		ID:              m.ID,
		UserID:          m.UserID,
		ScopeKind:       m.ScopeKind,
		ScopeID:         m.ScopeID,
		Role:            m.Role,
		AllAccess:       m.AllAccess,
		IsActive:        m.IsActive,
		InvitedByUserID: copyUUIDPointer(m.InvitedByUserID),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func copyUUIDPointer(src *uuid.UUID) *uuid.UUID {
	if src == nil {
		return nil
	}
	dst := *src
	return &dst
}
