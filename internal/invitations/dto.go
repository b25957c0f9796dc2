package invitations

import (
	"time"

	"github.com/google/uuid"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/users"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/db/models"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/enums"
)

// CreateInvitationInput captures a new invitation request.
type CreateInvitationInput struct {
	Email           string         `json:"email" validate:"required,email"`
	Role            enums.UserRole `json:"role" validate:"required"`
	OrganizationID  uuid.UUID      `json:"organization_id" validate:"required"`
	BuildingID      *uuid.UUID     `json:"building_id,omitempty"`
	ResidenceID     *uuid.UUID     `json:"residence_id,omitempty"`
	PersonalMessage *string        `json:"personal_message,omitempty"`
}

// AcceptInput is the profile an invitee submits when redeeming a token.
// Consent fields are checked before any write happens.
type AcceptInput struct {
	Password              string  `json:"password" validate:"required,min=8"`
	FirstName             string  `json:"first_name" validate:"required"`
	LastName              string  `json:"last_name" validate:"required"`
	Phone                 *string `json:"phone,omitempty"`
	Language              string  `json:"language,omitempty"`
	DataCollectionConsent bool    `json:"data_collection_consent"`
	RightsAcknowledged    bool    `json:"rights_acknowledged"`
	IP                    string  `json:"-"`
	UserAgent             string  `json:"-"`
}

// InvitationDTO is the transport shape for an invitation. The token hash
// never leaves the service; RawToken is set only on the create response.
type InvitationDTO struct {
	ID               uuid.UUID              `json:"id"`
	Email            string                 `json:"email"`
	Role             enums.UserRole         `json:"role"`
	OrganizationID   uuid.UUID              `json:"organization_id"`
	BuildingID       *uuid.UUID             `json:"building_id,omitempty"`
	ResidenceID      *uuid.UUID             `json:"residence_id,omitempty"`
	Status           enums.InvitationStatus `json:"status"`
	PersonalMessage  *string                `json:"personal_message,omitempty"`
	ExpiresAt        time.Time              `json:"expires_at"`
	AcceptedAt       *time.Time             `json:"accepted_at,omitempty"`
	AcceptedByUserID *uuid.UUID             `json:"accepted_by_user_id,omitempty"`
	CreatedByUserID  *uuid.UUID             `json:"created_by_user_id,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	RawToken         string                 `json:"raw_token,omitempty"`
}

// AcceptResult pairs the provisioned user with the redeemed invitation.
type AcceptResult struct {
	User       *users.UserDTO `json:"user"`
	Invitation *InvitationDTO `json:"invitation"`
}

// ToDTO converts a model to the external DTO.
func ToDTO(m *models.Invitation) *InvitationDTO {
	if m == nil {
		return nil
	}
	return &InvitationDTO{
		ID:               m.ID,
		Email:            m.Email,
		Role:             m.Role,
		OrganizationID:   m.OrganizationID,
		BuildingID:       m.BuildingID,
		ResidenceID:      m.ResidenceID,
		Status:           m.Status,
		PersonalMessage:  m.PersonalMessage,
		ExpiresAt:        m.ExpiresAt,
		AcceptedAt:       m.AcceptedAt,
		AcceptedByUserID: m.AcceptedByUserID,
		CreatedByUserID:  m.CreatedByUserID,
		CreatedAt:        m.CreatedAt,
	}
}
