package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/enums"
)

// InvitationCreatedEvent tells downstream systems to send the invite email.
type InvitationCreatedEvent struct {
	InvitationID   uuid.UUID      `json:"invitation_id"`
	Email          string         `json:"email"`
	Role           enums.UserRole `json:"role"`
	OrganizationID uuid.UUID      `json:"organization_id"`
	ExpiresAt      time.Time      `json:"expires_at"`
}

// InvitationAcceptedEvent signals a provisioned user from a redeemed token.
type InvitationAcceptedEvent struct {
	InvitationID   uuid.UUID      `json:"invitation_id"`
	UserID         uuid.UUID      `json:"user_id"`
	Email          string         `json:"email"`
	Role           enums.UserRole `json:"role"`
	OrganizationID uuid.UUID      `json:"organization_id"`
	IP             string         `json:"ip,omitempty"`
	UserAgent      string         `json:"user_agent,omitempty"`
}

// InvitationCancelledEvent is emitted when a manager retracts an invite.
type InvitationCancelledEvent struct {
	InvitationID   uuid.UUID `json:"invitation_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
}

// UserDeactivatedEvent reports a user flagged inactive, typically by the
// orphan sweep.
type UserDeactivatedEvent struct {
	UserID uuid.UUID `json:"user_id"`
	Reason string    `json:"reason,omitempty"`
}

// UserDeletedEvent reports the hard removal of a user and their records.
type UserDeletedEvent struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

// OrganizationDeletedEvent reports a completed organization cascade with
// per-step row counts.
type OrganizationDeletedEvent struct {
	OrganizationID uuid.UUID        `json:"organization_id"`
	Steps          map[string]int64 `json:"steps,omitempty"`
}
