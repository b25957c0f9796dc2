package audit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/db/models"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/enums"
)

// Repository appends to and reads the audit trail. The trail is append-only:
// no update or delete surface exists anywhere in the codebase, and concurrent
// writers are safe because every call is a single insert.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection or transaction.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Append persists one audit entry.
func (r *Repository) Append(ctx context.Context, entry *models.AuditLogEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByInvitation returns the trail for a single invitation, oldest first.
func (r *Repository) ListByInvitation(ctx context.Context, invitationID uuid.UUID) ([]models.AuditLogEntry, error) {
	var rows []models.AuditLogEntry
	err := r.db.WithContext(ctx).
		Where("invitation_id = ?", invitationID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// InvitationCreated builds the entry that opens an invitation's trail.
func InvitationCreated(invitationID uuid.UUID, actor *uuid.UUID) *models.AuditLogEntry {
	next := enums.InvitationStatusPending.String()
	return &models.AuditLogEntry{
		Action:       enums.AuditInvitationCreated,
		InvitationID: &invitationID,
		ActorUserID:  actor,
		NewStatus:    &next,
		Success:      true,
	}
}

// InvitationTransition builds an entry for an invitation status change.
func InvitationTransition(invitationID uuid.UUID, action enums.AuditAction, actor *uuid.UUID, prev, next enums.InvitationStatus) *models.AuditLogEntry {
	prevStr := prev.String()
	nextStr := next.String()
	return &models.AuditLogEntry{
		Action:         action,
		InvitationID:   &invitationID,
		ActorUserID:    actor,
		PreviousStatus: &prevStr,
		NewStatus:      &nextStr,
		Success:        true,
	}
}

// ValidationAttempt builds an entry for a token validation, successful or not.
// The outcome and failure reason live in the details payload so brute-force
// patterns can be detected without parsing free text.
func ValidationAttempt(invitationID *uuid.UUID, outcome bool, reason string) *models.AuditLogEntry {
	details, _ := json.Marshal(map[string]any{
		"outcome": outcome,
		"reason":  reason,
	})
	return &models.AuditLogEntry{
		Action:       enums.AuditValidationAttempt,
		InvitationID: invitationID,
		Success:      outcome,
		Details:      details,
	}
}

// PermissionChange builds an entry for a permission override write.
func PermissionChange(overrideID uuid.UUID, userID uuid.UUID, permission enums.Permission, granted bool, actor *uuid.UUID, reason string) *models.AuditLogEntry {
	action := enums.AuditPermissionRevoked
	if granted {
		action = enums.AuditPermissionGranted
	}
	details, _ := json.Marshal(map[string]any{
		"user_id":    userID,
		"permission": permission,
		"granted":    granted,
		"reason":     reason,
	})
	return &models.AuditLogEntry{
		Action:               action,
		PermissionOverrideID: &overrideID,
		ActorUserID:          actor,
		Success:              true,
		Details:              details,
	}
}

// EntityRemoval builds an entry for a cascade deletion or deactivation.
func EntityRemoval(action enums.AuditAction, actor *uuid.UUID, details map[string]any) *models.AuditLogEntry {
	payload, _ := json.Marshal(details)
	return &models.AuditLogEntry{
		Action:      action,
		ActorUserID: actor,
		Success:     true,
		Details:     payload,
	}
}
