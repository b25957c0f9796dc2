package enums

import "fmt"

// AuditAction tags an entry in the append-only audit trail.
type AuditAction string

const (
	AuditInvitationCreated   AuditAction = "invitation_created"
	AuditValidationAttempt   AuditAction = "validation_attempt"
	AuditInvitationAccepted  AuditAction = "invitation_accepted"
	AuditInvitationCancelled AuditAction = "invitation_cancelled"
	AuditInvitationExpired   AuditAction = "invitation_expired"
	AuditPermissionGranted   AuditAction = "permission_granted"
	AuditPermissionRevoked   AuditAction = "permission_revoked"
	AuditUserDeactivated     AuditAction = "user_deactivated"
	AuditUserDeleted         AuditAction = "user_deleted"
	AuditOrganizationDeleted AuditAction = "organization_deleted"
)

var validAuditActions = []AuditAction{
	AuditInvitationCreated,
	AuditValidationAttempt,
	AuditInvitationAccepted,
	AuditInvitationCancelled,
	AuditInvitationExpired,
	AuditPermissionGranted,
	AuditPermissionRevoked,
	AuditUserDeactivated,
	AuditUserDeleted,
	AuditOrganizationDeleted,
}

// String implements fmt.Stringer.
func (a AuditAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AuditAction.
func (a AuditAction) IsValid() bool {
	for _, candidate := range validAuditActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuditAction converts raw input into an AuditAction.
func ParseAuditAction(value string) (AuditAction, error) {
	for _, candidate := range validAuditActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit action %q", value)
}
