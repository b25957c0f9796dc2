package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateInvitation   OutboxAggregateType = "invitation"
	AggregateUser         OutboxAggregateType = "user"
	AggregateOrganization OutboxAggregateType = "organization"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateInvitation,
	AggregateUser,
	AggregateOrganization,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventInvitationCreated   OutboxEventType = "invitation_created"
	EventInvitationAccepted  OutboxEventType = "invitation_accepted"
	EventInvitationCancelled OutboxEventType = "invitation_cancelled"
	EventUserDeactivated     OutboxEventType = "user_deactivated"
	EventUserDeleted         OutboxEventType = "user_deleted"
	EventOrganizationDeleted OutboxEventType = "organization_deleted"
)

var validOutboxEventTypes = []OutboxEventType{
	EventInvitationCreated,
	EventInvitationAccepted,
	EventInvitationCancelled,
	EventUserDeactivated,
	EventUserDeleted,
	EventOrganizationDeleted,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
