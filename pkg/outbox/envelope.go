package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActorRef identifies who produced the event.
type ActorRef struct {
	UserID         uuid.UUID  `json:"userId"`
	OrganizationID *uuid.UUID `json:"organizationId,omitempty"`
	Role           string     `json:"role,omitempty"`
}

// ActorFromUserID wraps an optional user id into an ActorRef. System-driven
// events (cron sweeps) pass nil and carry no actor.
func ActorFromUserID(userID *uuid.UUID) *ActorRef {
	if userID == nil {
		return nil
	}
	return &ActorRef{UserID: *userID}
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
