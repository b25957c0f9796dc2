package registry

import (
	"encoding/json"
	"testing"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/enums"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/outbox/payloads"
)

func TestDecoderRegistryRoundTrip(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventUserDeactivated, 1, func(payload json.RawMessage) (interface{}, error) {
		var event payloads.UserDeactivatedEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, err
		}
		return &event, nil
	})

	decoded, err := reg.Decode(enums.EventUserDeactivated, 1, json.RawMessage(`{"reason":"no_active_organization_membership"}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	event, ok := decoded.(*payloads.UserDeactivatedEvent)
	if !ok {
		t.Fatalf("expected UserDeactivatedEvent, got %T", decoded)
	}
	if event.Reason != "no_active_organization_membership" {
		t.Fatalf("unexpected reason %q", event.Reason)
	}

	if _, err := reg.Decode(enums.EventUserDeactivated, 2, json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected error for unregistered version")
	}
}
