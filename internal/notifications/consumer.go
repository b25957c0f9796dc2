package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/db/models"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/enums"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/logger"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/outbox"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/outbox/idempotency"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/outbox/payloads"
)

const inboxConsumer = "user-inbox"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Consumer watches domain events and fans them out as in-app notifications.
// Every write here is fire and forget from the producer's point of view: the
// producing transaction already committed, and a failed notification only
// nacks the message for redelivery.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds the inbox consumer.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != enums.EventInvitationAccepted && eventType != enums.EventUserDeactivated {
		c.logg.Info(logCtx, "skipping event with no inbox mapping")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, inboxConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.handle(ctx, eventType, envelope.Data, logCtx); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, inboxConsumer, eventID)
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

func (c *Consumer) handle(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage, logCtx context.Context) error {
	switch eventType {
	case enums.EventInvitationAccepted:
		var payload payloads.InvitationAcceptedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.welcomeNewUser(ctx, payload, logCtx)
	case enums.EventUserDeactivated:
		var payload payloads.UserDeactivatedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.recordDeactivation(ctx, payload, logCtx)
	default:
		return nil
	}
}

func (c *Consumer) welcomeNewUser(ctx context.Context, payload payloads.InvitationAcceptedEvent, logCtx context.Context) error {
	if payload.UserID == uuid.Nil {
		return fmt.Errorf("user id missing")
	}
	data, _ := json.Marshal(map[string]any{
		"invitation_id":   payload.InvitationID,
		"organization_id": payload.OrganizationID,
	})
	notification := &models.Notification{
		UserID: payload.UserID,
		Type:   "welcome",
		Title:  "Bienvenue / Welcome",
		Body:   fmt.Sprintf("Your account was created with the %s role. You now have access to your organization.", payload.Role),
		Data:   data,
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "welcome notification created")
	return nil
}

func (c *Consumer) recordDeactivation(ctx context.Context, payload payloads.UserDeactivatedEvent, logCtx context.Context) error {
	if payload.UserID == uuid.Nil {
		return fmt.Errorf("user id missing")
	}
	data, _ := json.Marshal(map[string]any{"reason": payload.Reason})
	notification := &models.Notification{
		UserID: payload.UserID,
		Type:   "account_deactivated",
		Title:  "Account deactivated",
		Body:   "Your account no longer belongs to any organization and was deactivated.",
		Data:   data,
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "deactivation notification created")
	return nil
}
