package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/dmarquess/localdrop-backend/pkg/db/models"
	"github.com/dmarquess/localdrop-backend/pkg/logger"
)

const (
	orderNotificationConsumer = "order-notifications"
	dedupTTL                  = 24 * time.Hour
)

// eventDeduper marks events as processed so redelivered messages are dropped.
// Satisfied by pkg/redis.Client.
type eventDeduper interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	ConsumerDedupKey(consumer, eventID string) string
}

// Consumer watches order lifecycle events and stores notification rows for
// the assigned agent.
type Consumer struct {
	repo         Repository
	subscription *pubsub.Subscriber
	dedup        eventDeduper
	logg         *logger.Logger
}

// NewConsumer builds an order notification consumer.
func NewConsumer(repo Repository, subscription *pubsub.Subscriber, dedup eventDeduper, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("order events subscription required")
	}
	if dedup == nil {
		return nil, fmt.Errorf("event deduper required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		dedup:        dedup,
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
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": msg.Attributes["event_type"],
	})

	var event OrderEventMessage
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		c.logg.Error(logCtx, "failed to decode order event", err)
		return processResult{ack: true}
	}
	if event.EventID == uuid.Nil || event.AgentID == uuid.Nil {
		c.logg.Warn(logCtx, "order event missing ids, dropping")
		return processResult{ack: true}
	}
	if !event.Type.IsValid() {
		c.logg.Warn(logCtx, "unknown order event type, dropping")
		return processResult{ack: true}
	}

	dedupKey := c.dedup.ConsumerDedupKey(orderNotificationConsumer, event.EventID.String())
	fresh, err := c.dedup.SetNX(logCtx, dedupKey, time.Now().UTC().Format(time.RFC3339Nano), dedupTTL)
	if err != nil {
		c.logg.Error(logCtx, "dedup check failed", err)
		return processResult{nack: true}
	}
	if !fresh {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	orderID := event.OrderID
	notification := &models.Notification{
		RecipientID: event.AgentID,
		Type:        event.Type,
		Title:       event.title(),
		Message:     event.message(),
		OrderID:     &orderID,
	}
	if _, err := c.repo.Create(logCtx, notification); err != nil {
		c.logg.Error(logCtx, "failed to store notification", err)
		// release the dedup claim so a redelivery can retry
		_ = c.dedup.Del(logCtx, dedupKey)
		return processResult{nack: true}
	}

	c.logg.Info(c.logg.WithOrderID(logCtx, event.OrderID.String()), "notification stored")
	return processResult{ack: true}
}
