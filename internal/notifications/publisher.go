package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/dmarquess/localdrop-backend/pkg/logger"
)

const publishTimeout = 10 * time.Second

// OrderEventPublisher broadcasts order lifecycle events to the realtime
// channel. Publishing is fire-and-forget: failures are logged and never
// surfaced to the caller.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, msg OrderEventMessage)
}

type topicPublisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) *gcppubsub.PublishResult
}

type publisher struct {
	topic topicPublisher
	logg  *logger.Logger
}

// NewPublisher builds the order-events publisher over a Pub/Sub topic handle.
func NewPublisher(topic topicPublisher, logg *logger.Logger) (OrderEventPublisher, error) {
	if topic == nil {
		return nil, fmt.Errorf("topic publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &publisher{topic: topic, logg: logg}, nil
}

func (p *publisher) PublishOrderEvent(ctx context.Context, msg OrderEventMessage) {
	logCtx := p.logg.WithFields(ctx, map[string]any{
		"event_id":   msg.EventID.String(),
		"event_type": msg.Type,
		"order_id":   msg.OrderID.String(),
	})

	payload, err := json.Marshal(msg)
	if err != nil {
		p.logg.Error(logCtx, "marshal order event", err)
		return
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	result := p.topic.Publish(publishCtx, &gcppubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"event_id":    msg.EventID.String(),
			"event_type":  string(msg.Type),
			"occurred_at": msg.OccurredAt.Format(time.RFC3339Nano),
		},
	})
	if result == nil {
		p.logg.Error(logCtx, "publisher returned nil result", nil)
		return
	}
	if _, err := result.Get(publishCtx); err != nil {
		p.logg.Error(logCtx, "publish order event", err)
		return
	}
	p.logg.Info(logCtx, "order event published")
}

// NopPublisher drops every event. Used when the realtime channel is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishOrderEvent(context.Context, OrderEventMessage) {}
