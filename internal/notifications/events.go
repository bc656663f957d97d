package notifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmarquess/localdrop-backend/pkg/enums"
)

// OrderEventMessage is the payload published to the order-events topic when
// an order changes lifecycle state. Delivery is best-effort; consumers must
// dedupe on EventID.
type OrderEventMessage struct {
	EventID    uuid.UUID              `json:"event_id"`
	Type       enums.NotificationType `json:"type"`
	OrderID    uuid.UUID              `json:"order_id"`
	AgentID    uuid.UUID              `json:"agent_id"`
	AgentName  string                 `json:"agent_name"`
	Status     enums.OrderStatus      `json:"status"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// title and message render the stored notification copy for an event.
func (m OrderEventMessage) title() string {
	switch m.Type {
	case enums.NotificationTypeOrderAssigned:
		return "New delivery assigned"
	case enums.NotificationTypeOrderPickedUp:
		return "Order picked up"
	case enums.NotificationTypeOrderDelivered:
		return "Order delivered"
	default:
		return "Order update"
	}
}

func (m OrderEventMessage) message() string {
	switch m.Type {
	case enums.NotificationTypeOrderAssigned:
		return "Order " + m.OrderID.String() + " has been assigned to " + m.AgentName + "."
	case enums.NotificationTypeOrderPickedUp:
		return "Order " + m.OrderID.String() + " is on its way."
	case enums.NotificationTypeOrderDelivered:
		return "Order " + m.OrderID.String() + " has been delivered."
	default:
		return "Order " + m.OrderID.String() + " changed status to " + m.Status.String() + "."
	}
}
