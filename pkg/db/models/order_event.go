package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmarquess/localdrop-backend/pkg/enums"
	"github.com/dmarquess/localdrop-backend/pkg/types"
)

// OrderEvent is one entry in an order's append-only timeline.
type OrderEvent struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID         `gorm:"column:order_id;type:uuid;not null"`
	Status      enums.OrderStatus `gorm:"column:status;type:order_status;not null"`
	Action      string            `gorm:"column:action;not null"`
	Description string            `gorm:"column:description;not null"`
	ActorRole   enums.ActorRole   `gorm:"column:actor_role;type:text;not null"`
	ActorID     *uuid.UUID        `gorm:"column:actor_id;type:uuid"`
	Metadata    *types.JSONMap    `gorm:"column:metadata;type:jsonb"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
}
