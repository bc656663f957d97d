package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmarquess/localdrop-backend/pkg/enums"
	"github.com/dmarquess/localdrop-backend/pkg/types"
)

// Order represents one purchase moving through delivery fulfillment.
// AgentID stays null until an assignment transition sets it; reassignment is
// unsupported, so once set it only changes through explicit migration.
type Order struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Status        enums.OrderStatus    `gorm:"column:status;type:order_status;not null;default:'accepted'"`
	ShopLocation  types.GeographyPoint `gorm:"column:shop_location;type:geography(Point,4326);not null"`
	BuyerLocation types.GeographyPoint `gorm:"column:buyer_location;type:geography(Point,4326);not null"`
	AgentID       *uuid.UUID           `gorm:"column:agent_id;type:uuid"`
	AgentName     *string              `gorm:"column:agent_name"`
	// Only the buyer knows the code; it never leaves the API.
	DeliveryCode string       `gorm:"column:delivery_code;not null" json:"-"`
	DeliveredAt  *time.Time   `gorm:"column:delivered_at"`
	Events       []OrderEvent `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}
