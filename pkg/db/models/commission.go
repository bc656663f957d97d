package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmarquess/localdrop-backend/pkg/enums"
)

// Commission is the payable record tied one-to-one with a delivered order.
// The unique index on OrderID backs the upsert keyed by order.
type Commission struct {
	ID         uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AgentID    uuid.UUID                  `gorm:"column:agent_id;type:uuid;not null"`
	OrderID    uuid.UUID                  `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_commissions_order_id"`
	Amount     int                        `gorm:"column:amount;not null"`
	PaidStatus enums.CommissionPaidStatus `gorm:"column:paid_status;type:commission_paid_status;not null;default:'unpaid'"`
	PaidAt     *time.Time                 `gorm:"column:paid_at"`
	CreatedAt  time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}
