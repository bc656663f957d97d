package models

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryAgent is a courier who picks up and delivers orders.
// LoginCode is unique among agents; creation regenerates on collision.
type DeliveryAgent struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string    `gorm:"column:name;not null"`
	Phone           string    `gorm:"column:phone;not null"`
	Available       bool      `gorm:"column:available;not null;default:true"`
	CommissionTotal int       `gorm:"column:commission_total;not null;default:0"`
	LoginCode       string    `gorm:"column:login_code;not null;uniqueIndex:idx_delivery_agents_login_code"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
