package models

import (
	"time"

	"github.com/shoplyhq/shoply-backend/pkg/types"
	"github.com/google/uuid"
)

// SavedAddress is one shipping address a shopper stored for reuse.
type SavedAddress struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID   string                `gorm:"column:owner_id;not null;index"`
	Label     *string               `gorm:"column:label"`
	Address   types.ShippingAddress `gorm:"column:address;type:jsonb;serializer:json"`
	IsDefault bool                  `gorm:"column:is_default;not null;default:false"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
