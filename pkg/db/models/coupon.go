package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shoplyhq/shoply-backend/pkg/enums"
)

// Coupon is a redeemable discount definition. Value is a percentage
// (0-100) for percentage coupons and cents for absolute ones.
type Coupon struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code             string             `gorm:"column:code;not null;uniqueIndex"`
	DiscountType     enums.DiscountType `gorm:"column:discount_type;not null"`
	DiscountValue    int                `gorm:"column:discount_value;not null"`
	MaxDiscountCents *int               `gorm:"column:max_discount_cents"`
	MinSubtotalCents int                `gorm:"column:min_subtotal_cents;not null;default:0"`
	IsActive         bool               `gorm:"column:is_active;not null;default:true"`
	ExpiresAt        *time.Time         `gorm:"column:expires_at"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
