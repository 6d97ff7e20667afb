package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shoplyhq/shoply-backend/pkg/enums"
	"github.com/shoplyhq/shoply-backend/pkg/types"
)

// Order is one seller-scoped order produced by splitting a checkout.
// Orders from the same checkout share a SubmissionID.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     string                `gorm:"column:order_number;not null;uniqueIndex"`
	SubmissionID    uuid.UUID             `gorm:"column:submission_id;type:uuid;not null;index"`
	OwnerID         string                `gorm:"column:owner_id;not null;index"`
	SellerID        uuid.UUID             `gorm:"column:seller_id;type:uuid;not null"`
	Status          enums.OrderStatus     `gorm:"column:status;not null;default:'pending'"`
	PaymentMethod   enums.PaymentMethod   `gorm:"column:payment_method;not null"`
	ShippingMethod  enums.ShippingMethod  `gorm:"column:shipping_method;not null;default:'standard'"`
	ShippingAddress types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	Note            *string               `gorm:"column:note"`
	SubtotalCents   int                   `gorm:"column:subtotal_cents;not null"`
	DiscountCents   int                   `gorm:"column:discount_cents;not null;default:0"`
	TaxCents        int                   `gorm:"column:tax_cents;not null;default:0"`
	ShippingCents   int                   `gorm:"column:shipping_cents;not null;default:0"`
	TotalCents      int                   `gorm:"column:total_cents;not null"`
	LineItems       []OrderLineItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
