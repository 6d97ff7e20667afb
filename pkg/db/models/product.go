package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/shoplyhq/shoply-backend/pkg/enums"
)

// Product is the canonical catalog listing owned by one seller.
type Product struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID      uuid.UUID           `gorm:"column:seller_id;type:uuid;not null"`
	Title         string              `gorm:"column:title;not null"`
	Description   *string             `gorm:"column:description"`
	PriceCents    int                 `gorm:"column:price_cents;not null"`
	StockQuantity int                 `gorm:"column:stock_quantity;not null;default:0"`
	Status        enums.ProductStatus `gorm:"column:status;not null;default:'active'"`
	Images        pq.StringArray      `gorm:"column:images;type:text[]"`
	Variants      []ProductVariant    `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
