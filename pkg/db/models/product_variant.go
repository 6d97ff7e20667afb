package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductVariant overrides price/stock for one sellable variation of a product.
type ProductVariant struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID     uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Title         string    `gorm:"column:title;not null"`
	PriceCents    int       `gorm:"column:price_cents;not null"`
	StockQuantity int       `gorm:"column:stock_quantity;not null;default:0"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
