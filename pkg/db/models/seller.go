package models

import (
	"time"

	"github.com/google/uuid"
)

// Seller is one marketplace storefront.
type Seller struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Slug        string    `gorm:"column:slug;not null;uniqueIndex"`
	LogoURL     *string   `gorm:"column:logo_url"`
	Rating      float64   `gorm:"column:rating;not null;default:0"`
	IsAvailable bool      `gorm:"column:is_available;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
