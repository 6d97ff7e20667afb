package cart

import "github.com/google/uuid"

type addItemRequest struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  int        `json:"quantity" validate:"required,min=1"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

type selectRequest struct {
	Selected bool `json:"selected"`
}

type applyCouponRequest struct {
	Code     string     `json:"code" validate:"required"`
	SellerID *uuid.UUID `json:"seller_id,omitempty"`
}
