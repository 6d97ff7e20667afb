package types

import "github.com/shoplyhq/shoply-backend/pkg/enums"

// CartItemWarning captures a validation warning for one cart line.
type CartItemWarning struct {
	Type    enums.CartItemWarningType `json:"type"`
	Message string                    `json:"message"`
}

// CartItemWarnings is the per-item warning list.
type CartItemWarnings []CartItemWarning

// SellerGroupWarning captures an advisory warning on a derived seller group.
type SellerGroupWarning struct {
	Type    enums.SellerGroupWarningType `json:"type"`
	Message string                       `json:"message"`
}

// SellerGroupWarnings is the per-group warning list.
type SellerGroupWarnings []SellerGroupWarning
