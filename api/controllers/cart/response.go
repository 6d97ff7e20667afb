package cart

import (
	cartsvc "github.com/shoplyhq/shoply-backend/internal/cart"
)

// cartView is the full storefront cart payload: the raw snapshot plus the
// derived per-seller groups and overall totals.
type cartView struct {
	Cart   *cartsvc.Snapshot    `json:"cart"`
	Groups []cartsvc.SellerGroup `json:"groups"`
	Totals cartsvc.Totals       `json:"totals"`
}

type validationView struct {
	Results  []cartsvc.ItemValidation `json:"results"`
	Blocking bool                     `json:"blocking"`
}
