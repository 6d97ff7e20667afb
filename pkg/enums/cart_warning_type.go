package enums

// CartItemWarningType classifies validation warnings attached to one cart line.
type CartItemWarningType string

const (
	CartItemWarningTypePriceChanged   CartItemWarningType = "price_changed"
	CartItemWarningTypeStockShortfall CartItemWarningType = "stock_shortfall"
	CartItemWarningTypeUnavailable    CartItemWarningType = "unavailable"
)

// SellerGroupWarningType classifies advisory warnings on a derived seller group.
type SellerGroupWarningType string

const (
	SellerGroupWarningTypeSellerUnavailable SellerGroupWarningType = "seller_unavailable"
	SellerGroupWarningTypeSellerLookup      SellerGroupWarningType = "seller_lookup_failed"
)
