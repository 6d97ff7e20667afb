package checkout

import (
	"time"

	"github.com/google/uuid"

	"github.com/shoplyhq/shoply-backend/internal/orders"
	"github.com/shoplyhq/shoply-backend/pkg/enums"
	"github.com/shoplyhq/shoply-backend/pkg/types"
)

// Session is the transient state of one checkout attempt. It lives for the
// duration of the flow and is discarded when the flow completes or is
// abandoned; nothing in it is the source of truth for the cart.
type Session struct {
	Step             enums.CheckoutStep                   `json:"step"`
	OwnerID          string                               `json:"owner_id"`
	Address          types.ShippingAddress                `json:"address"`
	PaymentMethod    enums.PaymentMethod                  `json:"payment_method,omitempty"`
	ShippingMethods  map[uuid.UUID]enums.ShippingMethod   `json:"shipping_methods,omitempty"`
	Notes            map[uuid.UUID]string                 `json:"notes,omitempty"`
	AcceptedTerms    bool                                 `json:"accepted_terms"`
	LastError        string                               `json:"last_error,omitempty"`
	PlacedOrders     []orders.PlacedOrder                 `json:"placed_orders,omitempty"`
	DeliveryEstimate *time.Time                           `json:"delivery_estimate,omitempty"`
}

func (s *Session) clone() Session {
	copied := *s
	copied.ShippingMethods = make(map[uuid.UUID]enums.ShippingMethod, len(s.ShippingMethods))
	for sellerID, method := range s.ShippingMethods {
		copied.ShippingMethods[sellerID] = method
	}
	copied.Notes = make(map[uuid.UUID]string, len(s.Notes))
	for sellerID, note := range s.Notes {
		copied.Notes[sellerID] = note
	}
	copied.PlacedOrders = append([]orders.PlacedOrder(nil), s.PlacedOrders...)
	if s.DeliveryEstimate != nil {
		estimate := *s.DeliveryEstimate
		copied.DeliveryEstimate = &estimate
	}
	return copied
}
