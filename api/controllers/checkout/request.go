package checkout

import (
	"github.com/google/uuid"

	"github.com/shoplyhq/shoply-backend/pkg/types"
)

type addressRequest struct {
	Name       string  `json:"name" validate:"required"`
	Phone      string  `json:"phone" validate:"required"`
	Line1      string  `json:"line1" validate:"required"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city" validate:"required"`
	State      string  `json:"state" validate:"required"`
	PostalCode *string `json:"postal_code,omitempty"`
	Country    string  `json:"country" validate:"required"`
}

func (a addressRequest) toAddress() types.ShippingAddress {
	return types.ShippingAddress{
		Name:       a.Name,
		Phone:      a.Phone,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

type paymentRequest struct {
	Method string `json:"method" validate:"required"`
}

type shippingMethodRequest struct {
	SellerID uuid.UUID `json:"seller_id" validate:"required"`
	Method   string    `json:"method" validate:"required"`
}

type noteRequest struct {
	SellerID uuid.UUID `json:"seller_id" validate:"required"`
	Note     string    `json:"note" validate:"max=500"`
}

type termsRequest struct {
	Accepted bool `json:"accepted"`
}
