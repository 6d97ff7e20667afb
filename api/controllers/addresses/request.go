package addresses

import (
	addrsvc "github.com/shoplyhq/shoply-backend/internal/addresses"
	"github.com/shoplyhq/shoply-backend/pkg/types"
)

type saveAddressRequest struct {
	Label      *string `json:"label,omitempty"`
	Name       string  `json:"name" validate:"required"`
	Phone      string  `json:"phone" validate:"required"`
	Line1      string  `json:"line1" validate:"required"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city" validate:"required"`
	State      string  `json:"state" validate:"required"`
	PostalCode *string `json:"postal_code,omitempty"`
	Country    string  `json:"country" validate:"required"`
	IsDefault  bool    `json:"is_default"`
}

func (s saveAddressRequest) toInput() addrsvc.SaveInput {
	return addrsvc.SaveInput{
		Label: s.Label,
		Address: types.ShippingAddress{
			Name:       s.Name,
			Phone:      s.Phone,
			Line1:      s.Line1,
			Line2:      s.Line2,
			City:       s.City,
			State:      s.State,
			PostalCode: s.PostalCode,
			Country:    s.Country,
		},
		IsDefault: s.IsDefault,
	}
}
