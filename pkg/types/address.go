package types

import "strings"

// ShippingAddress is the destination collected during checkout. State is
// mandatory; postal code is not. Persisted as JSONB on saved addresses.
type ShippingAddress struct {
	Name       string  `json:"name"`
	Phone      string  `json:"phone"`
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode *string `json:"postal_code,omitempty"`
	Country    string  `json:"country"`
}

// MissingFields lists required address fields that are empty, in a stable
// order suitable for user-facing validation messages.
func (a ShippingAddress) MissingFields() []string {
	var missing []string
	required := []struct {
		name  string
		value string
	}{
		{"name", a.Name},
		{"phone", a.Phone},
		{"line1", a.Line1},
		{"city", a.City},
		{"state", a.State},
		{"country", a.Country},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	return missing
}

// IsComplete reports whether every required field is present.
func (a ShippingAddress) IsComplete() bool {
	return len(a.MissingFields()) == 0
}
