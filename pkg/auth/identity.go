package auth

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	userOwnerPrefix  = "user:"
	guestOwnerPrefix = "guest:"
)

// Identity is the unit of cart ownership: an authenticated user or an
// anonymous guest session. Aggregation, validation, and checkout never
// branch on which one it is; only persistence TTL and the checkout auth
// step look at IsGuest.
type Identity struct {
	OwnerID string
	IsGuest bool
}

// UserIdentity builds the owner identity for an authenticated user.
func UserIdentity(userID uuid.UUID) Identity {
	return Identity{OwnerID: userOwnerPrefix + userID.String(), IsGuest: false}
}

// GuestIdentity builds the owner identity for an anonymous session.
func GuestIdentity(sessionID string) Identity {
	return Identity{OwnerID: guestOwnerPrefix + strings.TrimSpace(sessionID), IsGuest: true}
}

// NewGuestIdentity mints a fresh anonymous identity.
func NewGuestIdentity() Identity {
	return GuestIdentity(uuid.NewString())
}

// ParseOwnerID validates a serialized owner id and reports guest-ness.
func ParseOwnerID(value string) (Identity, error) {
	trimmed := strings.TrimSpace(value)
	switch {
	case strings.HasPrefix(trimmed, userOwnerPrefix):
		raw := strings.TrimPrefix(trimmed, userOwnerPrefix)
		if _, err := uuid.Parse(raw); err != nil {
			return Identity{}, fmt.Errorf("invalid user owner id %q", value)
		}
		return Identity{OwnerID: trimmed, IsGuest: false}, nil
	case strings.HasPrefix(trimmed, guestOwnerPrefix):
		if strings.TrimPrefix(trimmed, guestOwnerPrefix) == "" {
			return Identity{}, fmt.Errorf("invalid guest owner id %q", value)
		}
		return Identity{OwnerID: trimmed, IsGuest: true}, nil
	default:
		return Identity{}, fmt.Errorf("unrecognized owner id %q", value)
	}
}
