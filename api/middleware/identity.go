package middleware

import (
	"net/http"
	"strings"

	"github.com/shoplyhq/shoply-backend/api/responses"
	pkgAuth "github.com/shoplyhq/shoply-backend/pkg/auth"
	"github.com/shoplyhq/shoply-backend/pkg/config"
	pkgerrors "github.com/shoplyhq/shoply-backend/pkg/errors"
	"github.com/shoplyhq/shoply-backend/pkg/logger"
)

const guestSessionHeader = "X-Guest-Session"

// Identity resolves the shopper behind a request. A valid bearer token wins;
// otherwise the guest session header is used, and when neither is present a
// fresh guest session is minted and echoed back so the client can keep it.
// An invalid bearer token is rejected rather than silently downgraded to a
// guest, so an expired shopper never mutates the wrong cart.
func Identity(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var identity pkgAuth.Identity

			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			switch {
			case raw != "":
				token := raw
				if strings.HasPrefix(strings.ToLower(token), "bearer ") {
					token = strings.TrimSpace(token[7:])
				}
				claims, err := pkgAuth.ParseAccessToken(cfg, token)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
					return
				}
				identity = pkgAuth.UserIdentity(claims.UserID)
			case strings.TrimSpace(r.Header.Get(guestSessionHeader)) != "":
				identity = pkgAuth.GuestIdentity(r.Header.Get(guestSessionHeader))
			default:
				identity = pkgAuth.NewGuestIdentity()
			}

			if identity.IsGuest {
				w.Header().Set(guestSessionHeader, strings.TrimPrefix(identity.OwnerID, "guest:"))
			}

			ctx := WithIdentity(r.Context(), identity)
			if logg != nil {
				ctx = logg.WithOwnerID(ctx, identity.OwnerID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser blocks guests; used for surfaces that only make sense for an
// authenticated shopper, like the saved address book and order history.
func RequireUser(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			if identity.IsGuest {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
