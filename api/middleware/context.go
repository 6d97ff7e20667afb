package middleware

import (
	"context"

	"github.com/shoplyhq/shoply-backend/pkg/auth"
)

type contextKey string

const ctxIdentity contextKey = "identity"

// IdentityFromContext returns the shopper identity seeded by the Identity
// middleware. The boolean is false on routes that never ran it.
func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	if ctx == nil {
		return auth.Identity{}, false
	}
	if v, ok := ctx.Value(ctxIdentity).(auth.Identity); ok {
		return v, true
	}
	return auth.Identity{}, false
}

// WithIdentity injects the shopper identity into the context.
func WithIdentity(ctx context.Context, identity auth.Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxIdentity, identity)
}
