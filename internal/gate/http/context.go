package http

import (
	"context"

	"github.com/gatehouselabs/gatehouse/internal/gate/service"
)

type contextKey string

const identityKey contextKey = "gate.identity"

// WithIdentity attaches the authenticated identity to the context.
func WithIdentity(ctx context.Context, id service.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity attached by the auth
// gateway, if any.
func IdentityFromContext(ctx context.Context) (service.Identity, bool) {
	id, ok := ctx.Value(identityKey).(service.Identity)
	return id, ok
}
