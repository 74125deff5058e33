package auth

import (
	"context"

	"github.com/clipstream/backend/internal/models"
)

type ctxKey string

const identityKey ctxKey = "identity"

// WithIdentity attaches the resolved, sanitized caller identity to the context.
func WithIdentity(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, identityKey, user.Sanitized())
}

// IdentityFromContext returns the caller identity placed on the context by the
// session middleware.
func IdentityFromContext(ctx context.Context) (models.User, bool) {
	if ctx == nil {
		return models.User{}, false
	}
	user, ok := ctx.Value(identityKey).(models.User)
	return user, ok
}
