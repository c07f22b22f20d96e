package auth

import (
	"context"

	"github.com/videotube/backend/internal/models"
)

type ctxKey struct{}

// WithUser attaches the authenticated user to the context. Credential fields are stripped.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, user.Public())
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (models.User, bool) {
	if ctx == nil {
		return models.User{}, false
	}
	user, ok := ctx.Value(ctxKey{}).(models.User)
	return user, ok
}

// Cookie names carrying the token pair for browser clients.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)
