package identity

import (
	"context"

	"blog_api/internal/models"
)

type contextKey string

const (
	contextKeyUser      = contextKey("user")
	contextKeyRequestID = contextKey("requestID")
)

// UserFromContext extracts the authenticated user from the context.
// Returns the user and true if present, or a zero User and false if not.
func UserFromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(contextKeyUser).(models.User)
	return u, ok
}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, contextKeyUser, u)
}

// RequestIDFromContext extracts the request id assigned by the request logger.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKeyRequestID).(string)
	return id, ok
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, id)
}
