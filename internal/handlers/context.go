package handlers

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	userContextKey contextKey = "user"
)

// SetUserIDInContext stores the authenticated caller's id.
func SetUserIDInContext(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userContextKey, userID)
}

// GetUserIDFromContext returns the authenticated caller's id, if any.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(userContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}
