package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxRole     contextKey = "actor_role"
	ctxRoles    contextKey = "roles"
	ctxIsGuest  contextKey = "is_guest"
	ctxAccessID contextKey = "access_id"
)

// UserIDFromContext returns the authenticated user ID or uuid.Nil.
func UserIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxUserID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// RoleFromContext returns the role the session is currently acting as.
func RoleFromContext(ctx context.Context) enums.Role {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.Role); ok {
		return v
	}
	return ""
}

// RolesFromContext returns every role the account holds.
func RolesFromContext(ctx context.Context) []enums.Role {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxRoles).([]enums.Role); ok {
		return v
	}
	return nil
}

// IsGuestFromContext reports whether the session is a guest session.
func IsGuestFromContext(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	if v, ok := ctx.Value(ctxIsGuest).(bool); ok {
		return v
	}
	return false
}

// AccessIDFromContext returns the access session ID minted with the token.
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

// WithAccessID records the access session ID for logout and role switching.
func WithAccessID(ctx context.Context, accessID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAccessID, accessID)
}

// WithIdentity seeds the request context with the session's identity.
func WithIdentity(ctx context.Context, userID uuid.UUID, activeRole enums.Role, roles []enums.Role, isGuest bool) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxRole, activeRole)
	ctx = context.WithValue(ctx, ctxRoles, roles)
	return context.WithValue(ctx, ctxIsGuest, isGuest)
}
