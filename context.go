package authzkit

import (
	"context"
)

// Context keys for authzkit values.
type contextKey string

const (
	contextKeyUserID    contextKey = "authzkit:user_id"
	contextKeyActorID   contextKey = "authzkit:actor_id"
	contextKeyIPAddress contextKey = "authzkit:ip_address"
	contextKeyUserAgent contextKey = "authzkit:user_agent"
	contextKeyRequestID contextKey = "authzkit:request_id"
	contextKeyEffective contextKey = "authzkit:effective"
)

// WithUserID adds a user ID to the context.
// This is the user being checked for permissions.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKeyUserID, userID)
}

// GetUserID retrieves the user ID from context.
// Returns empty string if not set.
func GetUserID(ctx context.Context) string {
	if v, ok := ctx.Value(contextKeyUserID).(string); ok {
		return v
	}
	return ""
}

// WithActorID adds an actor ID to the context.
// This is the user performing the action (for hierarchy checks and audit).
// Often the same as user ID, but different for admin actions.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, contextKeyActorID, actorID)
}

// GetActorID retrieves the actor ID from context.
// Falls back to user ID if actor ID is not explicitly set.
func GetActorID(ctx context.Context) string {
	if v, ok := ctx.Value(contextKeyActorID).(string); ok {
		return v
	}
	return GetUserID(ctx)
}

// WithIPAddress adds the client IP address to the context (for audit).
func WithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, contextKeyIPAddress, ip)
}

// GetIPAddress retrieves the IP address from context.
func GetIPAddress(ctx context.Context) string {
	if v, ok := ctx.Value(contextKeyIPAddress).(string); ok {
		return v
	}
	return ""
}

// WithUserAgent adds the user agent to the context (for audit).
func WithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, contextKeyUserAgent, ua)
}

// GetUserAgent retrieves the user agent from context.
func GetUserAgent(ctx context.Context) string {
	if v, ok := ctx.Value(contextKeyUserAgent).(string); ok {
		return v
	}
	return ""
}

// WithRequestID adds a request ID to the context (for audit and correlation).
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}

// GetRequestID retrieves the request ID from context.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return v
	}
	return ""
}

// WithEffectivePermissions adds a computed EffectivePermissions to context.
// This is set by middleware and can be retrieved in handlers.
func WithEffectivePermissions(ctx context.Context, eff *EffectivePermissions) context.Context {
	return context.WithValue(ctx, contextKeyEffective, eff)
}

// GetEffectivePermissions retrieves the EffectivePermissions from context.
// Returns nil if not set.
func GetEffectivePermissions(ctx context.Context) *EffectivePermissions {
	if v, ok := ctx.Value(contextKeyEffective).(*EffectivePermissions); ok {
		return v
	}
	return nil
}

// FromContext retrieves the EffectivePermissions from context.
// Alias for GetEffectivePermissions for convenience.
func FromContext(ctx context.Context) *EffectivePermissions {
	return GetEffectivePermissions(ctx)
}

// AuditContext holds all audit-related information from context.
type AuditContext struct {
	ActorID   string
	IPAddress string
	UserAgent string
	RequestID string
}

// GetAuditContext extracts all audit information from context.
func GetAuditContext(ctx context.Context) AuditContext {
	return AuditContext{
		ActorID:   GetActorID(ctx),
		IPAddress: GetIPAddress(ctx),
		UserAgent: GetUserAgent(ctx),
		RequestID: GetRequestID(ctx),
	}
}

// WithAuditContext adds all audit information to context at once.
func WithAuditContext(ctx context.Context, ac AuditContext) context.Context {
	if ac.ActorID != "" {
		ctx = WithActorID(ctx, ac.ActorID)
	}
	if ac.IPAddress != "" {
		ctx = WithIPAddress(ctx, ac.IPAddress)
	}
	if ac.UserAgent != "" {
		ctx = WithUserAgent(ctx, ac.UserAgent)
	}
	if ac.RequestID != "" {
		ctx = WithRequestID(ctx, ac.RequestID)
	}
	return ctx
}
