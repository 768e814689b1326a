// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Context keys and getter/setter functions for values that are typically set
// by middleware but consumed by services. Keeping this package free of
// net/http lets services import only what they need.
package requestcontext

import (
	"context"
	"time"

	id "gatepass/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	actorIDKey     struct{}
	actorRoleKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyActorID     = actorIDKey{}
	ContextKeyActorRole   = actorRoleKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// ActorID retrieves the authenticated registrant ID from the context.
// Returns the zero value (nil UUID) if not set.
func ActorID(ctx context.Context) id.RegistrantID {
	if actorID, ok := ctx.Value(ContextKeyActorID).(id.RegistrantID); ok {
		return actorID
	}
	return id.RegistrantID{}
}

// WithActorID injects an authenticated registrant ID into the context.
func WithActorID(ctx context.Context, actorID id.RegistrantID) context.Context {
	return context.WithValue(ctx, ContextKeyActorID, actorID)
}

// ActorRole retrieves the authenticated actor's role from the context.
func ActorRole(ctx context.Context) id.Role {
	if role, ok := ctx.Value(ContextKeyActorRole).(id.Role); ok {
		return role
	}
	return ""
}

// WithActorRole injects the authenticated actor's role into the context.
func WithActorRole(ctx context.Context, role id.Role) context.Context {
	return context.WithValue(ctx, ContextKeyActorRole, role)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() for non-HTTP contexts (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests that don't run the full HTTP middleware chain.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
