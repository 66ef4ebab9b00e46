// Package requestcontext provides transport-independent context accessors for
// request-scoped values.
//
// The host API sets these in middleware; the wizard core and collaborator
// adapters read them for logging, audit and time:
//
//	requestID := requestcontext.RequestID(ctx)
//	operator := requestcontext.Operator(ctx)
//	now := requestcontext.Now(ctx)
//
// Tests inject values directly:
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "civreg/pkg/domain"
)

type (
	requestIDKey   struct{}
	operatorKey    struct{}
	credentialKey  struct{}
	sessionIDKey   struct{}
	requestTimeKey struct{}
)

var (
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyOperator    = operatorKey{}
	ContextKeyCredential  = credentialKey{}
	ContextKeySessionID   = sessionIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// RequestID retrieves the correlation id from the context.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return v
	}
	return ""
}

// WithRequestID injects a correlation id into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Operator retrieves the name of the registry clerk driving the session.
func Operator(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyOperator).(string); ok {
		return v
	}
	return ""
}

// WithOperator injects the operator name into the context.
func WithOperator(ctx context.Context, operator string) context.Context {
	return context.WithValue(ctx, ContextKeyOperator, operator)
}

// Credential retrieves the opaque credential the host supplies for collaborator calls.
// Collaborator clients prefer it over their configured default token.
func Credential(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyCredential).(string); ok {
		return v
	}
	return ""
}

// WithCredential injects the collaborator credential into the context.
func WithCredential(ctx context.Context, credential string) context.Context {
	return context.WithValue(ctx, ContextKeyCredential, credential)
}

// SessionID retrieves the wizard session id from the context.
// Returns the nil id if not set.
func SessionID(ctx context.Context) id.SessionID {
	if v, ok := ctx.Value(ContextKeySessionID).(id.SessionID); ok {
		return v
	}
	return id.SessionID{}
}

// WithSessionID injects a wizard session id into the context.
func WithSessionID(ctx context.Context, sessionID id.SessionID) context.Context {
	return context.WithValue(ctx, ContextKeySessionID, sessionID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (background goroutines, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
