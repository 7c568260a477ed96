// Package requestcontext carries request-scoped values: request ID, the
// authenticated principal, and a test-overridable clock. Keys are unexported so
// values can only be set through the helpers here.
package requestcontext

import (
	"context"
	"time"

	id "praxis/pkg/domain"
)

type (
	requestIDKey struct{}
	principalKey struct{}
	clockKey     struct{}
)

// Principal is the verified caller identity supplied by the authentication
// layer. TenantID is nil for administrative principals operating in global scope.
type Principal struct {
	UserID   id.UserID
	TenantID id.TenantID
	Admin    bool
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID retrieves the request ID from the context, or "" if unset.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithPrincipal stores the authenticated principal in the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom retrieves the authenticated principal from the context.
// The second return value is false when no authentication middleware ran.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// WithClock overrides the time source for this context. Tests use it to pin
// timestamps; production code never sets it.
func WithClock(ctx context.Context, now func() time.Time) context.Context {
	return context.WithValue(ctx, clockKey{}, now)
}

// Now returns the context's time source, falling back to time.Now.
func Now(ctx context.Context) time.Time {
	if f, ok := ctx.Value(clockKey{}).(func() time.Time); ok {
		return f()
	}
	return time.Now()
}
