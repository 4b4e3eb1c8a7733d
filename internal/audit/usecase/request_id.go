package usecase

import (
	"context"
)

type requestIDKey struct{}

// ContextWithRequestID stamps the request correlation id onto the context.
// The HTTP middleware calls this once per request; Record picks it up so every
// audit entry written during the request carries the same id.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the request correlation id, or "" when the call
// did not originate from an HTTP request (CLI commands, background tasks).
func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDKey{}).(string)
	return requestID
}
