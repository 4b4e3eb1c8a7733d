package http

import (
	"context"

	sessionDomain "github.com/allisson/gatekeeper/internal/session/domain"
)

type sessionContextKey struct{}
type tokenContextKey struct{}

// WithSession stores the authenticated session in the context.
func WithSession(ctx context.Context, session *sessionDomain.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

// GetSession retrieves the authenticated session from the context.
func GetSession(ctx context.Context) (*sessionDomain.Session, bool) {
	session, ok := ctx.Value(sessionContextKey{}).(*sessionDomain.Session)
	return session, ok
}

// WithPlainToken stores the presented bearer token in the context so the
// logout handler can revoke the session it belongs to.
func WithPlainToken(ctx context.Context, plainToken string) context.Context {
	return context.WithValue(ctx, tokenContextKey{}, plainToken)
}

// GetPlainToken retrieves the presented bearer token from the context.
func GetPlainToken(ctx context.Context) (string, bool) {
	plainToken, ok := ctx.Value(tokenContextKey{}).(string)
	return plainToken, ok
}
