package middleware

import (
	"context"

	"github.com/sparible/storefront/internal/session"
)

type contextKey string

const ctxSession contextKey = "storefront_session"

// WithSession injects the visitor session into the context.
func WithSession(ctx context.Context, sess *session.Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSession, sess)
}

// SessionFromContext returns the visitor session bound by the Session middleware.
func SessionFromContext(ctx context.Context) *session.Session {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxSession).(*session.Session); ok {
		return v
	}
	return nil
}

// UserIDFromContext returns the authenticated user id, or "" for guests.
func UserIDFromContext(ctx context.Context) string {
	sess := SessionFromContext(ctx)
	if sess == nil {
		return ""
	}
	if a := sess.Auth(); a.Authenticated() {
		return a.User.ID
	}
	return ""
}
