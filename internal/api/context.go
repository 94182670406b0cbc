package api

import (
	"context"

	"github.com/terra-clan/problem-browser/internal/session"
)

type contextKey string

const sessionContextKey contextKey = "browse_session"

// SessionFromContext extracts the browsing session from context
func SessionFromContext(ctx context.Context) *session.Session {
	s, ok := ctx.Value(sessionContextKey).(*session.Session)
	if !ok {
		return nil
	}
	return s
}

// ContextWithSession adds a browsing session to context
func ContextWithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}
