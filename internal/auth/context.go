package auth

import "context"

type contextKey string

const sessionKey contextKey = "session"

// ContextWithSession returns a new context carrying the authenticated session.
func ContextWithSession(ctx context.Context, session *Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, sessionKey, session)
}

// SessionFromContext retrieves the authenticated session from the context, if any.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	if ctx == nil {
		return nil, false
	}
	session, ok := ctx.Value(sessionKey).(*Session)
	if !ok || session == nil {
		return nil, false
	}
	return session, true
}
