package shared

import "context"

type sessionCtxKey struct{}

// ContextWithSession attaches the request's session to ctx. The middleware
// is the only writer; everything downstream reads.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, sess)
}

// SessionFromContext returns the request's session, nil when the session
// middleware has not run.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionCtxKey{}).(*Session)
	return sess
}
