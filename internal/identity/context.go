package identity

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/peerchamps/peerchamps/internal/rbac"
	"github.com/peerchamps/peerchamps/internal/shared"
)

// Context is the per-request identity snapshot handed to handlers. The zero
// value means anonymous: no principal, no role, every gate denies.
type Context struct {
	Principal *Principal
	Role      rbac.Role
	RoleOK    bool
	Tenant    *Tenant
}

// Authenticated reports whether a principal was resolved for the request.
func (c Context) Authenticated() bool {
	return c.Principal != nil
}

// TenantID returns the owning company ID, ok=false when unresolved.
func (c Context) TenantID() (int64, bool) {
	if c.Tenant == nil {
		return 0, false
	}
	return c.Tenant.ID, true
}

type identityContextKey struct{}

// ContextWith stores the identity snapshot in a request context.
func ContextWith(ctx context.Context, ic Context) context.Context {
	return context.WithValue(ctx, identityContextKey{}, ic)
}

// FromContext extracts the identity snapshot; the zero value when absent.
func FromContext(ctx context.Context) Context {
	ic, _ := ctx.Value(identityContextKey{}).(Context)
	return ic
}

// Middleware resolves the request identity from the session cookie through
// the session's Resolver and stores the snapshot in the request context.
// Resolution failures leave the request anonymous rather than failing it.
type Middleware struct {
	Resolvers *Resolvers
	Logger    *slog.Logger
}

// ResolveRequest is the chi middleware entry point.
func (m Middleware) ResolveRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ic := m.snapshot(r)
		next.ServeHTTP(w, r.WithContext(ContextWith(r.Context(), ic)))
	})
}

func (m Middleware) snapshot(r *http.Request) Context {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return Context{}
	}
	principalID := sess.UserID()
	if principalID == 0 {
		return Context{}
	}

	ctx := r.Context()
	res := m.Resolvers.For(sess.ID)
	res.EnsureSignedIn(ctx, principalID)

	principal, loading := res.CurrentPrincipal()
	if loading || principal == nil || principal.ID != principalID {
		// Unresolvable or mid-swap; treated identically to "not
		// authenticated".
		return Context{}
	}

	ic := Context{Principal: principal}
	if role, ok := res.CurrentRole(ctx); ok {
		ic.Role = role
		ic.RoleOK = true
		ic.Tenant = res.CurrentTenant(ctx)
	}
	return ic
}

// ContextRoles adapts the request-context snapshot to rbac.RoleSource.
type ContextRoles struct{}

// CurrentRole implements rbac.RoleSource.
func (ContextRoles) CurrentRole(ctx context.Context) (rbac.Role, bool) {
	ic := FromContext(ctx)
	return ic.Role, ic.RoleOK
}

var _ rbac.RoleSource = ContextRoles{}
