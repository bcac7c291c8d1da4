package rbac

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/peerchamps/peerchamps/internal/platform/httpx"
)

// RoleSource yields the role of the request's principal. The second return
// is false while identity resolution is still in flight; callers must treat
// that as deny, never as "unknown therefore granted".
type RoleSource interface {
	CurrentRole(ctx context.Context) (Role, bool)
}

// Middleware wires authorization gates for HTTP handlers.
type Middleware struct {
	Roles  RoleSource
	Logger *slog.Logger
}

// RequirePermission allows the request only when the principal's role holds
// the (action, resource) grant. Denial renders a 403 problem response.
func (m Middleware) RequirePermission(action, resource string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := m.Roles.CurrentRole(r.Context())
			if !ok || !HasPermission(role, action, resource) {
				m.deny(w, r, action, resource)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyRole allows the request only when the principal holds one of the
// listed roles.
func (m Middleware) RequireAnyRole(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := m.Roles.CurrentRole(r.Context())
			if !ok || !HasAnyRole(role, roles...) {
				if m.Logger != nil {
					names := make([]string, len(roles))
					for i, want := range roles {
						names[i] = want.String()
					}
					m.Logger.Debug("access denied",
						slog.String("path", r.URL.Path),
						slog.Any("required_roles", names),
					)
				}
				forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request, action, resource string) {
	if m.Logger != nil {
		m.Logger.Debug("access denied",
			slog.String("path", r.URL.Path),
			slog.String("action", action),
			slog.String("resource", resource),
		)
	}
	forbidden(w)
}

func forbidden(w http.ResponseWriter) {
	httpx.Problem(w, http.StatusForbidden, "Access Denied", "")
}
