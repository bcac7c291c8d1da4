package rbac_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/peerchamps/peerchamps/internal/rbac"
)

type staticRoles struct {
	role rbac.Role
	ok   bool
}

func (s staticRoles) CurrentRole(ctx context.Context) (rbac.Role, bool) {
	return s.role, s.ok
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequirePermissionAllows(t *testing.T) {
	mw := rbac.Middleware{Roles: staticRoles{role: rbac.RoleSalesRep, ok: true}}
	handler := mw.RequirePermission(rbac.ActionCreate, rbac.ResourceOpportunities)(okHandler())

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/opportunities", nil))
	require.Equal(t, http.StatusOK, res.Code)
}

func TestRequirePermissionDenies(t *testing.T) {
	mw := rbac.Middleware{Roles: staticRoles{role: rbac.RoleAdvocate, ok: true}}
	handler := mw.RequirePermission(rbac.ActionDelete, rbac.ResourceOpportunities)(okHandler())

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodDelete, "/opportunities/1", nil))
	require.Equal(t, http.StatusForbidden, res.Code)
	require.Contains(t, res.Body.String(), "Access Denied")
}

func TestRequirePermissionDeniesWhileResolving(t *testing.T) {
	// Identity still loading: the role source reports not-ready and the gate
	// must deny rather than assume.
	mw := rbac.Middleware{Roles: staticRoles{ok: false}}
	handler := mw.RequirePermission(rbac.ActionRead, rbac.ResourceCalls)(okHandler())

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/calls", nil))
	require.Equal(t, http.StatusForbidden, res.Code)
}

func TestRequireAnyRole(t *testing.T) {
	mw := rbac.Middleware{Roles: staticRoles{role: rbac.RoleSalesRep, ok: true}}

	allow := mw.RequireAnyRole(rbac.RoleAdmin, rbac.RoleSalesRep)(okHandler())
	res := httptest.NewRecorder()
	allow.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, res.Code)

	deny := mw.RequireAnyRole(rbac.RoleAdmin)(okHandler())
	res = httptest.NewRecorder()
	deny.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusForbidden, res.Code)
}

func TestRequireAnyRoleDenialLogsExpectedRoles(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mw := rbac.Middleware{Roles: staticRoles{role: rbac.RoleAdvocate, ok: true}, Logger: logger}

	handler := mw.RequireAnyRole(rbac.RoleAdmin, rbac.RoleSalesRep)(okHandler())
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/users", nil))

	require.Equal(t, http.StatusForbidden, res.Code)
	out := buf.String()
	require.Contains(t, out, "required_roles")
	require.Contains(t, out, rbac.RoleAdmin.String())
	require.Contains(t, out, rbac.RoleSalesRep.String())
	require.NotContains(t, out, "action=role")
}
