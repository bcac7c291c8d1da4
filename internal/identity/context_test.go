package identity_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/peerchamps/peerchamps/internal/identity"
	"github.com/peerchamps/peerchamps/internal/rbac"
	"github.com/peerchamps/peerchamps/internal/shared"
)

type fixtureStore struct{}

func (fixtureStore) GetPrincipal(ctx context.Context, id int64) (*identity.Principal, error) {
	if id != 1 {
		return nil, shared.ErrNotFound
	}
	return &identity.Principal{ID: 1, Email: "rep@acme.test"}, nil
}

func (fixtureStore) GetMembership(ctx context.Context, principalID int64) (identity.Membership, error) {
	if principalID != 1 {
		return identity.Membership{}, shared.ErrNotFound
	}
	return identity.Membership{Role: rbac.RoleSalesRep, CompanyID: 10}, nil
}

func (fixtureStore) GetTenant(ctx context.Context, companyID int64) (*identity.Tenant, error) {
	if companyID != 10 {
		return nil, shared.ErrNotFound
	}
	return &identity.Tenant{ID: 10, Name: "Acme", PlanTier: "growth"}, nil
}

func sessionRequest(t *testing.T, userID int64) *http.Request {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sm := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	if userID != 0 {
		sess.BindUser(userID)
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func resolveSnapshot(t *testing.T, req *http.Request) identity.Context {
	t.Helper()
	svc := identity.NewService(fixtureStore{}, nil, time.Minute)
	mw := identity.Middleware{Resolvers: identity.NewResolvers(svc, nil)}

	var captured identity.Context
	handler := mw.ResolveRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = identity.FromContext(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	return captured
}

func TestResolveRequestAuthenticated(t *testing.T) {
	ic := resolveSnapshot(t, sessionRequest(t, 1))
	require.True(t, ic.Authenticated())
	require.True(t, ic.RoleOK)
	require.Equal(t, rbac.RoleSalesRep, ic.Role)
	tenantID, ok := ic.TenantID()
	require.True(t, ok)
	require.Equal(t, int64(10), tenantID)
}

func TestResolveRequestAnonymous(t *testing.T) {
	ic := resolveSnapshot(t, sessionRequest(t, 0))
	require.False(t, ic.Authenticated())
	require.False(t, ic.RoleOK)

	role, ok := identity.ContextRoles{}.CurrentRole(context.Background())
	require.False(t, ok)
	require.False(t, rbac.HasPermission(role, rbac.ActionRead, rbac.ResourceRewards))
}

func TestResolveRequestUnknownUser(t *testing.T) {
	ic := resolveSnapshot(t, sessionRequest(t, 42))
	require.False(t, ic.Authenticated(), "fetch failure is treated as not authenticated")
	require.False(t, ic.RoleOK)
}
