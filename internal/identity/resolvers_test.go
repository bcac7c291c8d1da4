package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/peerchamps/peerchamps/internal/rbac"
)

func newRegistry(store Store) *Resolvers {
	return NewResolvers(NewService(store, nil, time.Minute), nil)
}

func TestResolversOnePerSession(t *testing.T) {
	store := newMemoryStore()
	seedRep(store)
	rs := newRegistry(store)

	a := rs.For("sess-a")
	require.Same(t, a, rs.For("sess-a"))
	require.NotSame(t, a, rs.For("sess-b"))
}

func TestResolversDropSignsOutAndForgets(t *testing.T) {
	store := newMemoryStore()
	seedRep(store)
	rs := newRegistry(store)

	r := rs.For("sess-a")
	r.SignIn(context.Background(), 1)
	waitSettled(t, r)
	require.Equal(t, StateAuthenticated, r.State())

	rs.Drop("sess-a")
	require.Equal(t, StateAnonymous, r.State())

	// A request on the same session ID afterwards starts from scratch.
	require.NotSame(t, r, rs.For("sess-a"))
	require.Equal(t, StateUnresolved, rs.For("sess-a").State())
}

func TestResolversEnsureSignedInResolvesSynchronously(t *testing.T) {
	store := newMemoryStore()
	seedRep(store)

	// Fresh registry, as after a process restart: the session cookie is
	// still valid but no SignIn ever ran.
	rs := newRegistry(store)
	r := rs.For("sess-a")
	r.EnsureSignedIn(context.Background(), 1)

	require.Equal(t, StateAuthenticated, r.State())
	principal, loading := r.CurrentPrincipal()
	require.False(t, loading)
	require.NotNil(t, principal)
	require.Equal(t, int64(1), principal.ID)

	// Already authenticated for the same principal: no second store hit.
	before := store.calls()
	_, _ = r.CurrentRole(context.Background())
	r.EnsureSignedIn(context.Background(), 1)
	_, _ = r.CurrentRole(context.Background())
	require.Equal(t, before+1, store.calls())
}

func TestResolversInvalidateForcesRoleRefetch(t *testing.T) {
	store := newMemoryStore()
	seedRep(store)
	rs := newRegistry(store)

	r := rs.For("sess-a")
	r.EnsureSignedIn(context.Background(), 1)
	role, ok := r.CurrentRole(context.Background())
	require.True(t, ok)
	require.Equal(t, rbac.RoleSalesRep, role)

	store.mu.Lock()
	store.memberships[1] = Membership{Role: rbac.RoleAdvocate, CompanyID: 10}
	store.mu.Unlock()

	rs.Invalidate(1)
	role, ok = r.CurrentRole(context.Background())
	require.True(t, ok)
	require.Equal(t, rbac.RoleAdvocate, role)
}
