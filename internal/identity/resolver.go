package identity

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/peerchamps/peerchamps/internal/rbac"
	"github.com/peerchamps/peerchamps/internal/shared"
)

// Resolver owns the session/tenant context for one signed-in session. It
// moves through unresolved → resolving → {authenticated, anonymous} and
// back to anonymous on sign-out.
//
// Every principal swap bumps a generation counter. In-flight fetches carry
// the generation they started under; a result arriving after the counter
// moved belongs to a previous principal and is discarded rather than
// cancelled. Consumers must treat "still loading" as deny.
type Resolver struct {
	svc    *Service
	logger *slog.Logger

	mu         sync.Mutex
	state      State
	gen        uint64
	principal  *Principal
	membership *Membership
	tenant     *Tenant
}

// NewResolver constructs a Resolver in the unresolved state.
func NewResolver(svc *Service, logger *slog.Logger) *Resolver {
	return &Resolver{svc: svc, logger: logger, state: StateUnresolved}
}

// State reports the current lifecycle state.
func (r *Resolver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// SignIn starts resolving the given principal. Any previous identity and
// its dependent role/tenant state are invalidated immediately; the fetch
// completes asynchronously and outlives the calling request.
func (r *Resolver) SignIn(ctx context.Context, principalID int64) {
	gen := r.begin()
	go r.resolve(context.WithoutCancel(ctx), gen, principalID)
}

// EnsureSignedIn resolves the given principal synchronously unless it is
// already the authenticated one. Requests carrying a valid session after a
// process restart land here with no prior SignIn.
func (r *Resolver) EnsureSignedIn(ctx context.Context, principalID int64) {
	r.mu.Lock()
	if r.state == StateAuthenticated && r.principal != nil && r.principal.ID == principalID {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	r.resolve(ctx, r.begin(), principalID)
}

func (r *Resolver) begin() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.state = StateResolving
	r.principal = nil
	r.membership = nil
	r.tenant = nil
	return r.gen
}

// SignOut drops the current identity. Dependent role/tenant state goes with
// it; any fetch still in flight for the old principal will be discarded.
func (r *Resolver) SignOut() {
	r.mu.Lock()
	r.gen++
	if r.principal != nil {
		r.svc.Invalidate(r.principal.ID)
	}
	r.state = StateAnonymous
	r.principal = nil
	r.membership = nil
	r.tenant = nil
	r.mu.Unlock()
}

func (r *Resolver) resolve(ctx context.Context, gen uint64, principalID int64) {
	principal, err := r.svc.Principal(ctx, principalID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		// A sign-in or sign-out happened while this fetch was in flight.
		return
	}
	if err != nil {
		// Fail-safe to anonymous; a fetch failure is never distinguished
		// from "not authenticated".
		if !errors.Is(err, shared.ErrNotFound) && r.logger != nil {
			r.logger.Warn("principal resolution failed", slog.Int64("principal_id", principalID), slog.Any("error", err))
		}
		r.state = StateAnonymous
		r.principal = nil
		return
	}
	r.state = StateAuthenticated
	r.principal = principal
}

// CurrentPrincipal returns the resolved principal and whether resolution is
// still in flight. It never returns an error; an unresolved session is
// simply (nil, loading).
func (r *Resolver) CurrentPrincipal() (*Principal, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	loading := r.state == StateUnresolved || r.state == StateResolving
	return r.principal, loading
}

// CurrentRole returns the role of the current principal, fetching it from
// the store on first use. ok is false while loading, when anonymous, and
// when the lookup fails; every permission check downstream then denies.
func (r *Resolver) CurrentRole(ctx context.Context) (rbac.Role, bool) {
	m, ok := r.currentMembership(ctx)
	if !ok {
		return "", false
	}
	return m.Role, true
}

// CurrentTenant returns the tenant record for the current principal, nil
// while loading or when the principal has no resolvable tenant.
func (r *Resolver) CurrentTenant(ctx context.Context) *Tenant {
	m, ok := r.currentMembership(ctx)
	if !ok {
		return nil
	}

	r.mu.Lock()
	if r.tenant != nil {
		t := r.tenant
		r.mu.Unlock()
		return t
	}
	gen := r.gen
	r.mu.Unlock()

	tenant := r.svc.Tenant(ctx, m.CompanyID)
	if tenant == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		return nil
	}
	r.tenant = tenant
	return tenant
}

// Refresh re-fetches role and tenant for the current principal. Calling it
// twice without an intervening principal change yields the same result.
func (r *Resolver) Refresh(ctx context.Context) {
	r.mu.Lock()
	principal := r.principal
	r.membership = nil
	r.tenant = nil
	r.mu.Unlock()

	if principal == nil {
		return
	}
	r.svc.Invalidate(principal.ID)
	r.currentMembership(ctx)
}

// dropDerived discards cached role/tenant state when the resolver holds the
// given principal, forcing a re-fetch on next use. The principal itself
// stays resolved.
func (r *Resolver) dropDerived(principalID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.principal == nil || r.principal.ID != principalID {
		return
	}
	r.membership = nil
	r.tenant = nil
}

func (r *Resolver) currentMembership(ctx context.Context) (Membership, bool) {
	r.mu.Lock()
	if r.state != StateAuthenticated || r.principal == nil {
		r.mu.Unlock()
		return Membership{}, false
	}
	if r.membership != nil {
		m := *r.membership
		r.mu.Unlock()
		return m, true
	}
	gen := r.gen
	principalID := r.principal.ID
	r.mu.Unlock()

	m, ok := r.svc.Membership(ctx, principalID)
	if !ok {
		return Membership{}, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		// Principal swapped while the lookup was in flight; the result
		// belongs to the old identity.
		return Membership{}, false
	}
	r.membership = &m
	return m, true
}
