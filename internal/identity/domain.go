// Package identity resolves the authenticated principal, its role, and its
// owning tenant for the rest of the application.
//
// Resolution failures are swallowed at this boundary and converted to safe
// defaults: a missing principal, a failed role lookup, or an unknown role
// string all surface as "no role", which downstream authorization treats as
// deny. Nothing in this package returns an authorization decision.
package identity

import (
	"time"

	"github.com/peerchamps/peerchamps/internal/rbac"
)

// Principal is the authenticated actor. The role is deliberately not part
// of this struct: it may be changed by an administrator mid-session and must
// be re-fetched through Membership, not cached with the principal.
type Principal struct {
	ID    int64
	Email string
}

// Membership carries the per-principal row from the tenant/role store:
// the assigned role and the owning company.
type Membership struct {
	Role      rbac.Role
	CompanyID int64
	FetchedAt time.Time
}

// Tenant is the isolation boundary a principal belongs to.
type Tenant struct {
	ID       int64
	Name     string
	PlanTier string
}

// State tracks the resolver lifecycle.
type State int

const (
	// StateUnresolved is the initial state before any sign-in attempt.
	StateUnresolved State = iota
	// StateResolving means a principal fetch is in flight.
	StateResolving
	// StateAuthenticated means a principal has been resolved.
	StateAuthenticated
	// StateAnonymous means resolution finished without a valid session.
	StateAnonymous
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateResolving:
		return "resolving"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}
