package rbac

// Role is the closed set of principal categories. The zero value is not a
// valid role and always evaluates to deny.
type Role string

const (
	// RoleAdmin has unrestricted access across tenants.
	RoleAdmin Role = "admin"
	// RoleSalesRep requests reference calls and manages opportunities.
	RoleSalesRep Role = "sales_rep"
	// RoleAdvocate exposes availability and earns rewards for taking calls.
	RoleAdvocate Role = "advocate"
)

// ParseRole maps a stored role string onto the closed enumeration.
// Unrecognised strings yield the invalid zero role, never an error.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleSalesRep, RoleAdvocate:
		return Role(s), true
	default:
		return "", false
	}
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSalesRep, RoleAdvocate:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// Wildcard matches any action or resource in a permission entry.
const Wildcard = "*"

// Permission grants an action on a resource. Either field may be the
// wildcard, meaning "any".
type Permission struct {
	Action   string
	Resource string
}

// Matches reports whether the entry covers the requested pair. Each field is
// a literal equality-or-wildcard check; no pattern language beyond that.
func (p Permission) Matches(action, resource string) bool {
	if p.Action != Wildcard && p.Action != action {
		return false
	}
	if p.Resource != Wildcard && p.Resource != resource {
		return false
	}
	return true
}
