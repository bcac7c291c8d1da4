// Package rbac decides whether a role may perform an action on a resource.
//
// Evaluation is deny-by-default: an invalid or unknown role, or the absence
// of a matching grant, is the normal "denied" outcome, never an error. The
// permission table is static, so every check is pure and safe to run
// concurrently without synchronisation.
package rbac

// HasPermission reports whether the role holds at least one grant covering
// the (action, resource) pair. The scan is linear; the per-role sets are
// tiny and fixed.
func HasPermission(role Role, action, resource string) bool {
	if !role.Valid() {
		return false
	}
	for _, p := range rolePermissions[role] {
		if p.Matches(action, resource) {
			return true
		}
	}
	return false
}

// HasRole reports whether role equals expected. Invalid roles never match.
func HasRole(role, expected Role) bool {
	return role.Valid() && role == expected
}

// HasAnyRole reports whether role is a member of the expected set.
func HasAnyRole(role Role, expected ...Role) bool {
	if !role.Valid() {
		return false
	}
	for _, e := range expected {
		if role == e {
			return true
		}
	}
	return false
}

// CanAccess is a convenience wrapper defaulting the action to read.
func CanAccess(role Role, resource string) bool {
	return HasPermission(role, ActionRead, resource)
}
