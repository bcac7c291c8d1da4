package rbac

// Actions understood by the permission table.
const (
	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionRedeem = "redeem"
)

// Resources understood by the permission table.
const (
	ResourceCompanies     = "companies"
	ResourceUsers         = "users"
	ResourceAdvocates     = "advocates"
	ResourceAvailability  = "availability"
	ResourceOpportunities = "opportunities"
	ResourceCalls         = "calls"
	ResourceRewards       = "rewards"
	ResourceAuditLogs     = "audit_logs"
)

// rolePermissions is the process-wide role permission table. It is built
// once and never mutated; evaluation treats it as immutable shared state.
var rolePermissions = map[Role][]Permission{
	RoleAdmin: {
		{Action: Wildcard, Resource: Wildcard},
	},
	RoleSalesRep: {
		{Action: ActionRead, Resource: ResourceAdvocates},
		{Action: ActionRead, Resource: ResourceAvailability},
		{Action: ActionCreate, Resource: ResourceOpportunities},
		{Action: ActionRead, Resource: ResourceOpportunities},
		{Action: ActionUpdate, Resource: ResourceOpportunities},
		{Action: ActionCreate, Resource: ResourceCalls},
		{Action: ActionRead, Resource: ResourceCalls},
		{Action: ActionUpdate, Resource: ResourceCalls},
	},
	RoleAdvocate: {
		{Action: ActionRead, Resource: ResourceCalls},
		{Action: ActionUpdate, Resource: ResourceCalls},
		{Action: ActionRead, Resource: ResourceAvailability},
		{Action: ActionUpdate, Resource: ResourceAvailability},
		{Action: ActionRead, Resource: ResourceRewards},
		{Action: ActionRedeem, Resource: ResourceRewards},
	},
}

// PermissionsFor returns the permission entries granted to a role. Unknown
// roles have an empty set, which denies everything.
func PermissionsFor(role Role) []Permission {
	perms, ok := rolePermissions[role]
	if !ok {
		return nil
	}
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}
