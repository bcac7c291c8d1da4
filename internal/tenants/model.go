package tenants

import "time"

// Company is a tenant: the isolation boundary all program data hangs off.
type Company struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	PlanTier  string    `json:"plan_tier"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Plan tiers offered to customers.
const (
	PlanStarter    = "starter"
	PlanGrowth     = "growth"
	PlanEnterprise = "enterprise"
)

// ValidPlanTier reports whether the tier is one of the offered plans.
func ValidPlanTier(tier string) bool {
	switch tier {
	case PlanStarter, PlanGrowth, PlanEnterprise:
		return true
	default:
		return false
	}
}
