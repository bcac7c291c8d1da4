package audit

import "time"

// Entry is one row of the audit trail as served to admins.
type Entry struct {
	ID        int64          `json:"id"`
	ActorID   int64          `json:"actor_id"`
	CompanyID int64          `json:"company_id"`
	Action    string         `json:"action"`
	Entity    string         `json:"entity"`
	EntityID  string         `json:"entity_id"`
	Meta      map[string]any `json:"meta,omitempty"`
	At        time.Time      `json:"at"`
}

// Filters narrows the trail. Zero values mean no filter.
type Filters struct {
	CompanyID int64
	ActorID   int64
	Entity    string
	Action    string
	From      time.Time
	To        time.Time
	Page      int
	PageSize  int
}
