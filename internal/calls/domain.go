package calls

import "time"

// Status of a reference call.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCanceled  = "canceled"
)

// ReferenceCall is a scheduled conversation between a prospect (via a sales
// rep) and a customer advocate, attached to an opportunity.
type ReferenceCall struct {
	ID            int64     `json:"id"`
	CompanyID     int64     `json:"company_id"`
	OpportunityID int64     `json:"opportunity_id"`
	AdvocateID    int64     `json:"advocate_id"`
	RequestedBy   int64     `json:"requested_by"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	DurationMin   int       `json:"duration_min"`
	Status        string    `json:"status"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// EndsAt returns the scheduled end instant.
func (c ReferenceCall) EndsAt() time.Time {
	return c.ScheduledAt.Add(time.Duration(c.DurationMin) * time.Minute)
}

// BookInput carries everything needed to schedule a call.
type BookInput struct {
	CompanyID     int64
	OpportunityID int64
	AdvocateID    int64
	RequestedBy   int64
	ScheduledAt   time.Time
	DurationMin   int
	Notes         string
}
