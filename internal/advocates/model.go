package advocates

import "time"

// Advocate is a customer champion who takes reference calls.
type Advocate struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Title     string    `json:"title"`
	AccountID string    `json:"account_id"`
	Timezone  string    `json:"timezone"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AvailabilityWindow is a recurring weekly window during which the advocate
// accepts calls. Times are minutes from midnight in the advocate's timezone.
type AvailabilityWindow struct {
	ID          int64        `json:"id"`
	AdvocateID  int64        `json:"advocate_id"`
	Weekday     time.Weekday `json:"weekday"`
	StartMinute int          `json:"start_minute"`
	EndMinute   int          `json:"end_minute"`
}

// Slot is a concrete bookable interval produced by expanding recurring
// windows over a date range and subtracting already-booked calls.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// BusyInterval is an interval already taken by a scheduled call.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}
