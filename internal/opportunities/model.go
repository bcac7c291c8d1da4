package opportunities

import "time"

// Opportunity is a CRM deal a rep attaches reference calls to.
type Opportunity struct {
	ID          int64      `json:"id"`
	CompanyID   int64      `json:"company_id"`
	OwnerID     int64      `json:"owner_id"`
	AccountName string     `json:"account_name"`
	Stage       string     `json:"stage"`
	Amount      float64    `json:"amount"`
	CloseDate   *time.Time `json:"close_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Pipeline stages.
const (
	StageDiscovery   = "discovery"
	StageEvaluation  = "evaluation"
	StageNegotiation = "negotiation"
	StageClosedWon   = "closed_won"
	StageClosedLost  = "closed_lost"
)

// ValidStage reports whether stage is a known pipeline stage.
func ValidStage(stage string) bool {
	switch stage {
	case StageDiscovery, StageEvaluation, StageNegotiation, StageClosedWon, StageClosedLost:
		return true
	default:
		return false
	}
}
