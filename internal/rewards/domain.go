package rewards

import "time"

// Reward fulfillment status.
const (
	StatusPending   = "pending"
	StatusFulfilled = "fulfilled"
)

// Redemption kinds accepted from advocates.
const (
	KindGiftCard = "gift_card"
	KindDonation = "donation"
)

// Reward is the credit an advocate earns for a completed reference call.
type Reward struct {
	ID         int64     `json:"id"`
	CompanyID  int64     `json:"company_id"`
	AdvocateID int64     `json:"advocate_id"`
	CallID     int64     `json:"call_id"`
	Amount     int64     `json:"amount"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// Redemption spends part of an advocate's balance.
type Redemption struct {
	ID         int64     `json:"id"`
	CompanyID  int64     `json:"company_id"`
	AdvocateID int64     `json:"advocate_id"`
	Amount     int64     `json:"amount"`
	Kind       string    `json:"kind"`
	CreatedAt  time.Time `json:"created_at"`
}

// Balance summarises an advocate's ledger.
type Balance struct {
	AdvocateID int64 `json:"advocate_id"`
	Earned     int64 `json:"earned"`
	Redeemed   int64 `json:"redeemed"`
	Available  int64 `json:"available"`
}

func validKind(kind string) bool {
	return kind == KindGiftCard || kind == KindDonation
}
