package rewards

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/peerchamps/peerchamps/internal/platform/httpx"
	"github.com/peerchamps/peerchamps/internal/shared"
)

type memoryLedger struct {
	rewards        map[int64]Reward
	redemptions    []Redemption
	advocateOwners map[int64]int64 // advocate id -> company id
	advocateUsers  map[int64]int64 // user id -> advocate id
	nextReward     int64
	nextRedemption int64
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{
		rewards:        make(map[int64]Reward),
		advocateOwners: make(map[int64]int64),
		advocateUsers:  make(map[int64]int64),
	}
}

func (m *memoryLedger) Insert(ctx context.Context, reward Reward) (Reward, error) {
	m.nextReward++
	reward.ID = m.nextReward
	reward.CreatedAt = time.Now()
	m.rewards[reward.ID] = reward
	return reward, nil
}

func (m *memoryLedger) Get(ctx context.Context, id int64) (Reward, error) {
	rw, ok := m.rewards[id]
	if !ok {
		return Reward{}, shared.ErrNotFound
	}
	return rw, nil
}

func (m *memoryLedger) ListByAdvocate(ctx context.Context, advocateID int64) ([]Reward, error) {
	var out []Reward
	for _, rw := range m.rewards {
		if rw.AdvocateID == advocateID {
			out = append(out, rw)
		}
	}
	return out, nil
}

func (m *memoryLedger) MarkFulfilled(ctx context.Context, id int64) error {
	rw, ok := m.rewards[id]
	if !ok {
		return shared.ErrNotFound
	}
	rw.Status = StatusFulfilled
	m.rewards[id] = rw
	return nil
}

func (m *memoryLedger) Balance(ctx context.Context, advocateID int64) (Balance, error) {
	b := Balance{AdvocateID: advocateID}
	for _, rw := range m.rewards {
		if rw.AdvocateID == advocateID {
			b.Earned += rw.Amount
		}
	}
	for _, red := range m.redemptions {
		if red.AdvocateID == advocateID {
			b.Redeemed += red.Amount
		}
	}
	b.Available = b.Earned - b.Redeemed
	return b, nil
}

func (m *memoryLedger) InsertRedemption(ctx context.Context, redemption Redemption) (Redemption, error) {
	m.nextRedemption++
	redemption.ID = m.nextRedemption
	redemption.CreatedAt = time.Now()
	m.redemptions = append(m.redemptions, redemption)
	return redemption, nil
}

func (m *memoryLedger) AdvocateCompany(ctx context.Context, advocateID int64) (int64, error) {
	companyID, ok := m.advocateOwners[advocateID]
	if !ok {
		return 0, shared.ErrNotFound
	}
	return companyID, nil
}

func (m *memoryLedger) AdvocateForUser(ctx context.Context, userID int64) (int64, error) {
	advocateID, ok := m.advocateUsers[userID]
	if !ok {
		return 0, shared.ErrNotFound
	}
	return advocateID, nil
}

func newLedgerService(t *testing.T) (*Service, *memoryLedger) {
	t.Helper()
	ledger := newMemoryLedger()
	ledger.advocateOwners[3] = 10
	ledger.advocateUsers[5] = 3
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(ledger, nil, logger), ledger
}

func TestAccrueAndBalance(t *testing.T) {
	svc, _ := newLedgerService(t)
	ctx := context.Background()

	id1, err := svc.Accrue(ctx, 10, 3, 100, 50)
	require.NoError(t, err)
	id2, err := svc.Accrue(ctx, 10, 3, 101, 50)
	require.NoError(t, err)
	require.NotEqual(t, id1, id2)

	b, err := svc.BalanceFor(ctx, 3, 10, false)
	require.NoError(t, err)
	require.Equal(t, int64(100), b.Earned)
	require.Equal(t, int64(100), b.Available)
}

func TestAccrueRejectsNonPositiveAmount(t *testing.T) {
	svc, _ := newLedgerService(t)

	_, err := svc.Accrue(context.Background(), 10, 3, 100, 0)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestRedeemDebitsBalance(t *testing.T) {
	svc, ledger := newLedgerService(t)
	ctx := context.Background()

	_, err := svc.Accrue(ctx, 10, 3, 100, 75)
	require.NoError(t, err)

	red, err := svc.Redeem(ctx, 5, 3, 10, false, 50, KindGiftCard)
	require.NoError(t, err)
	require.Equal(t, int64(50), red.Amount)
	require.Equal(t, int64(10), red.CompanyID)

	b, err := svc.BalanceFor(ctx, 3, 10, false)
	require.NoError(t, err)
	require.Equal(t, int64(25), b.Available)
	require.Len(t, ledger.redemptions, 1)
}

func TestRedeemRejectsInsufficientBalance(t *testing.T) {
	svc, ledger := newLedgerService(t)
	ctx := context.Background()

	_, err := svc.Accrue(ctx, 10, 3, 100, 30)
	require.NoError(t, err)

	_, err = svc.Redeem(ctx, 5, 3, 10, false, 31, KindDonation)
	require.ErrorIs(t, err, httpx.ErrConflict)
	require.Empty(t, ledger.redemptions)
}

func TestRedeemRejectsUnknownKind(t *testing.T) {
	svc, _ := newLedgerService(t)

	_, err := svc.Redeem(context.Background(), 5, 3, 10, false, 10, "cash")
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestLedgerScopedToTenant(t *testing.T) {
	svc, _ := newLedgerService(t)
	ctx := context.Background()

	_, err := svc.Accrue(ctx, 10, 3, 100, 50)
	require.NoError(t, err)

	_, err = svc.BalanceFor(ctx, 3, 99, false)
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Redeem(ctx, 5, 3, 99, false, 10, KindGiftCard)
	require.ErrorIs(t, err, shared.ErrNotFound)

	// admins cross tenants
	b, err := svc.BalanceFor(ctx, 3, 99, true)
	require.NoError(t, err)
	require.Equal(t, int64(50), b.Available)
}

func TestFulfillMarksReward(t *testing.T) {
	svc, ledger := newLedgerService(t)
	ctx := context.Background()

	id, err := svc.Accrue(ctx, 10, 3, 100, 50)
	require.NoError(t, err)

	require.NoError(t, svc.Fulfill(ctx, id))
	require.Equal(t, StatusFulfilled, ledger.rewards[id].Status)

	require.ErrorIs(t, svc.Fulfill(ctx, 999), shared.ErrNotFound)
}
