package opportunities

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/peerchamps/peerchamps/internal/platform/httpx"
	"github.com/peerchamps/peerchamps/internal/shared"
)

type memoryOppRepo struct {
	opps   map[int64]Opportunity
	nextID int64
}

func newMemoryOppRepo() *memoryOppRepo {
	return &memoryOppRepo{opps: make(map[int64]Opportunity)}
}

func (r *memoryOppRepo) ListByCompany(ctx context.Context, companyID int64) ([]Opportunity, error) {
	var out []Opportunity
	for _, o := range r.opps {
		if o.CompanyID == companyID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *memoryOppRepo) Get(ctx context.Context, id int64) (Opportunity, error) {
	o, ok := r.opps[id]
	if !ok {
		return Opportunity{}, shared.ErrNotFound
	}
	return o, nil
}

func (r *memoryOppRepo) Create(ctx context.Context, o Opportunity) (Opportunity, error) {
	r.nextID++
	o.ID = r.nextID
	r.opps[o.ID] = o
	return o, nil
}

func (r *memoryOppRepo) Update(ctx context.Context, o Opportunity) error {
	if _, ok := r.opps[o.ID]; !ok {
		return shared.ErrNotFound
	}
	r.opps[o.ID] = o
	return nil
}

func TestCreateDefaultsToDiscovery(t *testing.T) {
	svc := NewService(newMemoryOppRepo())

	opp, err := svc.Create(context.Background(), Opportunity{
		CompanyID: 10, OwnerID: 2, AccountName: "Globex", Amount: 48000,
	})
	require.NoError(t, err)
	require.Equal(t, StageDiscovery, opp.Stage)
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc := NewService(newMemoryOppRepo())

	_, err := svc.Create(context.Background(), Opportunity{CompanyID: 10, AccountName: "  "})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(context.Background(), Opportunity{CompanyID: 10, AccountName: "Globex", Stage: "won_big"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(context.Background(), Opportunity{CompanyID: 10, AccountName: "Globex", Amount: -1})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdatePreservesOwningTenant(t *testing.T) {
	repo := newMemoryOppRepo()
	svc := NewService(repo)

	opp, err := svc.Create(context.Background(), Opportunity{CompanyID: 10, OwnerID: 2, AccountName: "Globex"})
	require.NoError(t, err)

	edited := opp
	edited.CompanyID = 99 // must not move tenants
	edited.Stage = StageNegotiation
	require.NoError(t, svc.Update(context.Background(), edited, 10, false))
	require.Equal(t, int64(10), repo.opps[opp.ID].CompanyID)
	require.Equal(t, StageNegotiation, repo.opps[opp.ID].Stage)
}

func TestGetScopesToTenant(t *testing.T) {
	repo := newMemoryOppRepo()
	svc := NewService(repo)

	opp, err := svc.Create(context.Background(), Opportunity{CompanyID: 10, OwnerID: 2, AccountName: "Globex"})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), opp.ID, 99, false)
	require.ErrorIs(t, err, shared.ErrNotFound)

	companyID, err := svc.OpportunityCompany(context.Background(), opp.ID)
	require.NoError(t, err)
	require.Equal(t, int64(10), companyID)
}
