package tenants

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/peerchamps/peerchamps/internal/platform/httpx"
	"github.com/peerchamps/peerchamps/internal/shared"
)

type memoryCompanyRepo struct {
	companies map[int64]Company
	nextID    int64
}

func newMemoryCompanyRepo() *memoryCompanyRepo {
	return &memoryCompanyRepo{companies: make(map[int64]Company)}
}

func (r *memoryCompanyRepo) List(ctx context.Context) ([]Company, error) {
	var out []Company
	for _, c := range r.companies {
		out = append(out, c)
	}
	return out, nil
}

func (r *memoryCompanyRepo) Get(ctx context.Context, id int64) (Company, error) {
	c, ok := r.companies[id]
	if !ok {
		return Company{}, shared.ErrNotFound
	}
	return c, nil
}

func (r *memoryCompanyRepo) Create(ctx context.Context, name, planTier string) (Company, error) {
	r.nextID++
	c := Company{ID: r.nextID, Name: name, PlanTier: planTier}
	r.companies[c.ID] = c
	return c, nil
}

func (r *memoryCompanyRepo) Update(ctx context.Context, id int64, name, planTier string) (Company, error) {
	c, ok := r.companies[id]
	if !ok {
		return Company{}, shared.ErrNotFound
	}
	c.Name = name
	c.PlanTier = planTier
	r.companies[id] = c
	return c, nil
}

func TestCreateValidatesPlanTier(t *testing.T) {
	svc := NewService(newMemoryCompanyRepo())

	c, err := svc.Create(context.Background(), "  Acme Corp  ", PlanGrowth)
	require.NoError(t, err)
	require.Equal(t, "Acme Corp", c.Name)

	_, err = svc.Create(context.Background(), "Globex", "platinum")
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(context.Background(), "   ", PlanStarter)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateMovesPlanTier(t *testing.T) {
	repo := newMemoryCompanyRepo()
	svc := NewService(repo)

	c, err := svc.Create(context.Background(), "Acme Corp", PlanStarter)
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), c.ID, "Acme Corp", PlanEnterprise)
	require.NoError(t, err)
	require.Equal(t, PlanEnterprise, updated.PlanTier)

	_, err = svc.Update(context.Background(), 404, "Ghost", PlanStarter)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetRejectsInvalidID(t *testing.T) {
	svc := NewService(newMemoryCompanyRepo())

	_, err := svc.Get(context.Background(), 0)
	require.ErrorIs(t, err, httpx.ErrValidation)
}
