package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/peerchamps/peerchamps/internal/platform/httpx"
	"github.com/peerchamps/peerchamps/internal/shared"
)

type memoryUserRepo struct {
	users map[int64]User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: map[int64]User{
		1: {ID: 1, CompanyID: 10, Email: "rep@acme.test", Name: "Riley Rep", Role: "sales_rep", IsActive: true},
		2: {ID: 2, CompanyID: 99, Email: "other@globex.test", Name: "Sam Other", Role: "admin", IsActive: true},
	}}
}

func (r *memoryUserRepo) ListByCompany(ctx context.Context, companyID int64) ([]User, error) {
	var out []User
	for _, u := range r.users {
		if u.CompanyID == companyID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *memoryUserRepo) Get(ctx context.Context, id int64) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (r *memoryUserRepo) UpdateRole(ctx context.Context, id int64, role string) error {
	u, ok := r.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.Role = role
	r.users[id] = u
	return nil
}

func (r *memoryUserRepo) SetActive(ctx context.Context, id int64, active bool) error {
	u, ok := r.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.IsActive = active
	r.users[id] = u
	return nil
}

type recordingInvalidator struct {
	invalidated []int64
}

func (r *recordingInvalidator) Invalidate(principalID int64) {
	r.invalidated = append(r.invalidated, principalID)
}

func TestAssignRoleUpdatesAndInvalidates(t *testing.T) {
	repo := newMemoryUserRepo()
	inv := &recordingInvalidator{}
	svc := NewService(repo, inv, nil)

	user, err := svc.AssignRole(context.Background(), 9, 1, "advocate")
	require.NoError(t, err)
	require.Equal(t, "advocate", user.Role)
	require.Equal(t, []int64{1}, inv.invalidated)
}

func TestAssignRoleRejectsUnknownRole(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewService(repo, &recordingInvalidator{}, nil)

	_, err := svc.AssignRole(context.Background(), 9, 1, "superuser")
	require.ErrorIs(t, err, httpx.ErrValidation)
	require.Equal(t, "sales_rep", repo.users[1].Role)
}

func TestGetScopesToTenant(t *testing.T) {
	svc := NewService(newMemoryUserRepo(), &recordingInvalidator{}, nil)

	_, err := svc.Get(context.Background(), 2, 10, false)
	require.ErrorIs(t, err, shared.ErrNotFound)

	user, err := svc.Get(context.Background(), 2, 10, true)
	require.NoError(t, err)
	require.Equal(t, int64(2), user.ID)
}

func TestDeactivateInvalidatesIdentity(t *testing.T) {
	repo := newMemoryUserRepo()
	inv := &recordingInvalidator{}
	svc := NewService(repo, inv, nil)

	require.NoError(t, svc.Deactivate(context.Background(), 9, 1))
	require.False(t, repo.users[1].IsActive)
	require.Equal(t, []int64{1}, inv.invalidated)

	require.NoError(t, svc.Activate(context.Background(), 9, 1))
	require.True(t, repo.users[1].IsActive)
}

func TestListForTenantValidatesCompany(t *testing.T) {
	svc := NewService(newMemoryUserRepo(), &recordingInvalidator{}, nil)

	_, err := svc.ListForTenant(context.Background(), 0)
	require.ErrorIs(t, err, httpx.ErrValidation)

	out, err := svc.ListForTenant(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, out, 1)
}
