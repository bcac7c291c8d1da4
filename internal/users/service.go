package users

import (
	"context"
	"fmt"

	"github.com/peerchamps/peerchamps/internal/platform/httpx"
	"github.com/peerchamps/peerchamps/internal/rbac"
	"github.com/peerchamps/peerchamps/internal/shared"
)

// RoleInvalidator drops cached role/tenant state for a principal after an
// assignment change so the new role is re-fetched, not served stale.
type RoleInvalidator interface {
	Invalidate(principalID int64)
}

// Service handles user business logic.
type Service struct {
	repo        RepositoryPort
	invalidator RoleInvalidator
	audit       *shared.AuditLogger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, invalidator RoleInvalidator, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, invalidator: invalidator, audit: audit}
}

// ListForTenant returns the users visible to the caller's tenant. Admins may
// pass any company; other roles are pinned to their own by the handler.
func (s *Service) ListForTenant(ctx context.Context, companyID int64) ([]User, error) {
	if companyID <= 0 {
		return nil, fmt.Errorf("%w: invalid company id", httpx.ErrValidation)
	}
	return s.repo.ListByCompany(ctx, companyID)
}

// Get fetches a user, enforcing tenant scoping for non-admin callers.
func (s *Service) Get(ctx context.Context, id, callerCompanyID int64, callerIsAdmin bool) (User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if !callerIsAdmin && user.CompanyID != callerCompanyID {
		// Cross-tenant reads surface as not-found, not as a hint that the
		// record exists elsewhere.
		return User{}, shared.ErrNotFound
	}
	return user, nil
}

// EmailFor returns the address background jobs should notify a user at.
func (s *Service) EmailFor(ctx context.Context, userID int64) (string, error) {
	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}

// AssignRole changes a user's role. The assignment takes effect on the next
// identity refresh; cached snapshots for the user are invalidated here.
func (s *Service) AssignRole(ctx context.Context, actorID, userID int64, role string) (User, error) {
	if _, ok := rbac.ParseRole(role); !ok {
		return User{}, fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, role)
	}
	if err := s.repo.UpdateRole(ctx, userID, role); err != nil {
		return User{}, err
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(userID)
	}
	s.recordAudit(ctx, actorID, userID, "users.assign_role", map[string]any{"role": role})
	return s.repo.Get(ctx, userID)
}

// Deactivate disables an account. Their sessions resolve to anonymous on
// next request.
func (s *Service) Deactivate(ctx context.Context, actorID, userID int64) error {
	if err := s.repo.SetActive(ctx, userID, false); err != nil {
		return err
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(userID)
	}
	s.recordAudit(ctx, actorID, userID, "users.deactivate", nil)
	return nil
}

// Activate re-enables an account.
func (s *Service) Activate(ctx context.Context, actorID, userID int64) error {
	if err := s.repo.SetActive(ctx, userID, true); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, userID, "users.activate", nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID, userID int64, action string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "users",
		EntityID: fmt.Sprintf("%d", userID),
		Meta:     meta,
	})
}
