package tenants

import (
	"context"
	"fmt"
	"strings"

	"github.com/peerchamps/peerchamps/internal/platform/httpx"
)

// Service handles company business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns all companies. Admin-only; non-admin callers never reach
// this path because handlers gate on the companies resource.
func (s *Service) List(ctx context.Context) ([]Company, error) {
	return s.repo.List(ctx)
}

// Get fetches one company.
func (s *Service) Get(ctx context.Context, id int64) (Company, error) {
	if id <= 0 {
		return Company{}, fmt.Errorf("%w: invalid company id", httpx.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// Create provisions a new tenant.
func (s *Service) Create(ctx context.Context, name, planTier string) (Company, error) {
	name = strings.TrimSpace(name)
	if err := validate(name, planTier); err != nil {
		return Company{}, err
	}
	return s.repo.Create(ctx, name, planTier)
}

// Update renames a tenant or moves it between plan tiers.
func (s *Service) Update(ctx context.Context, id int64, name, planTier string) (Company, error) {
	if id <= 0 {
		return Company{}, fmt.Errorf("%w: invalid company id", httpx.ErrValidation)
	}
	name = strings.TrimSpace(name)
	if err := validate(name, planTier); err != nil {
		return Company{}, err
	}
	return s.repo.Update(ctx, id, name, planTier)
}

func validate(name, planTier string) error {
	if name == "" {
		return fmt.Errorf("%w: company name is required", httpx.ErrValidation)
	}
	if !ValidPlanTier(planTier) {
		return fmt.Errorf("%w: unknown plan tier %q", httpx.ErrValidation, planTier)
	}
	return nil
}
