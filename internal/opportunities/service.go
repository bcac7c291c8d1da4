package opportunities

import (
	"context"
	"fmt"
	"strings"

	"github.com/peerchamps/peerchamps/internal/platform/httpx"
	"github.com/peerchamps/peerchamps/internal/shared"
)

// Service handles opportunity business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListForTenant returns the tenant's opportunities.
func (s *Service) ListForTenant(ctx context.Context, companyID int64) ([]Opportunity, error) {
	if companyID <= 0 {
		return nil, fmt.Errorf("%w: invalid company id", httpx.ErrValidation)
	}
	return s.repo.ListByCompany(ctx, companyID)
}

// Get fetches an opportunity, enforcing tenant scoping for non-admins.
func (s *Service) Get(ctx context.Context, id, callerCompanyID int64, callerIsAdmin bool) (Opportunity, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return Opportunity{}, err
	}
	if !callerIsAdmin && o.CompanyID != callerCompanyID {
		return Opportunity{}, shared.ErrNotFound
	}
	return o, nil
}

// OpportunityCompany reports which tenant owns the opportunity. The calls
// package uses it to verify a booking stays within one tenant.
func (s *Service) OpportunityCompany(ctx context.Context, opportunityID int64) (int64, error) {
	o, err := s.repo.Get(ctx, opportunityID)
	if err != nil {
		return 0, err
	}
	return o.CompanyID, nil
}

// Create records a new opportunity owned by the calling rep.
func (s *Service) Create(ctx context.Context, o Opportunity) (Opportunity, error) {
	if err := validate(o); err != nil {
		return Opportunity{}, err
	}
	if o.Stage == "" {
		o.Stage = StageDiscovery
	}
	return s.repo.Create(ctx, o)
}

// Update edits an opportunity within the caller's tenant.
func (s *Service) Update(ctx context.Context, o Opportunity, callerCompanyID int64, callerIsAdmin bool) error {
	current, err := s.Get(ctx, o.ID, callerCompanyID, callerIsAdmin)
	if err != nil {
		return err
	}
	o.CompanyID = current.CompanyID
	if err := validate(o); err != nil {
		return err
	}
	return s.repo.Update(ctx, o)
}

func validate(o Opportunity) error {
	if o.CompanyID <= 0 {
		return fmt.Errorf("%w: company is required", httpx.ErrValidation)
	}
	if strings.TrimSpace(o.AccountName) == "" {
		return fmt.Errorf("%w: account name is required", httpx.ErrValidation)
	}
	if o.Stage != "" && !ValidStage(o.Stage) {
		return fmt.Errorf("%w: unknown stage %q", httpx.ErrValidation, o.Stage)
	}
	if o.Amount < 0 {
		return fmt.Errorf("%w: amount must not be negative", httpx.ErrValidation)
	}
	return nil
}
