// Package audit serves the admin-facing audit trail built from the rows
// the other services record through shared.AuditLogger.
package audit

import (
	"context"
	"fmt"

	"github.com/peerchamps/peerchamps/internal/platform/httpx"
	"github.com/peerchamps/peerchamps/internal/shared"
)

// Result bundles a page of the trail with paging metadata.
type Result struct {
	Entries    []Entry           `json:"entries"`
	Pagination shared.Pagination `json:"pagination"`
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Timeline returns a page of the tenant's audit trail, newest first.
func (s *Service) Timeline(ctx context.Context, f Filters) (Result, error) {
	if f.CompanyID <= 0 {
		return Result{}, fmt.Errorf("%w: company is required", httpx.ErrValidation)
	}
	if !f.From.IsZero() && !f.To.IsZero() && !f.From.Before(f.To) {
		return Result{}, fmt.Errorf("%w: from must precede to", httpx.ErrValidation)
	}
	if f.PageSize <= 0 {
		f.PageSize = 20
	}
	if f.PageSize > 50 {
		f.PageSize = 50
	}
	if f.Page <= 0 {
		f.Page = 1
	}

	total, err := s.repo.Count(ctx, f)
	if err != nil {
		return Result{}, err
	}
	entries, err := s.repo.List(ctx, f, (f.Page-1)*f.PageSize, f.PageSize)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Entries:    entries,
		Pagination: shared.NewPagination(f.Page, f.PageSize, total),
	}, nil
}
