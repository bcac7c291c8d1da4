package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/peerchamps/peerchamps/internal/rbac"
	"github.com/peerchamps/peerchamps/internal/shared"
)

// Service performs principal/role/tenant lookups with short-lived caching.
// Concurrent lookups for the same key are collapsed through singleflight;
// the cache TTL bounds how stale a role assignment may be served, so an
// externally updated role takes effect on the next refresh rather than
// being cached for the session's whole lifetime.
type Service struct {
	store  Store
	logger *slog.Logger
	ttl    time.Duration
	now    func() time.Time

	sf singleflight.Group

	mu          sync.Mutex
	memberships map[int64]Membership
	tenants     map[int64]tenantEntry
}

type tenantEntry struct {
	tenant    *Tenant
	fetchedAt time.Time
}

// NewService constructs a Service. A non-positive ttl disables caching.
func NewService(store Store, logger *slog.Logger, ttl time.Duration) *Service {
	return &Service{
		store:       store,
		logger:      logger,
		ttl:         ttl,
		now:         time.Now,
		memberships: make(map[int64]Membership),
		tenants:     make(map[int64]tenantEntry),
	}
}

// Principal fetches the principal row. A missing or inactive user is
// reported as shared.ErrNotFound; the resolver maps that to anonymous.
func (s *Service) Principal(ctx context.Context, id int64) (*Principal, error) {
	v, err, _ := s.sf.Do(fmt.Sprintf("principal:%d", id), func() (any, error) {
		return s.store.GetPrincipal(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Principal), nil
}

// Membership returns the role and company assignment for a principal.
// Store failures and missing rows are logged and reported as ok=false,
// which downstream authorization treats as deny.
func (s *Service) Membership(ctx context.Context, principalID int64) (Membership, bool) {
	s.mu.Lock()
	if m, ok := s.memberships[principalID]; ok && s.fresh(m.FetchedAt) {
		s.mu.Unlock()
		return m, true
	}
	s.mu.Unlock()

	v, err, _ := s.sf.Do(fmt.Sprintf("membership:%d", principalID), func() (any, error) {
		return s.store.GetMembership(ctx, principalID)
	})
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.log().Warn("membership row missing", slog.Int64("principal_id", principalID))
		} else {
			s.log().Warn("membership lookup failed", slog.Int64("principal_id", principalID), slog.Any("error", err))
		}
		return Membership{}, false
	}

	m := v.(Membership)
	if !m.Role.Valid() {
		s.log().Warn("unrecognised role for principal", slog.Int64("principal_id", principalID))
		return Membership{}, false
	}
	m.FetchedAt = s.now()

	s.mu.Lock()
	s.memberships[principalID] = m
	s.mu.Unlock()
	return m, true
}

// Role is a convenience over Membership returning just the role.
func (s *Service) Role(ctx context.Context, principalID int64) (rbac.Role, bool) {
	m, ok := s.Membership(ctx, principalID)
	if !ok {
		return "", false
	}
	return m.Role, true
}

// Tenant returns the company record, nil when it cannot be resolved.
func (s *Service) Tenant(ctx context.Context, companyID int64) *Tenant {
	s.mu.Lock()
	if e, ok := s.tenants[companyID]; ok && s.fresh(e.fetchedAt) {
		s.mu.Unlock()
		return e.tenant
	}
	s.mu.Unlock()

	v, err, _ := s.sf.Do(fmt.Sprintf("tenant:%d", companyID), func() (any, error) {
		return s.store.GetTenant(ctx, companyID)
	})
	if err != nil {
		s.log().Warn("tenant lookup failed", slog.Int64("company_id", companyID), slog.Any("error", err))
		return nil
	}

	tenant := v.(*Tenant)
	s.mu.Lock()
	s.tenants[companyID] = tenantEntry{tenant: tenant, fetchedAt: s.now()}
	s.mu.Unlock()
	return tenant
}

// Invalidate drops cached state for a principal. Called on sign-out and
// after role reassignment.
func (s *Service) Invalidate(principalID int64) {
	s.mu.Lock()
	delete(s.memberships, principalID)
	s.mu.Unlock()
}

// InvalidateTenant drops a cached company record.
func (s *Service) InvalidateTenant(companyID int64) {
	s.mu.Lock()
	delete(s.tenants, companyID)
	s.mu.Unlock()
}

func (s *Service) fresh(fetchedAt time.Time) bool {
	if s.ttl <= 0 {
		return false
	}
	return s.now().Sub(fetchedAt) < s.ttl
}

func (s *Service) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
