package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/peerchamps/peerchamps/internal/rbac"
	"github.com/peerchamps/peerchamps/internal/shared"
)

// Store defines the external principal/role/tenant lookups. Each lookup is
// a single-row query keyed by identifier; at most one row per principal.
type Store interface {
	GetPrincipal(ctx context.Context, id int64) (*Principal, error)
	GetMembership(ctx context.Context, principalID int64) (Membership, error)
	GetTenant(ctx context.Context, companyID int64) (*Tenant, error)
}

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewStore constructs a PostgreSQL-backed store.
func NewStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// GetPrincipal fetches the principal row for an active user.
func (s *PGStore) GetPrincipal(ctx context.Context, id int64) (*Principal, error) {
	const query = `SELECT id, email FROM users WHERE id = $1 AND is_active`
	var p Principal
	if err := s.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetMembership fetches the role and company assignment for a principal.
// A row with an unrecognised role string yields the invalid zero role; the
// caller decides how to report it.
func (s *PGStore) GetMembership(ctx context.Context, principalID int64) (Membership, error) {
	const query = `SELECT role, company_id FROM users WHERE id = $1`
	var (
		roleStr   string
		companyID int64
	)
	if err := s.pool.QueryRow(ctx, query, principalID).Scan(&roleStr, &companyID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Membership{}, shared.ErrNotFound
		}
		return Membership{}, err
	}
	role, _ := rbac.ParseRole(roleStr)
	return Membership{Role: role, CompanyID: companyID}, nil
}

// GetTenant fetches a company record.
func (s *PGStore) GetTenant(ctx context.Context, companyID int64) (*Tenant, error) {
	const query = `SELECT id, name, plan_tier FROM companies WHERE id = $1`
	var t Tenant
	if err := s.pool.QueryRow(ctx, query, companyID).Scan(&t.ID, &t.Name, &t.PlanTier); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

var _ Store = (*PGStore)(nil)
