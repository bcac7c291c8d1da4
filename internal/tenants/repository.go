package tenants

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/peerchamps/peerchamps/internal/shared"
)

// Repository defines persistence for companies.
type Repository interface {
	List(ctx context.Context) ([]Company, error)
	Get(ctx context.Context, id int64) (Company, error)
	Create(ctx context.Context, name, planTier string) (Company, error)
	Update(ctx context.Context, id int64, name, planTier string) (Company, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context) ([]Company, error) {
	const query = `SELECT id, name, plan_tier, created_at, updated_at FROM companies ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.Name, &c.PlanTier, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Company, error) {
	const query = `SELECT id, name, plan_tier, created_at, updated_at FROM companies WHERE id = $1`
	var c Company
	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.PlanTier, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, shared.ErrNotFound
		}
		return Company{}, err
	}
	return c, nil
}

func (r *repository) Create(ctx context.Context, name, planTier string) (Company, error) {
	const query = `INSERT INTO companies (name, plan_tier, created_at, updated_at) VALUES ($1, $2, NOW(), NOW()) RETURNING id, name, plan_tier, created_at, updated_at`
	var c Company
	err := r.pool.QueryRow(ctx, query, name, planTier).Scan(&c.ID, &c.Name, &c.PlanTier, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Company{}, err
	}
	return c, nil
}

func (r *repository) Update(ctx context.Context, id int64, name, planTier string) (Company, error) {
	const query = `UPDATE companies SET name = $2, plan_tier = $3, updated_at = $4 WHERE id = $1 RETURNING id, name, plan_tier, created_at, updated_at`
	var c Company
	err := r.pool.QueryRow(ctx, query, id, name, planTier, time.Now()).Scan(&c.ID, &c.Name, &c.PlanTier, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, shared.ErrNotFound
		}
		return Company{}, err
	}
	return c, nil
}
