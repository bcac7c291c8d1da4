package opportunities

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/peerchamps/peerchamps/internal/shared"
)

// Repository defines persistence for opportunities.
type Repository interface {
	ListByCompany(ctx context.Context, companyID int64) ([]Opportunity, error)
	Get(ctx context.Context, id int64) (Opportunity, error)
	Create(ctx context.Context, o Opportunity) (Opportunity, error)
	Update(ctx context.Context, o Opportunity) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const oppColumns = `id, company_id, owner_id, account_name, stage, amount, close_date, created_at, updated_at`

func (r *repository) ListByCompany(ctx context.Context, companyID int64) ([]Opportunity, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+oppColumns+` FROM opportunities WHERE company_id = $1 ORDER BY updated_at DESC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var opps []Opportunity
	for rows.Next() {
		var o Opportunity
		if err := rows.Scan(&o.ID, &o.CompanyID, &o.OwnerID, &o.AccountName, &o.Stage, &o.Amount, &o.CloseDate, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		opps = append(opps, o)
	}
	return opps, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Opportunity, error) {
	var o Opportunity
	err := r.pool.QueryRow(ctx, `SELECT `+oppColumns+` FROM opportunities WHERE id = $1`, id).
		Scan(&o.ID, &o.CompanyID, &o.OwnerID, &o.AccountName, &o.Stage, &o.Amount, &o.CloseDate, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Opportunity{}, shared.ErrNotFound
		}
		return Opportunity{}, err
	}
	return o, nil
}

func (r *repository) Create(ctx context.Context, o Opportunity) (Opportunity, error) {
	const query = `INSERT INTO opportunities (company_id, owner_id, account_name, stage, amount, close_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING ` + oppColumns
	var out Opportunity
	err := r.pool.QueryRow(ctx, query, o.CompanyID, o.OwnerID, o.AccountName, o.Stage, o.Amount, o.CloseDate).
		Scan(&out.ID, &out.CompanyID, &out.OwnerID, &out.AccountName, &out.Stage, &out.Amount, &out.CloseDate, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return Opportunity{}, err
	}
	return out, nil
}

func (r *repository) Update(ctx context.Context, o Opportunity) error {
	const query = `UPDATE opportunities SET account_name = $2, stage = $3, amount = $4, close_date = $5, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, o.ID, o.AccountName, o.Stage, o.Amount, o.CloseDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
