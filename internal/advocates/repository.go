package advocates

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/peerchamps/peerchamps/internal/platform/httpx"
	"github.com/peerchamps/peerchamps/internal/shared"
)

// Repository defines persistence for advocates and their availability.
type Repository interface {
	ListByCompany(ctx context.Context, companyID int64) ([]Advocate, error)
	Get(ctx context.Context, id int64) (Advocate, error)
	Create(ctx context.Context, a Advocate) (Advocate, error)
	Update(ctx context.Context, a Advocate) error
	ListWindows(ctx context.Context, advocateID int64) ([]AvailabilityWindow, error)
	ReplaceWindows(ctx context.Context, advocateID int64, windows []AvailabilityWindow) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const advocateColumns = `id, company_id, user_id, name, title, account_id, timezone, is_active, created_at, updated_at`

func (r *repository) ListByCompany(ctx context.Context, companyID int64) ([]Advocate, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+advocateColumns+` FROM advocates WHERE company_id = $1 AND is_active ORDER BY name`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var advocates []Advocate
	for rows.Next() {
		var a Advocate
		if err := rows.Scan(&a.ID, &a.CompanyID, &a.UserID, &a.Name, &a.Title, &a.AccountID, &a.Timezone, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		advocates = append(advocates, a)
	}
	return advocates, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Advocate, error) {
	var a Advocate
	err := r.pool.QueryRow(ctx, `SELECT `+advocateColumns+` FROM advocates WHERE id = $1`, id).
		Scan(&a.ID, &a.CompanyID, &a.UserID, &a.Name, &a.Title, &a.AccountID, &a.Timezone, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Advocate{}, shared.ErrNotFound
		}
		return Advocate{}, err
	}
	return a, nil
}

func (r *repository) Create(ctx context.Context, a Advocate) (Advocate, error) {
	const query = `INSERT INTO advocates (company_id, user_id, name, title, account_id, timezone, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, true, NOW(), NOW())
		RETURNING ` + advocateColumns
	var out Advocate
	err := r.pool.QueryRow(ctx, query, a.CompanyID, a.UserID, a.Name, a.Title, a.AccountID, a.Timezone).
		Scan(&out.ID, &out.CompanyID, &out.UserID, &out.Name, &out.Title, &out.AccountID, &out.Timezone, &out.IsActive, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Advocate{}, httpx.ErrDuplicate
		}
		return Advocate{}, err
	}
	return out, nil
}

func (r *repository) Update(ctx context.Context, a Advocate) error {
	const query = `UPDATE advocates SET name = $2, title = $3, account_id = $4, timezone = $5, is_active = $6, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, a.ID, a.Name, a.Title, a.AccountID, a.Timezone, a.IsActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) ListWindows(ctx context.Context, advocateID int64) ([]AvailabilityWindow, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, advocate_id, weekday, start_minute, end_minute FROM availability_windows WHERE advocate_id = $1 ORDER BY weekday, start_minute`, advocateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var windows []AvailabilityWindow
	for rows.Next() {
		var w AvailabilityWindow
		var weekday int
		if err := rows.Scan(&w.ID, &w.AdvocateID, &weekday, &w.StartMinute, &w.EndMinute); err != nil {
			return nil, err
		}
		w.Weekday = time.Weekday(weekday)
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

func (r *repository) ReplaceWindows(ctx context.Context, advocateID int64, windows []AvailabilityWindow) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM availability_windows WHERE advocate_id = $1`, advocateID); err != nil {
		return err
	}
	for _, w := range windows {
		if _, err := tx.Exec(ctx,
			`INSERT INTO availability_windows (advocate_id, weekday, start_minute, end_minute) VALUES ($1, $2, $3, $4)`,
			advocateID, int(w.Weekday), w.StartMinute, w.EndMinute,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
