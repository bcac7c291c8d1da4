package calls

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/peerchamps/peerchamps/internal/advocates"
	"github.com/peerchamps/peerchamps/internal/platform/httpx"
	"github.com/peerchamps/peerchamps/internal/shared"
)

// Repository is the persistence port for reference calls.
type Repository interface {
	ListByCompany(ctx context.Context, companyID int64) ([]ReferenceCall, error)
	Get(ctx context.Context, id int64) (ReferenceCall, error)
	Create(ctx context.Context, call ReferenceCall) (ReferenceCall, error)
	UpdateStatus(ctx context.Context, id int64, status string, notes string) (ReferenceCall, error)
	BusyIntervals(ctx context.Context, advocateID int64, from, to time.Time) ([]advocates.BusyInterval, error)
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const callColumns = `id, company_id, opportunity_id, advocate_id, requested_by, scheduled_at, duration_min, status, COALESCE(notes, ''), created_at, updated_at`

func scanCall(row pgx.Row) (ReferenceCall, error) {
	var c ReferenceCall
	err := row.Scan(&c.ID, &c.CompanyID, &c.OpportunityID, &c.AdvocateID, &c.RequestedBy,
		&c.ScheduledAt, &c.DurationMin, &c.Status, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ReferenceCall{}, shared.ErrNotFound
	}
	return c, err
}

func (r *PGRepository) ListByCompany(ctx context.Context, companyID int64) ([]ReferenceCall, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+callColumns+`
		FROM reference_calls
		WHERE company_id = $1
		ORDER BY scheduled_at DESC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ReferenceCall
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PGRepository) Get(ctx context.Context, id int64) (ReferenceCall, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+callColumns+`
		FROM reference_calls
		WHERE id = $1`, id)
	return scanCall(row)
}

// Create inserts a scheduled call. The reference_calls_no_overlap exclusion
// constraint is the authority on double-booking: two racing inserts for
// overlapping windows both pass the service's availability read, and the
// loser surfaces here as a conflict.
func (r *PGRepository) Create(ctx context.Context, call ReferenceCall) (ReferenceCall, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO reference_calls
			(company_id, opportunity_id, advocate_id, requested_by, scheduled_at, duration_min, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NOW(), NOW())
		RETURNING `+callColumns,
		call.CompanyID, call.OpportunityID, call.AdvocateID, call.RequestedBy,
		call.ScheduledAt, call.DurationMin, call.Status, call.Notes)
	c, err := scanCall(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && (pgErr.Code == "23P01" || pgErr.Code == "23505") {
			return ReferenceCall{}, fmt.Errorf("%w: advocate already booked in this window", httpx.ErrConflict)
		}
		return ReferenceCall{}, err
	}
	return c, nil
}

func (r *PGRepository) UpdateStatus(ctx context.Context, id int64, status string, notes string) (ReferenceCall, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE reference_calls
		SET status = $2,
		    notes = COALESCE(NULLIF($3, ''), notes),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+callColumns, id, status, notes)
	return scanCall(row)
}

// ListUpcoming returns scheduled calls starting inside [from, to), across
// all tenants. The worker's reminder sweep reads it.
func (r *PGRepository) ListUpcoming(ctx context.Context, from, to time.Time) ([]ReferenceCall, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+callColumns+`
		FROM reference_calls
		WHERE status = $1
		  AND scheduled_at >= $2
		  AND scheduled_at < $3
		ORDER BY scheduled_at`, StatusScheduled, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ReferenceCall
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// BusyIntervals reports scheduled call windows for an advocate inside
// [from, to). It backs slot expansion in the advocates package.
func (r *PGRepository) BusyIntervals(ctx context.Context, advocateID int64, from, to time.Time) ([]advocates.BusyInterval, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT scheduled_at, duration_min
		FROM reference_calls
		WHERE advocate_id = $1
		  AND status = $2
		  AND scheduled_at < $4
		  AND scheduled_at + make_interval(mins => duration_min) > $3
		ORDER BY scheduled_at`, advocateID, StatusScheduled, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []advocates.BusyInterval
	for rows.Next() {
		var start time.Time
		var mins int
		if err := rows.Scan(&start, &mins); err != nil {
			return nil, err
		}
		out = append(out, advocates.BusyInterval{
			Start: start,
			End:   start.Add(time.Duration(mins) * time.Minute),
		})
	}
	return out, rows.Err()
}
