package audit

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the audit trail.
type Repository interface {
	List(ctx context.Context, f Filters, offset, limit int) ([]Entry, error)
	Count(ctx context.Context, f Filters) (int, error)
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// filterClause builds the WHERE tail shared by List and Count. Positional
// args start at $1.
func filterClause(f Filters) (string, []any) {
	clause := ` WHERE company_id = $1`
	args := []any{f.CompanyID}
	add := func(cond string, v any) {
		args = append(args, v)
		clause += cond
	}
	if f.ActorID > 0 {
		add(` AND actor_id = $`+itoa(len(args)+1), f.ActorID)
	}
	if f.Entity != "" {
		add(` AND entity = $`+itoa(len(args)+1), f.Entity)
	}
	if f.Action != "" {
		add(` AND action = $`+itoa(len(args)+1), f.Action)
	}
	if !f.From.IsZero() {
		add(` AND occurred_at >= $`+itoa(len(args)+1), f.From)
	}
	if !f.To.IsZero() {
		add(` AND occurred_at < $`+itoa(len(args)+1), f.To)
	}
	return clause, args
}

func (r *PGRepository) List(ctx context.Context, f Filters, offset, limit int) ([]Entry, error) {
	clause, args := filterClause(f)
	query := `SELECT id, actor_id, company_id, action, entity, entity_id, meta, occurred_at FROM audit_logs` +
		clause +
		` ORDER BY occurred_at DESC, id DESC` +
		` OFFSET $` + itoa(len(args)+1) + ` LIMIT $` + itoa(len(args)+2)
	args = append(args, offset, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var meta []byte
		if err := rows.Scan(&e.ID, &e.ActorID, &e.CompanyID, &e.Action, &e.Entity, &e.EntityID, &meta, &e.At); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &e.Meta)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PGRepository) Count(ctx context.Context, f Filters) (int, error) {
	clause, args := filterClause(f)
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs`+clause, args...).Scan(&total)
	return total, err
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
