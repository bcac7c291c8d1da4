package rewards

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/peerchamps/peerchamps/internal/shared"
)

// Repository is the persistence port for the reward ledger.
type Repository interface {
	Insert(ctx context.Context, reward Reward) (Reward, error)
	Get(ctx context.Context, id int64) (Reward, error)
	ListByAdvocate(ctx context.Context, advocateID int64) ([]Reward, error)
	MarkFulfilled(ctx context.Context, id int64) error
	Balance(ctx context.Context, advocateID int64) (Balance, error)
	InsertRedemption(ctx context.Context, redemption Redemption) (Redemption, error)
	AdvocateCompany(ctx context.Context, advocateID int64) (int64, error)
	AdvocateForUser(ctx context.Context, userID int64) (int64, error)
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const rewardColumns = `id, company_id, advocate_id, call_id, amount, status, created_at`

func scanReward(row pgx.Row) (Reward, error) {
	var rw Reward
	err := row.Scan(&rw.ID, &rw.CompanyID, &rw.AdvocateID, &rw.CallID, &rw.Amount, &rw.Status, &rw.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Reward{}, shared.ErrNotFound
	}
	return rw, err
}

func (r *PGRepository) Insert(ctx context.Context, reward Reward) (Reward, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO rewards (company_id, advocate_id, call_id, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING `+rewardColumns,
		reward.CompanyID, reward.AdvocateID, reward.CallID, reward.Amount, reward.Status)
	return scanReward(row)
}

func (r *PGRepository) Get(ctx context.Context, id int64) (Reward, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+rewardColumns+` FROM rewards WHERE id = $1`, id)
	return scanReward(row)
}

func (r *PGRepository) ListByAdvocate(ctx context.Context, advocateID int64) ([]Reward, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+rewardColumns+`
		FROM rewards
		WHERE advocate_id = $1
		ORDER BY created_at DESC`, advocateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reward
	for rows.Next() {
		rw, err := scanReward(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rw)
	}
	return out, rows.Err()
}

func (r *PGRepository) MarkFulfilled(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE rewards SET status = $2 WHERE id = $1`, id, StatusFulfilled)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PGRepository) Balance(ctx context.Context, advocateID int64) (Balance, error) {
	var b Balance
	b.AdvocateID = advocateID
	err := r.pool.QueryRow(ctx, `
		SELECT
			COALESCE((SELECT SUM(amount) FROM rewards WHERE advocate_id = $1), 0),
			COALESCE((SELECT SUM(amount) FROM redemptions WHERE advocate_id = $1), 0)`,
		advocateID).Scan(&b.Earned, &b.Redeemed)
	if err != nil {
		return Balance{}, err
	}
	b.Available = b.Earned - b.Redeemed
	return b, nil
}

func (r *PGRepository) InsertRedemption(ctx context.Context, redemption Redemption) (Redemption, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO redemptions (company_id, advocate_id, amount, kind, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, company_id, advocate_id, amount, kind, created_at`,
		redemption.CompanyID, redemption.AdvocateID, redemption.Amount, redemption.Kind)
	var red Redemption
	err := row.Scan(&red.ID, &red.CompanyID, &red.AdvocateID, &red.Amount, &red.Kind, &red.CreatedAt)
	return red, err
}

func (r *PGRepository) AdvocateCompany(ctx context.Context, advocateID int64) (int64, error) {
	var companyID int64
	err := r.pool.QueryRow(ctx, `SELECT company_id FROM advocates WHERE id = $1`, advocateID).Scan(&companyID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, shared.ErrNotFound
	}
	return companyID, err
}

// AdvocateForUser maps a signed-in advocate user to their advocate record.
func (r *PGRepository) AdvocateForUser(ctx context.Context, userID int64) (int64, error) {
	var advocateID int64
	err := r.pool.QueryRow(ctx, `SELECT id FROM advocates WHERE user_id = $1`, userID).Scan(&advocateID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, shared.ErrNotFound
	}
	return advocateID, err
}
