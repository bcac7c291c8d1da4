// Package rewards keeps the advocate reward ledger: credits accrued for
// completed reference calls and redemptions spending the balance.
package rewards

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/peerchamps/peerchamps/internal/platform/httpx"
	"github.com/peerchamps/peerchamps/internal/shared"
)

type Service struct {
	repo   Repository
	audit  *shared.AuditLogger
	logger *slog.Logger
}

func NewService(repo Repository, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// Accrue credits an advocate for a completed call and returns the reward id
// so fulfillment can be queued.
func (s *Service) Accrue(ctx context.Context, companyID, advocateID, callID int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: reward amount must be positive", httpx.ErrValidation)
	}
	rw, err := s.repo.Insert(ctx, Reward{
		CompanyID:  companyID,
		AdvocateID: advocateID,
		CallID:     callID,
		Amount:     amount,
		Status:     StatusPending,
	})
	if err != nil {
		return 0, err
	}
	return rw.ID, nil
}

// Fulfill marks a pending reward as paid out. The background worker calls
// this once the payout provider confirms.
func (s *Service) Fulfill(ctx context.Context, rewardID int64) error {
	return s.repo.MarkFulfilled(ctx, rewardID)
}

func (s *Service) ListForAdvocate(ctx context.Context, advocateID, callerCompanyID int64, callerIsAdmin bool) ([]Reward, error) {
	if err := s.checkScope(ctx, advocateID, callerCompanyID, callerIsAdmin); err != nil {
		return nil, err
	}
	return s.repo.ListByAdvocate(ctx, advocateID)
}

func (s *Service) BalanceFor(ctx context.Context, advocateID, callerCompanyID int64, callerIsAdmin bool) (Balance, error) {
	if err := s.checkScope(ctx, advocateID, callerCompanyID, callerIsAdmin); err != nil {
		return Balance{}, err
	}
	return s.repo.Balance(ctx, advocateID)
}

// Redeem spends part of an advocate's available balance. Overdrawing is
// rejected rather than clamped.
func (s *Service) Redeem(ctx context.Context, actorID, advocateID, callerCompanyID int64, callerIsAdmin bool, amount int64, kind string) (Redemption, error) {
	if amount <= 0 {
		return Redemption{}, fmt.Errorf("%w: redemption amount must be positive", httpx.ErrValidation)
	}
	if !validKind(kind) {
		return Redemption{}, fmt.Errorf("%w: unknown redemption kind %q", httpx.ErrValidation, kind)
	}
	if err := s.checkScope(ctx, advocateID, callerCompanyID, callerIsAdmin); err != nil {
		return Redemption{}, err
	}

	balance, err := s.repo.Balance(ctx, advocateID)
	if err != nil {
		return Redemption{}, err
	}
	if amount > balance.Available {
		return Redemption{}, fmt.Errorf("%w: insufficient balance (%d available)", httpx.ErrConflict, balance.Available)
	}

	companyID, err := s.repo.AdvocateCompany(ctx, advocateID)
	if err != nil {
		return Redemption{}, err
	}
	red, err := s.repo.InsertRedemption(ctx, Redemption{
		CompanyID:  companyID,
		AdvocateID: advocateID,
		Amount:     amount,
		Kind:       kind,
	})
	if err != nil {
		return Redemption{}, err
	}

	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:   actorID,
			CompanyID: companyID,
			Action:    "rewards.redeem",
			Entity:    "redemption",
			EntityID:  strconv.FormatInt(red.ID, 10),
			Meta:      map[string]any{"amount": amount, "kind": kind},
		}); err != nil {
			s.logger.Warn("audit record failed", slog.String("action", "rewards.redeem"), slog.Any("error", err))
		}
	}
	return red, nil
}

// AdvocateForUser resolves which advocate profile belongs to a user, so
// advocate-role callers can only touch their own ledger.
func (s *Service) AdvocateForUser(ctx context.Context, userID int64) (int64, error) {
	return s.repo.AdvocateForUser(ctx, userID)
}

func (s *Service) checkScope(ctx context.Context, advocateID, callerCompanyID int64, callerIsAdmin bool) error {
	companyID, err := s.repo.AdvocateCompany(ctx, advocateID)
	if err != nil {
		return err
	}
	if !callerIsAdmin && companyID != callerCompanyID {
		return shared.ErrNotFound
	}
	return nil
}
