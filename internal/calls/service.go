// Package calls implements reference-call booking: a sales rep picks a free
// slot on an advocate's calendar, the service verifies the slot is still
// available, and the call moves through scheduled, completed and canceled.
// Completing a call accrues a reward for the advocate.
package calls

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/peerchamps/peerchamps/internal/advocates"
	"github.com/peerchamps/peerchamps/internal/platform/httpx"
	"github.com/peerchamps/peerchamps/internal/shared"
)

// AdvocateDirectory is the slice of the advocates service the booking flow
// needs: tenant-scoped lookup plus free-slot expansion.
type AdvocateDirectory interface {
	Get(ctx context.Context, id, callerCompanyID int64, callerIsAdmin bool) (advocates.Advocate, error)
	Slots(ctx context.Context, advocateID int64, from, to time.Time) ([]advocates.Slot, error)
}

// OpportunityDirectory resolves the opportunity a call is attached to.
type OpportunityDirectory interface {
	OpportunityCompany(ctx context.Context, opportunityID int64) (int64, error)
}

// RewardAccruer credits an advocate after a completed call.
type RewardAccruer interface {
	Accrue(ctx context.Context, companyID, advocateID, callID int64, amount int64) (int64, error)
}

// Scheduler hands reminder and fulfillment work to the background queue.
// A nil scheduler disables both, which the tests rely on.
type Scheduler interface {
	ScheduleCallReminder(ctx context.Context, callID int64, remindAt time.Time) error
	EnqueueRewardFulfillment(ctx context.Context, rewardID int64) error
}

// BookingMetrics counts bookings and accruals. The observability package
// provides the production implementation.
type BookingMetrics interface {
	CallBooked()
	RewardAccrued()
}

type Service struct {
	repo          Repository
	advocates     AdvocateDirectory
	opportunities OpportunityDirectory
	rewards       RewardAccruer
	scheduler     Scheduler
	audit         *shared.AuditLogger
	logger        *slog.Logger
	metrics       BookingMetrics

	rewardAmount int64
	reminderLead time.Duration
	now          func() time.Time
}

// Config tunes booking policy. Zero values fall back to sane defaults.
type Config struct {
	RewardAmount int64         // points credited per completed call
	ReminderLead time.Duration // how far before the call the reminder fires
}

func NewService(
	repo Repository,
	adv AdvocateDirectory,
	opp OpportunityDirectory,
	rewards RewardAccruer,
	scheduler Scheduler,
	audit *shared.AuditLogger,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if cfg.RewardAmount <= 0 {
		cfg.RewardAmount = 50
	}
	if cfg.ReminderLead <= 0 {
		cfg.ReminderLead = time.Hour
	}
	return &Service{
		repo:          repo,
		advocates:     adv,
		opportunities: opp,
		rewards:       rewards,
		scheduler:     scheduler,
		audit:         audit,
		logger:        logger,
		rewardAmount:  cfg.RewardAmount,
		reminderLead:  cfg.ReminderLead,
		now:           time.Now,
	}
}

// SetMetrics attaches booking counters. Optional; tests leave it unset.
func (s *Service) SetMetrics(m BookingMetrics) {
	s.metrics = m
}

func (s *Service) ListForTenant(ctx context.Context, companyID int64) ([]ReferenceCall, error) {
	return s.repo.ListByCompany(ctx, companyID)
}

func (s *Service) Get(ctx context.Context, id, callerCompanyID int64, callerIsAdmin bool) (ReferenceCall, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return ReferenceCall{}, err
	}
	if !callerIsAdmin && c.CompanyID != callerCompanyID {
		return ReferenceCall{}, shared.ErrNotFound
	}
	return c, nil
}

// Book schedules a reference call. The requested window must sit entirely
// inside one of the advocate's free slots, which already exclude existing
// scheduled calls.
func (s *Service) Book(ctx context.Context, in BookInput) (ReferenceCall, error) {
	if err := s.validateBooking(in); err != nil {
		return ReferenceCall{}, err
	}

	adv, err := s.advocates.Get(ctx, in.AdvocateID, in.CompanyID, false)
	if err != nil {
		return ReferenceCall{}, err
	}
	if !adv.IsActive {
		return ReferenceCall{}, fmt.Errorf("%w: advocate is not active", httpx.ErrConflict)
	}

	oppCompany, err := s.opportunities.OpportunityCompany(ctx, in.OpportunityID)
	if err != nil {
		return ReferenceCall{}, err
	}
	if oppCompany != in.CompanyID {
		return ReferenceCall{}, shared.ErrNotFound
	}

	start := in.ScheduledAt.UTC()
	end := start.Add(time.Duration(in.DurationMin) * time.Minute)
	free, err := s.advocates.Slots(ctx, in.AdvocateID, start, end)
	if err != nil {
		return ReferenceCall{}, err
	}
	if !covered(free, start, end) {
		return ReferenceCall{}, fmt.Errorf("%w: requested time is not available", httpx.ErrConflict)
	}

	call, err := s.repo.Create(ctx, ReferenceCall{
		CompanyID:     in.CompanyID,
		OpportunityID: in.OpportunityID,
		AdvocateID:    in.AdvocateID,
		RequestedBy:   in.RequestedBy,
		ScheduledAt:   start,
		DurationMin:   in.DurationMin,
		Status:        StatusScheduled,
		Notes:         in.Notes,
	})
	if err != nil {
		return ReferenceCall{}, err
	}

	if s.metrics != nil {
		s.metrics.CallBooked()
	}
	if s.scheduler != nil {
		remindAt := call.ScheduledAt.Add(-s.reminderLead)
		if err := s.scheduler.ScheduleCallReminder(ctx, call.ID, remindAt); err != nil {
			s.logger.Warn("call reminder not scheduled", slog.Int64("call_id", call.ID), slog.Any("error", err))
		}
	}
	s.recordAudit(ctx, in.RequestedBy, call.CompanyID, "calls.book", call.ID)
	return call, nil
}

// Complete marks a scheduled call done and credits the advocate's reward
// balance. Fulfillment runs in the background so a queue outage does not
// lose the accrual.
func (s *Service) Complete(ctx context.Context, id, actorID, callerCompanyID int64, callerIsAdmin bool, notes string) (ReferenceCall, error) {
	call, err := s.Get(ctx, id, callerCompanyID, callerIsAdmin)
	if err != nil {
		return ReferenceCall{}, err
	}
	if call.Status != StatusScheduled {
		return ReferenceCall{}, fmt.Errorf("%w: call is %s", httpx.ErrConflict, call.Status)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, StatusCompleted, notes)
	if err != nil {
		return ReferenceCall{}, err
	}

	rewardID, err := s.rewards.Accrue(ctx, call.CompanyID, call.AdvocateID, call.ID, s.rewardAmount)
	if err != nil {
		s.logger.Error("reward accrual failed", slog.Int64("call_id", call.ID), slog.Any("error", err))
	} else {
		if s.metrics != nil {
			s.metrics.RewardAccrued()
		}
		if s.scheduler != nil {
			if err := s.scheduler.EnqueueRewardFulfillment(ctx, rewardID); err != nil {
				s.logger.Warn("reward fulfillment not enqueued", slog.Int64("reward_id", rewardID), slog.Any("error", err))
			}
		}
	}
	s.recordAudit(ctx, actorID, call.CompanyID, "calls.complete", call.ID)
	return updated, nil
}

// Cancel aborts a scheduled call, freeing the advocate's slot.
func (s *Service) Cancel(ctx context.Context, id, actorID, callerCompanyID int64, callerIsAdmin bool, notes string) (ReferenceCall, error) {
	call, err := s.Get(ctx, id, callerCompanyID, callerIsAdmin)
	if err != nil {
		return ReferenceCall{}, err
	}
	if call.Status != StatusScheduled {
		return ReferenceCall{}, fmt.Errorf("%w: call is %s", httpx.ErrConflict, call.Status)
	}
	updated, err := s.repo.UpdateStatus(ctx, id, StatusCanceled, notes)
	if err != nil {
		return ReferenceCall{}, err
	}
	s.recordAudit(ctx, actorID, call.CompanyID, "calls.cancel", call.ID)
	return updated, nil
}

func (s *Service) validateBooking(in BookInput) error {
	if in.CompanyID <= 0 || in.OpportunityID <= 0 || in.AdvocateID <= 0 {
		return fmt.Errorf("%w: company, opportunity and advocate are required", httpx.ErrValidation)
	}
	if in.DurationMin < 15 || in.DurationMin > 240 {
		return fmt.Errorf("%w: duration must be between 15 and 240 minutes", httpx.ErrValidation)
	}
	if !in.ScheduledAt.After(s.now()) {
		return fmt.Errorf("%w: call must be scheduled in the future", httpx.ErrValidation)
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID, companyID int64, action string, callID int64) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:   actorID,
		CompanyID: companyID,
		Action:    action,
		Entity:    "reference_call",
		EntityID:  strconv.FormatInt(callID, 10),
	}); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}

// covered reports whether [start, end) lies entirely within a single slot.
func covered(slots []advocates.Slot, start, end time.Time) bool {
	for _, s := range slots {
		if !start.Before(s.Start) && !end.After(s.End) {
			return true
		}
	}
	return false
}
