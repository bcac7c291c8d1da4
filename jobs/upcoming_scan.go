package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/peerchamps/peerchamps/internal/calls"
)

// UpcomingScanPayload carries the sweep window size.
type UpcomingScanPayload struct {
	LookaheadMin int `json:"lookahead_min"`
}

// NewUpcomingScanTask constructs the cron sweep task.
func NewUpcomingScanTask(lookahead time.Duration) (*asynq.Task, error) {
	body, err := json.Marshal(UpcomingScanPayload{LookaheadMin: int(lookahead / time.Minute)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeUpcomingScan, body, asynq.Queue(QueueDefault)), nil
}

// UpcomingSource lists scheduled calls starting inside a window.
type UpcomingSource interface {
	ListUpcoming(ctx context.Context, from, to time.Time) ([]calls.ReferenceCall, error)
}

// ReminderScheduler queues a reminder for a call. *Client satisfies it.
type ReminderScheduler interface {
	ScheduleCallReminder(ctx context.Context, callID int64, remindAt time.Time) error
}

// NewUpcomingScanHandler builds the cron sweep that re-enqueues reminders
// for calls starting soon. Reminder tasks carry a per-call task id, so a
// copy already queued at booking time wins and the sweep's is dropped.
func NewUpcomingScanHandler(source UpcomingSource, scheduler ReminderScheduler, lead time.Duration, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload UpcomingScanPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		lookahead := time.Duration(payload.LookaheadMin) * time.Minute
		if lookahead <= 0 {
			lookahead = 2 * time.Hour
		}
		now := time.Now()
		upcoming, err := source.ListUpcoming(ctx, now, now.Add(lookahead))
		if err != nil {
			return err
		}
		for _, call := range upcoming {
			if err := scheduler.ScheduleCallReminder(ctx, call.ID, call.ScheduledAt.Add(-lead)); err != nil {
				logger.Warn("reminder sweep", slog.Int64("call_id", call.ID), slog.Any("error", err))
			}
		}
		return nil
	}
}
