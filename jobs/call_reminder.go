package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/peerchamps/peerchamps/internal/calls"
	"github.com/peerchamps/peerchamps/internal/shared"
)

// CallReminderPayload identifies the call to remind about.
type CallReminderPayload struct {
	CallID int64 `json:"call_id"`
}

// NewCallReminderTask constructs an Asynq task for a call reminder.
func NewCallReminderTask(callID int64) (*asynq.Task, error) {
	body, err := json.Marshal(CallReminderPayload{CallID: callID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeCallReminder, body, asynq.Queue(QueueDefault)), nil
}

// CallSource loads the call a reminder refers to.
type CallSource interface {
	Get(ctx context.Context, id int64) (calls.ReferenceCall, error)
}

// ParticipantSource resolves the email of the rep who booked the call.
type ParticipantSource interface {
	EmailFor(ctx context.Context, userID int64) (string, error)
}

// EmailEnqueuer queues outbound mail. *Client satisfies it.
type EmailEnqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error)
}

// NewCallReminderHandler builds the handler that emails the booking rep
// before a call. Canceled or already-completed calls are dropped silently.
func NewCallReminderHandler(source CallSource, participants ParticipantSource, enqueuer EmailEnqueuer, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload CallReminderPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		call, err := source.Get(ctx, payload.CallID)
		if errors.Is(err, shared.ErrNotFound) {
			return asynq.SkipRetry
		}
		if err != nil {
			return err
		}
		if call.Status != calls.StatusScheduled {
			logger.Debug("reminder dropped", slog.Int64("call_id", call.ID), slog.String("status", call.Status))
			return nil
		}
		to, err := participants.EmailFor(ctx, call.RequestedBy)
		if err != nil {
			return err
		}
		_, err = enqueuer.EnqueueSendEmail(ctx, SendEmailPayload{
			To:      to,
			Subject: "Upcoming reference call",
			Body: fmt.Sprintf("Your reference call is scheduled for %s (%d minutes).",
				call.ScheduledAt.Format(time.RFC1123), call.DurationMin),
		})
		return err
	}
}
