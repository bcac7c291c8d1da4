// Package jobs holds the background work PeerChamps defers to Asynq:
// call reminders, reward fulfillment and outbound email.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeCallReminder fires shortly before a scheduled reference call.
	TaskTypeCallReminder = "calls:reminder"
	// TaskTypeRewardFulfillment pays out an accrued reward.
	TaskTypeRewardFulfillment = "rewards:fulfill"
	// TaskTypeUpcomingScan sweeps for soon-starting calls on a cron schedule.
	TaskTypeUpcomingScan = "calls:scan"
)

// Mailer delivers a single message. SMTPMailer is the production
// implementation; tests substitute a recorder.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data, asynq.Queue(QueueDefault)), nil
}

// NewSendEmailHandler processes TaskTypeSendEmail tasks. A nil mailer turns
// delivery into a log line, which keeps local development SMTP-free.
func NewSendEmailHandler(mailer Mailer, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SendEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if mailer == nil {
			logger.Info("email delivery skipped", slog.String("to", payload.To), slog.String("subject", payload.Subject))
			return nil
		}
		return mailer.Send(ctx, payload.To, payload.Subject, payload.Body)
	}
}
