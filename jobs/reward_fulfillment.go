package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/peerchamps/peerchamps/internal/shared"
)

// RewardFulfillmentPayload identifies the reward to pay out.
type RewardFulfillmentPayload struct {
	RewardID int64 `json:"reward_id"`
}

// NewRewardFulfillmentTask constructs an Asynq task for reward fulfillment.
func NewRewardFulfillmentTask(rewardID int64) (*asynq.Task, error) {
	body, err := json.Marshal(RewardFulfillmentPayload{RewardID: rewardID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeRewardFulfillment, body, asynq.Queue(QueueDefault)), nil
}

// RewardFulfiller flips a reward from pending to fulfilled.
type RewardFulfiller interface {
	Fulfill(ctx context.Context, rewardID int64) error
}

// NewRewardFulfillmentHandler builds the payout handler. Missing rewards
// skip retry so a deleted row cannot wedge the queue.
func NewRewardFulfillmentHandler(fulfiller RewardFulfiller, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload RewardFulfillmentPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		err := fulfiller.Fulfill(ctx, payload.RewardID)
		if errors.Is(err, shared.ErrNotFound) {
			logger.Warn("reward missing, skipping fulfillment", slog.Int64("reward_id", payload.RewardID))
			return asynq.SkipRetry
		}
		if err == nil {
			logger.Info("reward fulfilled", slog.Int64("reward_id", payload.RewardID))
		}
		return err
	}
}
