package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/peerchamps/peerchamps/internal/calls"
	"github.com/peerchamps/peerchamps/internal/shared"
)

type stubCalls struct {
	call calls.ReferenceCall
	err  error
}

func (s stubCalls) Get(ctx context.Context, id int64) (calls.ReferenceCall, error) {
	if s.err != nil {
		return calls.ReferenceCall{}, s.err
	}
	return s.call, nil
}

type stubParticipants struct{}

func (stubParticipants) EmailFor(ctx context.Context, userID int64) (string, error) {
	return "rep@acme.test", nil
}

type recordingEnqueuer struct {
	sent []SendEmailPayload
}

func (r *recordingEnqueuer) EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error) {
	r.sent = append(r.sent, payload)
	return nil, nil
}

type stubFulfiller struct {
	fulfilled []int64
	err       error
}

func (s *stubFulfiller) Fulfill(ctx context.Context, rewardID int64) error {
	if s.err != nil {
		return s.err
	}
	s.fulfilled = append(s.fulfilled, rewardID)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCallReminderEmailsBookingRep(t *testing.T) {
	source := stubCalls{call: calls.ReferenceCall{
		ID:          7,
		RequestedBy: 2,
		ScheduledAt: time.Date(2026, time.March, 3, 15, 0, 0, 0, time.UTC),
		DurationMin: 30,
		Status:      calls.StatusScheduled,
	}}
	enqueuer := &recordingEnqueuer{}
	handler := NewCallReminderHandler(source, stubParticipants{}, enqueuer, discardLogger())

	task, err := NewCallReminderTask(7)
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))

	require.Len(t, enqueuer.sent, 1)
	require.Equal(t, "rep@acme.test", enqueuer.sent[0].To)
	require.Contains(t, enqueuer.sent[0].Body, "30 minutes")
}

func TestCallReminderDropsCanceledCall(t *testing.T) {
	source := stubCalls{call: calls.ReferenceCall{ID: 7, Status: calls.StatusCanceled}}
	enqueuer := &recordingEnqueuer{}
	handler := NewCallReminderHandler(source, stubParticipants{}, enqueuer, discardLogger())

	task, err := NewCallReminderTask(7)
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))
	require.Empty(t, enqueuer.sent)
}

func TestCallReminderSkipsMissingCall(t *testing.T) {
	handler := NewCallReminderHandler(stubCalls{err: shared.ErrNotFound}, stubParticipants{}, &recordingEnqueuer{}, discardLogger())

	task, err := NewCallReminderTask(404)
	require.NoError(t, err)
	require.ErrorIs(t, handler(context.Background(), task), asynq.SkipRetry)
}

func TestRewardFulfillmentMarksReward(t *testing.T) {
	fulfiller := &stubFulfiller{}
	handler := NewRewardFulfillmentHandler(fulfiller, discardLogger())

	task, err := NewRewardFulfillmentTask(11)
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))
	require.Equal(t, []int64{11}, fulfiller.fulfilled)
}

func TestRewardFulfillmentSkipsMissingReward(t *testing.T) {
	handler := NewRewardFulfillmentHandler(&stubFulfiller{err: shared.ErrNotFound}, discardLogger())

	task, err := NewRewardFulfillmentTask(404)
	require.NoError(t, err)
	require.ErrorIs(t, handler(context.Background(), task), asynq.SkipRetry)
}

type stubUpcoming struct {
	upcoming []calls.ReferenceCall
}

func (s stubUpcoming) ListUpcoming(ctx context.Context, from, to time.Time) ([]calls.ReferenceCall, error) {
	return s.upcoming, nil
}

type recordingScheduler struct {
	reminders map[int64]time.Time
	err       error
}

func (r *recordingScheduler) ScheduleCallReminder(ctx context.Context, callID int64, remindAt time.Time) error {
	if r.err != nil {
		return r.err
	}
	if r.reminders == nil {
		r.reminders = map[int64]time.Time{}
	}
	r.reminders[callID] = remindAt
	return nil
}

func TestUpcomingScanSchedulesReminders(t *testing.T) {
	startA := time.Date(2026, time.March, 3, 15, 0, 0, 0, time.UTC)
	startB := time.Date(2026, time.March, 3, 16, 30, 0, 0, time.UTC)
	source := stubUpcoming{upcoming: []calls.ReferenceCall{
		{ID: 7, ScheduledAt: startA, Status: calls.StatusScheduled},
		{ID: 9, ScheduledAt: startB, Status: calls.StatusScheduled},
	}}
	scheduler := &recordingScheduler{}
	handler := NewUpcomingScanHandler(source, scheduler, time.Hour, discardLogger())

	task, err := NewUpcomingScanTask(2 * time.Hour)
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))

	require.Len(t, scheduler.reminders, 2)
	require.Equal(t, startA.Add(-time.Hour), scheduler.reminders[7])
	require.Equal(t, startB.Add(-time.Hour), scheduler.reminders[9])
}

func TestUpcomingScanSurvivesSchedulerError(t *testing.T) {
	source := stubUpcoming{upcoming: []calls.ReferenceCall{
		{ID: 7, ScheduledAt: time.Date(2026, time.March, 3, 15, 0, 0, 0, time.UTC)},
	}}
	scheduler := &recordingScheduler{err: asynq.ErrTaskIDConflict}
	handler := NewUpcomingScanHandler(source, scheduler, time.Hour, discardLogger())

	task, err := NewUpcomingScanTask(time.Hour)
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))
}

func TestMalformedPayloadSkipsRetry(t *testing.T) {
	handler := NewRewardFulfillmentHandler(&stubFulfiller{}, discardLogger())
	task := asynq.NewTask(TaskTypeRewardFulfillment, []byte("{"))
	require.ErrorIs(t, handler(context.Background(), task), asynq.SkipRetry)
}
