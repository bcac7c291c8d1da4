package advocates

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/peerchamps/peerchamps/internal/shared"
)

type memoryAdvocateRepo struct {
	advocates map[int64]Advocate
	windows   map[int64][]AvailabilityWindow
	nextID    int64
}

func newMemoryAdvocateRepo() *memoryAdvocateRepo {
	return &memoryAdvocateRepo{
		advocates: make(map[int64]Advocate),
		windows:   make(map[int64][]AvailabilityWindow),
	}
}

func (r *memoryAdvocateRepo) ListByCompany(ctx context.Context, companyID int64) ([]Advocate, error) {
	var out []Advocate
	for _, a := range r.advocates {
		if a.CompanyID == companyID && a.IsActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memoryAdvocateRepo) Get(ctx context.Context, id int64) (Advocate, error) {
	a, ok := r.advocates[id]
	if !ok {
		return Advocate{}, errNotFound
	}
	return a, nil
}

func (r *memoryAdvocateRepo) Create(ctx context.Context, a Advocate) (Advocate, error) {
	r.nextID++
	a.ID = r.nextID
	a.IsActive = true
	r.advocates[a.ID] = a
	return a, nil
}

func (r *memoryAdvocateRepo) Update(ctx context.Context, a Advocate) error {
	if _, ok := r.advocates[a.ID]; !ok {
		return errNotFound
	}
	r.advocates[a.ID] = a
	return nil
}

func (r *memoryAdvocateRepo) ListWindows(ctx context.Context, advocateID int64) ([]AvailabilityWindow, error) {
	return r.windows[advocateID], nil
}

func (r *memoryAdvocateRepo) ReplaceWindows(ctx context.Context, advocateID int64, windows []AvailabilityWindow) error {
	r.windows[advocateID] = windows
	return nil
}

type staticBusy struct {
	intervals []BusyInterval
}

func (s staticBusy) BusyIntervals(ctx context.Context, advocateID int64, from, to time.Time) ([]BusyInterval, error) {
	return s.intervals, nil
}

// errNotFound mirrors what the PG repository returns so service scoping
// behaves as in production.
var errNotFound = shared.ErrNotFound

func seedAdvocate(t *testing.T, repo *memoryAdvocateRepo, tz string) Advocate {
	t.Helper()
	a, err := repo.Create(context.Background(), Advocate{
		CompanyID: 10,
		Name:      "Dana Reyes",
		Title:     "VP Engineering",
		Timezone:  tz,
	})
	require.NoError(t, err)
	return a
}

func TestSetWindowsValidation(t *testing.T) {
	repo := newMemoryAdvocateRepo()
	svc := NewService(repo, nil)
	a := seedAdvocate(t, repo, "UTC")

	cases := []struct {
		name    string
		windows []AvailabilityWindow
		wantErr bool
	}{
		{"valid", []AvailabilityWindow{{Weekday: time.Monday, StartMinute: 9 * 60, EndMinute: 12 * 60}}, false},
		{"inverted", []AvailabilityWindow{{Weekday: time.Monday, StartMinute: 12 * 60, EndMinute: 9 * 60}}, true},
		{"past midnight", []AvailabilityWindow{{Weekday: time.Monday, StartMinute: 0, EndMinute: 25 * 60}}, true},
		{"overlap same day", []AvailabilityWindow{
			{Weekday: time.Monday, StartMinute: 9 * 60, EndMinute: 11 * 60},
			{Weekday: time.Monday, StartMinute: 10 * 60, EndMinute: 12 * 60},
		}, true},
		{"same hours different days", []AvailabilityWindow{
			{Weekday: time.Monday, StartMinute: 9 * 60, EndMinute: 11 * 60},
			{Weekday: time.Tuesday, StartMinute: 9 * 60, EndMinute: 11 * 60},
		}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.SetWindows(context.Background(), a.ID, tc.windows)
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSlotsExpandsRecurringWindows(t *testing.T) {
	repo := newMemoryAdvocateRepo()
	svc := NewService(repo, nil)
	a := seedAdvocate(t, repo, "UTC")

	// Mondays 09:00-11:00.
	require.NoError(t, svc.SetWindows(context.Background(), a.ID, []AvailabilityWindow{
		{Weekday: time.Monday, StartMinute: 9 * 60, EndMinute: 11 * 60},
	}))

	// Two weeks starting Monday 2026-01-05.
	from := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 14)
	slots, err := svc.Slots(context.Background(), a.ID, from, to)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	require.Equal(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC), slots[0].Start)
	require.Equal(t, time.Date(2026, 1, 5, 11, 0, 0, 0, time.UTC), slots[0].End)
	require.Equal(t, time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC), slots[1].Start)
}

func TestSlotsSubtractsBookedCalls(t *testing.T) {
	repo := newMemoryAdvocateRepo()
	booked := staticBusy{intervals: []BusyInterval{{
		Start: time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC),
		End:   time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC),
	}}}
	svc := NewService(repo, booked)
	a := seedAdvocate(t, repo, "UTC")

	require.NoError(t, svc.SetWindows(context.Background(), a.ID, []AvailabilityWindow{
		{Weekday: time.Monday, StartMinute: 9 * 60, EndMinute: 11 * 60},
	}))

	from := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	slots, err := svc.Slots(context.Background(), a.ID, from, to)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	require.Equal(t, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC), slots[0].Start)
	require.Equal(t, time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC), slots[0].End)
	require.Equal(t, time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC), slots[1].Start)
	require.Equal(t, time.Date(2026, 1, 5, 11, 0, 0, 0, time.UTC), slots[1].End)
}

func TestSlotsClipsToRequestedRange(t *testing.T) {
	repo := newMemoryAdvocateRepo()
	svc := NewService(repo, nil)
	a := seedAdvocate(t, repo, "UTC")

	require.NoError(t, svc.SetWindows(context.Background(), a.ID, []AvailabilityWindow{
		{Weekday: time.Monday, StartMinute: 9 * 60, EndMinute: 11 * 60},
	}))

	// Range starts mid-window.
	from := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	slots, err := svc.Slots(context.Background(), a.ID, from, to)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	require.Equal(t, from, slots[0].Start)
	require.Equal(t, time.Date(2026, 1, 5, 11, 0, 0, 0, time.UTC), slots[0].End)
}

func TestSlotsHonoursAdvocateTimezone(t *testing.T) {
	repo := newMemoryAdvocateRepo()
	svc := NewService(repo, nil)
	a := seedAdvocate(t, repo, "America/New_York")

	require.NoError(t, svc.SetWindows(context.Background(), a.ID, []AvailabilityWindow{
		{Weekday: time.Monday, StartMinute: 9 * 60, EndMinute: 10 * 60},
	}))

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	from := time.Date(2026, 1, 5, 0, 0, 0, 0, loc)
	to := from.AddDate(0, 0, 1)
	slots, err := svc.Slots(context.Background(), a.ID, from, to)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	// 09:00 Eastern is 14:00 UTC in January.
	require.True(t, slots[0].Start.Equal(time.Date(2026, 1, 5, 14, 0, 0, 0, time.UTC)))
}

func TestSlotsEmptyRange(t *testing.T) {
	repo := newMemoryAdvocateRepo()
	svc := NewService(repo, nil)
	a := seedAdvocate(t, repo, "UTC")

	now := time.Now()
	_, err := svc.Slots(context.Background(), a.ID, now, now)
	require.Error(t, err)
}
