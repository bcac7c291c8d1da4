package advocates

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/peerchamps/peerchamps/internal/platform/httpx"
	"github.com/peerchamps/peerchamps/internal/shared"
)

// BusySource reports intervals already taken by scheduled calls, so slot
// expansion can subtract them. Implemented by the calls repository.
type BusySource interface {
	BusyIntervals(ctx context.Context, advocateID int64, from, to time.Time) ([]BusyInterval, error)
}

// Service handles advocate business logic.
type Service struct {
	repo Repository
	busy BusySource
}

// NewService builds a Service instance.
func NewService(repo Repository, busy BusySource) *Service {
	return &Service{repo: repo, busy: busy}
}

// ListForTenant returns active advocates of one company.
func (s *Service) ListForTenant(ctx context.Context, companyID int64) ([]Advocate, error) {
	if companyID <= 0 {
		return nil, fmt.Errorf("%w: invalid company id", httpx.ErrValidation)
	}
	return s.repo.ListByCompany(ctx, companyID)
}

// Get fetches an advocate, enforcing tenant scoping for non-admin callers.
func (s *Service) Get(ctx context.Context, id, callerCompanyID int64, callerIsAdmin bool) (Advocate, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return Advocate{}, err
	}
	if !callerIsAdmin && a.CompanyID != callerCompanyID {
		return Advocate{}, shared.ErrNotFound
	}
	return a, nil
}

// Create registers a new advocate for a tenant.
func (s *Service) Create(ctx context.Context, a Advocate) (Advocate, error) {
	if err := validateAdvocate(a); err != nil {
		return Advocate{}, err
	}
	return s.repo.Create(ctx, a)
}

// Update edits profile fields.
func (s *Service) Update(ctx context.Context, a Advocate) error {
	if a.ID <= 0 {
		return fmt.Errorf("%w: invalid advocate id", httpx.ErrValidation)
	}
	if err := validateAdvocate(a); err != nil {
		return err
	}
	return s.repo.Update(ctx, a)
}

// Windows returns the recurring availability of an advocate.
func (s *Service) Windows(ctx context.Context, advocateID int64) ([]AvailabilityWindow, error) {
	if advocateID <= 0 {
		return nil, fmt.Errorf("%w: invalid advocate id", httpx.ErrValidation)
	}
	return s.repo.ListWindows(ctx, advocateID)
}

// SetWindows replaces the advocate's recurring availability wholesale.
func (s *Service) SetWindows(ctx context.Context, advocateID int64, windows []AvailabilityWindow) error {
	if advocateID <= 0 {
		return fmt.Errorf("%w: invalid advocate id", httpx.ErrValidation)
	}
	if err := validateWindows(windows); err != nil {
		return err
	}
	return s.repo.ReplaceWindows(ctx, advocateID, windows)
}

// Slots expands the advocate's recurring windows over [from, to) into
// concrete free intervals, in the advocate's timezone, with booked calls
// subtracted. from/to are interpreted as instants; slots never extend
// outside the requested range.
func (s *Service) Slots(ctx context.Context, advocateID int64, from, to time.Time) ([]Slot, error) {
	if !from.Before(to) {
		return nil, fmt.Errorf("%w: empty date range", httpx.ErrValidation)
	}
	advocate, err := s.repo.Get(ctx, advocateID)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(advocate.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: advocate has invalid timezone %q", httpx.ErrValidation, advocate.Timezone)
	}
	windows, err := s.repo.ListWindows(ctx, advocateID)
	if err != nil {
		return nil, err
	}

	var busy []BusyInterval
	if s.busy != nil {
		busy, err = s.busy.BusyIntervals(ctx, advocateID, from, to)
		if err != nil {
			return nil, err
		}
	}

	return expandSlots(windows, busy, from, to, loc), nil
}

// expandSlots walks each local calendar day in the range, materialises the
// matching weekday windows, clips them to [from, to), and subtracts busy
// intervals.
func expandSlots(windows []AvailabilityWindow, busy []BusyInterval, from, to time.Time, loc *time.Location) []Slot {
	byWeekday := make(map[time.Weekday][]AvailabilityWindow)
	for _, w := range windows {
		byWeekday[w.Weekday] = append(byWeekday[w.Weekday], w)
	}

	var slots []Slot
	localFrom := from.In(loc)
	day := time.Date(localFrom.Year(), localFrom.Month(), localFrom.Day(), 0, 0, 0, 0, loc)
	for day.Before(to) {
		for _, w := range byWeekday[day.Weekday()] {
			start := day.Add(time.Duration(w.StartMinute) * time.Minute)
			end := day.Add(time.Duration(w.EndMinute) * time.Minute)
			if start.Before(from) {
				start = from
			}
			if end.After(to) {
				end = to
			}
			if !start.Before(end) {
				continue
			}
			slots = append(slots, subtractBusy(Slot{Start: start, End: end}, busy)...)
		}
		day = day.AddDate(0, 0, 1)
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
	return slots
}

// subtractBusy carves the busy intervals out of one slot, returning the
// remaining free intervals in order.
func subtractBusy(slot Slot, busy []BusyInterval) []Slot {
	free := []Slot{slot}
	for _, b := range busy {
		var next []Slot
		for _, f := range free {
			if !b.Start.Before(f.End) || !f.Start.Before(b.End) {
				next = append(next, f)
				continue
			}
			if f.Start.Before(b.Start) {
				next = append(next, Slot{Start: f.Start, End: b.Start})
			}
			if b.End.Before(f.End) {
				next = append(next, Slot{Start: b.End, End: f.End})
			}
		}
		free = next
	}
	return free
}
