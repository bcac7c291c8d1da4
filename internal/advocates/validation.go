package advocates

import (
	"fmt"
	"strings"
	"time"

	"github.com/peerchamps/peerchamps/internal/platform/httpx"
)

const minutesPerDay = 24 * 60

func validateAdvocate(a Advocate) error {
	if a.CompanyID <= 0 {
		return fmt.Errorf("%w: company is required", httpx.ErrValidation)
	}
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: advocate name is required", httpx.ErrValidation)
	}
	if a.Timezone == "" {
		return fmt.Errorf("%w: timezone is required", httpx.ErrValidation)
	}
	if _, err := time.LoadLocation(a.Timezone); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", httpx.ErrValidation, a.Timezone)
	}
	return nil
}

func validateWindows(windows []AvailabilityWindow) error {
	for _, w := range windows {
		if w.Weekday < time.Sunday || w.Weekday > time.Saturday {
			return fmt.Errorf("%w: weekday out of range", httpx.ErrValidation)
		}
		if w.StartMinute < 0 || w.EndMinute > minutesPerDay || w.StartMinute >= w.EndMinute {
			return fmt.Errorf("%w: window %d:%d-%d is not a valid interval", httpx.ErrValidation, w.Weekday, w.StartMinute, w.EndMinute)
		}
	}
	// Overlapping windows on the same weekday collapse into ambiguity for
	// slot expansion; reject them up front.
	for i, a := range windows {
		for _, b := range windows[i+1:] {
			if a.Weekday != b.Weekday {
				continue
			}
			if a.StartMinute < b.EndMinute && b.StartMinute < a.EndMinute {
				return fmt.Errorf("%w: windows overlap on %s", httpx.ErrValidation, a.Weekday)
			}
		}
	}
	return nil
}
