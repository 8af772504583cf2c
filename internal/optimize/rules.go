package optimize

import (
	"time"

	domain "github.com/Coolhgg/relife-scheduler/internal/domain/alarm"
)

// SkipWeekends suppresses occurrences falling on Saturday or Sunday.
func SkipWeekends() Rule {
	return func(_ *domain.Alarm, occurrence time.Time) bool {
		day := occurrence.Weekday()

		return day != time.Saturday && day != time.Sunday
	}
}

// SkipDates suppresses occurrences on the given calendar dates ("2006-01-02").
func SkipDates(dates ...string) Rule {
	skip := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		skip[d] = struct{}{}
	}

	return func(_ *domain.Alarm, occurrence time.Time) bool {
		_, found := skip[occurrence.Format(time.DateOnly)]

		return !found
	}
}

// OnlyDifficulties suppresses occurrences of alarms outside the given tiers.
func OnlyDifficulties(tiers ...string) Rule {
	allowed := make(map[string]struct{}, len(tiers))
	for _, tier := range tiers {
		allowed[tier] = struct{}{}
	}

	return func(a *domain.Alarm, _ time.Time) bool {
		_, found := allowed[a.Difficulty]

		return found
	}
}
