package recurrence

import (
	"fmt"
	"time"

	domain "github.com/Coolhgg/relife-scheduler/internal/domain/alarm"
)

// maxLookaheadDays bounds the forward walk so a pattern that never matches
// cannot loop forever. Two years covers every supported recurrence.
const maxLookaheadDays = 2 * 366

// Resolver turns alarm definitions into concrete future occurrences.
// All calendar arithmetic happens in the configured location, never in the
// process-local zone, to avoid spurious day-boundary shifts.
type Resolver struct {
	// loc is the timezone alarm times are local to.
	loc *time.Location
}

// NewResolver creates a resolver for the given IANA timezone identifier.
func NewResolver(timezone string) (*Resolver, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load location %q: %w", timezone, err)
	}

	return &Resolver{loc: loc}, nil
}

// NewResolverIn creates a resolver for an already loaded location.
func NewResolverIn(loc *time.Location) *Resolver {
	return &Resolver{loc: loc}
}

// Location returns the resolver's timezone.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// NextOccurrences returns up to count future instants at which the alarm is
// due to fire, strictly ascending and strictly after ref.
//
// An alarm with an empty weekday set and no recurrence pattern yields an
// empty list; the caller treats that as "nothing to schedule".
func (r *Resolver) NextOccurrences(a *domain.Alarm, ref time.Time, count int) ([]time.Time, error) {
	if count <= 0 {
		return nil, nil
	}

	hour, minute, err := domain.ParseClock(a.Time)
	if err != nil {
		return nil, err
	}

	if a.Pattern == nil && len(a.Days) == 0 {
		return nil, nil
	}

	var (
		occurrences = make([]time.Time, 0, count)
		local       = ref.In(r.loc)
		year        = local.Year()
		month       = local.Month()
		day         = local.Day()
	)

	for offset := 0; offset < maxLookaheadDays && len(occurrences) < count; offset++ {
		candidate := time.Date(year, month, day+offset, hour, minute, 0, 0, r.loc)
		if !candidate.After(ref) {
			continue
		}

		if r.firesOn(a, candidate) {
			occurrences = append(occurrences, candidate)
		}
	}

	return occurrences, nil
}

// NextOccurrence returns the single next occurrence, or false when none exists
// within the lookahead bound.
func (r *Resolver) NextOccurrence(a *domain.Alarm, ref time.Time) (time.Time, bool, error) {
	occurrences, err := r.NextOccurrences(a, ref, 1)
	if err != nil || len(occurrences) == 0 {
		return time.Time{}, false, err
	}

	return occurrences[0], true, nil
}

// firesOn reports whether the alarm is due on the candidate's calendar day.
func (r *Resolver) firesOn(a *domain.Alarm, candidate time.Time) bool {
	if a.Pattern != nil {
		switch a.Pattern.Kind {
		case domain.PatternDaily:
			return true
		case domain.PatternInterval:
			if a.Pattern.IntervalDays <= 0 {
				return false
			}

			return daysBetween(a.Pattern.Anchor.In(r.loc), candidate)%a.Pattern.IntervalDays == 0
		default:
			return false
		}
	}

	return a.FiresOn(candidate.Weekday())
}

// daysBetween counts whole calendar days from a to b, ignoring time of day.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()

	start := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	end := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)

	days := int(end.Sub(start) / (24 * time.Hour))
	if days < 0 {
		days = -days
	}

	return days
}
