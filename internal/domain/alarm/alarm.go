package alarm

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Difficulty tiers supported by the dismissal challenge.
const (
	DifficultyEasy    = "easy"
	DifficultyMedium  = "medium"
	DifficultyHard    = "hard"
	DifficultyExtreme = "extreme"
)

// Recurrence pattern kinds for alarms that are not plain weekday sets.
const (
	// PatternDaily fires every calendar day regardless of the weekday set.
	PatternDaily = "daily"
	// PatternInterval fires every IntervalDays days counted from the anchor date.
	PatternInterval = "interval"
)

var (
	// ErrInvalidTime is returned when the trigger time is not a valid 24-hour clock value.
	ErrInvalidTime = errors.New("invalid trigger time")
	// ErrInvalidDays is returned when the weekday set contains out-of-range values.
	ErrInvalidDays = errors.New("invalid weekday set")
)

// RecurrencePattern describes non-weekly recurrence.
// When set, it fully determines occurrences and the weekday set may be empty.
type RecurrencePattern struct {
	// Kind is one of the Pattern* constants.
	Kind string `json:"kind"`
	// IntervalDays is the day stride for PatternInterval; ignored otherwise.
	IntervalDays int `json:"intervalDays,omitempty"`
	// Anchor is the date the interval is counted from.
	Anchor time.Time `json:"anchor,omitempty"`
}

// OptimizationRecord is one applied smart-optimization annotation.
type OptimizationRecord struct {
	// Type identifies the pipeline stage that produced the record.
	Type string `json:"type"`
	// Enabled reports whether the stage was active when the record was produced.
	Enabled bool `json:"enabled"`
	// AdjustmentMinutes is the signed shift the stage applied to the trigger time.
	AdjustmentMinutes int `json:"adjustmentMinutes"`
}

// Alarm is the schedulable unit: a recurring wake-up trigger definition.
type Alarm struct {
	// ID is an opaque unique identifier.
	ID string `json:"id"`
	// Time is the local trigger time in "HH:MM" 24-hour format.
	Time string `json:"time"`
	// Days is the set of weekdays the alarm fires on (0 = Sunday).
	// Order is irrelevant and duplicates are not allowed.
	Days []time.Weekday `json:"days"`
	// Pattern optionally overrides the weekday set with non-weekly recurrence.
	Pattern *RecurrencePattern `json:"pattern,omitempty"`

	// Label is the user-visible alarm title.
	Label string `json:"label"`
	// Sound is the ringtone identifier.
	Sound string `json:"sound"`
	// VoiceMood selects the wake-up voice personality.
	VoiceMood string `json:"voiceMood"`
	// Difficulty is the dismissal challenge tier.
	Difficulty string `json:"difficulty"`

	// SnoozeEnabled reports whether snoozing is allowed.
	SnoozeEnabled bool `json:"snoozeEnabled"`
	// SnoozeIntervalMinutes is the delay added per snooze.
	SnoozeIntervalMinutes int `json:"snoozeInterval"`
	// MaxSnoozes caps how many times a single occurrence may be snoozed.
	MaxSnoozes int `json:"maxSnoozes"`

	// WeatherEnabled opts the alarm into weather-aware behavior.
	WeatherEnabled bool `json:"weatherEnabled"`
	// LocationEnabled opts the alarm into geofence trigger evaluation.
	LocationEnabled bool `json:"locationEnabled"`

	// Enabled reports whether the alarm is active; disabled alarms are kept, not deleted.
	Enabled bool `json:"enabled"`

	// Optimizations is the list of smart-optimization records applied by the
	// scheduling engine. Populated by the optimization pipeline, not by users.
	Optimizations []OptimizationRecord `json:"optimizations,omitempty"`

	// CreatedAt is when the alarm was created.
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is when the alarm was last modified.
	UpdatedAt time.Time `json:"updatedAt"`
}

// ParseClock parses an "HH:MM" 24-hour time string.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}

	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}

	return hour, minute, nil
}

// FormatClock renders an hour and minute as "HH:MM".
func FormatClock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// Validate checks the alarm invariants: a valid 24-hour trigger time and a
// weekday set that is either well-formed or fully replaced by a pattern.
func (a *Alarm) Validate() error {
	if _, _, err := ParseClock(a.Time); err != nil {
		return err
	}

	seen := make(map[time.Weekday]struct{}, len(a.Days))

	for _, d := range a.Days {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("%w: %d out of range", ErrInvalidDays, d)
		}

		if _, ok := seen[d]; ok {
			return fmt.Errorf("%w: duplicate weekday %d", ErrInvalidDays, d)
		}

		seen[d] = struct{}{}
	}

	return nil
}

// Clone returns a deep copy of the alarm to avoid leaking internal references.
func (a *Alarm) Clone() *Alarm {
	if a == nil {
		return nil
	}

	cloned := *a

	if a.Days != nil {
		cloned.Days = make([]time.Weekday, len(a.Days))
		copy(cloned.Days, a.Days)
	}

	if a.Optimizations != nil {
		cloned.Optimizations = make([]OptimizationRecord, len(a.Optimizations))
		copy(cloned.Optimizations, a.Optimizations)
	}

	if a.Pattern != nil {
		pattern := *a.Pattern
		cloned.Pattern = &pattern
	}

	return &cloned
}

// ChangedFrom compares only the fields the optimization pipeline is permitted
// to change and reports whether this alarm differs from the original.
// Field-level value equality; the weekday set is compared as a set.
func (a *Alarm) ChangedFrom(original *Alarm) bool {
	if a.Time != original.Time ||
		a.Label != original.Label ||
		a.VoiceMood != original.VoiceMood ||
		a.Sound != original.Sound ||
		a.Difficulty != original.Difficulty ||
		a.SnoozeEnabled != original.SnoozeEnabled ||
		a.SnoozeIntervalMinutes != original.SnoozeIntervalMinutes ||
		a.MaxSnoozes != original.MaxSnoozes {
		return true
	}

	return !sameDaySet(a.Days, original.Days)
}

// sameDaySet compares two weekday slices as sets.
func sameDaySet(a, b []time.Weekday) bool {
	if len(a) != len(b) {
		return false
	}

	as := append([]time.Weekday(nil), a...)
	bs := append([]time.Weekday(nil), b...)

	sort.Slice(as, func(i, j int) bool { return as[i] < as[j] })
	sort.Slice(bs, func(i, j int) bool { return bs[i] < bs[j] })

	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}

	return true
}

// FiresOn reports whether the alarm's weekday set includes the given weekday.
func (a *Alarm) FiresOn(day time.Weekday) bool {
	for _, d := range a.Days {
		if d == day {
			return true
		}
	}

	return false
}

// NextSnooze returns the instant a snoozed occurrence fires again, or false
// when the snooze budget is exhausted or snoozing is disabled.
func (a *Alarm) NextSnooze(occurrence time.Time, snoozesUsed int) (time.Time, bool) {
	if !a.SnoozeEnabled || snoozesUsed >= a.MaxSnoozes {
		return time.Time{}, false
	}

	return occurrence.Add(time.Duration(a.SnoozeIntervalMinutes) * time.Minute), true
}
