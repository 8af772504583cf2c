package optimize

import (
	"context"
	"math"
	"time"

	domain "github.com/Coolhgg/relife-scheduler/internal/domain/alarm"
	"github.com/Coolhgg/relife-scheduler/internal/logger"
)

// Optimization record types produced by the pipeline stages.
const (
	TypeWakeWindow = "smart_wake_window"
	TypeSeasonal   = "seasonal"
	TypeLocation   = "location_trigger"
)

const (
	// sleepCycleMinutes is the length of one sleep cycle the wake-window
	// heuristic aligns to.
	sleepCycleMinutes = 90

	// assumedBedtimeHour is the reference sleep start for the cycle heuristic.
	// A learning mode would replace this with observed bedtimes.
	assumedBedtimeHour = 23

	// seasonalAmplitudeMinutes bounds the day-length approximation shift.
	seasonalAmplitudeMinutes = 10

	// DefaultPositionTimeout bounds the geolocation fetch per tick.
	DefaultPositionTimeout = 3 * time.Second

	// DefaultPositionMaxAge is the cached-position tolerance.
	DefaultPositionMaxAge = 10 * time.Minute
)

// Rule decides whether a specific occurrence of an alarm should fire.
// Rules never mutate stored state; their verdict is consumed by the
// notification adapter.
type Rule func(a *domain.Alarm, occurrence time.Time) bool

// Pipeline applies the ordered optimization stages to an alarm.
// Optimize never mutates its input; callers commit the returned value only
// when it genuinely differs from the original.
type Pipeline struct {
	// rules is the conditional rule set evaluated per occurrence.
	rules []Rule
	// positions is the injected geolocation capability; may be nil.
	positions PositionProvider
	// geofence is the home region evaluated by the location stage; may be nil.
	geofence *Geofence
	// positionTimeout bounds each position fetch.
	positionTimeout time.Duration
	// positionMaxAge is the accepted cached-position age.
	positionMaxAge time.Duration
	// now is injectable for deterministic tests.
	now func() time.Time
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithRules sets the conditional rule set.
func WithRules(rules ...Rule) Option {
	return func(p *Pipeline) {
		p.rules = rules
	}
}

// WithPositionProvider injects the geolocation collaborator and the geofence
// it is evaluated against.
func WithPositionProvider(provider PositionProvider, geofence *Geofence) Option {
	return func(p *Pipeline) {
		p.positions = provider
		p.geofence = geofence
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New creates a pipeline with the provided options.
func New(options ...Option) *Pipeline {
	p := &Pipeline{
		positionTimeout: DefaultPositionTimeout,
		positionMaxAge:  DefaultPositionMaxAge,
		now:             time.Now,
	}

	for _, option := range options {
		option(p)
	}

	return p
}

// Optimize runs the time-and-metadata stages over a clone of the alarm and
// returns the effective alarm. A failing stage logs and passes the alarm
// through unchanged; it never aborts the remaining stages.
func (p *Pipeline) Optimize(ctx context.Context, a *domain.Alarm, cfg *domain.SchedulingConfig) *domain.Alarm {
	effective := a.Clone()
	effective.Optimizations = nil

	// Revert shifts committed on earlier ticks so repeated optimization
	// converges instead of drifting the trigger time further every run.
	prior := 0
	for _, record := range a.Optimizations {
		if record.Type == TypeWakeWindow || record.Type == TypeSeasonal {
			prior += record.AdjustmentMinutes
		}
	}

	if prior != 0 {
		shiftClock(effective, -prior)
	}

	loc := p.location(ctx, cfg)

	// totalShift tracks the combined shift so stages compose additively
	// under the single daily clamp.
	totalShift := 0

	totalShift = p.applyWakeWindow(ctx, effective, cfg, totalShift)
	totalShift = p.applySeasonal(ctx, effective, cfg, loc, totalShift)
	p.applyLocation(ctx, effective, cfg)

	if totalShift != 0 {
		logger.DebugKV(ctx, "Alarm time optimized",
			"alarm_id", a.ID, "original_time", a.Time, "effective_time", effective.Time, "shift_minutes", totalShift)
	}

	return effective
}

// ShouldFire evaluates the conditional rule set for one concrete occurrence.
// An empty rule set always fires.
func (p *Pipeline) ShouldFire(_ context.Context, a *domain.Alarm, occurrence time.Time) bool {
	for _, rule := range p.rules {
		if !rule(a, occurrence) {
			return false
		}
	}

	return true
}

// applyWakeWindow shifts the trigger earlier to the nearest sleep-cycle
// boundary within the configured wake window.
func (p *Pipeline) applyWakeWindow(ctx context.Context, a *domain.Alarm, cfg *domain.SchedulingConfig, totalShift int) int {
	if !cfg.SmartAdjustments || cfg.WakeWindowMinutes <= 0 {
		return totalShift
	}

	hour, minute, err := domain.ParseClock(a.Time)
	if err != nil {
		logger.WarnKV(ctx, "Wake-window stage skipped", "alarm_id", a.ID, "error", err)

		return totalShift
	}

	// Minutes of sleep from the assumed bedtime to the trigger.
	slept := (hour-assumedBedtimeHour+24)*60 + minute

	// Moving earlier by the cycle remainder lands the wake-up on a boundary.
	want := -(slept % sleepCycleMinutes)
	if -want > cfg.WakeWindowMinutes {
		want = -cfg.WakeWindowMinutes
	}

	applied := clampShift(totalShift, want, cfg.MaxDailyAdjustmentMinutes)
	if applied != 0 {
		shiftClock(a, applied)
	}

	a.Optimizations = append(a.Optimizations, domain.OptimizationRecord{
		Type:              TypeWakeWindow,
		Enabled:           true,
		AdjustmentMinutes: applied,
	})

	return totalShift + applied
}

// applySeasonal applies a bounded day-length approximation: earlier wake-ups
// around the June solstice, later ones around December.
func (p *Pipeline) applySeasonal(ctx context.Context, a *domain.Alarm, cfg *domain.SchedulingConfig, loc *time.Location, totalShift int) int {
	dayOfYear := p.now().In(loc).YearDay()

	// Cosine peaks at the June solstice (day 172).
	phase := 2 * math.Pi * float64(dayOfYear-172) / 365.25
	want := -int(math.Round(seasonalAmplitudeMinutes * math.Cos(phase)))

	applied := clampShift(totalShift, want, cfg.MaxDailyAdjustmentMinutes)
	if applied != 0 {
		if _, _, err := domain.ParseClock(a.Time); err != nil {
			logger.WarnKV(ctx, "Seasonal stage skipped", "alarm_id", a.ID, "error", err)

			return totalShift
		}

		shiftClock(a, applied)
	}

	a.Optimizations = append(a.Optimizations, domain.OptimizationRecord{
		Type:              TypeSeasonal,
		Enabled:           true,
		AdjustmentMinutes: applied,
	})

	return totalShift + applied
}

// applyLocation evaluates the geofence trigger when the alarm opted in and a
// position is available. Best-effort: absence of a position only skips the
// stage.
func (p *Pipeline) applyLocation(ctx context.Context, a *domain.Alarm, cfg *domain.SchedulingConfig) {
	if !a.LocationEnabled || cfg.PrivacyMode || p.positions == nil || p.geofence == nil {
		return
	}

	position, err := p.positions.CurrentPosition(ctx, p.positionTimeout, p.positionMaxAge)
	if err != nil {
		logger.DebugKV(ctx, "Location stage skipped, no position", "alarm_id", a.ID, "error", err)

		return
	}

	inside := p.geofence.Contains(position)

	a.Optimizations = append(a.Optimizations, domain.OptimizationRecord{
		Type:    TypeLocation,
		Enabled: inside,
	})

	logger.DebugKV(ctx, "Location trigger evaluated", "alarm_id", a.ID, "inside_geofence", inside)
}

// location loads the configured zone, falling back to UTC.
func (p *Pipeline) location(ctx context.Context, cfg *domain.SchedulingConfig) *time.Location {
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		logger.WarnKV(ctx, "Unknown timezone, using UTC", "timezone", cfg.TimeZone, "error", err)

		return time.UTC
	}

	return loc
}

// clampShift limits a requested shift so the running total stays within the
// daily adjustment budget, and returns the shift actually allowed.
func clampShift(total, want, maxDaily int) int {
	if maxDaily <= 0 {
		return 0
	}

	combined := total + want
	if combined > maxDaily {
		combined = maxDaily
	}

	if combined < -maxDaily {
		combined = -maxDaily
	}

	return combined - total
}

// shiftClock moves the alarm's trigger time by the given number of minutes,
// wrapping around midnight.
func shiftClock(a *domain.Alarm, minutes int) {
	hour, minute, err := domain.ParseClock(a.Time)
	if err != nil {
		return
	}

	const minutesPerDay = 24 * 60

	total := (hour*60 + minute + minutes) % minutesPerDay
	if total < 0 {
		total += minutesPerDay
	}

	a.Time = domain.FormatClock(total/60, total%60)
}
