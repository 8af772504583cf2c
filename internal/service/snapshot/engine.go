package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	domain "github.com/Coolhgg/relife-scheduler/internal/domain/alarm"
	"github.com/Coolhgg/relife-scheduler/internal/logger"
	"github.com/Coolhgg/relife-scheduler/internal/repository/alarms"
	"github.com/Coolhgg/relife-scheduler/internal/repository/settings"
)

// Engine produces and restores versioned snapshots of the full alarm
// collection and scheduling configuration.
type Engine struct {
	// store is the alarm persistence collaborator.
	store alarms.Store
	// settings persists the scheduling configuration.
	settings *settings.Repository
	// now is injectable for deterministic tests.
	now func() time.Time
}

// NewEngine creates a snapshot engine.
func NewEngine(store alarms.Store, settingsRepo *settings.Repository) *Engine {
	return &Engine{
		store:    store,
		settings: settingsRepo,
		now:      time.Now,
	}
}

// WithClock overrides the engine's time source. Intended for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now

	return e
}

// Export returns a snapshot of the current alarms and configuration.
func (e *Engine) Export(ctx context.Context) (*domain.Snapshot, error) {
	ctx = logger.WithName(ctx, "snapshot")

	all, err := e.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list alarms: %w", err)
	}

	cfg, err := e.settings.LoadConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger.InfoKV(ctx, "Exporting schedule", "alarms", len(all), "timezone", cfg.TimeZone)

	return &domain.Snapshot{
		Version:    domain.SnapshotVersion,
		ExportedAt: e.now(),
		Alarms:     all,
		Config:     cfg.Clone(),
		Meta: domain.SnapshotMeta{
			Count:    len(all),
			TimeZone: cfg.TimeZone,
		},
	}, nil
}

// Import restores a snapshot under the given policy, reporting per-alarm
// successes and failures. Malformed snapshots are reported as a result with
// zero successes; no partial processing is attempted for them.
func (e *Engine) Import(ctx context.Context, snap *domain.Snapshot, policy domain.ImportPolicy) (*domain.Result, error) {
	ctx = logger.WithName(ctx, "snapshot")
	result := new(domain.Result)

	if snap == nil || snap.Alarms == nil {
		result.Errors = append(result.Errors, "snapshot contains no alarm list")

		return result, nil
	}

	if snap.Version > domain.SnapshotVersion {
		result.Errors = append(result.Errors,
			fmt.Sprintf("unsupported snapshot version %d", snap.Version))

		return result, nil
	}

	cfg, err := e.settings.LoadConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	shift, err := e.timezoneShift(snap, cfg, policy)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())

		return result, nil
	}

	existing, err := e.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list alarms: %w", err)
	}

	for _, imported := range snap.Alarms {
		candidate := imported.Clone()

		if shift != 0 {
			if err := shiftClock(candidate, shift); err != nil {
				result.AddFailure(fmt.Sprintf("import %q: %v", importName(candidate), err))

				continue
			}
		}

		if !policy.OverwriteExisting && collides(existing, candidate) {
			result.AddFailure(fmt.Sprintf(
				"import %q: alarm with the same label and time already exists", importName(candidate)))

			continue
		}

		if policy.PreserveIDs {
			// Overwrite means replace: clear the previous alarm under this id.
			if policy.OverwriteExisting && candidate.ID != "" {
				if _, err := e.store.Get(ctx, candidate.ID); err == nil {
					if err = e.store.Delete(ctx, candidate.ID); err != nil {
						result.AddFailure(fmt.Sprintf("import %q: %v", importName(candidate), err))

						continue
					}
				}
			}
		} else {
			candidate.ID = uuid.NewString()
		}

		if _, err := e.store.Create(ctx, candidate); err != nil {
			result.AddFailure(fmt.Sprintf("import %q: %v", importName(candidate), err))

			continue
		}

		result.Success++
	}

	logger.InfoKV(ctx, "Import finished", "success", result.Success, "failed", result.Failed)

	return result, nil
}

// timezoneShift computes the wall-clock minute shift between the snapshot's
// zone and the configured zone at the import moment.
func (e *Engine) timezoneShift(snap *domain.Snapshot, cfg *domain.SchedulingConfig, policy domain.ImportPolicy) (int, error) {
	if !policy.AdjustTimeZones {
		return 0, nil
	}

	snapZone := snap.Meta.TimeZone
	if snapZone == "" && snap.Config != nil {
		snapZone = snap.Config.TimeZone
	}

	if snapZone == "" || snapZone == cfg.TimeZone {
		return 0, nil
	}

	from, err := time.LoadLocation(snapZone)
	if err != nil {
		return 0, fmt.Errorf("unknown snapshot timezone %q: %w", snapZone, err)
	}

	to, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return 0, fmt.Errorf("unknown configured timezone %q: %w", cfg.TimeZone, err)
	}

	now := e.now()
	_, fromOffset := now.In(from).Zone()
	_, toOffset := now.In(to).Zone()

	return (toOffset - fromOffset) / 60, nil
}

// collides reports whether an alarm with the same label and time exists.
func collides(existing []*domain.Alarm, candidate *domain.Alarm) bool {
	for _, a := range existing {
		if a.Label == candidate.Label && a.Time == candidate.Time {
			return true
		}
	}

	return false
}

// shiftClock moves the alarm's trigger time by minutes, wrapping at midnight.
func shiftClock(a *domain.Alarm, minutes int) error {
	hour, minute, err := domain.ParseClock(a.Time)
	if err != nil {
		return err
	}

	const minutesPerDay = 24 * 60

	total := (hour*60 + minute + minutes) % minutesPerDay
	if total < 0 {
		total += minutesPerDay
	}

	a.Time = domain.FormatClock(total/60, total%60)

	return nil
}

// importName prefers the label when naming failed items.
func importName(a *domain.Alarm) string {
	if a.Label != "" {
		return a.Label
	}

	return a.ID
}
