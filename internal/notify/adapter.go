package notify

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	domain "github.com/Coolhgg/relife-scheduler/internal/domain/alarm"
	"github.com/Coolhgg/relife-scheduler/internal/logger"
	"github.com/Coolhgg/relife-scheduler/internal/optimize"
	"github.com/Coolhgg/relife-scheduler/internal/recurrence"
)

const (
	// occurrencesPerAlarm caps how many future occurrences are scheduled per
	// alarm. Notification platforms budget simultaneously scheduled
	// notifications per app; the cap keeps many active alarms within budget.
	occurrencesPerAlarm = 3

	// cancelSweepSpan is how many derived ids a cancel covers. Wider than the
	// schedule cap so stale handles from earlier runs are cleared without
	// knowing how many were scheduled.
	cancelSweepSpan = 10
)

// Adapter maps (alarm, occurrence) pairs onto stable notification ids and
// drives the external Scheduler.
type Adapter struct {
	// scheduler is the external notification collaborator.
	scheduler Scheduler
	// resolver computes upcoming occurrences.
	resolver *recurrence.Resolver
	// pipeline supplies per-occurrence conditional filtering.
	pipeline *optimize.Pipeline
	// now is injectable for deterministic tests.
	now func() time.Time
}

// NewAdapter creates the notification adapter.
func NewAdapter(scheduler Scheduler, resolver *recurrence.Resolver, pipeline *optimize.Pipeline) *Adapter {
	return &Adapter{
		scheduler: scheduler,
		resolver:  resolver,
		pipeline:  pipeline,
		now:       time.Now,
	}
}

// WithClock overrides the adapter's time source. Intended for tests.
func (ad *Adapter) WithClock(now func() time.Time) *Adapter {
	ad.now = now

	return ad
}

// BaseNotificationID derives the stable numeric id space for an alarm.
// Occurrence ids are BaseNotificationID(alarmID) + occurrenceIndex.
func BaseNotificationID(alarmID string) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(alarmID))

	return int64(h.Sum32())
}

// ScheduleOccurrences computes the next occurrences of the alarm, filters
// them through the conditional rules, and schedules a notification for each
// surviving one. A failure for one occurrence is logged and does not prevent
// scheduling the rest. Returns how many notifications were scheduled.
func (ad *Adapter) ScheduleOccurrences(ctx context.Context, a *domain.Alarm) (int, error) {
	occurrences, err := ad.resolver.NextOccurrences(a, ad.now(), occurrencesPerAlarm)
	if err != nil {
		return 0, fmt.Errorf("resolve occurrences: %w", err)
	}

	if len(occurrences) == 0 {
		logger.DebugKV(ctx, "Nothing to schedule", "alarm_id", a.ID)

		return 0, nil
	}

	var (
		base      = BaseNotificationID(a.ID)
		scheduled = 0
	)

	for index, occurrence := range occurrences {
		if ad.pipeline != nil && !ad.pipeline.ShouldFire(ctx, a, occurrence) {
			logger.DebugKV(ctx, "Occurrence suppressed by rules",
				"alarm_id", a.ID, "occurrence", occurrence)

			continue
		}

		title := a.Label
		if title == "" {
			title = "Alarm"
		}

		body := fmt.Sprintf("Alarm at %s", a.Time)

		if err := ad.scheduler.Schedule(ctx, base+int64(index), title, body, occurrence); err != nil {
			logger.ErrorKV(ctx, "Failed to schedule notification",
				"alarm_id", a.ID, "occurrence", occurrence, "error", err)

			continue
		}

		scheduled++
	}

	return scheduled, nil
}

// CancelOccurrences cancels the fixed range of derived notification ids for
// an alarm. Idempotent: cancelling ids that were never scheduled is a no-op.
func (ad *Adapter) CancelOccurrences(ctx context.Context, alarmID string) {
	base := BaseNotificationID(alarmID)

	for offset := int64(0); offset < cancelSweepSpan; offset++ {
		if err := ad.scheduler.Cancel(ctx, base+offset); err != nil {
			logger.WarnKV(ctx, "Failed to cancel notification",
				"alarm_id", alarmID, "notification_id", base+offset, "error", err)
		}
	}
}
