package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap/zapcore"

	domain "github.com/Coolhgg/relife-scheduler/internal/domain/alarm"
	"github.com/Coolhgg/relife-scheduler/internal/logger"
	"github.com/Coolhgg/relife-scheduler/internal/notify"
	"github.com/Coolhgg/relife-scheduler/internal/optimize"
	"github.com/Coolhgg/relife-scheduler/internal/recurrence"
	"github.com/Coolhgg/relife-scheduler/internal/repository/alarms"
	"github.com/Coolhgg/relife-scheduler/internal/repository/settings"
)

// DefaultTickPeriod is the interval between scheduling re-evaluations.
const DefaultTickPeriod = time.Minute

// Service is the scheduling loop: it periodically re-evaluates every active
// alarm through the optimization pipeline, commits genuine changes to the
// store and keeps notifications scheduled for upcoming occurrences.
type Service struct {
	// store is the alarm persistence collaborator.
	store alarms.Store
	// settings persists SchedulingConfig and SchedulingStats.
	settings *settings.Repository
	// notifier is the external notification collaborator.
	notifier notify.Scheduler
	// pipeline is the optimization pipeline applied per alarm.
	pipeline *optimize.Pipeline
	// tickPeriod is the loop interval.
	tickPeriod time.Duration
	// now is injectable for deterministic tests.
	now func() time.Time

	// mu guards cfg and stats. The loop itself is single-threaded, but the
	// HTTP surface reads and updates both concurrently.
	mu sync.RWMutex
	// cfg is the current scheduling configuration.
	cfg *domain.SchedulingConfig
	// stats is the advisory telemetry accumulated across ticks.
	stats *domain.SchedulingStats

	// busy prevents overlapping ticks: a tick that is still running when the
	// next timer fires makes the new tick a no-op.
	busy atomic.Bool
}

// NewService creates the scheduling loop and loads persisted engine state.
func NewService(
	ctx context.Context,
	store alarms.Store,
	settingsRepo *settings.Repository,
	notifier notify.Scheduler,
	pipeline *optimize.Pipeline,
	tickPeriod time.Duration,
) (*Service, error) {
	if tickPeriod <= 0 {
		tickPeriod = DefaultTickPeriod
	}

	cfg, err := settingsRepo.LoadConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load scheduling config: %w", err)
	}

	stats, err := settingsRepo.LoadStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("load scheduling stats: %w", err)
	}

	s := &Service{
		store:      store,
		settings:   settingsRepo,
		notifier:   notifier,
		pipeline:   pipeline,
		tickPeriod: tickPeriod,
		now:        time.Now,
		cfg:        cfg,
		stats:      stats,
	}

	applyLogLevel(cfg)

	return s, nil
}

// Run drives the periodic re-evaluation until the context is cancelled.
// One initial tick runs immediately so alarms survive process restarts
// without waiting a full period.
func (s *Service) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "scheduler")

	logger.InfoKV(ctx, "Scheduling loop started", "tick_period", s.tickPeriod.String())

	s.Tick(ctx)

	ticker := time.NewTicker(s.tickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Scheduling loop stopped")

			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one re-evaluation of all alarms. A tick that would overlap a
// still-running one is skipped. Panics and per-alarm errors are contained
// here so the loop survives indefinitely.
func (s *Service) Tick(ctx context.Context) {
	if !s.busy.CompareAndSwap(false, true) {
		logger.Warn(ctx, "Previous tick still running, skipping")

		return
	}

	defer s.busy.Store(false)

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorKV(ctx, "Tick panicked", "panic", r)
		}
	}()

	cfg := s.Config()
	adapter := s.adapter(ctx, cfg)

	all, err := s.store.List(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "Failed to load alarms", "error", err)

		return
	}

	for _, a := range all {
		if !a.Enabled {
			continue
		}

		s.evaluateAlarm(ctx, a, cfg, adapter)
	}

	s.persistStats(ctx)
}

// evaluateAlarm optimizes one alarm, commits a genuine change and refreshes
// its notifications. Errors are logged, never propagated: one broken alarm
// must not block the rest of the tick.
func (s *Service) evaluateAlarm(ctx context.Context, a *domain.Alarm, cfg *domain.SchedulingConfig, adapter *notify.Adapter) {
	effective := s.pipeline.Optimize(ctx, a, cfg)

	if !effective.ChangedFrom(a) {
		return
	}

	patch := &domain.Patch{
		Time:                  &effective.Time,
		Days:                  &effective.Days,
		Label:                 &effective.Label,
		Sound:                 &effective.Sound,
		VoiceMood:             &effective.VoiceMood,
		Difficulty:            &effective.Difficulty,
		SnoozeEnabled:         &effective.SnoozeEnabled,
		SnoozeIntervalMinutes: &effective.SnoozeIntervalMinutes,
		MaxSnoozes:            &effective.MaxSnoozes,
		Optimizations:         &effective.Optimizations,
	}

	updated, err := s.store.Update(ctx, a.ID, patch)
	if err != nil {
		logger.ErrorKV(ctx, "Failed to persist optimized alarm", "alarm_id", a.ID, "error", err)

		return
	}

	s.recordOptimizations(effective.Optimizations)

	adapter.CancelOccurrences(ctx, updated.ID)

	scheduled, err := adapter.ScheduleOccurrences(ctx, updated)
	if err != nil {
		logger.ErrorKV(ctx, "Failed to schedule notifications", "alarm_id", updated.ID, "error", err)

		return
	}

	s.mu.Lock()
	s.stats.TotalScheduled += int64(scheduled)
	s.mu.Unlock()

	logger.InfoKV(ctx, "Alarm re-optimized",
		"alarm_id", updated.ID, "time", updated.Time, "notifications", scheduled)
}

// RefreshAll cancels and reschedules notifications for every alarm. Called
// at startup so notifications survive process restarts, and after imports.
func (s *Service) RefreshAll(ctx context.Context) error {
	ctx = logger.WithName(ctx, "scheduler")

	cfg := s.Config()
	adapter := s.adapter(ctx, cfg)

	all, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("load alarms: %w", err)
	}

	for _, a := range all {
		adapter.CancelOccurrences(ctx, a.ID)

		if !a.Enabled {
			continue
		}

		scheduled, err := adapter.ScheduleOccurrences(ctx, a)
		if err != nil {
			logger.ErrorKV(ctx, "Failed to schedule notifications", "alarm_id", a.ID, "error", err)

			continue
		}

		s.mu.Lock()
		s.stats.TotalScheduled += int64(scheduled)
		s.mu.Unlock()
	}

	s.persistStats(ctx)

	return nil
}

// HandleAlarmRemoved clears any scheduled notifications for a deleted or
// disabled alarm.
func (s *Service) HandleAlarmRemoved(ctx context.Context, alarmID string) {
	adapter := s.adapter(ctx, s.Config())
	adapter.CancelOccurrences(ctx, alarmID)
}

// Config returns a copy of the current scheduling configuration.
func (s *Service) Config() *domain.SchedulingConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.cfg.Clone()
}

// UpdateConfig validates, persists and swaps in a new configuration.
func (s *Service) UpdateConfig(ctx context.Context, cfg *domain.SchedulingConfig) error {
	if _, err := time.LoadLocation(cfg.TimeZone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.TimeZone, err)
	}

	if err := s.settings.SaveConfig(ctx, cfg); err != nil {
		return err
	}

	s.mu.Lock()
	s.cfg = cfg.Clone()
	s.mu.Unlock()

	applyLogLevel(cfg)

	logger.InfoKV(ctx, "Scheduling config updated", "timezone", cfg.TimeZone)

	return nil
}

// Stats returns a copy of the accumulated scheduling stats.
func (s *Service) Stats() *domain.SchedulingStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.stats.Clone()
}

// adapter builds the notification adapter for the current configuration.
func (s *Service) adapter(ctx context.Context, cfg *domain.SchedulingConfig) *notify.Adapter {
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		logger.WarnKV(ctx, "Unknown timezone, using UTC", "timezone", cfg.TimeZone)

		loc = time.UTC
	}

	return notify.NewAdapter(s.notifier, recurrence.NewResolverIn(loc), s.pipeline).WithClock(s.now)
}

// recordOptimizations folds committed shifts into the stats.
func (s *Service) recordOptimizations(records []domain.OptimizationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range records {
		if record.AdjustmentMinutes != 0 {
			s.stats.RecordAdjustment(record.Type, record.AdjustmentMinutes)
		}
	}
}

// persistStats writes the stats snapshot; advisory, so failures only log.
func (s *Service) persistStats(ctx context.Context) {
	if err := s.settings.SaveStats(ctx, s.Stats()); err != nil {
		logger.WarnKV(ctx, "Failed to persist stats", "error", err)
	}
}

// WithClock overrides the service time source. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now

	return s
}

// applyLogLevel maps the verbose-logging flag onto the logger level.
func applyLogLevel(cfg *domain.SchedulingConfig) {
	if cfg.VerboseLogging {
		logger.SetLevel(zapcore.DebugLevel)
	}
}
