package scheduler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/Coolhgg/relife-scheduler/internal/domain/alarm"
	"github.com/Coolhgg/relife-scheduler/internal/notify"
	"github.com/Coolhgg/relife-scheduler/internal/optimize"
	"github.com/Coolhgg/relife-scheduler/internal/repository/alarms"
	"github.com/Coolhgg/relife-scheduler/internal/repository/settings"
)

var errUpdateRefused = errors.New("update refused")

// memoryStore is a minimal in-memory alarms.Store implementation for tests.
type memoryStore struct {
	mu sync.Mutex
	// alarms holds the collection keyed by id.
	alarms map[string]*domain.Alarm
	// order preserves insertion order for List.
	order []string
	// listCalls counts List invocations.
	listCalls int
	// failUpdateID makes Update fail for one alarm id.
	failUpdateID string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{alarms: map[string]*domain.Alarm{}}
}

func (m *memoryStore) List(context.Context) ([]*domain.Alarm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listCalls++

	result := make([]*domain.Alarm, 0, len(m.order))
	for _, id := range m.order {
		result = append(result, m.alarms[id].Clone())
	}

	return result, nil
}

func (m *memoryStore) Get(_ context.Context, id string) (*domain.Alarm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.alarms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", alarms.ErrNotFound, id)
	}

	return a.Clone(), nil
}

func (m *memoryStore) Create(_ context.Context, a *domain.Alarm) (*domain.Alarm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := a.Clone()
	m.alarms[stored.ID] = stored
	m.order = append(m.order, stored.ID)

	return stored.Clone(), nil
}

func (m *memoryStore) Update(_ context.Context, id string, patch *domain.Patch) (*domain.Alarm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == m.failUpdateID {
		return nil, errUpdateRefused
	}

	a, ok := m.alarms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", alarms.ErrNotFound, id)
	}

	a.Apply(patch)

	return a.Clone(), nil
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.alarms, id)

	for index, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:index], m.order[index+1:]...)

			break
		}
	}

	return nil
}

// countingNotifier records schedule/cancel calls.
type countingNotifier struct {
	mu sync.Mutex
	// scheduled maps notification id to fire instant.
	scheduled map[int64]time.Time
	// scheduleCalls counts Schedule invocations.
	scheduleCalls int
}

func newCountingNotifier() *countingNotifier {
	return &countingNotifier{scheduled: map[int64]time.Time{}}
}

func (n *countingNotifier) Schedule(_ context.Context, id int64, _, _ string, fireAt time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.scheduleCalls++
	n.scheduled[id] = fireAt

	return nil
}

func (n *countingNotifier) Cancel(_ context.Context, id int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.scheduled, id)

	return nil
}

// mondayNoon pins the engine clock to a Monday at an equinox-adjacent date
// so the seasonal stage rounds to zero.
func mondayNoon() time.Time {
	return time.Date(2025, time.March, 24, 12, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T, store alarms.Store, notifier notify.Scheduler) *Service {
	t.Helper()

	settingsRepo := settings.NewRepository(settings.NewFileKV(filepath.Join(t.TempDir(), "state.json")))

	cfg := domain.DefaultSchedulingConfig()
	cfg.WakeWindowMinutes = 30
	cfg.MaxDailyAdjustmentMinutes = 15
	require.NoError(t, settingsRepo.SaveConfig(context.Background(), cfg))

	pipeline := optimize.New(optimize.WithClock(mondayNoon))

	s, err := NewService(context.Background(), store, settingsRepo, notifier, pipeline, time.Minute)
	require.NoError(t, err)

	return s.WithClock(mondayNoon)
}

func enabledAlarm(id, clock string) *domain.Alarm {
	return &domain.Alarm{
		ID:      id,
		Time:    clock,
		Days:    []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		Label:   "Alarm " + id,
		Enabled: true,
	}
}

// TestTick_CommitsOptimizedAlarm verifies the commit policy and notification
// refresh for an alarm the pipeline genuinely changes.
func TestTick_CommitsOptimizedAlarm(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	notifier := newCountingNotifier()
	ctx := context.Background()

	// 06:50 sits 20 minutes past a sleep-cycle boundary; the wake-window
	// stage wants -20 and the daily budget clamps it to -15.
	_, err := store.Create(ctx, enabledAlarm("a1", "06:50"))
	require.NoError(t, err)

	s := newTestService(t, store, notifier)

	s.Tick(ctx)

	stored, err := store.Get(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, "06:35", stored.Time)
	require.NotEmpty(t, stored.Optimizations)

	require.Len(t, notifier.scheduled, 3)
	require.Equal(t, int64(3), s.Stats().TotalScheduled)
	require.Positive(t, s.Stats().AverageAdjustmentMinutes)
}

// TestTick_ConvergesWithoutChurn ensures a second tick does not re-commit or
// re-schedule an already optimized alarm.
func TestTick_ConvergesWithoutChurn(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	notifier := newCountingNotifier()
	ctx := context.Background()

	_, err := store.Create(ctx, enabledAlarm("a1", "06:50"))
	require.NoError(t, err)

	s := newTestService(t, store, notifier)

	s.Tick(ctx)

	callsAfterFirst := notifier.scheduleCalls

	s.Tick(ctx)
	require.Equal(t, callsAfterFirst, notifier.scheduleCalls)

	stored, err := store.Get(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, "06:35", stored.Time)
}

// TestTick_SkipsDisabledAlarms leaves disabled alarms untouched.
func TestTick_SkipsDisabledAlarms(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	notifier := newCountingNotifier()
	ctx := context.Background()

	disabled := enabledAlarm("a1", "06:50")
	disabled.Enabled = false

	_, err := store.Create(ctx, disabled)
	require.NoError(t, err)

	s := newTestService(t, store, notifier)

	s.Tick(ctx)

	stored, err := store.Get(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, "06:50", stored.Time)
	require.Empty(t, notifier.scheduled)
}

// TestTick_PerAlarmIsolation keeps processing when one alarm's persist fails.
func TestTick_PerAlarmIsolation(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	store.failUpdateID = "broken"
	notifier := newCountingNotifier()
	ctx := context.Background()

	_, err := store.Create(ctx, enabledAlarm("broken", "06:50"))
	require.NoError(t, err)
	_, err = store.Create(ctx, enabledAlarm("healthy", "06:50"))
	require.NoError(t, err)

	s := newTestService(t, store, notifier)

	s.Tick(ctx)

	stored, err := store.Get(ctx, "healthy")
	require.NoError(t, err)
	require.Equal(t, "06:35", stored.Time)
	require.Len(t, notifier.scheduled, 3)
}

// TestTick_OverlapGuard skips a tick while another is marked running.
func TestTick_OverlapGuard(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	s := newTestService(t, store, newCountingNotifier())

	s.busy.Store(true)
	s.Tick(context.Background())
	require.Zero(t, store.listCalls)

	s.busy.Store(false)
	s.Tick(context.Background())
	require.Equal(t, 1, store.listCalls)
}

// TestRefreshAll_SchedulesActiveAlarms reschedules notifications at startup.
func TestRefreshAll_SchedulesActiveAlarms(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	notifier := newCountingNotifier()
	ctx := context.Background()

	_, err := store.Create(ctx, enabledAlarm("a1", "07:00"))
	require.NoError(t, err)

	disabled := enabledAlarm("a2", "08:00")
	disabled.Enabled = false
	_, err = store.Create(ctx, disabled)
	require.NoError(t, err)

	s := newTestService(t, store, notifier)

	require.NoError(t, s.RefreshAll(ctx))
	require.Len(t, notifier.scheduled, 3)
}

// TestUpdateConfig_ValidatesAndPersists rejects bad timezones and persists
// good configurations.
func TestUpdateConfig_ValidatesAndPersists(t *testing.T) {
	t.Parallel()

	s := newTestService(t, newMemoryStore(), newCountingNotifier())
	ctx := context.Background()

	bad := domain.DefaultSchedulingConfig()
	bad.TimeZone = "Not/AZone"
	require.Error(t, s.UpdateConfig(ctx, bad))

	good := domain.DefaultSchedulingConfig()
	good.TimeZone = "Europe/Berlin"
	good.MaxDailyAdjustmentMinutes = 20
	require.NoError(t, s.UpdateConfig(ctx, good))

	require.Equal(t, "Europe/Berlin", s.Config().TimeZone)
	require.Equal(t, 20, s.Config().MaxDailyAdjustmentMinutes)
}

// TestRun_StopsOnContextCancel terminates the loop cleanly.
func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	s := newTestService(t, newMemoryStore(), newCountingNotifier())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)

	go func() {
		done <- s.Run(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
}
