package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/Coolhgg/relife-scheduler/internal/domain/alarm"
	"github.com/Coolhgg/relife-scheduler/internal/repository/alarms"
	"github.com/Coolhgg/relife-scheduler/internal/repository/settings"
	"github.com/Coolhgg/relife-scheduler/internal/service/bulk"
	"github.com/Coolhgg/relife-scheduler/internal/service/snapshot"
)

// fakeControl is a SchedulerControl stand-in recording interactions.
type fakeControl struct {
	// cfg is the configuration returned by Config.
	cfg *domain.SchedulingConfig
	// stats is the telemetry returned by Stats.
	stats *domain.SchedulingStats
	// refreshed counts RefreshAll calls.
	refreshed int
	// removed collects ids passed to HandleAlarmRemoved.
	removed []string
}

func newFakeControl() *fakeControl {
	return &fakeControl{
		cfg:   domain.DefaultSchedulingConfig(),
		stats: new(domain.SchedulingStats),
	}
}

func (f *fakeControl) Config() *domain.SchedulingConfig {
	return f.cfg.Clone()
}

func (f *fakeControl) UpdateConfig(_ context.Context, cfg *domain.SchedulingConfig) error {
	if _, err := time.LoadLocation(cfg.TimeZone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.TimeZone, err)
	}

	f.cfg = cfg.Clone()

	return nil
}

func (f *fakeControl) Stats() *domain.SchedulingStats {
	return f.stats.Clone()
}

func (f *fakeControl) RefreshAll(context.Context) error {
	f.refreshed++

	return nil
}

func (f *fakeControl) HandleAlarmRemoved(_ context.Context, alarmID string) {
	f.removed = append(f.removed, alarmID)
}

func newTestServer(t *testing.T) (*Server, alarms.Store, *fakeControl) {
	t.Helper()

	dir := t.TempDir()
	store := alarms.NewFileStore(filepath.Join(dir, "alarms.json"))
	settingsRepo := settings.NewRepository(settings.NewFileKV(filepath.Join(dir, "state.json")))
	control := newFakeControl()

	server := NewServer(store, bulk.NewEngine(store), snapshot.NewEngine(store, settingsRepo), control)

	return server, store, control
}

func doRequest(t *testing.T, server *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader

	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	request := httptest.NewRequest(method, path, reader)
	recorder := httptest.NewRecorder()

	server.Router().ServeHTTP(recorder, request)

	return recorder
}

func decodeInto(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()

	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), target))
}

func validAlarm(label string) *domain.Alarm {
	return &domain.Alarm{
		Time:    "07:00",
		Days:    []time.Weekday{time.Monday, time.Wednesday},
		Label:   label,
		Enabled: true,
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	server, _, _ := newTestServer(t)

	recorder := doRequest(t, server, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestAlarmLifecycle(t *testing.T) {
	t.Parallel()

	server, _, control := newTestServer(t)

	recorder := doRequest(t, server, http.MethodPost, "/alarms", validAlarm("Work"))
	require.Equal(t, http.StatusCreated, recorder.Code)

	created := new(domain.Alarm)
	decodeInto(t, recorder, created)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "Work", created.Label)

	recorder = doRequest(t, server, http.MethodGet, "/alarms/"+created.ID, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	newLabel := "Workday"
	recorder = doRequest(t, server, http.MethodPatch, "/alarms/"+created.ID, &domain.Patch{Label: &newLabel})
	require.Equal(t, http.StatusOK, recorder.Code)

	patched := new(domain.Alarm)
	decodeInto(t, recorder, patched)
	require.Equal(t, "Workday", patched.Label)

	recorder = doRequest(t, server, http.MethodGet, "/alarms", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var listed []*domain.Alarm
	decodeInto(t, recorder, &listed)
	require.Len(t, listed, 1)

	recorder = doRequest(t, server, http.MethodDelete, "/alarms/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, recorder.Code)
	require.Equal(t, []string{created.ID}, control.removed)
}

func TestCreateAlarm_InvalidTime(t *testing.T) {
	t.Parallel()

	server, _, _ := newTestServer(t)

	broken := validAlarm("Broken")
	broken.Time = "25:99"

	recorder := doRequest(t, server, http.MethodPost, "/alarms", broken)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestGetAlarm_NotFound(t *testing.T) {
	t.Parallel()

	server, _, _ := newTestServer(t)

	recorder := doRequest(t, server, http.MethodGet, "/alarms/ghost", nil)
	require.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestBulk_PartialFailure(t *testing.T) {
	t.Parallel()

	server, _, _ := newTestServer(t)

	broken := validAlarm("Broken")
	broken.Time = "nope"

	op := &domain.BulkOperation{
		Kind:    domain.BulkCreate,
		Creates: []*domain.Alarm{validAlarm("One"), broken, validAlarm("Two")},
	}

	recorder := doRequest(t, server, http.MethodPost, "/alarms/bulk", op)
	require.Equal(t, http.StatusOK, recorder.Code)

	result := new(domain.Result)
	decodeInto(t, recorder, result)
	require.Equal(t, 2, result.Success)
	require.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
}

func TestBulk_UnknownKind(t *testing.T) {
	t.Parallel()

	server, _, _ := newTestServer(t)

	recorder := doRequest(t, server, http.MethodPost, "/alarms/bulk",
		&domain.BulkOperation{Kind: "explode"})
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestExportImportRoundtrip(t *testing.T) {
	t.Parallel()

	server, store, control := newTestServer(t)
	ctx := context.Background()

	_, err := store.Create(ctx, validAlarm("Work"))
	require.NoError(t, err)

	recorder := doRequest(t, server, http.MethodGet, "/export", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	snap := new(domain.Snapshot)
	decodeInto(t, recorder, snap)
	require.Equal(t, domain.SnapshotVersion, snap.Version)
	require.Equal(t, 1, snap.Meta.Count)

	require.NoError(t, store.Delete(ctx, snap.Alarms[0].ID))

	recorder = doRequest(t, server, http.MethodPost, "/import", &importRequest{
		Snapshot: snap,
		Policy:   domain.ImportPolicy{PreserveIDs: true, OverwriteExisting: true},
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	result := new(domain.Result)
	decodeInto(t, recorder, result)
	require.Equal(t, 1, result.Success)
	require.Zero(t, result.Failed)
	require.Equal(t, 1, control.refreshed)

	restored, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, restored, 1)
	require.Equal(t, "Work", restored[0].Label)
}

func TestConfigSurface(t *testing.T) {
	t.Parallel()

	server, _, _ := newTestServer(t)

	recorder := doRequest(t, server, http.MethodGet, "/config", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	cfg := new(domain.SchedulingConfig)
	decodeInto(t, recorder, cfg)
	require.Equal(t, "UTC", cfg.TimeZone)

	cfg.TimeZone = "Europe/Berlin"
	recorder = doRequest(t, server, http.MethodPut, "/config", cfg)
	require.Equal(t, http.StatusOK, recorder.Code)

	updated := new(domain.SchedulingConfig)
	decodeInto(t, recorder, updated)
	require.Equal(t, "Europe/Berlin", updated.TimeZone)

	cfg.TimeZone = "Not/AZone"
	recorder = doRequest(t, server, http.MethodPut, "/config", cfg)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestStats(t *testing.T) {
	t.Parallel()

	server, _, control := newTestServer(t)
	control.stats.TotalScheduled = 7

	recorder := doRequest(t, server, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	stats := new(domain.SchedulingStats)
	decodeInto(t, recorder, stats)
	require.Equal(t, int64(7), stats.TotalScheduled)
}
