package rest

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	domain "github.com/Coolhgg/relife-scheduler/internal/domain/alarm"
	"github.com/Coolhgg/relife-scheduler/internal/repository/alarms"
	"github.com/Coolhgg/relife-scheduler/internal/service/bulk"
	"github.com/Coolhgg/relife-scheduler/internal/service/snapshot"
)

// SchedulerControl abstracts the scheduling-loop operations the transport
// layer depends on.
type SchedulerControl interface {
	Config() *domain.SchedulingConfig
	UpdateConfig(ctx context.Context, cfg *domain.SchedulingConfig) error
	Stats() *domain.SchedulingStats
	RefreshAll(ctx context.Context) error
	HandleAlarmRemoved(ctx context.Context, alarmID string)
}

// Server implements the alarm management HTTP API.
type Server struct {
	// store is the alarm persistence collaborator.
	store alarms.Store
	// bulk executes batched alarm operations.
	bulk *bulk.Engine
	// snapshots produces and restores schedule exports.
	snapshots *snapshot.Engine
	// scheduler exposes the scheduling-loop control surface.
	scheduler SchedulerControl
}

// NewServer wires the engine components into an HTTP handler set.
func NewServer(
	store alarms.Store,
	bulkEngine *bulk.Engine,
	snapshotEngine *snapshot.Engine,
	scheduler SchedulerControl,
) *Server {
	return &Server{
		store:     store,
		bulk:      bulkEngine,
		snapshots: snapshotEngine,
		scheduler: scheduler,
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/alarms", s.handleListAlarms).Methods(http.MethodGet)
	r.HandleFunc("/alarms", s.handleCreateAlarm).Methods(http.MethodPost)
	r.HandleFunc("/alarms/bulk", s.handleBulk).Methods(http.MethodPost)
	r.HandleFunc("/alarms/{id}", s.handleGetAlarm).Methods(http.MethodGet)
	r.HandleFunc("/alarms/{id}", s.handlePatchAlarm).Methods(http.MethodPatch)
	r.HandleFunc("/alarms/{id}", s.handleDeleteAlarm).Methods(http.MethodDelete)

	r.HandleFunc("/export", s.handleExport).Methods(http.MethodGet)
	r.HandleFunc("/import", s.handleImport).Methods(http.MethodPost)

	r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/config", s.handleGetConfig).Methods(http.MethodGet)
	r.HandleFunc("/config", s.handlePutConfig).Methods(http.MethodPut)

	return r
}
