package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	domain "github.com/Coolhgg/relife-scheduler/internal/domain/alarm"
	"github.com/Coolhgg/relife-scheduler/internal/logger"
	"github.com/Coolhgg/relife-scheduler/internal/repository/alarms"
	"github.com/Coolhgg/relife-scheduler/internal/service/bulk"
)

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

// importRequest pairs a snapshot with the policy it is applied under.
type importRequest struct {
	Snapshot *domain.Snapshot    `json:"snapshot"`
	Policy   domain.ImportPolicy `json:"policy"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListAlarms(w http.ResponseWriter, r *http.Request) {
	all, err := s.store.List(r.Context())
	if err != nil {
		respondError(w, r, err)

		return
	}

	if all == nil {
		all = []*domain.Alarm{}
	}

	respondJSON(w, http.StatusOK, all)
}

func (s *Server) handleCreateAlarm(w http.ResponseWriter, r *http.Request) {
	payload := new(domain.Alarm)
	if !decodeBody(w, r, payload) {
		return
	}

	created, err := s.store.Create(r.Context(), payload)
	if err != nil {
		respondError(w, r, err)

		return
	}

	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetAlarm(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, r, err)

		return
	}

	respondJSON(w, http.StatusOK, a)
}

func (s *Server) handlePatchAlarm(w http.ResponseWriter, r *http.Request) {
	patch := new(domain.Patch)
	if !decodeBody(w, r, patch) {
		return
	}

	updated, err := s.store.Update(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		respondError(w, r, err)

		return
	}

	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteAlarm(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.store.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)

		return
	}

	s.scheduler.HandleAlarmRemoved(r.Context(), id)

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBulk(w http.ResponseWriter, r *http.Request) {
	op := new(domain.BulkOperation)
	if !decodeBody(w, r, op) {
		return
	}

	result, err := s.bulk.Execute(r.Context(), op)
	if err != nil {
		respondError(w, r, err)

		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshots.Export(r.Context())
	if err != nil {
		respondError(w, r, err)

		return
	}

	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	req := new(importRequest)
	if !decodeBody(w, r, req) {
		return
	}

	result, err := s.snapshots.Import(r.Context(), req.Snapshot, req.Policy)
	if err != nil {
		respondError(w, r, err)

		return
	}

	if result.Success > 0 {
		if err = s.scheduler.RefreshAll(r.Context()); err != nil {
			logger.ErrorKV(r.Context(), "Failed to refresh notifications after import", "error", err)
		}
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.scheduler.Stats())
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.scheduler.Config())
}

func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	cfg := new(domain.SchedulingConfig)
	if !decodeBody(w, r, cfg) {
		return
	}

	if err := s.scheduler.UpdateConfig(r.Context(), cfg); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})

		return
	}

	respondJSON(w, http.StatusOK, s.scheduler.Config())
}

// decodeBody parses the JSON request body, answering 400 on malformed input.
func decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body: " + err.Error()})

		return false
	}

	return true
}

// respondError maps domain errors onto HTTP status codes.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, alarms.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, alarms.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidTime), errors.Is(err, domain.ErrInvalidDays):
		status = http.StatusBadRequest
	case errors.Is(err, bulk.ErrUnknownKind):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		logger.ErrorKV(r.Context(), "Request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
	}

	respondJSON(w, status, errorResponse{Error: err.Error()})
}

// respondJSON writes the payload with the given status code.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Errorf(context.Background(), "Failed to encode response: %v", err)
	}
}
