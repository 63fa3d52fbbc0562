package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/xzhiot/telemetry-replayer/internal/auth"
	"github.com/xzhiot/telemetry-replayer/internal/models"
	"github.com/xzhiot/telemetry-replayer/internal/storage"
)

const (
	defaultEventLimit = 20
	maxEventLimit     = 500
)

// HandleLogin exchanges the admin credentials for an access token
func (s *RESTServer) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validator.Validate(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, expiresAt, err := s.auth.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		log.Error().Err(err).Msg("Failed to issue token")
		s.respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_at":   expiresAt,
	})
}

// HandleListDevices lists every device of the current run, optionally
// narrowed by ?zone= and ?state=
func (s *RESTServer) HandleListDevices(w http.ResponseWriter, r *http.Request) {
	zone := r.URL.Query().Get("zone")
	state := r.URL.Query().Get("state")

	devices := make([]models.DeviceStatus, 0)
	for _, st := range s.fleet.Status() {
		if zone != "" && st.Zone != zone {
			continue
		}
		if state != "" && st.State != state {
			continue
		}
		devices = append(devices, st)
	}
	sort.SliceStable(devices, func(i, j int) bool {
		if devices[i].Zone != devices[j].Zone {
			return devices[i].Zone < devices[j].Zone
		}
		return devices[i].Name < devices[j].Name
	})

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":  s.fleet.RunID(),
		"devices": devices,
		"total":   len(devices),
	})
}

// HandleGetDevice returns one device's status
func (s *RESTServer) HandleGetDevice(w http.ResponseWriter, r *http.Request) {
	zone := chi.URLParam(r, "zone")
	name := chi.URLParam(r, "name")

	st, ok := s.fleet.Lookup(zone, name)
	if !ok {
		s.respondError(w, http.StatusNotFound, "device not found")
		return
	}
	s.respondJSON(w, http.StatusOK, st)
}

// HandleListEvents lists recorded replay events, newest first
func (s *RESTServer) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 {
		limit = defaultEventLimit
	}
	if limit > maxEventLimit {
		limit = maxEventLimit
	}
	offset, _ := strconv.Atoi(q.Get("offset"))
	if offset < 0 {
		offset = 0
	}

	filters := storage.EventLogFilters{
		Zone:   q.Get("zone"),
		Device: q.Get("device"),
	}

	if runID := q.Get("run_id"); runID != "" {
		id, err := uuid.Parse(runID)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid run_id")
			return
		}
		filters.RunID = &id
	}

	if eventType := q.Get("type"); eventType != "" {
		t := models.EventType(eventType)
		filters.Type = &t
	}

	if level := q.Get("level"); level != "" {
		l := models.EventLevel(level)
		filters.Level = &l
	}

	for key, dst := range map[string]**time.Time{"since": &filters.StartTime, "until": &filters.EndTime} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid "+key)
			return
		}
		*dst = &ts
	}

	events, total, err := s.store.ListEventLogs(r.Context(), filters, limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list events")
		s.respondError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	if events == nil {
		events = []*models.EventLog{}
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"total":  total,
	})
}

// HandleHealth health check
func (s *RESTServer) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now(),
		"run_id": s.fleet.RunID(),
	})
}

// respondJSON responds with JSON
func (s *RESTServer) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

// respondError responds with error
func (s *RESTServer) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{
		"error": message,
	})
}
