package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"prtg-extract/internal/models"
)

const (
	defaultLimit = 1000
	maxLimit     = 10000
)

var errBadQuery = errors.New("bad query")

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, errBadQuery) || errors.Is(err, models.ErrInvalidWindow) {
		status = http.StatusBadRequest
	} else {
		s.log.Error("Request failed", zap.Error(err))
	}
	http.Error(w, err.Error(), status)
}

// filterFromQuery reads group, sensor_id, from, to and limit. Bounds take any
// date form the CLI accepts; a calendar date in "to" covers the whole day.
func filterFromQuery(q url.Values) (models.RecordFilter, error) {
	f := models.RecordFilter{Group: q.Get("group"), Limit: defaultLimit}

	if v := q.Get("sensor_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return f, fmt.Errorf("%w: sensor_id %q", errBadQuery, v)
		}
		f.SensorID = id
	}
	if v := q.Get("from"); v != "" {
		w, err := models.ParseWindow(v, v)
		if err != nil {
			return f, err
		}
		f.From = w.StartString()
	}
	if v := q.Get("to"); v != "" {
		w, err := models.ParseWindow(v, v)
		if err != nil {
			return f, err
		}
		f.To = w.EndString()
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return f, fmt.Errorf("%w: limit %q", errBadQuery, v)
		}
		f.Limit = min(n, maxLimit)
	}
	return f, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// handleRecords handles /api/records requests
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.serveRecords(w, r, f)
}

// handleSensorRecords handles /api/sensors/{id}/records requests
func (s *Server) handleSensorRecords(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, err)
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: sensor id", errBadQuery))
		return
	}
	f.SensorID = id
	s.serveRecords(w, r, f)
}

func (s *Server) serveRecords(w http.ResponseWriter, r *http.Request, f models.RecordFilter) {
	records, err := s.reader.Records(r.Context(), f)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if records == nil {
		records = []models.AvailabilityRecord{}
	}
	s.writeJSON(w, records)
}

// handleSummary handles /api/summary requests
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, err)
		return
	}
	summaries, err := s.reader.GroupSummaries(r.Context(), f)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if summaries == nil {
		summaries = []models.GroupSummary{}
	}
	s.writeJSON(w, summaries)
}
