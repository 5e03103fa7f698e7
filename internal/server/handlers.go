package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/haskel/hostwatch/internal/detector"
	"github.com/haskel/hostwatch/internal/metrics"
	"github.com/haskel/hostwatch/internal/storage"
)

const (
	defaultHistoryWindow = time.Hour
	defaultAnomalyWindow = 24 * time.Hour
	maxQueryLimit        = 10000
)

type InfoResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type HealthResponse struct {
	Status           string    `json:"status"`
	Timestamp        time.Time `json:"timestamp"`
	MetricsAvailable bool      `json:"metrics_available"`
}

// Envelope wraps every /api/v1 response.
type Envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type HistoryResponse struct {
	Metrics []*metrics.Snapshot `json:"metrics"`
	Count   int                 `json:"count"`
	Start   time.Time           `json:"start"`
	End     time.Time           `json:"end"`
}

type AnomaliesResponse struct {
	Anomalies []metrics.Anomaly `json:"anomalies"`
	Count     int               `json:"count"`
	Start     time.Time         `json:"start"`
	End       time.Time         `json:"end"`
}

// DeltaResponse compares the two newest stored snapshots.
type DeltaResponse struct {
	From  time.Time             `json:"from"`
	To    time.Time             `json:"to"`
	Delta detector.MetricsDelta `json:"delta"`
	Rates DeltaRates            `json:"rates"`
}

type DeltaRates struct {
	CPUUsagePerSec    float64 `json:"cpu_usage_per_sec"`
	MemoryUsagePerSec float64 `json:"memory_usage_per_sec"`
	TemperaturePerSec float64 `json:"temperature_per_sec"`
	SwapBytesPerSec   float64 `json:"swap_bytes_per_sec"`
}

type SettingRequest struct {
	Value string `json:"value"`
}

type SettingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, InfoResponse{
		Name:    "hostwatch",
		Version: s.version,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:           "healthy",
		Timestamp:        time.Now().UTC(),
		MetricsAvailable: s.state.Current() != nil,
	})
}

func (s *Server) handleCurrentMetrics(w http.ResponseWriter, r *http.Request) {
	snap := s.state.Current()
	if snap == nil {
		s.writeJSON(w, http.StatusOK, Envelope{Status: "success", Message: "No metrics collected yet"})
		return
	}
	s.writeSuccess(w, snap)
}

func (s *Server) handleMetricsHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	start, end, err := parseRange(q, defaultHistoryWindow)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := parseLimit(q)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var snaps []*metrics.Snapshot
	if limit > 0 && !q.Has("start") && !q.Has("end") {
		snaps, err = s.history.RecentMetrics(r.Context(), limit)
	} else {
		snaps, err = s.history.MetricsRange(r.Context(), start, end, limit)
	}
	if err != nil {
		s.logger.Error("failed to query metrics history", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to query metrics history")
		return
	}

	s.writeSuccess(w, HistoryResponse{
		Metrics: snaps,
		Count:   len(snaps),
		Start:   start,
		End:     end,
	})
}

func (s *Server) handleMetricsDelta(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.history.RecentMetrics(r.Context(), 2)
	if err != nil {
		s.logger.Error("failed to query recent metrics", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to query recent metrics")
		return
	}
	if len(snaps) < 2 {
		s.writeError(w, http.StatusNotFound, "at least two snapshots are needed for a delta")
		return
	}

	prev, cur := snaps[0], snaps[1]
	d := detector.Delta(prev, cur)

	s.writeSuccess(w, DeltaResponse{
		From:  prev.Timestamp,
		To:    cur.Timestamp,
		Delta: d,
		Rates: DeltaRates{
			CPUUsagePerSec:    detector.Rate(d.CPUUsage, d.Elapsed),
			MemoryUsagePerSec: detector.Rate(d.MemoryUsage, d.Elapsed),
			TemperaturePerSec: detector.Rate(d.Temperature, d.Elapsed),
			SwapBytesPerSec:   detector.Rate(float64(d.SwapUsed), d.Elapsed),
		},
	})
}

func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	start, end, err := parseRange(q, defaultAnomalyWindow)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := parseLimit(q)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var severity metrics.Severity
	if raw := q.Get("severity"); raw != "" {
		sev, ok := metrics.ParseSeverity(raw)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid severity %q (valid: info, warning, critical)", raw))
			return
		}
		severity = sev
	}

	list, err := s.history.AnomaliesRange(r.Context(), start, end, severity, limit)
	if err != nil {
		s.logger.Error("failed to query anomalies", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to query anomalies")
		return
	}

	s.writeSuccess(w, AnomaliesResponse{
		Anomalies: list,
		Count:     len(list),
		Start:     start,
		End:       end,
	})
}

// handleAnomalyByID looks in the in-memory buffer first, then the store.
func (s *Server) handleAnomalyByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if a, ok := s.state.Anomaly(id); ok {
		s.writeSuccess(w, a)
		return
	}

	a, err := s.history.AnomalyByID(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("Anomaly with id %s not found", id))
		return
	}
	if err != nil {
		s.logger.Error("failed to query anomaly", "id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to query anomaly")
		return
	}
	s.writeSuccess(w, a)
}

func (s *Server) handleSystemInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.systemInfo(r.Context())
	if err != nil {
		s.logger.Error("failed to read system info", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to read system info")
		return
	}
	s.writeSuccess(w, info)
}

func (s *Server) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	value, err := s.history.Setting(r.Context(), key)
	if errors.Is(err, storage.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("setting %s not found", key))
		return
	}
	if err != nil {
		s.logger.Error("failed to load setting", "key", key, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load setting")
		return
	}
	s.writeSuccess(w, SettingResponse{Key: key, Value: value})
}

func (s *Server) handlePutSetting(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	var req SettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.history.SetSetting(r.Context(), key, req.Value); err != nil {
		s.logger.Error("failed to save setting", "key", key, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to save setting")
		return
	}
	s.writeSuccess(w, SettingResponse{Key: key, Value: req.Value})
}

// parseRange reads RFC 3339 start and end. A missing end is now; a missing
// start is end minus window.
func parseRange(q url.Values, window time.Duration) (start, end time.Time, err error) {
	end = time.Now().UTC()
	if raw := q.Get("end"); raw != "" {
		if end, err = time.Parse(time.RFC3339, raw); err != nil {
			return start, end, fmt.Errorf("invalid end timestamp: %w", err)
		}
	}

	start = end.Add(-window)
	if raw := q.Get("start"); raw != "" {
		if start, err = time.Parse(time.RFC3339, raw); err != nil {
			return start, end, fmt.Errorf("invalid start timestamp: %w", err)
		}
	}

	if start.After(end) {
		return start, end, errors.New("start timestamp must be before end timestamp")
	}
	return start, end, nil
}

// parseLimit returns 0 when limit is absent.
func parseLimit(q url.Values) (int, error) {
	raw := q.Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	return min(n, maxQueryLimit), nil
}

func (s *Server) writeSuccess(w http.ResponseWriter, data any) {
	s.writeJSON(w, http.StatusOK, Envelope{Status: "success", Data: data})
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, Envelope{Status: "error", Message: message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response",
			"error", err,
			"status", status,
		)
	}
}
