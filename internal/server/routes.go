package server

import (
	"context"
	"net/http"
	"net/http/pprof"
	"time"
)

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleInfo)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	mux.HandleFunc("GET /api/v1/metrics/current", s.handleCurrentMetrics)
	mux.HandleFunc("GET /api/v1/metrics/history", s.handleMetricsHistory)
	mux.HandleFunc("GET /api/v1/metrics/delta", s.handleMetricsDelta)
	mux.HandleFunc("GET /api/v1/anomalies", s.handleAnomalies)
	mux.HandleFunc("GET /api/v1/anomalies/{id}", s.handleAnomalyByID)
	mux.HandleFunc("GET /api/v1/system/info", s.handleSystemInfo)
	mux.HandleFunc("GET /api/v1/settings/{key}", s.handleGetSetting)
	mux.HandleFunc("PUT /api/v1/settings/{key}", s.handlePutSetting)

	if s.config.Server.Profiling.Enabled {
		s.setupProfilingRoutes(mux)
	}

	return mux
}

// setupProfilingRoutes mounts pprof. Config validation guarantees auth is
// enabled whenever this runs.
func (s *Server) setupProfilingRoutes(mux *http.ServeMux) {
	s.logger.Info("profiling endpoints enabled at /debug/pprof/ (auth required)")

	mux.HandleFunc("GET /debug/pprof/{$}", pprof.Index)
	mux.HandleFunc("GET /debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("GET /debug/pprof/profile", s.withoutWriteTimeout(pprof.Profile))
	mux.HandleFunc("GET /debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("POST /debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("GET /debug/pprof/trace", s.withoutWriteTimeout(pprof.Trace))
	mux.HandleFunc("GET /debug/pprof/{name}", pprof.Index)
}

// withoutWriteTimeout lets CPU profiles and traces run past the server's
// WriteTimeout. pprof refuses any duration at or above the timeout it finds
// in the request context, so the server is hidden from it as well.
func (s *Server) withoutWriteTimeout(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
			s.logger.Debug("failed to clear write deadline", "path", r.URL.Path, "error", err)
		}
		ctx := context.WithValue(r.Context(), http.ServerContextKey, nil)
		h(w, r.WithContext(ctx))
	}
}
