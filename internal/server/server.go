// Package server exposes the shared state cell and the store over HTTP and
// WebSocket.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/haskel/hostwatch/internal/config"
	"github.com/haskel/hostwatch/internal/metrics"
	"github.com/haskel/hostwatch/internal/server/middleware"
)

// StateReader is the read side of the state cell.
type StateReader interface {
	Current() *metrics.Snapshot
	Anomaly(id string) (metrics.Anomaly, bool)
	Subscribe() chan struct{}
	Unsubscribe(ch chan struct{})
}

// History is the query side of the store.
type History interface {
	MetricsRange(ctx context.Context, start, end time.Time, limit int) ([]*metrics.Snapshot, error)
	RecentMetrics(ctx context.Context, limit int) ([]*metrics.Snapshot, error)
	AnomaliesRange(ctx context.Context, start, end time.Time, severity metrics.Severity, limit int) ([]metrics.Anomaly, error)
	RecentAnomalies(ctx context.Context, limit int) ([]metrics.Anomaly, error)
	AnomalyByID(ctx context.Context, id string) (metrics.Anomaly, error)
	SetSetting(ctx context.Context, key, value string) error
	Setting(ctx context.Context, key string) (string, error)
}

type Server struct {
	httpServer *http.Server
	state      StateReader
	history    History
	config     *config.Config
	logger     *slog.Logger
	version    string
	authConfig *middleware.AuthConfig

	// pushInterval paces WebSocket info messages sent before the first
	// snapshot. Keepalive pings use wsPingPeriod.
	pushInterval time.Duration
	systemInfo   func(ctx context.Context) (*SystemInfo, error)
}

func New(cfg *config.Config, st StateReader, history History, logger *slog.Logger, version string) *Server {
	authConfig := &middleware.AuthConfig{
		Enabled:  cfg.Auth.Enabled,
		User:     cfg.Auth.User,
		Password: cfg.Auth.Password,
	}

	s := &Server{
		state:        st,
		history:      history,
		config:       cfg,
		logger:       logger,
		version:      version,
		authConfig:   authConfig,
		pushInterval: cfg.MonitoringInterval(),
		systemInfo:   readSystemInfo,
	}

	mux := s.setupRoutes()

	handler := middleware.Chain(
		mux,
		middleware.Recovery(logger),
		middleware.SecurityHeaders(),
		middleware.Logging(logger),
		middleware.CORS(middleware.CORSConfig{
			Enabled:        cfg.Server.CORS.Enabled,
			AllowedOrigins: cfg.Server.CORS.AllowedOrigins,
		}),
		middleware.RateLimit(middleware.RateLimitConfig{
			Enabled:           cfg.Server.RateLimit.Enabled,
			RequestsPerSecond: cfg.Server.RateLimit.RequestsPerSecond,
			Burst:             cfg.Server.RateLimit.Burst,
		}),
		middleware.MaxBody(0),
		middleware.Auth(authConfig, "/health"),
	)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, fmt.Sprint(cfg.Server.Port)),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// ReloadConfig applies credential changes. Listener, CORS and rate limit
// settings need a restart.
func (s *Server) ReloadConfig(cfg *config.Config) {
	s.authConfig.Update(cfg.Auth.Enabled, cfg.Auth.User, cfg.Auth.Password)
	s.config = cfg

	s.logger.Info("server configuration reloaded",
		"auth_enabled", cfg.Auth.Enabled,
	)
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	s.logger.Info("server starting",
		"addr", s.httpServer.Addr,
		"websocket", "ws://"+s.httpServer.Addr+"/ws",
	)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
