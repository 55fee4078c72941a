// Package server implements the TaskPilot HTTP server: REST API, SSE
// real-time events and the metrics endpoint.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/GoCodeAlone/taskpilot/comms"
	"github.com/GoCodeAlone/taskpilot/config"
	"github.com/GoCodeAlone/taskpilot/internal/metrics"
	"github.com/GoCodeAlone/taskpilot/server/api"
	"github.com/GoCodeAlone/taskpilot/server/ws"
)

// Server is the TaskPilot HTTP server.
type Server struct {
	cfg     config.Config
	mux     *http.ServeMux
	httpSrv *http.Server
	logger  *slog.Logger

	tracker api.Tracker
	bus     comms.Bus
	metrics *metrics.Metrics
	hub     *ws.Hub
	detach  func()

	routes  sync.Once
	version string
}

// New creates a new Server with the given config and logger.
func New(cfg config.Config, ver string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "server")
	return &Server{
		cfg:     cfg,
		mux:     http.NewServeMux(),
		logger:  logger,
		hub:     ws.NewHub(logger),
		version: ver,
	}
}

// SetTracker attaches the task service to the server.
func (s *Server) SetTracker(t api.Tracker) {
	s.tracker = t
}

// SetBus attaches the event bus whose events are streamed on /events.
func (s *Server) SetBus(bus comms.Bus) {
	s.bus = bus
}

// SetMetrics exposes m on /metrics.
func (s *Server) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// Handler registers routes on first use and returns the root handler.
func (s *Server) Handler() http.Handler {
	s.routes.Do(s.registerRoutes)
	return s.mux
}

// Start registers routes and begins listening.
func (s *Server) Start() error {
	addr := s.cfg.Server.Addr
	if addr == "" {
		addr = ":9090"
	}
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
	}
	s.logger.Info("server listening", slog.String("addr", addr))
	return s.httpSrv.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.detach != nil {
		s.detach()
	}
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes() {
	h := &api.Handlers{
		Tracker: s.tracker,
		Bus:     s.bus,
		Logger:  s.logger,
		Version: s.version,
	}
	h.RegisterRoutes(s.mux)

	if s.bus != nil {
		s.detach = s.hub.Attach(s.bus)
	}
	s.mux.HandleFunc("GET /events", s.hub.ServeSSE)

	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
}
