// Package core provides the HTTP chassis for the storefront gateway. It builds
// a chi router that serves both a standard HTTP listener (local, containers)
// and AWS Lambda via API Gateway HTTP APIs, and applies the cross-cutting
// concerns (recovery, correlation, logging, CORS, metrics) before requests
// reach the handlers.
package core

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"storefront/internal/config"
)

// MetricsCollector records per-request telemetry.
type MetricsCollector interface {
	RecordRequest(method, endpoint, status string, duration time.Duration)
}

// RouteRegistrar mounts a handler group onto the router.
type RouteRegistrar func(r chi.Router)

// Server holds the chassis dependencies. Fields other than Config and Logger
// are optional and may be set after NewServer, before MountRoutes.
type Server struct {
	Config          *config.Config
	Logger          *slog.Logger
	Metrics         MetricsCollector
	HealthProbes    []HealthProbe
	RouteRegistrars []RouteRegistrar

	router *chi.Mux
}

// NewServer validates the required dependencies and creates an empty router.
// Routes are mounted separately with MountRoutes.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config must not be nil")
	}
	if logger == nil {
		return nil, errors.New("logger must not be nil")
	}

	return &Server{
		Config: cfg,
		Logger: logger,
		router: chi.NewRouter(),
	}, nil
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Shutdown releases server resources. The gateway holds no pools or
// connections of its own, so this only records the event.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.InfoContext(ctx, "server shutdown complete")
	return nil
}
