// Package admin provides the operational HTTP server for metrics and probes
package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/healthyplate/server/internal/infrastructure/config"
	"github.com/healthyplate/server/pkg/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server serves /metrics, /health, /ready and /live on the metrics port
type Server struct {
	logger *zap.Logger
	server *http.Server
}

// NewServer creates the admin server
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	gatherer prometheus.Gatherer,
	health *healthcheck.HealthCheck,
) *Server {
	return &Server{
		logger: logger.Named("admin-server"),
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Monitoring.MetricsPort),
			Handler:           NewRouter(cfg, gatherer, health),
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
		},
	}
}

// NewRouter configures the admin routes
func NewRouter(cfg *config.Config, gatherer prometheus.Gatherer, health *healthcheck.HealthCheck) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	if cfg.Monitoring.EnableMetrics {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		}))
	}
	r.Get(pathOr(cfg.Monitoring.HealthCheckPath, "/health"), health.Handler())
	r.Get(pathOr(cfg.Monitoring.ReadinessPath, "/ready"), health.ReadinessHandler())
	r.Get("/live", health.LivenessHandler())

	return r
}

func pathOr(path, fallback string) string {
	if path == "" {
		return fallback
	}
	return path
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("Starting admin server", zap.String("address", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the admin server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
