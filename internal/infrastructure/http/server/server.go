// Package server provides the public JSON API server
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/healthyplate/server/internal/infrastructure/config"
	"github.com/healthyplate/server/internal/infrastructure/http/handlers"
	"github.com/healthyplate/server/internal/infrastructure/http/middleware"
	"github.com/healthyplate/server/internal/infrastructure/monitoring"
	"github.com/healthyplate/server/pkg/healthcheck"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

// Handlers groups the route handlers mounted under /api/v1
type Handlers struct {
	Recipes *handlers.RecipeHandlers
	Profile *handlers.ProfileHandlers
	Proxy   *handlers.ProxyHandler
	OpenAPI *handlers.OpenAPIHandler
}

// Server represents the HTTP server
type Server struct {
	config *config.Config
	logger *zap.Logger
	engine *gin.Engine
	server *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	mw *middleware.Middleware,
	metrics *monitoring.HTTPMetrics,
	health *healthcheck.HealthCheck,
	h Handlers,
) *Server {
	engine := NewRouter(cfg, logger, mw, metrics, health, h)

	return &Server{
		config: cfg,
		logger: logger.Named("http-server"),
		engine: engine,
		server: &http.Server{
			Addr:           net.JoinHostPort(cfg.Server.Host, fmt.Sprint(cfg.Server.Port)),
			Handler:        engine,
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			IdleTimeout:    cfg.Server.IdleTimeout,
			MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		},
	}
}

// NewRouter builds the gin engine with the middleware chain and all routes
func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	mw *middleware.Middleware,
	metrics *monitoring.HTTPMetrics,
	health *healthcheck.HealthCheck,
	h Handlers,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		logger.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}

	r.Use(mw.Recovery(), mw.RequestID(), mw.Logger())
	if metrics != nil {
		r.Use(metrics.Middleware())
	}
	r.Use(
		mw.Tracing(),
		mw.Security(),
		mw.CORS(),
		mw.Compression(),
		mw.Timeout(cfg.Server.RequestTimeout),
		mw.Identity(),
		mw.RateLimit(),
		mw.ErrorHandler(),
	)

	if path := cfg.Monitoring.HealthCheckPath; path != "" {
		r.GET(path, gin.WrapF(health.Handler()))
	}

	v1 := r.Group("/api/v1")
	v1.GET("/health", gin.WrapF(health.Handler()))
	if h.OpenAPI != nil {
		v1.GET("/openapi.yaml", h.OpenAPI.YAML)
		v1.GET("/openapi.json", h.OpenAPI.JSON)
	}

	v1.GET("/recipes", h.Recipes.SearchRecipes)
	v1.GET("/recipes/:id", h.Recipes.GetRecipe)
	v1.POST("/recipes/generate", h.Recipes.GenerateRecipes)

	client := v1.Group("", mw.RequireClient())
	client.GET("/recommendations", h.Recipes.Recommendations)
	client.GET("/profile", h.Profile.GetProfile)
	client.PUT("/profile", h.Profile.SaveProfile)
	client.GET("/favorites", h.Profile.FavoriteIDs)
	client.GET("/favorites/recipes", h.Recipes.FavoriteRecipes)
	client.POST("/favorites/:id/toggle", h.Profile.ToggleFavorite)

	user := v1.Group("/saved-recipes", mw.RequireUser())
	user.GET("", h.Profile.ListSavedRecipes)
	user.POST("", h.Profile.SaveRecipe)

	v1.POST("/spoonacular", h.Proxy.Forward)
	v1.POST("/spoonacular/:endpoint", h.Proxy.Forward)

	return r
}

// Handler returns the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until Shutdown is called. HTTP/2 is negotiated when the
// listener is TLS terminated.
func (s *Server) Start() error {
	if err := http2.ConfigureServer(s.server, &http2.Server{IdleTimeout: s.config.Server.IdleTimeout}); err != nil {
		s.logger.Error("Failed to configure HTTP/2", zap.Error(err))
	}

	s.logger.Info("Starting HTTP server",
		zap.String("address", s.server.Addr),
		zap.String("environment", s.config.App.Environment),
	)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
