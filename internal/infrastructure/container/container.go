// Package container wires the application with Uber FX
package container

import (
	"context"
	"fmt"

	"github.com/healthyplate/server/internal/application/profile"
	"github.com/healthyplate/server/internal/application/recipe"
	"github.com/healthyplate/server/internal/domain/recipe/catalog"
	"github.com/healthyplate/server/internal/infrastructure/archive"
	"github.com/healthyplate/server/internal/infrastructure/config"
	"github.com/healthyplate/server/internal/infrastructure/http/admin"
	"github.com/healthyplate/server/internal/infrastructure/http/handlers"
	"github.com/healthyplate/server/internal/infrastructure/http/middleware"
	"github.com/healthyplate/server/internal/infrastructure/http/server"
	"github.com/healthyplate/server/internal/infrastructure/monitoring"
	gormrepo "github.com/healthyplate/server/internal/infrastructure/persistence/gorm"
	"github.com/healthyplate/server/internal/infrastructure/persistence/memory"
	"github.com/healthyplate/server/internal/infrastructure/persistence/migrations"
	"github.com/healthyplate/server/internal/infrastructure/persistence/postgres"
	rediscache "github.com/healthyplate/server/internal/infrastructure/persistence/redis"
	"github.com/healthyplate/server/internal/infrastructure/persistence/sqlite"
	"github.com/healthyplate/server/internal/infrastructure/security"
	"github.com/healthyplate/server/internal/infrastructure/spoonacular"
	"github.com/healthyplate/server/internal/ports/inbound"
	"github.com/healthyplate/server/internal/ports/outbound"
	"github.com/healthyplate/server/pkg/healthcheck"
	"github.com/healthyplate/server/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConfigPath is the optional config file given on the command line
type ConfigPath string

// Module provides all dependency injection modules
var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	MonitoringModule,
	DatabaseModule,
	CacheModule,
	RepositoryModule,
	UpstreamModule,
	ServiceModule,
	HTTPModule,
	LifecycleModule,
)

// ConfigModule provides configuration and its file watcher
var ConfigModule = fx.Provide(
	func(path ConfigPath) (*config.Config, *config.Loader, error) {
		return config.NewLoader(string(path))
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, zap.AtomicLevel, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
	},
)

// MonitoringModule provides metrics, tracing and health checks
var MonitoringModule = fx.Provide(
	NewRegistry,
	func(r *prometheus.Registry) prometheus.Registerer { return r },
	func(r *prometheus.Registry) prometheus.Gatherer { return r },
	monitoring.NewHTTPMetrics,
	monitoring.NewUpstreamMetrics,
	NewBusinessMetrics,
	NewTracingProvider,
	NewHealthCheck,
)

// DatabaseModule provides the database connection
var DatabaseModule = fx.Provide(
	NewDatabase,
)

// CacheModule provides the response cache
var CacheModule = fx.Provide(
	NewRedisClient,
	NewCache,
)

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	fx.Annotate(gormrepo.NewProfileRepository, fx.As(new(outbound.ProfileRepository))),
	fx.Annotate(gormrepo.NewFavoriteRepository, fx.As(new(outbound.FavoriteRepository))),
	fx.Annotate(gormrepo.NewGenerationRepository, fx.As(new(outbound.GenerationRepository))),
	fx.Annotate(gormrepo.NewSavedRecipeRepository, fx.As(new(outbound.SavedRecipeRepository))),
)

// UpstreamModule provides the recipe API client and the archive store
var UpstreamModule = fx.Provide(
	NewSpoonacularClient,
	func(c *spoonacular.Client) outbound.RecipeProvider { return c },
	NewArchiveStore,
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	security.NewValidator,
	func(cfg *config.Config) *security.TokenVerifier {
		return security.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	},
	catalog.Default,
	NewRecipeService,
	NewProfileService,
)

// HTTPModule provides the API and admin servers
var HTTPModule = fx.Provide(
	NewClientLimiter,
	NewMiddleware,
	handlers.NewRecipeHandlers,
	handlers.NewProfileHandlers,
	handlers.NewProxyHandler,
	handlers.NewOpenAPIHandler,
	NewHandlers,
	server.NewServer,
	admin.NewServer,
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// NewRegistry creates the Prometheus registry with runtime collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewBusinessMetrics creates the recipe counters and flushes them on stop
func NewBusinessMetrics(lc fx.Lifecycle, reg prometheus.Registerer) (*monitoring.BusinessMetrics, error) {
	m, err := monitoring.NewBusinessMetrics(reg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(m.Shutdown))
	return m, nil
}

// NewTracingProvider configures tracing from the monitoring section
func NewTracingProvider(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
	tp, err := monitoring.NewTracingProvider(monitoring.TracingConfig{
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		OTLPEndpoint:   cfg.Monitoring.OTLPEndpoint,
		SamplingRate:   cfg.Monitoring.SamplingRate,
		Enabled:        cfg.Monitoring.EnableTracing,
	}, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(tp.Shutdown))
	return tp, nil
}

// NewDatabase opens the configured database, applies the schema and
// instruments the connection
func NewDatabase(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, reg prometheus.Registerer) (*gorm.DB, error) {
	gormLog := gormrepo.NewLogger(log, cfg.App.LogLevel, cfg.Database.SlowQuery)

	var db *gorm.DB
	switch cfg.Database.Driver {
	case "postgres":
		if cfg.Database.AutoMigrate {
			if err := migrate(cfg, log); err != nil {
				return nil, err
			}
		}
		cm, err := postgres.NewConnectionManager(cfg, gormLog, log)
		if err != nil {
			return nil, err
		}
		db = cm.DB()
	default:
		var err error
		db, err = sqlite.SetupDatabase(cfg.Database.Path, gormLog)
		if err != nil {
			return nil, fmt.Errorf("failed to setup SQLite database: %w", err)
		}
		log.Info("Connected to SQLite database", zap.String("path", cfg.Database.Path))
	}

	monitor, err := gormrepo.NewQueryMonitor(reg, cfg.Database.SlowQuery, log)
	if err != nil {
		return nil, err
	}
	if err := monitor.Install(db); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := monitoring.RegisterDBStats(reg, sqlDB, cfg.Database.Driver); err != nil {
		return nil, err
	}

	lc.Append(fx.StopHook(func() error { return gormrepo.Close(db) }))
	return db, nil
}

func migrate(cfg *config.Config, log *zap.Logger) error {
	m, err := migrations.New(cfg.GetMigrationURL(), log)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}

// NewRedisClient connects to Redis when it is enabled. It returns a nil
// client otherwise.
func NewRedisClient(lc fx.Lifecycle, cfg *config.Config) (redis.UniversalClient, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	client, err := rediscache.NewClient(context.Background(), cfg.Redis, cfg.RedisAddr())
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(client.Close))
	return client, nil
}

// NewCache uses Redis when a client is available and process memory otherwise
func NewCache(lc fx.Lifecycle, cfg *config.Config, client redis.UniversalClient, log *zap.Logger) outbound.CacheRepository {
	if client != nil {
		log.Info("Using Redis cache", zap.String("addr", cfg.RedisAddr()))
		return rediscache.NewCacheRepository(client, cfg.Redis.KeyPrefix, log)
	}

	log.Info("Using in-memory cache")
	cache := memory.NewCacheRepository()
	lc.Append(fx.StopHook(cache.Close))
	return cache
}

// NewSpoonacularClient creates the upstream client with a logging breaker
func NewSpoonacularClient(cfg *config.Config, log *zap.Logger, metrics *monitoring.UpstreamMetrics) *spoonacular.Client {
	breakerLog := log.Named("circuit-breaker")
	return spoonacular.NewClient(spoonacular.Config{
		APIKey:            cfg.Spoonacular.APIKey,
		BaseURL:           cfg.Spoonacular.BaseURL,
		Timeout:           cfg.Spoonacular.Timeout,
		RequestsPerSecond: cfg.Spoonacular.RequestsPerSecond,
		Burst:             cfg.Spoonacular.Burst,
		Breaker: healthcheck.CircuitBreakerConfig{
			FailureThreshold: cfg.Spoonacular.FailureThreshold,
			Timeout:          cfg.Spoonacular.OpenTimeout,
			OnStateChange: func(name string, from, to healthcheck.CircuitBreakerState) {
				breakerLog.Warn("Circuit breaker state changed",
					zap.String("breaker", name),
					zap.Stringer("from", from),
					zap.Stringer("to", to),
				)
			},
		},
	}, log, spoonacular.WithObserver(metrics.Observe))
}

// NewArchiveStore returns the S3 archive when a bucket is configured and nil
// otherwise
func NewArchiveStore(cfg *config.Config, log *zap.Logger) (outbound.ArchiveStore, error) {
	if cfg.AWS.S3Bucket == "" {
		return nil, nil
	}
	return archive.NewS3Store(cfg.AWS, log)
}

// NewHealthCheck registers a checker per dependency
func NewHealthCheck(
	cfg *config.Config,
	log *zap.Logger,
	db *gorm.DB,
	redisClient redis.UniversalClient,
	upstream *spoonacular.Client,
) (*healthcheck.HealthCheck, error) {
	health := healthcheck.New(cfg.App.Version, log.Named("health"))

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	health.Register("database", healthcheck.NewDatabaseChecker(sqlDB))
	health.Register("spoonacular", healthcheck.NewBreakerChecker(upstream.Breaker()))
	if redisClient != nil {
		health.Register("redis", healthcheck.NewRedisChecker(redisClient))
	}
	return health, nil
}

// NewRecipeService builds the recipe service with its optional collaborators
func NewRecipeService(
	provider outbound.RecipeProvider,
	fallback *catalog.Catalog,
	cache outbound.CacheRepository,
	generations outbound.GenerationRepository,
	favorites outbound.FavoriteRepository,
	profiles outbound.ProfileRepository,
	validator *security.Validator,
	archiveStore outbound.ArchiveStore,
	metrics *monitoring.BusinessMetrics,
	cfg *config.Config,
	log *zap.Logger,
) inbound.RecipeService {
	opts := []recipe.Option{recipe.WithRecorder(metrics)}
	if archiveStore != nil {
		opts = append(opts, recipe.WithArchive(archiveStore))
	}
	return recipe.NewRecipeService(
		provider,
		fallback,
		cache,
		generations,
		favorites,
		profiles,
		validator,
		recipe.Config{SearchTTL: cfg.Cache.SearchTTL, RecipeTTL: cfg.Cache.RecipeTTL},
		log,
		opts...,
	)
}

// NewProfileService builds the profile service
func NewProfileService(
	profiles outbound.ProfileRepository,
	favorites outbound.FavoriteRepository,
	saved outbound.SavedRecipeRepository,
	validator *security.Validator,
	log *zap.Logger,
) inbound.ProfileService {
	return profile.NewProfileService(profiles, favorites, saved, validator, log)
}

// NewClientLimiter creates the per-client limiter and sweeps it while the
// app runs
func NewClientLimiter(lc fx.Lifecycle, cfg *config.Config) *middleware.ClientLimiter {
	limiter := middleware.NewClientLimiter(
		cfg.RateLimit.RequestsPerMin,
		cfg.RateLimit.BurstSize,
		cfg.RateLimit.IdleTTL,
	)

	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go limiter.Run(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
	return limiter
}

// NewMiddleware creates the gin middleware set
func NewMiddleware(
	cfg *config.Config,
	log *zap.Logger,
	tp *monitoring.TracingProvider,
	verifier *security.TokenVerifier,
	limiter *middleware.ClientLimiter,
) *middleware.Middleware {
	return middleware.New(cfg, log, tp.TracerProvider(), verifier, limiter)
}

// NewHandlers groups the route handlers
func NewHandlers(
	recipes *handlers.RecipeHandlers,
	profiles *handlers.ProfileHandlers,
	proxy *handlers.ProxyHandler,
	openAPI *handlers.OpenAPIHandler,
) server.Handlers {
	return server.Handlers{
		Recipes: recipes,
		Profile: profiles,
		Proxy:   proxy,
		OpenAPI: openAPI,
	}
}

// RegisterLifecycleHooks starts the servers and applies log level changes
// from the watched config file
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	loader *config.Loader,
	log *zap.Logger,
	level zap.AtomicLevel,
	api *server.Server,
	adminServer *admin.Server,
) {
	serve := func(name string, start func() error) {
		go func() {
			if err := start(); err != nil {
				log.Error("Server failed", zap.String("server", name), zap.Error(err))
				_ = shutdowner.Shutdown(fx.ExitCode(1))
			}
		}()
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting HealthyPlate",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("database", cfg.Database.Driver),
			)

			serve("api", api.Start)
			serve("admin", adminServer.Start)

			loader.Watch(func(next *config.Config) {
				level.SetLevel(logger.ParseLevel(next.App.LogLevel))
				log.Info("Configuration reloaded", zap.String("log_level", next.App.LogLevel))
			}, func(err error) {
				log.Warn("Ignoring invalid configuration change", zap.Error(err))
			})
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down HealthyPlate")

			if err := api.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}
			if err := adminServer.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown admin server", zap.Error(err))
			}

			_ = log.Sync()
			return nil
		},
	})
}
