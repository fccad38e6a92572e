// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Arusey/Huduma/internal/auth"
	"github.com/Arusey/Huduma/internal/config"
	"github.com/Arusey/Huduma/internal/core"
	"github.com/Arusey/Huduma/internal/department"
	"github.com/Arusey/Huduma/internal/health"
	"github.com/Arusey/Huduma/internal/metrics"
	"github.com/Arusey/Huduma/internal/middleware"
	"github.com/Arusey/Huduma/internal/rating"
	"github.com/Arusey/Huduma/internal/review"
	"github.com/Arusey/Huduma/internal/server"
	"github.com/Arusey/Huduma/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting huduma",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("tracer initialized", "endpoint", cfg.Otel.Endpoint)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.AutoMigrate {
		applied, migErr := db.Migrate(ctx)
		if migErr != nil {
			return migErr
		}
		logger.Info("schema migrated", "files", applied)
	}

	if err := metrics.RegisterDB(db.DB.DB, "huduma"); err != nil {
		logger.Warn("db stats collector not registered", "error", err)
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected", "pool_size", cfg.Redis.PoolSize)

	if err := metrics.RegisterRedisPool(redis.PoolStats); err != nil {
		logger.Warn("redis pool collector not registered", "error", err)
	}

	if err := ensureKeys(cfg.JWT, logger); err != nil {
		return err
	}

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.KeyID(),
	)

	userSvc := user.NewService(user.NewRepository(db.DB))
	authSvc := auth.NewService(jwtManager, userSvc, auth.NewRedisBlacklist(redis.Client))
	deptSvc := department.NewService(department.NewRepository(db.DB))
	reviewSvc := review.NewService(review.NewRepository(db.DB), deptSvc)
	ratingSvc := rating.NewService(rating.NewRepository(db.DB), deptSvc)

	userHandler := user.NewHandler(userSvc)
	authHandler := auth.NewHandler(authSvc)
	deptHandler := department.NewHandler(deptSvc)
	reviewHandler := review.NewHandler(reviewSvc)
	ratingHandler := rating.NewHandler(ratingSvc)

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: redis},
	)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(chimw.StripSlashes)
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(metrics.Middleware)
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Scope: "global",
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	if cfg.Otel.Enabled {
		srv.Wrap(func(h http.Handler) http.Handler {
			return otelhttp.NewHandler(h, "huduma.http")
		})
	}

	healthHandler.RegisterRoutes(router)

	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	router.Get("/.well-known/jwks.json", jwtManager.JWKSHandler())

	writeLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Scope: "writes",
		Limit: middleware.PerMinute(
			cfg.RateLimit.WriteRequests,
			cfg.RateLimit.Burst,
		),
		KeyFunc: middleware.KeyByUserAndEndpoint,
		Skip:    middleware.BypassReads,
	}).Handler

	authn := middleware.Authenticator(authSvc)
	authenticator := func(next http.Handler) http.Handler {
		return authn(writeLimiter(next))
	}
	optionalAuth := middleware.OptionalAuth(authSvc)

	router.Route("/user", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterRoutes(r, authenticator)
	})

	router.Route("/departments", func(r chi.Router) {
		deptHandler.RegisterRoutes(r, authenticator)
		reviewHandler.RegisterRoutes(r, authenticator)
	})

	router.Route("/rate", func(r chi.Router) {
		ratingHandler.RegisterRoutes(r, authenticator, optionalAuth)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

// ensureKeys creates the signing key pair on first boot when the config
// allows it. Existing keys are never overwritten.
func ensureKeys(cfg config.JWTConfig, logger *slog.Logger) error {
	if !cfg.GenerateKeys {
		return nil
	}

	_, err := os.Stat(cfg.PrivateKeyPath)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if err := auth.GenerateKeyPair(cfg.PrivateKeyPath, cfg.PublicKeyPath); err != nil {
		return err
	}
	logger.Info("generated JWT key pair", "private_key", cfg.PrivateKeyPath)
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
