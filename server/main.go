package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"clientregistry/api/routes"
	"clientregistry/internal/audit"
	"clientregistry/internal/auth"
	"clientregistry/internal/clients"
	"clientregistry/internal/shared/config"
	"clientregistry/internal/shared/database"
	"clientregistry/internal/shared/middleware"
	"clientregistry/pkg/logger"
	"clientregistry/pkg/ratelimit"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// @title                       Client Registry API
// @version                     1.0
// @description                 Client registration with RS256 bearer tokens and role or ownership based access.
// @BasePath                    /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	if err := run(); err != nil {
		logger.GetDefault().Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	appLogger := logger.GetDefault()

	// Smart environment loading
	if err := godotenv.Load(); err != nil {
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Set Gin mode (debug/release) before building the logger, which picks
	// its handler from it
	gin.SetMode(cfg.GinMode)
	appLogger = logger.NewWithLevel(cfg.LogLevel)
	logger.SetDefault(appLogger)

	// Key material is loaded once and frozen for the life of the process
	keys, err := auth.LoadKeySet(auth.KeySource{
		PrivateKeyBase64:         cfg.JWT.PrivateKeyBase64,
		PublicKeyBase64:          cfg.JWT.PublicKeyBase64,
		PrivateKeyFile:           cfg.JWT.PrivateKeyFile,
		PublicKeyFile:            cfg.JWT.PublicKeyFile,
		PreviousPublicKeysBase64: cfg.JWT.PreviousPublicKeysBase64,
	})
	if err != nil {
		return fmt.Errorf("load signing keys: %w", err)
	}
	appLogger.Info("Signing keys loaded", slog.String("active_kid", keys.ActiveKID()), slog.Int("verification_keys", len(keys.KIDs())))

	db, err := database.InitDB(cfg, appLogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			appLogger.Error("Error closing database connections", slog.Any("error", err))
		}
	}()

	if err := database.Migrate(db.GetPostgreSQL(), &clients.Client{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	sink, err := newAuditSink(cfg, appLogger)
	if err != nil {
		return err
	}
	dispatcher := audit.NewDispatcher(sink, cfg.Kafka.BufferSize, appLogger)

	appRouter, err := routes.NewRouter(cfg, db, keys, dispatcher, appLogger)
	if err != nil {
		return err
	}

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = appRouter.BootstrapAdmin(bootCtx)
	bootCancel()
	if err != nil {
		return err
	}

	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled && db.Redis != nil {
		rateLimiter = ratelimit.NewRateLimiter(db.GetRedisClient(), &ratelimit.Config{
			Enabled:         cfg.RateLimit.Enabled,
			WindowDuration:  cfg.RateLimit.WindowDuration,
			DefaultRequests: cfg.RateLimit.DefaultRequests,
			AuthRequests:    cfg.RateLimit.AuthRequests,
			ClientRequests:  cfg.RateLimit.ClientRequests,
			HealthRequests:  cfg.RateLimit.HealthRequests,
			WhitelistedIPs:  cfg.RateLimit.WhitelistedIPs,
		})
		appLogger.Info("Rate limiter initialized",
			slog.Duration("window", cfg.RateLimit.WindowDuration),
			slog.Int("auth_requests", cfg.RateLimit.AuthRequests),
		)
	} else {
		appLogger.Info("Rate limiting disabled")
	}

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        setupEngine(cfg, appRouter, rateLimiter, appLogger),
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		appLogger.Info("Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("api_base", cfg.GetAPIBasePath()),
			slog.String("version", Version),
			slog.String("commit", GitCommit),
			slog.String("built", BuildTime),
			slog.Bool("redis", db.Redis != nil),
			slog.Bool("kafka_audit", cfg.Kafka.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if err := dispatcher.Close(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("audit shutdown: %w", err))
		}
		if n := dispatcher.Dropped(); n > 0 {
			appLogger.Warn("Audit events dropped during run", slog.Uint64("count", n))
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	appLogger.Info("Server exited gracefully")
	return nil
}

func newAuditSink(cfg *config.Config, log *logger.Logger) (audit.Sink, error) {
	if !cfg.Kafka.Enabled {
		log.Info("Kafka disabled, audit events go to the log")
		return audit.NewLogSink(log), nil
	}

	kcfg := audit.DefaultKafkaSinkConfig()
	kcfg.Brokers = cfg.Kafka.Brokers
	kcfg.Topic = cfg.Kafka.AuditTopic
	sink, err := audit.NewKafkaSink(kcfg, log)
	if err != nil {
		return nil, fmt.Errorf("audit sink: %w", err)
	}
	log.Info("Kafka audit sink ready", slog.Any("brokers", kcfg.Brokers), slog.String("topic", kcfg.Topic))
	return sink, nil
}

func setupEngine(cfg *config.Config, appRouter *routes.Router, rateLimiter *ratelimit.RateLimiter, appLogger *logger.Logger) *gin.Engine {
	engine := gin.New()

	engine.Use(
		middleware.RequestID(),
		middleware.RequestLogger(appLogger),
		gin.Recovery(),
		middleware.CORS(cfg.CORSOrigins),
	)

	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter, appLogger))
	}

	appRouter.SetupRoutes(engine)
	return engine
}
