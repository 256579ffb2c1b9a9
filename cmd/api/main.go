// cmd/api/main.go
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

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/inventory-be/internal/adapters/notify"
	"github.com/ammerola/inventory-be/internal/adapters/queue"
	redis_a "github.com/ammerola/inventory-be/internal/adapters/redis_adapter"
	"github.com/ammerola/inventory-be/internal/app"
	"github.com/ammerola/inventory-be/internal/core/services"
	"github.com/ammerola/inventory-be/internal/handlers"
	"github.com/ammerola/inventory-be/internal/handlers/middleware"
	"github.com/ammerola/inventory-be/internal/pkg/config"
	"github.com/ammerola/inventory-be/internal/pkg/logger"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	bootLogger := logger.SetupLogger("info", "json")
	bootLogger.Info("starting inventory api",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
	)

	cfg, err := config.Load(bootLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger := log.Logger
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("driver", cfg.Database.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := app.LoadSecrets(ctx, cfg, slogger); err != nil {
		return err
	}

	deps, err := initializeDependencies(ctx, cfg, slogger)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.cleanup()

	server := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        buildHandler(cfg, deps, log),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(slogger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		slogger.Info("shutdown signal received")

		// Streams end with the hub so Shutdown does not wait on them.
		deps.hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			server.Close()
		}
	}

	slogger.Info("server shutdown complete")
	return nil
}

// dependencies holds all application dependencies
type dependencies struct {
	storage        *app.Storage
	redisClient    *redis.Client
	asynqClient    *asynq.Client
	asynqInspector *asynq.Inspector
	hub            *notify.Hub

	resourceHandler *handlers.ResourceHandler
	changesHandler  *handlers.ChangesHandler
	exportHandler   *handlers.ExportHandler
	healthHandler   *handlers.HealthHandler
}

func (d *dependencies) cleanup() {
	if d.hub != nil {
		d.hub.Close()
	}
	if d.asynqInspector != nil {
		d.asynqInspector.Close()
	}
	if d.asynqClient != nil {
		d.asynqClient.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	if d.storage != nil {
		d.storage.Close()
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{hub: notify.NewHub(logger)}

	storage, err := app.OpenStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	deps.storage = storage

	// Redis and the queue only back optional features.
	var (
		client    redis.UniversalClient
		enqueuer  queue.Enqueuer
		inspector handlers.QueueInspector
	)
	if cfg.Inventory.NotifyRedis || cfg.Inventory.NotifyQueue {
		redisClient, err := redis_a.NewClient(ctx, cfg.Redis)
		if err != nil {
			deps.cleanup()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		deps.redisClient = redisClient
		client = redisClient
	}
	if cfg.Inventory.NotifyQueue {
		deps.asynqClient = asynq.NewClient(app.AsynqRedisOpt(cfg))
		deps.asynqInspector = asynq.NewInspector(app.AsynqRedisOpt(cfg))
		enqueuer = deps.asynqClient
		inspector = deps.asynqInspector
	}

	notifier := app.NewNotifier(cfg, deps.hub, client, enqueuer, logger)
	if cfg.Inventory.NotifyRedis && client != nil {
		go func() {
			if err := app.RelayChanges(ctx, cfg, client, deps.hub, logger); err != nil {
				logger.Error("change relay stopped", slog.String("error", err.Error()))
			}
		}()
	}

	service := services.NewInventoryService(storage.Store, notifier, logger)

	deps.resourceHandler = handlers.NewResourceHandler(service, cfg.Server.MaxBodyBytes, logger)
	deps.changesHandler = handlers.NewChangesHandler(deps.hub, notify.DefaultBuffer, 0, logger)
	deps.exportHandler = handlers.NewExportHandler(service, cfg.Inventory.PriceExponent, logger)
	deps.healthHandler = handlers.NewHealthHandler(storage.Database, client, inspector, cfg, logger)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func buildHandler(cfg *config.Config, deps *dependencies, log *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", deps.healthHandler.Health)
	mux.HandleFunc("GET /ready", deps.healthHandler.Readiness)
	mux.HandleFunc("GET /api/v1/changes", deps.changesHandler.Stream)
	mux.HandleFunc("GET /export/inventory.xlsx", deps.exportHandler.ExportExcel)
	deps.resourceHandler.Register(mux)

	chain := []middleware.Middleware{
		middleware.RequestID(cfg.Security.RequestIDHeader),
		middleware.Logger(log),
		middleware.Recovery(log.Logger),
	}
	if cfg.Security.SecureHeaders {
		chain = append(chain, middleware.SecureHeaders)
	}
	if len(cfg.Security.AllowedOrigins) > 0 {
		chain = append(chain, middleware.CORS(cfg.Security.AllowedOrigins))
	}
	if cfg.Security.RateLimitRequests > 0 {
		chain = append(chain, middleware.RateLimit(cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration))
	}

	return middleware.Chain(mux, chain...)
}
