// cmd/worker/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	redis_a "github.com/ammerola/inventory-be/internal/adapters/redis_adapter"
	"github.com/ammerola/inventory-be/internal/app"
	"github.com/ammerola/inventory-be/internal/core/services"
	"github.com/ammerola/inventory-be/internal/pkg/config"
	"github.com/ammerola/inventory-be/internal/pkg/logger"
	"github.com/ammerola/inventory-be/internal/workers"
)

func main() {
	slogger := logger.SetupLogger("info", "json").Logger

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat).Logger
	slogger.Info("starting worker",
		slog.String("environment", cfg.App.Environment),
		slog.String("redis_addr", cfg.Asynq.RedisAddr))

	ctx := context.Background()
	if err := app.LoadSecrets(ctx, cfg, slogger); err != nil {
		slogger.Error("failed to load secrets", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Migrations belong to the api and inventoryctl.
	cfg.Database.AutoMigrate = false
	cfg.Database.MaxConnections = 10
	cfg.Database.MinConnections = 2

	storage, err := app.OpenStorage(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer storage.Close()

	redisClient, err := redis_a.NewClient(ctx, cfg.Redis)
	if err != nil {
		slogger.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()

	// The worker only reads, so it announces nothing.
	inventoryService := services.NewInventoryService(storage.Store, nil, slogger)
	cache := redis_a.NewCache(redisClient, cfg.Redis.TTL, slogger)

	srv := asynq.NewServer(
		app.AsynqRedisOpt(cfg),
		asynq.Config{
			Concurrency:     cfg.Asynq.Concurrency,
			Queues:          cfg.Asynq.Queues,
			StrictPriority:  cfg.Asynq.StrictPriority,
			ErrorHandler:    asynq.ErrorHandlerFunc(handleError),
			RetryDelayFunc:  exponentialBackoff,
			ShutdownTimeout: cfg.Asynq.ShutdownTimeout,
			HealthCheckFunc: healthCheck,
			Logger:          newAsynqLogger(slogger),
		},
	)

	mux := asynq.NewServeMux()

	stockProcessor := workers.NewStockProcessor(
		inventoryService,
		cache,
		cfg.Inventory.LowStockThreshold,
		cfg.Inventory.LowStockAlertTTL,
		slogger,
	)
	mux.HandleFunc(workers.TypeInventoryChanged, stockProcessor.ProcessChange)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Run(mux); err != nil {
			slogger.Error("failed to run worker server", slog.String("error", err.Error()))
			shutdown <- syscall.SIGTERM
		}
	}()

	slogger.Info("worker started successfully",
		slog.Int("concurrency", cfg.Asynq.Concurrency),
		slog.Any("queues", cfg.Asynq.Queues),
		slog.Int64("low_stock_threshold", cfg.Inventory.LowStockThreshold))

	sig := <-shutdown
	slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

	srv.Shutdown()
	slogger.Info("worker shutdown complete")
}

func handleError(ctx context.Context, task *asynq.Task, err error) {
	if workers.IsSkipRetry(err) {
		slog.WarnContext(ctx, "task dropped without retry",
			slog.String("type", task.Type()),
			slog.String("error", err.Error()))
		return
	}
	slog.ErrorContext(ctx, "task processing failed",
		slog.String("type", task.Type()),
		slog.String("payload", string(task.Payload())),
		slog.String("error", err.Error()))
}

func exponentialBackoff(n int, e error, t *asynq.Task) time.Duration {
	baseDelay := time.Second
	maxDelay := 10 * time.Minute
	if n > 20 {
		return maxDelay
	}
	delay := baseDelay * time.Duration(1<<uint(n))
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

func healthCheck(err error) {
	if err != nil {
		slog.Error("worker health check failed", slog.String("error", err.Error()))
	}
}

// asynqLogger adapts slog for Asynq
type asynqLogger struct {
	logger *slog.Logger
}

func newAsynqLogger(logger *slog.Logger) *asynqLogger {
	return &asynqLogger{
		logger: logger.With(slog.String("component", "asynq")),
	}
}

func (l *asynqLogger) Debug(args ...any) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...any) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...any) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...any) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...any) {
	l.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}
