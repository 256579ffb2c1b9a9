// internal/app/bootstrap.go
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/inventory-be/internal/adapters/db"
	"github.com/ammerola/inventory-be/internal/adapters/notify"
	"github.com/ammerola/inventory-be/internal/adapters/queue"
	redis_a "github.com/ammerola/inventory-be/internal/adapters/redis_adapter"
	"github.com/ammerola/inventory-be/internal/core/domain"
	"github.com/ammerola/inventory-be/internal/core/ports"
	"github.com/ammerola/inventory-be/internal/pkg/config"
)

// Storage is an open storage engine and the store running on it
type Storage struct {
	Database ports.Database
	Store    *db.Store
	Dialect  db.Dialect

	migration db.MigrationConfig
}

// Close releases the underlying connection pool
func (s *Storage) Close() {
	if s.Database != nil {
		s.Database.Close()
	}
}

// NewMigrator returns a migrator for the open engine. The caller closes it.
func (s *Storage) NewMigrator(ctx context.Context, logger *slog.Logger) (*db.Migrator, error) {
	cfg := s.migration
	return db.NewMigrator(ctx, &cfg, logger)
}

// Migrate applies pending migrations, retrying while the engine comes up
func (s *Storage) Migrate(ctx context.Context, logger *slog.Logger) error {
	cfg := s.migration
	return db.RunMigrationsWithRetry(ctx, &cfg, logger, 3)
}

// DatabaseConfig maps the application config onto the postgres pool config
func DatabaseConfig(cfg *config.Config) *db.Config {
	return &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}
}

// OpenStorage connects to the configured engine and, when AutoMigrate is
// set, brings its schema up to date
func OpenStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Storage, error) {
	var storage *Storage

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		logger.Info("connecting to database",
			slog.String("driver", cfg.Database.Driver),
			slog.String("host", cfg.Database.Host),
			slog.String("database", cfg.Database.Name))

		dbConfig := DatabaseConfig(cfg)
		database, err := db.NewDatabase(ctx, dbConfig, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		storage = &Storage{
			Database:  database,
			Store:     db.NewStore(database.SQL(), db.Postgres, logger),
			Dialect:   db.Postgres,
			migration: db.MigrationConfig{Dialect: db.Postgres, DatabaseURL: dbConfig.URL()},
		}

	case config.DriverSQLite:
		logger.Info("opening database",
			slog.String("driver", cfg.Database.Driver),
			slog.String("path", cfg.Database.SQLitePath))

		database, err := db.OpenSQLite(ctx, cfg.Database.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		storage = &Storage{
			Database:  database,
			Store:     db.NewStore(database.SQL(), db.SQLite, logger),
			Dialect:   db.SQLite,
			migration: db.MigrationConfig{Dialect: db.SQLite, DB: database.SQL()},
		}

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	if cfg.Database.AutoMigrate {
		if err := storage.Migrate(ctx, logger); err != nil {
			storage.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return storage, nil
}

// LoadSecrets overlays passwords from AWS Secrets Manager when a secret
// name is configured
func LoadSecrets(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.AWS.SecretName == "" {
		return nil
	}

	provider, err := config.NewAWSSecretsManager(ctx, cfg.AWS, logger)
	if err != nil {
		return err
	}
	return config.ApplySecrets(ctx, cfg, provider, logger)
}

// AsynqRedisOpt returns the asynq connection options
func AsynqRedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}
}

// NewNotifier composes the change notifiers in delivery order: the
// in-process hub first, then redis pub/sub and the task queue when
// configured. A nil client leaves its notifier out. With redis pub/sub in
// place the hub is left out, RelayChanges feeds it instead so streams on
// every instance see each change once.
func NewNotifier(cfg *config.Config, hub *notify.Hub, client redis.UniversalClient, enqueuer queue.Enqueuer, logger *slog.Logger) *notify.Fanout {
	fanout := notify.NewFanout()

	relayed := cfg.Inventory.NotifyRedis && client != nil
	if hub != nil && !relayed {
		fanout.Add(hub)
	}

	if relayed {
		fanout.Add(redis_a.NewPublisher(client, cfg.Inventory.ChangesChannel, logger))
	}

	if cfg.Inventory.NotifyQueue && enqueuer != nil {
		fanout.Add(queue.NewTaskNotifier(enqueuer, cfg.Inventory.ChangesQueue, cfg.Asynq.RetryMax, logger))
	}

	logger.Info("change notifiers configured", slog.Int("count", fanout.Len()))
	return fanout
}

// RelayChanges forwards changes published on the changes channel to hub
// until ctx is done.
func RelayChanges(ctx context.Context, cfg *config.Config, client redis.UniversalClient, hub *notify.Hub, logger *slog.Logger) error {
	publisher := redis_a.NewPublisher(client, cfg.Inventory.ChangesChannel, logger)
	logger.Info("relaying changes to streams", slog.String("channel", cfg.Inventory.ChangesChannel))

	return publisher.Subscribe(ctx, func(change domain.Change) {
		_ = hub.Notify(ctx, change)
	})
}
