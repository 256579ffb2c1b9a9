// test/helpers/helpers.go
package helpers

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/inventory-be/internal/adapters/db"
	"github.com/ammerola/inventory-be/internal/core/domain"
	"github.com/ammerola/inventory-be/internal/pkg/config"
)

// TestDB represents a test database instance
type TestDB struct {
	Database *db.Database
	Store    *db.Store
	Resource *dockertest.Resource
	Pool     *dockertest.Pool
	Config   *db.Config
}

// TestSQLite is a migrated in-memory sqlite store
type TestSQLite struct {
	Database *db.SQLiteDatabase
	Store    *db.Store
}

// TestRedis represents a test Redis instance
type TestRedis struct {
	Client *redis.Client
	Server *miniredis.Miniredis
}

// TestLogger returns a test logger
func TestLogger() *slog.Logger {
	if testing.Verbose() {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// SetupTestPostgres creates a PostgreSQL container for integration tests
func SetupTestPostgres(t *testing.T) *TestDB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "Could not connect to Docker")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=test_inventory",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "Could not start PostgreSQL container")

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Could not purge resource: %s", err)
		}
	})

	dbConfig := &db.Config{
		Host:               "localhost",
		Port:               resource.GetPort("5432/tcp"),
		User:               "test",
		Password:           "test",
		Database:           "test_inventory",
		SSLMode:            "disable",
		MaxConnections:     5,
		MinConnections:     1,
		MaxConnLifetime:    time.Hour,
		MaxConnIdleTime:    time.Minute * 30,
		HealthCheckPeriod:  time.Minute,
		ConnectTimeout:     time.Second * 10,
		EnableQueryLogging: testing.Verbose(),
	}

	// Wait for database to be ready
	var database *db.Database
	err = pool.Retry(func() error {
		ctx := context.Background()
		var err error
		database, err = db.NewDatabase(ctx, dbConfig, TestLogger())
		if err != nil {
			return err
		}
		if err := database.Ping(ctx); err != nil {
			database.Close()
			return err
		}
		return nil
	})
	require.NoError(t, err, "Could not connect to PostgreSQL")
	t.Cleanup(database.Close)

	migrationConfig := &db.MigrationConfig{
		Dialect:     db.Postgres,
		DatabaseURL: dbConfig.URL(),
	}
	err = db.RunMigrationsWithRetry(context.Background(), migrationConfig, TestLogger(), 3)
	require.NoError(t, err, "Could not run migrations")

	return &TestDB{
		Database: database,
		Store:    db.NewStore(database.SQL(), db.Postgres, TestLogger()),
		Resource: resource,
		Pool:     pool,
		Config:   dbConfig,
	}
}

// SetupTestSQLite opens a migrated in-memory sqlite database. The test is
// skipped when the binary was built without cgo.
func SetupTestSQLite(t testing.TB) *TestSQLite {
	t.Helper()

	ctx := context.Background()
	database, err := db.OpenSQLite(ctx, ":memory:", TestLogger())
	if err != nil && strings.Contains(err.Error(), "cgo") {
		t.Skipf("sqlite3 unavailable: %v", err)
	}
	require.NoError(t, err, "Could not open sqlite")
	t.Cleanup(database.Close)

	migrator, err := db.NewMigrator(ctx, &db.MigrationConfig{Dialect: db.SQLite, DB: database.SQL()}, TestLogger())
	require.NoError(t, err)
	require.NoError(t, migrator.Up(ctx), "Could not run migrations")
	require.NoError(t, migrator.Close())

	return &TestSQLite{
		Database: database,
		Store:    db.NewStore(database.SQL(), db.SQLite, TestLogger()),
	}
}

// SetupTestRedis creates a mock Redis instance for testing
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		client.Close()
	})

	return &TestRedis{
		Client: client,
		Server: mr,
	}
}

// SetupMockDB creates a mock database for unit testing
func SetupMockDB(t *testing.T) (sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create mock DB")

	t.Cleanup(func() {
		db.Close()
	})

	return mock, db
}

// LoadTestConfig returns a test configuration backed by sqlite
func LoadTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "test-api",
			Environment: "test",
			Version:     "test",
			LogLevel:    "debug",
			LogFormat:   "text",
			Debug:       true,
		},
		Database: config.DatabaseConfig{
			Driver:         config.DriverSQLite,
			SQLitePath:     ":memory:",
			Host:           "localhost",
			Port:           "5432",
			User:           "test",
			Password:       "test",
			Name:           "test_inventory",
			SSLMode:        "disable",
			MaxConnections: 10,
			MinConnections: 2,
			AutoMigrate:    true,
		},
		Redis: config.RedisConfig{
			Host:     "localhost",
			Port:     "6379",
			DB:       0,
			TTL:      time.Hour,
			PoolSize: 10,
		},
		Asynq: config.AsynqConfig{
			RedisAddr:   "localhost:6379",
			Concurrency: 2,
			Queues:      map[string]int{"default": 1},
			RetryMax:    1,
		},
		Security: config.SecurityConfig{
			RateLimitRequests: 100,
			RateLimitDuration: time.Minute,
			AllowedOrigins:    []string{"*"},
			SecureHeaders:     false,
			RequestIDHeader:   "X-Request-ID",
		},
		Server: config.ServerConfig{
			Host:         "localhost",
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			MaxBodyBytes: 1 << 20,
		},
		Inventory: config.InventoryConfig{
			LowStockThreshold: 10,
			LowStockAlertTTL:  time.Hour,
			ChangesChannel:    "inventory:changes",
			ChangesQueue:      "default",
			PriceExponent:     2,
			ExportDir:         os.TempDir(),
		},
	}
}

// CreateTestProduct creates a test product
func CreateTestProduct(overrides ...func(*domain.Product)) *domain.Product {
	now := time.Now().UTC()
	p := &domain.Product{
		ID:            1,
		Name:          "FC176",
		Price:         1000,
		Quantity:      445,
		Supplier:      domain.SupplierForex,
		SupplierPhone: "0612345678",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	for _, override := range overrides {
		override(p)
	}

	return p
}

// CreateTestSaleValues creates the payload of a sale of quantity units of FC176
func CreateTestSaleValues(quantity int64, overrides ...func(*domain.Values)) domain.Values {
	v := domain.Values{
		Name:     domain.Ptr("FC176"),
		Price:    domain.Ptr(int64(1000)),
		Quantity: domain.Ptr(quantity),
		Supplier: domain.Ptr(domain.SupplierForex),
	}

	for _, override := range overrides {
		override(&v)
	}

	return v
}

// AssertEventuallyWithTimeout asserts that a condition is met within a timeout
func AssertEventuallyWithTimeout(t *testing.T, condition func() bool, timeout time.Duration, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Errorf("Condition not met within %v: %s", timeout, msg)
}

// TruncateAllTables empties the inventory tables of a postgres test database
func TruncateAllTables(t *testing.T, db *sql.DB) {
	t.Helper()

	ctx := context.Background()
	for _, table := range []string{"sales", "products"} {
		_, err := db.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table))
		require.NoError(t, err, "Failed to truncate table: %s", table)
	}
}

// CreateTempFile creates a temporary file for testing
func CreateTempFile(t *testing.T, content []byte, extension string) string {
	t.Helper()

	file, err := os.CreateTemp(t.TempDir(), fmt.Sprintf("test-*%s", extension))
	require.NoError(t, err, "Failed to create temp file")

	_, err = file.Write(content)
	require.NoError(t, err, "Failed to write to temp file")
	require.NoError(t, file.Close())

	return file.Name()
}
