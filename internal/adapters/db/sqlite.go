// internal/adapters/db/sqlite.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ammerola/inventory-be/internal/core/ports"
)

// SQLiteDatabase is a single-connection SQLite handle. One open connection
// serializes every transaction in the process.
type SQLiteDatabase struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

var _ ports.Database = (*SQLiteDatabase)(nil)

// OpenSQLite creates or opens the database at path. ":memory:" keeps the
// data for the lifetime of the handle.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteDatabase, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	logger.Info("database connection established",
		slog.String("driver", "sqlite3"),
		slog.String("path", path))

	return &SQLiteDatabase{db: db, path: path, logger: logger}, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// SQL returns the underlying handle.
func (s *SQLiteDatabase) SQL() *sql.DB {
	return s.db
}

func (s *SQLiteDatabase) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Health returns connection statistics and the result of a trivial query.
func (s *SQLiteDatabase) Health(ctx context.Context) map[string]any {
	stats := s.db.Stats()
	health := map[string]any{
		"status":           "healthy",
		"driver":           "sqlite3",
		"path":             s.path,
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*2)
	defer cancel()

	var result int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		health["status"] = "unhealthy"
		health["error"] = err.Error()
	}

	return health
}

func (s *SQLiteDatabase) Close() {
	if err := s.db.Close(); err != nil {
		s.logger.Warn("failed to close database", slog.String("error", err.Error()))
		return
	}
	s.logger.Info("database connections closed")
}
