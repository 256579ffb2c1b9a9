// internal/adapters/db/store.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/ammerola/inventory-be/internal/core/domain"
	"github.com/ammerola/inventory-be/internal/core/ports"
)

// runner is satisfied by both *sql.DB and *sql.Tx.
type runner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store hands out repositories over a shared handle or a transaction.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

var _ ports.Storage = (*Store)(nil)

// NewStore creates a store over db using the SQL flavour of dialect.
func NewStore(db *sql.DB, dialect Dialect, logger *slog.Logger) *Store {
	return &Store{
		db:      db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "store"), slog.String("dialect", dialect.Name)),
	}
}

// Repositories returns repositories that run outside any transaction.
func (s *Store) Repositories() ports.Repositories {
	return s.repositories(s.db)
}

func (s *Store) repositories(r runner) ports.Repositories {
	return ports.Repositories{
		Products: &productRepository{run: r, dialect: s.dialect, logger: s.logger},
		Sales:    &saleRepository{run: r, dialect: s.dialect, logger: s.logger},
	}
}

// WithinTx runs fn with repositories bound to one transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos ports.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.NewPersistenceError("begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, s.repositories(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.ErrorContext(ctx, "rollback failed", slog.String("error", rbErr.Error()))
			return fmt.Errorf("tx failed: %w, rollback failed: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return domain.NewPersistenceError("commit transaction", err)
	}

	return nil
}
