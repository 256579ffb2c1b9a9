// internal/cli/migrate.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ammerola/inventory-be/internal/adapters/db"
)

// NewMigrateCommand creates the migrate command group.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, rootOpts, func(m *db.Migrator) error {
				if err := m.Up(cmd.Context()); err != nil {
					return err
				}
				return printVersion(cmd, rootOpts, m)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, rootOpts, func(m *db.Migrator) error {
				if err := m.Down(cmd.Context()); err != nil {
					return err
				}
				return printVersion(cmd, rootOpts, m)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, rootOpts, func(m *db.Migrator) error {
				return printVersion(cmd, rootOpts, m)
			})
		},
	})

	return cmd
}

func withMigrator(cmd *cobra.Command, opts *RootOptions, fn func(*db.Migrator) error) error {
	s, err := opts.open(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer s.Close()

	m, err := s.storage.NewMigrator(cmd.Context(), opts.logger)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	return fn(m)
}

func printVersion(cmd *cobra.Command, opts *RootOptions, m *db.Migrator) error {
	version, dirty, err := m.Version(cmd.Context())
	if err != nil {
		return err
	}
	return opts.print(cmd.OutOrStdout(),
		map[string]any{"version": version, "dirty": dirty},
		"schema version %d (dirty: %t)", version, dirty)
}
