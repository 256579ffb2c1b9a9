// internal/cli/root.go

// Package cli implements the inventoryctl commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/ammerola/inventory-be/internal/app"
	"github.com/ammerola/inventory-be/internal/core/services"
	"github.com/ammerola/inventory-be/internal/pkg/config"
	"github.com/ammerola/inventory-be/internal/pkg/logger"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format   string
	LogLevel string

	// LoadConfig overrides configuration loading. Defaults to config.Load.
	LoadConfig func(logger *slog.Logger) (*config.Config, error)

	logger *slog.Logger
}

// NewRootCommand creates the root command for inventoryctl.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

// NewRootCommandWithOptions creates the root command with preset options.
func NewRootCommandWithOptions(opts *RootOptions) *cobra.Command {
	return newRootCommand(opts)
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventoryctl",
		Short: "Operate the stock inventory",
		Long:  "Run migrations, seed data, record sales and export the products and sales collections.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			opts.logger = logger.NewLogger(&logger.LogConfig{
				Level:       opts.LogLevel,
				Format:      "text",
				Writer:      cmd.ErrOrStderr(),
				ServiceName: "inventoryctl",
			}).Logger
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug|info|warn|error)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewSellCommand(opts))
	cmd.AddCommand(NewPurgeCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))

	return cmd
}

func (o *RootOptions) config() (*config.Config, error) {
	load := o.LoadConfig
	if load == nil {
		load = config.Load
	}
	cfg, err := load(o.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := app.LoadSecrets(context.Background(), cfg, o.logger); err != nil {
		return nil, err
	}
	return cfg, nil
}

// session is an open storage engine with the service running on it.
type session struct {
	cfg     *config.Config
	storage *app.Storage
	service *services.InventoryService
}

func (o *RootOptions) open(ctx context.Context, migrate bool) (*session, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	cfg.Database.AutoMigrate = cfg.Database.AutoMigrate && migrate

	storage, err := app.OpenStorage(ctx, cfg, o.logger)
	if err != nil {
		return nil, err
	}

	return &session{
		cfg:     cfg,
		storage: storage,
		service: services.NewInventoryService(storage.Store, nil, o.logger),
	}, nil
}

func (s *session) Close() {
	s.storage.Close()
}

// print writes v as JSON or formats text with the given layout.
func (o *RootOptions) print(w io.Writer, v any, format string, args ...any) error {
	if o.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintf(w, format+"\n", args...)
	return err
}
