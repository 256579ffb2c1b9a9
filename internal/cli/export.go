// internal/cli/export.go
package cli

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ammerola/inventory-be/internal/adapters/export"
	"github.com/ammerola/inventory-be/internal/adapters/storage"
	"github.com/ammerola/inventory-be/internal/pkg/config"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Out     string
	Upload  bool
	Storage string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write products and sales to an Excel workbook",
		Long: `Write the Products and Sales sheets to --out. With --upload the
workbook is also stored under exports/ in S3 or in the local export
directory.

Example:
  inventoryctl export --out inventory.xlsx
  inventoryctl export --out inventory.xlsx --upload --storage local`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Out, "out", "", "workbook path (required)")
	cmd.Flags().BoolVar(&opts.Upload, "upload", false, "also upload the workbook")
	cmd.Flags().StringVar(&opts.Storage, "storage", "s3", "upload target (s3|local)")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runExport(cmd *cobra.Command, opts *ExportOptions) error {
	ctx := cmd.Context()

	s, err := opts.open(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := export.Collect(ctx, s.service)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, snap, s.cfg.Inventory.PriceExponent); err != nil {
		return err
	}
	if err := os.WriteFile(opts.Out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	result := map[string]any{
		"path":     opts.Out,
		"products": len(snap.Products),
		"sales":    len(snap.Sales),
	}

	if opts.Upload {
		client, err := opts.storageClient(cmd, s.cfg)
		if err != nil {
			return err
		}
		key := path.Join("exports", filepath.Base(opts.Out))
		location, err := client.Upload(ctx, key, bytes.NewReader(buf.Bytes()), export.ContentType)
		if err != nil {
			return err
		}
		result["location"] = location
		return opts.print(cmd.OutOrStdout(), result,
			"exported %d products and %d sales to %s (uploaded to %s)",
			len(snap.Products), len(snap.Sales), opts.Out, location)
	}

	return opts.print(cmd.OutOrStdout(), result,
		"exported %d products and %d sales to %s", len(snap.Products), len(snap.Sales), opts.Out)
}

func (o *ExportOptions) storageClient(cmd *cobra.Command, cfg *config.Config) (storage.StorageClient, error) {
	switch o.Storage {
	case "s3":
		return storage.NewS3Storage(cmd.Context(), cfg.AWS, o.logger)
	case "local":
		return storage.NewLocalStorage(cfg.Inventory.ExportDir, o.logger), nil
	}
	return nil, fmt.Errorf("unknown storage %q: must be s3 or local", o.Storage)
}
