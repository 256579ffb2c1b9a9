// internal/cli/purge.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ammerola/inventory-be/internal/core/domain"
)

// NewPurgeCommand creates the purge command.
func NewPurgeCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge <collection>",
		Short: "Delete every row of a collection",
		Long: `Delete every row of products or sales. Deleting products leaves
their sales in place.

Example:
  inventoryctl purge products --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete all %s without --yes", args[0])
			}

			s, err := rootOpts.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.service.Delete(cmd.Context(), args[0], domain.Filter{})
			if err != nil {
				return err
			}

			return rootOpts.print(cmd.OutOrStdout(), map[string]int64{"rows": n},
				"%d rows deleted from %s", n, args[0])
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the deletion")

	return cmd
}
