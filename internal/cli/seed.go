// internal/cli/seed.go
package cli

import (
	"github.com/spf13/cobra"

	"github.com/ammerola/inventory-be/internal/core/domain"
)

var seedProducts = []domain.Values{
	{
		Name:          domain.Ptr("FC176"),
		Price:         domain.Ptr(int64(60)),
		Quantity:      domain.Ptr(int64(445)),
		Supplier:      domain.Ptr(domain.SupplierForsclass),
		SupplierPhone: domain.Ptr("021258439805"),
	},
	{
		Name:          domain.Ptr("AIR90"),
		Price:         domain.Ptr(int64(12000)),
		Quantity:      domain.Ptr(int64(30)),
		Supplier:      domain.Ptr(domain.SupplierNike),
		SupplierPhone: domain.Ptr("0612345678"),
	},
	{
		Name:     domain.Ptr("WK-200"),
		Price:    domain.Ptr(int64(4500)),
		Quantity: domain.Ptr(int64(8)),
		Supplier: domain.Ptr(domain.SupplierWalkair),
	},
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert sample products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rootOpts.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.Close()

			ids := make([]int64, 0, len(seedProducts))
			for _, v := range seedProducts {
				id, err := s.service.Insert(cmd.Context(), string(domain.CollectionProducts), v)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			return rootOpts.print(cmd.OutOrStdout(), map[string]any{"ids": ids},
				"seeded %d products", len(ids))
		},
	}
}
