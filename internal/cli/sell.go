// internal/cli/sell.go
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ammerola/inventory-be/internal/core/domain"
)

// SellOptions holds flags for the sell command.
type SellOptions struct {
	*RootOptions
	Name      string
	ProductID int64
	Quantity  int64
	Price     int64
	Supplier  string
	Phone     string
}

// NewSellCommand creates the sell command.
func NewSellCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SellOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sell",
		Short: "Record a sale and debit the stock",
		Long: `Record a sale. The product is matched by --product-id when given,
otherwise by --name, and its quantity is debited in the same transaction.

Example:
  inventoryctl sell --name FC176 --quantity 100 --price 60 --supplier forsclass`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := opts.values(cmd)
			if err != nil {
				return err
			}

			s, err := rootOpts.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer s.Close()

			id, err := s.service.Insert(cmd.Context(), string(domain.CollectionSales), values)
			if err != nil {
				return err
			}

			return rootOpts.print(cmd.OutOrStdout(), map[string]int64{"id": id},
				"sale %d recorded", id)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "product name (required)")
	cmd.Flags().Int64Var(&opts.ProductID, "product-id", 0, "product id")
	cmd.Flags().Int64Var(&opts.Quantity, "quantity", 0, "quantity sold (required)")
	cmd.Flags().Int64Var(&opts.Price, "price", 0, "unit price in minor units (required)")
	cmd.Flags().StringVar(&opts.Supplier, "supplier", "", fmt.Sprintf("supplier, one of %s (required)", supplierList()))
	cmd.Flags().StringVar(&opts.Phone, "supplier-phone", "", "supplier phone")
	for _, name := range []string{"name", "quantity", "price", "supplier"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

// values copies only the flags that were set, so absent fields stay absent.
func (o *SellOptions) values(cmd *cobra.Command) (domain.Values, error) {
	flags := cmd.Flags()
	supplier, err := domain.ParseSupplier(o.Supplier)
	if err != nil {
		return domain.Values{}, err
	}

	v := domain.Values{
		Name:     domain.Ptr(o.Name),
		Quantity: domain.Ptr(o.Quantity),
		Price:    domain.Ptr(o.Price),
		Supplier: &supplier,
	}
	if flags.Changed("product-id") {
		v.ProductID = domain.Ptr(o.ProductID)
	}
	if flags.Changed("supplier-phone") {
		v.SupplierPhone = domain.Ptr(o.Phone)
	}

	return v, nil
}

func supplierList() string {
	names := make([]string, 0, len(domain.Suppliers()))
	for _, s := range domain.Suppliers() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}
