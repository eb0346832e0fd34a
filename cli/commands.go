package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"stockctl/domain"
)

// exactArgs is cobra.ExactArgs reported as a usage problem.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

func requireFlag(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return usageError{fmt.Errorf("--%s required", name)}
	}
	return nil
}

func checkOutput(format string) error {
	switch format {
	case "", "table", "json":
		return nil
	}
	return usageError{fmt.Errorf("unsupported output format: %s", format)}
}

func (a *App) initCmd() *cobra.Command {
	var file string
	var reset bool
	cmd := &cobra.Command{
		Use:   "init --file <json>",
		Short: "Initialize the inventory from a JSON catalog",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag("file", file); err != nil {
				return err
			}
			n, err := a.manager.InitializeFromFile(cmd.Context(), file, reset)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d product(s)\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "data/initial_stock.json", "catalog file")
	cmd.Flags().BoolVar(&reset, "reset", true, "drop existing products and sales first")
	return cmd
}

func (a *App) listCmd() *cobra.Command {
	var category, output string
	var minPrice, maxPrice float64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			filter := domain.ListFilter{Category: category}
			if cmd.Flags().Changed("min-price") {
				filter.MinPrice = &minPrice
			}
			if cmd.Flags().Changed("max-price") {
				filter.MaxPrice = &maxPrice
			}
			out, err := a.manager.ListInventory(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if output == "json" {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			return renderInventory(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only this category")
	cmd.Flags().Float64Var(&minPrice, "min-price", 0, "minimum price HT")
	cmd.Flags().Float64Var(&maxPrice, "max-price", 0, "maximum price HT")
	cmd.Flags().StringVar(&output, "output", "table", "output format: table|json")
	return cmd
}

func (a *App) addCmd() *cobra.Command {
	var sku, name, category string
	var price, vat float64
	var quantity int
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := domain.NewProduct{
				SKU:         sku,
				Name:        name,
				Category:    category,
				UnitPriceHT: price,
				Quantity:    quantity,
			}
			if cmd.Flags().Changed("vat") {
				in.VATRate = &vat
			}
			p, err := a.manager.AddProduct(cmd.Context(), in)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), p)
		},
	}
	cmd.Flags().StringVar(&sku, "sku", "", "sku")
	cmd.Flags().StringVar(&name, "name", "", "name")
	cmd.Flags().StringVar(&category, "category", "", "category")
	cmd.Flags().Float64Var(&price, "price", 0, "unit price HT")
	cmd.Flags().IntVar(&quantity, "quantity", 0, "quantity on hand")
	cmd.Flags().Float64Var(&vat, "vat", 0, "VAT rate between 0 and 1 (default from --vat-default)")
	return cmd
}

func (a *App) updateCmd() *cobra.Command {
	var name, category string
	var price, vat float64
	var quantity int
	cmd := &cobra.Command{
		Use:   "update <sku>",
		Short: "Update a product",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch domain.ProductPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("category") {
				patch.Category = &category
			}
			if cmd.Flags().Changed("price") {
				patch.UnitPriceHT = &price
			}
			if cmd.Flags().Changed("quantity") {
				patch.Quantity = &quantity
			}
			if cmd.Flags().Changed("vat") {
				patch.VATRate = &vat
			}
			if patch.IsEmpty() {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to update")
				return nil
			}

			p, err := a.manager.UpdateProduct(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), p)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "name")
	cmd.Flags().StringVar(&category, "category", "", "category")
	cmd.Flags().Float64Var(&price, "price", 0, "unit price HT")
	cmd.Flags().IntVar(&quantity, "quantity", 0, "quantity on hand")
	cmd.Flags().Float64Var(&vat, "vat", 0, "VAT rate between 0 and 1")
	return cmd
}

func (a *App) deleteCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <sku>",
		Short: "Delete a product that has no sales",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sku := args[0]
			if !force {
				fmt.Fprintf(cmd.OutOrStdout(), "Delete %s? (y/N): ", sku)
				resp, err := a.input().ReadString('\n')
				resp = strings.TrimSpace(resp)
				if (err != nil && resp == "") || (resp != "y" && resp != "Y") {
					fmt.Fprintln(cmd.OutOrStdout(), "aborted")
					return nil
				}
			}
			if err := a.manager.DeleteProduct(cmd.Context(), sku); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", sku)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "skip confirmation")
	return cmd
}

func (a *App) sellCmd() *cobra.Command {
	var quantity int
	var output string
	cmd := &cobra.Command{
		Use:   "sell <sku> --quantity N",
		Short: "Sell units of a product",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			totals, err := a.manager.SellProduct(cmd.Context(), args[0], quantity)
			if err != nil {
				return err
			}
			if output == "json" {
				return writeJSON(cmd.OutOrStdout(), totals)
			}
			return renderTotals(cmd.OutOrStdout(), args[0], quantity, totals)
		},
	}
	cmd.Flags().IntVar(&quantity, "quantity", 0, "units to sell")
	cmd.Flags().StringVar(&output, "output", "table", "output format: table|json")
	return cmd
}

func (a *App) dashboardCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show sales totals",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			d, err := a.manager.GetDashboard(cmd.Context())
			if err != nil {
				return err
			}
			if output == "json" {
				return writeJSON(cmd.OutOrStdout(), d)
			}
			return renderDashboard(cmd.OutOrStdout(), d)
		},
	}
	cmd.Flags().StringVar(&output, "output", "table", "output format: table|json")
	return cmd
}

func (a *App) exportCmd() *cobra.Command {
	var file, category string
	cmd := &cobra.Command{
		Use:   "export --file <file>",
		Short: "Export products to JSON",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag("file", file); err != nil {
				return err
			}
			out, err := a.manager.ListInventory(cmd.Context(), domain.ListFilter{Category: category})
			if err != nil {
				return err
			}
			if err := writeFileJSON(file, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d product(s) to %s\n", len(out), file)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "output file")
	cmd.Flags().StringVar(&category, "category", "", "only this category")
	return cmd
}

func (a *App) exportSalesCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "export-sales --file <file>",
		Short: "Export the sales ledger to JSON",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag("file", file); err != nil {
				return err
			}
			out, err := a.manager.ListSales(cmd.Context())
			if err != nil {
				return err
			}
			if out == nil {
				out = []domain.Sale{}
			}
			if err := writeFileJSON(file, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d sale(s) to %s\n", len(out), file)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "output file")
	return cmd
}

// writeFileJSON reports file problems as storage errors so a bad path does
// not end a shell session.
func writeFileJSON(path string, v interface{}) error {
	op := "export " + path
	f, err := os.Create(path)
	if err != nil {
		return domain.NewStorageError(op, err)
	}
	if err := writeJSON(f, v); err != nil {
		f.Close()
		return domain.NewStorageError(op, err)
	}
	if err := f.Close(); err != nil {
		return domain.NewStorageError(op, err)
	}
	return nil
}
