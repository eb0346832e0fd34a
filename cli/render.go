package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"stockctl/domain"
)

func writeJSON(w io.Writer, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func renderInventory(w io.Writer, products []domain.Product) error {
	if len(products) == 0 {
		_, err := fmt.Fprintln(w, "(empty inventory)")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSKU\tNAME\tCATEGORY\tPRICE HT\tVAT\tPRICE TTC\tSTOCK")
	for _, p := range products {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.2f\t%.2f\t%.2f\t%d\n",
			p.ID, p.SKU, p.Name, p.Category, p.UnitPriceHT, p.VATRate, p.UnitPriceTTC(), p.Quantity)
	}
	return tw.Flush()
}

func renderTotals(w io.Writer, sku string, qty int, t domain.SaleTotals) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "Sale recorded: %s x%d\n", sku, qty)
	fmt.Fprintf(tw, "  Total HT:\t%.2f\n", t.TotalHT)
	fmt.Fprintf(tw, "  VAT:\t%.2f\n", t.TotalVAT)
	fmt.Fprintf(tw, "  Total TTC:\t%.2f\n", t.TotalTTC)
	return tw.Flush()
}

func renderDashboard(w io.Writer, d domain.Dashboard) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintln(tw, "=== Dashboard ===")
	fmt.Fprintf(tw, "Sales:\t%d\n", d.SalesCount)
	fmt.Fprintf(tw, "Units sold:\t%d\n", d.TotalQuantity)
	fmt.Fprintf(tw, "Revenue HT:\t%.2f\n", d.TotalHT)
	fmt.Fprintf(tw, "VAT:\t%.2f\n", d.TotalVAT)
	fmt.Fprintf(tw, "Revenue TTC:\t%.2f\n", d.TotalTTC)
	return tw.Flush()
}
