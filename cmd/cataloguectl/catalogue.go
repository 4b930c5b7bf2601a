package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"odil-be/internal/cache"
	"odil-be/internal/catalogue"
	"odil-be/internal/order"
	"odil-be/internal/product"

	"github.com/spf13/cobra"
)

var (
	cacheDir      string
	listFamily    string
	listCategory  string
	listSearch    string
	catalogueJSON bool
)

var catalogueCmd = &cobra.Command{
	Use:   "catalogue",
	Short: "List the merged catalogue",
	Long: `List every visible product after merging the built-in catalogue with the
owner records.

Examples:
  cataloguectl catalogue
  cataloguectl catalogue --family Apple --category "Phone Screens"
  cataloguectl catalogue --cache .odil --json`,
	RunE: runCatalogue,
}

func init() {
	catalogueCmd.Flags().StringVar(&listFamily, "family", "", "only this family")
	catalogueCmd.Flags().StringVar(&listCategory, "category", "", "only this category")
	catalogueCmd.Flags().StringVarP(&listSearch, "search", "q", "", "substring of name, SKU or description")
	catalogueCmd.Flags().BoolVar(&catalogueJSON, "json", false, "print JSON")
}

// loadCatalogue merges the built-in catalogue with the cached owner records,
// when a cache directory is given.
func loadCatalogue(ctx context.Context, dir string) ([]product.Product, error) {
	var records []product.Product
	if dir != "" {
		store, err := cache.Open(dir)
		if err != nil {
			return nil, err
		}
		defer store.Close()

		records, _, err = store.LoadRecords(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", store.Path(), err)
		}
	}

	res := catalogue.Merge(catalogue.Base(), records)
	return res.Products, nil
}

func runCatalogue(cmd *cobra.Command, _ []string) error {
	products, err := loadCatalogue(cmd.Context(), cacheDir)
	if err != nil {
		return err
	}
	products = catalogue.Filter(products, catalogue.Query{
		Family:   listFamily,
		Category: listCategory,
		Search:   listSearch,
	})

	if catalogueJSON {
		return writeJSON(cmd.OutOrStdout(), products)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tFAMILY\tPRICE")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, product.FamilyOf(p), priceLabel(product.PriceRange(p)))
	}
	return w.Flush()
}

func priceLabel(r product.Range) string {
	if r.Single() {
		return order.FormatMoney(r.Min)
	}
	return order.FormatMoney(r.Min) + " – " + order.FormatMoney(r.Max)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
