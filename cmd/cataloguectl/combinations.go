package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"odil-be/internal/catalogue"
	"odil-be/internal/order"
	"odil-be/internal/product"
	"odil-be/internal/stock"
	"odil-be/internal/variant"

	"github.com/spf13/cobra"
)

var (
	comboActive map[string]string
	comboJSON   bool
)

var combinationsCmd = &cobra.Command{
	Use:   "combinations <product-id>",
	Short: "Expand a product's option groups into priced combinations",
	Long: `Print every combination of a product's option groups with its variant key,
unit price and stock ceiling.

Examples:
  cataloguectl combinations ip13-screen
  cataloguectl combinations ip13-screen --only "Color=Black;Blue"`,
	Args: cobra.ExactArgs(1),
	RunE: runCombinations,
}

func init() {
	combinationsCmd.Flags().StringToStringVar(&comboActive, "only", nil, "restrict a group to the given values, e.g. Color=Red;Blue")
	combinationsCmd.Flags().BoolVar(&comboJSON, "json", false, "print JSON")
}

type comboRow struct {
	Key       variant.Key       `json:"key"`
	Selection variant.Selection `json:"selection"`
	Price     float64           `json:"price"`
	Stock     stock.Limit       `json:"stock"`
}

func runCombinations(cmd *cobra.Command, args []string) error {
	products, err := loadCatalogue(cmd.Context(), cacheDir)
	if err != nil {
		return err
	}
	p, ok := catalogue.Lookup(products)[args[0]]
	if !ok {
		return fmt.Errorf("%w: %s", product.ErrProductNotFound, args[0])
	}

	groups := p.OptionGroups()
	if len(comboActive) > 0 {
		groups = variant.Restrict(groups, activeValues(groups, comboActive))
	}

	var rows []comboRow
	for combo := range variant.Combinations(groups) {
		rows = append(rows, comboRow{
			Key:       combo.Key,
			Selection: combo.Selection,
			Price:     product.UnitPrice(p, combo.Key),
			Stock:     product.StockCeiling(p, combo.Key),
		})
	}

	if comboJSON {
		return writeJSON(cmd.OutOrStdout(), rows)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tPRICE\tSTOCK")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Key, order.FormatMoney(r.Price), stockLabel(r.Stock))
	}
	fmt.Fprintf(w, "\n%d combinations\n", len(rows))
	return w.Flush()
}

// activeValues turns --only flags into an active set. Groups not named keep
// every value. Commas separate flag pairs, so several values of one group are
// joined with semicolons.
func activeValues(groups variant.Groups, flags map[string]string) map[string][]string {
	out := make(map[string][]string, len(groups))
	for label, values := range groups {
		out[label] = values
	}
	for label, raw := range flags {
		var picked []string
		for _, v := range strings.Split(raw, ";") {
			if v = strings.TrimSpace(v); v != "" {
				picked = append(picked, v)
			}
		}
		out[label] = picked
	}
	return out
}

func stockLabel(l stock.Limit) string {
	n, ok := l.Value()
	if !ok {
		return "unlimited"
	}
	return strconv.Itoa(n)
}
