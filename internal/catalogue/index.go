package catalogue

import (
	"slices"
	"strings"

	"odil-be/internal/product"
	"odil-be/internal/variant"
)

// AllLabel selects every family or every category.
const AllLabel = "All"

// Index records which categories are present per family among visible products.
type Index struct {
	ByFamily map[string]map[string]struct{}
	All      map[string]struct{}
}

func BuildIndex(products []product.Product) Index {
	idx := Index{
		ByFamily: make(map[string]map[string]struct{}),
		All:      make(map[string]struct{}),
	}
	for _, p := range products {
		if p.ID == SentinelID {
			continue
		}
		cat := strings.TrimSpace(p.Category)
		if cat == "" || cat == AllLabel {
			continue
		}
		fam := product.FamilyOf(p)
		if idx.ByFamily[fam] == nil {
			idx.ByFamily[fam] = make(map[string]struct{})
		}
		idx.ByFamily[fam][cat] = struct{}{}
		idx.All[cat] = struct{}{}
	}
	return idx
}

func (idx Index) visible(family string) map[string]struct{} {
	if family == "" || family == AllLabel {
		return idx.All
	}
	return idx.ByFamily[family]
}

// Has reports whether filtering by family and category yields any product.
func (idx Index) Has(family, category string) bool {
	if category == "" || category == AllLabel {
		return family == "" || family == AllLabel || len(idx.ByFamily[family]) > 0
	}
	_, ok := idx.visible(family)[category]
	return ok
}

// Families lists the family filter options, "All" first.
func Families(cfg Config) []string {
	return append([]string{AllLabel}, cfg.FamilyNames()...)
}

// Categories lists the category filter options for a family: "All", then the
// configured order restricted to categories present for the family, then any
// other present categories in collation order.
func Categories(cfg Config, idx Index, family string) []string {
	present := idx.visible(family)
	order := cfg.CategoryOrder()

	out := []string{AllLabel}
	listed := make(map[string]struct{}, len(order))
	for _, c := range order {
		listed[c] = struct{}{}
		if _, ok := present[c]; ok {
			out = append(out, c)
		}
	}

	var extras []string
	for c := range present {
		if _, ok := listed[c]; !ok {
			extras = append(extras, c)
		}
	}
	variant.SortStrings(extras)
	return slices.Concat(out, extras)
}
