package catalogue

import (
	"testing"

	"odil-be/internal/product"
	"odil-be/internal/variant"

	"github.com/stretchr/testify/assert"
)

func indexFixture() []product.Product {
	return []product.Product{
		{ID: "c1", Name: "Slim Case", SKU: "CA-1", Category: "Phone Cases", Variants: variant.Groups{"Model": {"iPhone 13"}}},
		{ID: "c2", Name: "Galaxy Glass", SKU: "SP-2", Category: "Screen Protectors", Variants: variant.Groups{"Model": {"Galaxy S22"}}},
		{ID: "c3", Name: "Charger", SKU: "CH-3", Category: "Chargers", Description: "Fast GaN brick"},
		{ID: "c4", Name: "Widget", SKU: "WG-4", Category: "Gadgets"},
		{ID: "c5", Name: "Adapter", SKU: "AD-5", Category: "Adapters"},
		{ID: "c6", Name: "Nothing", Category: ""},
		DefaultConfig().Record(),
	}
}

func TestCategories(t *testing.T) {
	cfg := DefaultConfig()
	idx := BuildIndex(indexFixture())

	t.Run("All family lists configured order then extras", func(t *testing.T) {
		got := Categories(cfg, idx, AllLabel)
		assert.Equal(t, []string{"All", "Screen Protectors", "Phone Cases", "Chargers", "Adapters", "Gadgets"}, got)
	})

	t.Run("Family restricts to its categories", func(t *testing.T) {
		assert.Equal(t, []string{"All", "Phone Cases"}, Categories(cfg, idx, "iPhone"))
		assert.Equal(t, []string{"All", "Screen Protectors"}, Categories(cfg, idx, "Samsung S"))
	})

	t.Run("Family without products yields only All", func(t *testing.T) {
		assert.Equal(t, []string{"All"}, Categories(cfg, idx, "Samsung A"))
	})

	t.Run("Configured order is honoured", func(t *testing.T) {
		custom := cfg
		custom.Categories = []string{"Chargers", "Phone Cases"}
		got := Categories(custom, idx, AllLabel)
		assert.Equal(t, []string{"All", "Chargers", "Phone Cases", "Adapters", "Gadgets", "Screen Protectors"}, got)
	})

	t.Run("Every listed category is non-empty", func(t *testing.T) {
		for _, fam := range Families(cfg) {
			for _, cat := range Categories(cfg, idx, fam) {
				q := Query{Family: fam, Category: cat}
				if cat == AllLabel {
					continue
				}
				assert.NotEmpty(t, Filter(indexFixture(), q), "%s/%s", fam, cat)
				assert.True(t, idx.Has(fam, cat))
			}
		}
	})
}

func TestFamilies(t *testing.T) {
	assert.Equal(t, []string{"All", "iPhone", "Samsung S", "Samsung A", "Accessories"}, Families(DefaultConfig()))
}

func TestFilter(t *testing.T) {
	products := indexFixture()

	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"Empty query keeps all", Query{}, ids(products)},
		{"Family", Query{Family: "Samsung S"}, []string{"c2"}},
		{"Category", Query{Category: "Chargers"}, []string{"c3"}},
		{"Search name is case-insensitive", Query{Search: "galaxy"}, []string{"c2"}},
		{"Search SKU", Query{Search: "wg-4"}, []string{"c4"}},
		{"Search description", Query{Search: "GAN"}, []string{"c3"}},
		{"All labels match everything", Query{Family: AllLabel, Category: AllLabel, Search: "charger"}, []string{"c3"}},
		{"No match", Query{Family: "iPhone", Category: "Chargers"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(products, tt.q)))
		})
	}
}

func TestLookup(t *testing.T) {
	m := Lookup([]product.Product{{ID: "a"}, {ID: ""}, {ID: "b", Name: "B"}})
	assert.Len(t, m, 2)
	assert.Equal(t, "B", m["b"].Name)
}
