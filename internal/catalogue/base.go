package catalogue

import (
	_ "embed"
	"fmt"
	"sync"

	"odil-be/internal/product"

	"gopkg.in/yaml.v3"
)

//go:embed base_catalogue.yaml
var baseCatalogueYAML []byte

type baseFile struct {
	Categories []string          `yaml:"categories"`
	Families   []Family          `yaml:"families"`
	Products   []product.Product `yaml:"products"`
}

var loadBase = sync.OnceValues(func() (baseFile, error) {
	return parseBase(baseCatalogueYAML)
})

func parseBase(data []byte) (baseFile, error) {
	var f baseFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return baseFile{}, fmt.Errorf("parse base catalogue: %w", err)
	}
	seen := make(map[string]struct{}, len(f.Products))
	for i, p := range f.Products {
		if p.ID == "" {
			return baseFile{}, fmt.Errorf("base catalogue: product %d has no id", i)
		}
		if _, dup := seen[p.ID]; dup {
			return baseFile{}, fmt.Errorf("base catalogue: duplicate id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
		f.Products[i].PriceOverrides = product.SanitizePrices(p.PriceOverrides)
		f.Products[i].Inventory = product.SanitizeInventory(p.Inventory)
	}
	return f, nil
}

func mustBase() baseFile {
	f, err := loadBase()
	if err != nil {
		panic(err)
	}
	return f
}

// Base returns a fresh copy of the compiled-in reference catalogue.
func Base() []product.Product {
	src := mustBase().Products
	out := make([]product.Product, len(src))
	for i, p := range src {
		out[i] = p.Clone()
	}
	return out
}
