package catalogue

import (
	"encoding/json"
	"slices"
	"strings"

	"odil-be/internal/product"
	"odil-be/internal/variant"
)

const (
	// SentinelID is the owner record that carries the catalogue configuration.
	// It is never shown as a product.
	SentinelID = "__catalog_config__"

	configMetaKey = "__config"
)

// fallbackFamilies is used when the configuration lists no family names.
var fallbackFamilies = []string{"iPhone", "Samsung S", "Samsung A", "Accessories"}

type Family struct {
	ID     string   `json:"id" yaml:"id"`
	Name   string   `json:"name" yaml:"name"`
	Models []string `json:"models" yaml:"models"`
}

// Config is the operator-managed catalogue configuration.
type Config struct {
	Version    int      `json:"version"`
	Categories []string `json:"categories"`
	Families   []Family `json:"families"`

	// GroupsByCategory holds default option groups per category.
	GroupsByCategory map[string]variant.Groups `json:"groupsByCategory"`
	// GroupOverridesByCategoryFamily replaces whole groups for a category and family.
	GroupOverridesByCategoryFamily map[string]map[string]variant.Groups `json:"groupOverridesByCategoryFamily"`
	// GroupHiddenByCategoryFamily lists group labels removed for a category and family.
	GroupHiddenByCategoryFamily map[string]map[string][]string `json:"groupHiddenByCategoryFamily"`
}

func DefaultConfig() Config {
	base := mustBase()
	families := make([]Family, len(base.Families))
	for i, f := range base.Families {
		families[i] = Family{ID: f.ID, Name: f.Name, Models: slices.Clone(f.Models)}
	}
	return Config{
		Version:                        1,
		Categories:                     slices.Clone(base.Categories),
		Families:                       families,
		GroupsByCategory:               map[string]variant.Groups{},
		GroupOverridesByCategoryFamily: map[string]map[string]variant.Groups{},
		GroupHiddenByCategoryFamily:    map[string]map[string][]string{},
	}
}

// ParseConfig merges raw against the defaults one field at a time. A field
// that is missing or has the wrong shape keeps its default; it never fails.
func ParseConfig(raw json.RawMessage) Config {
	cfg := DefaultConfig()

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return cfg
	}

	var version int
	if v, ok := fields["version"]; ok && json.Unmarshal(v, &version) == nil {
		cfg.Version = version
	}

	var categories []*string
	if v, ok := fields["categories"]; ok && json.Unmarshal(v, &categories) == nil {
		cfg.Categories = cfg.Categories[:0]
		for _, c := range categories {
			if c != nil && strings.TrimSpace(*c) != "" {
				cfg.Categories = append(cfg.Categories, strings.TrimSpace(*c))
			}
		}
	}

	var families []*Family
	if v, ok := fields["families"]; ok && json.Unmarshal(v, &families) == nil {
		cfg.Families = cfg.Families[:0]
		for _, f := range families {
			if f != nil {
				cfg.Families = append(cfg.Families, *f)
			}
		}
	}

	var groups map[string]variant.Groups
	if v, ok := fields["groupsByCategory"]; ok && json.Unmarshal(v, &groups) == nil && groups != nil {
		cfg.GroupsByCategory = groups
	}

	var overrides map[string]map[string]variant.Groups
	if v, ok := fields["groupOverridesByCategoryFamily"]; ok && json.Unmarshal(v, &overrides) == nil && overrides != nil {
		cfg.GroupOverridesByCategoryFamily = overrides
	}

	var hidden map[string]map[string][]string
	if v, ok := fields["groupHiddenByCategoryFamily"]; ok && json.Unmarshal(v, &hidden) == nil && hidden != nil {
		cfg.GroupHiddenByCategoryFamily = hidden
	}

	return cfg
}

// ConfigFromRecords reads the configuration carried by the sentinel record,
// or returns the defaults when there is none.
func ConfigFromRecords(records []product.Product) Config {
	for _, r := range records {
		if r.ID != SentinelID {
			continue
		}
		if raw, ok := r.Meta[configMetaKey]; ok {
			return ParseConfig(raw)
		}
	}
	return DefaultConfig()
}

// FamilyNames returns the configured family names in order.
func (c Config) FamilyNames() []string {
	names := make([]string, 0, len(c.Families))
	for _, f := range c.Families {
		if n := strings.TrimSpace(f.Name); n != "" {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return slices.Clone(fallbackFamilies)
	}
	return names
}

// CategoryOrder returns the configured categories, or the built-in list when
// the configuration names none.
func (c Config) CategoryOrder() []string {
	if len(c.Categories) > 0 {
		return slices.Clone(c.Categories)
	}
	return slices.Clone(mustBase().Categories)
}

// ModelsFor returns the model list of the named family.
func (c Config) ModelsFor(family string) []string {
	for _, f := range c.Families {
		if strings.EqualFold(strings.TrimSpace(f.Name), strings.TrimSpace(family)) {
			return slices.Clone(f.Models)
		}
	}
	return nil
}

// GroupsFor resolves the option groups suggested for a category within a
// family: category defaults, then family overrides, minus hidden labels.
func (c Config) GroupsFor(category, family string) variant.Groups {
	out := variant.Groups{}
	for label, values := range c.GroupsByCategory[category] {
		out[label] = slices.Clone(values)
	}
	for label, values := range c.GroupOverridesByCategoryFamily[category][family] {
		out[label] = slices.Clone(values)
	}
	for _, label := range c.GroupHiddenByCategoryFamily[category][family] {
		delete(out, label)
	}
	return out
}

// Record wraps the configuration in its sentinel owner record for storage.
func (c Config) Record() product.Product {
	raw, _ := json.Marshal(c)
	return product.Product{
		ID:       SentinelID,
		Name:     "Catalogue configuration",
		Variants: variant.Groups{},
		Meta:     map[string]json.RawMessage{configMetaKey: raw},
	}
}
