package product

import (
	"encoding/json"
	"strings"
	"time"

	"odil-be/internal/variant"
)

// Reserved storage markers. They only appear in persisted rows; the Product
// entity carries the decoded values in typed fields.
const (
	MetaPrefix       = "__"
	MetaFamilyPrefix = "__family:"
	PriceOverrideKey = "__prices"
)

// Product is a catalogue entry, either from the base catalogue or an owner record.
type Product struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	SKU         string   `json:"sku" yaml:"sku"`
	Category    string   `json:"category" yaml:"category"`
	Price       float64  `json:"price" yaml:"price"`
	MinOrder    int      `json:"min_order,omitempty" yaml:"min_order,omitempty"`
	Description string   `json:"description" yaml:"description"`
	Images      []string `json:"images" yaml:"images"`
	Specs       []string `json:"specs" yaml:"specs"`

	// Family is the explicit family tag; empty means "infer from the models".
	Family string `json:"family,omitempty" yaml:"family,omitempty"`

	Variants       variant.Groups          `json:"variants" yaml:"variants"`
	PriceOverrides map[variant.Key]float64 `json:"price_overrides,omitempty" yaml:"price_overrides,omitempty"`
	Inventory      map[variant.Key]int     `json:"inventory,omitempty" yaml:"inventory,omitempty"`

	// SourceID references the base product this owner record overrides or hides.
	SourceID string `json:"source_id,omitempty" yaml:"-"`
	Hidden   bool   `json:"hidden,omitempty" yaml:"-"`

	// Pending marks a record accepted locally but not yet confirmed by the store.
	Pending bool `json:"pending,omitempty" yaml:"-"`

	// Meta holds non-option "__" variant entries (e.g. the catalogue config payload)
	// and MetaSpecs any other "__" spec strings; both round-trip untouched.
	Meta      map[string]json.RawMessage `json:"-" yaml:"-"`
	MetaSpecs []string                   `json:"-" yaml:"-"`

	CreatedAt time.Time `json:"created_at,omitzero" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at,omitzero" yaml:"-"`
}

// IsOverride reports whether the record references a base product.
func (p Product) IsOverride() bool {
	return strings.TrimSpace(p.SourceID) != ""
}

// IsHide reports whether the record suppresses its referenced base product.
func (p Product) IsHide() bool {
	return p.Hidden && p.IsOverride()
}

// OptionGroups returns the groups a customer chooses from: non-empty value
// lists whose label is not reserved.
func (p Product) OptionGroups() variant.Groups {
	out := make(variant.Groups, len(p.Variants))
	for label, values := range p.Variants {
		if strings.TrimSpace(label) == "" || strings.HasPrefix(label, MetaPrefix) {
			continue
		}
		if len(values) == 0 {
			continue
		}
		out[label] = values
	}
	return out
}

// Clone returns a deep copy so callers can never mutate shared catalogue data.
func (p Product) Clone() Product {
	c := p
	c.Images = append([]string(nil), p.Images...)
	c.Specs = append([]string(nil), p.Specs...)
	c.MetaSpecs = append([]string(nil), p.MetaSpecs...)
	if p.Variants != nil {
		c.Variants = make(variant.Groups, len(p.Variants))
		for k, v := range p.Variants {
			c.Variants[k] = append([]string(nil), v...)
		}
	}
	if p.PriceOverrides != nil {
		c.PriceOverrides = make(map[variant.Key]float64, len(p.PriceOverrides))
		for k, v := range p.PriceOverrides {
			c.PriceOverrides[k] = v
		}
	}
	if p.Inventory != nil {
		c.Inventory = make(map[variant.Key]int, len(p.Inventory))
		for k, v := range p.Inventory {
			c.Inventory[k] = v
		}
	}
	if p.Meta != nil {
		c.Meta = make(map[string]json.RawMessage, len(p.Meta))
		for k, v := range p.Meta {
			c.Meta[k] = append(json.RawMessage(nil), v...)
		}
	}
	return c
}
