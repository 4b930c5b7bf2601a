package product

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"odil-be/internal/utils"
	"odil-be/internal/variant"
)

// Row is the persisted shape of a product record, shared by the Postgres table,
// the realtime payload and the local cache.
type Row struct {
	ID          string          `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	SKU         string          `db:"sku" json:"sku"`
	Category    string          `db:"category" json:"category"`
	Price       json.RawMessage `db:"price" json:"price"`
	Description string          `db:"description" json:"description"`
	Images      json.RawMessage `db:"images" json:"images"`
	Specs       json.RawMessage `db:"specs" json:"specs"`
	Variants    json.RawMessage `db:"variants" json:"variants"`
	Inventory   json.RawMessage `db:"inventory" json:"inventory"`
	SourceID    *string         `db:"sourceid" json:"sourceid"`
	Hidden      bool            `db:"hidden" json:"hidden"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// Issue describes a data-quality problem coerced away while decoding a row.
type Issue struct {
	Field  string
	Detail string
}

func (i Issue) String() string {
	return i.Field + ": " + i.Detail
}

// Decode converts a stored row into the typed entity. It never fails: invalid
// fields fall back to safe defaults and are reported as issues.
func Decode(row Row) (Product, []Issue) {
	var issues []Issue
	p := Product{
		ID:          strings.TrimSpace(row.ID),
		Name:        row.Name,
		SKU:         row.SKU,
		Category:    row.Category,
		Description: row.Description,
		Hidden:      row.Hidden,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	p.SourceID = strings.TrimSpace(utils.PtrString(row.SourceID))
	if p.ID == "" {
		issues = append(issues, Issue{"id", "missing identifier"})
	}

	var rawPrice any
	if isNull(row.Price) || json.Unmarshal(row.Price, &rawPrice) != nil {
		issues = append(issues, Issue{"price", "missing, defaulted to 0"})
	} else if price, ok := ParsePrice(rawPrice); ok {
		p.Price = price
	} else {
		issues = append(issues, Issue{"price", formatIssue(rawPrice)})
	}

	p.Images = decodeStrings(row.Images)
	decodeSpecs(&p, decodeStrings(row.Specs))
	issues = append(issues, decodeVariants(&p, row.Variants)...)

	if !isNull(row.Inventory) {
		var raw map[string]any
		if err := json.Unmarshal(row.Inventory, &raw); err != nil {
			issues = append(issues, Issue{"inventory", "not an object, ignored"})
		} else {
			p.Inventory = NormalizeInventory(raw)
			if dropped := len(raw) - len(p.Inventory); dropped > 0 {
				issues = append(issues, Issue{"inventory", fmt.Sprintf("dropped %d invalid entries", dropped)})
			}
		}
	}

	return p, issues
}

// Encode converts the entity back into its stored shape.
func Encode(p Product) Row {
	row := Row{
		ID:          p.ID,
		Name:        p.Name,
		SKU:         p.SKU,
		Category:    p.Category,
		Description: p.Description,
		Hidden:      p.Hidden,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.SourceID != "" {
		row.SourceID = utils.StrPtr(p.SourceID)
	}

	price := p.Price
	if price < 0 {
		price = 0
	}
	row.Price = mustJSON(price)

	images := p.Images
	if images == nil {
		images = []string{}
	}
	row.Images = mustJSON(images)
	row.Specs = mustJSON(encodeSpecs(p))

	variants := make(map[string]any, len(p.Variants)+len(p.Meta)+1)
	for k, v := range p.Meta {
		variants[k] = v
	}
	for label, values := range p.OptionGroups() {
		variants[label] = values
	}
	if prices := SanitizePrices(p.PriceOverrides); len(prices) > 0 {
		variants[PriceOverrideKey] = prices
	}
	row.Variants = mustJSON(variants)

	inventory := SanitizeInventory(p.Inventory)
	row.Inventory = mustJSON(inventory)
	return row
}

func decodeSpecs(p *Product, specs []string) {
	for _, s := range specs {
		switch {
		case strings.HasPrefix(s, MetaFamilyPrefix):
			if p.Family == "" {
				p.Family = strings.TrimSpace(strings.TrimPrefix(s, MetaFamilyPrefix))
			}
		case strings.HasPrefix(s, MetaPrefix):
			p.MetaSpecs = append(p.MetaSpecs, s)
		case strings.TrimSpace(s) != "":
			p.Specs = append(p.Specs, s)
		}
	}
}

func encodeSpecs(p Product) []string {
	out := make([]string, 0, len(p.Specs)+len(p.MetaSpecs)+1)
	seen := make(map[string]struct{})
	add := func(s string) {
		if _, ok := seen[s]; ok || s == "" {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if f := strings.TrimSpace(p.Family); f != "" {
		add(MetaFamilyPrefix + f)
	}
	for _, s := range p.MetaSpecs {
		add(s)
	}
	for _, s := range p.Specs {
		if !strings.HasPrefix(s, MetaPrefix) {
			add(s)
		}
	}
	return out
}

func decodeVariants(p *Product, raw json.RawMessage) []Issue {
	p.Variants = variant.Groups{}
	if isNull(raw) {
		return nil
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return []Issue{{"variants", "not an object, ignored"}}
	}

	var issues []Issue
	for label, value := range entries {
		switch {
		case label == PriceOverrideKey:
			var prices map[string]any
			if err := json.Unmarshal(value, &prices); err != nil {
				issues = append(issues, Issue{"price_overrides", "not an object, ignored"})
				continue
			}
			p.PriceOverrides = NormalizePrices(prices)
			if dropped := len(prices) - len(p.PriceOverrides); dropped > 0 {
				issues = append(issues, Issue{"price_overrides", fmt.Sprintf("dropped %d invalid entries", dropped)})
			}
		case strings.HasPrefix(label, MetaPrefix):
			if p.Meta == nil {
				p.Meta = make(map[string]json.RawMessage)
			}
			p.Meta[label] = value
		default:
			values := uniqueTrimmed(decodeStrings(value))
			if len(values) > 0 && strings.TrimSpace(label) != "" {
				p.Variants[strings.TrimSpace(label)] = values
			}
		}
	}
	return issues
}

// decodeStrings accepts an array of scalars or a single string.
func decodeStrings(raw json.RawMessage) []string {
	if isNull(raw) {
		return nil
	}
	var list []any
	if err := json.Unmarshal(raw, &list); err != nil {
		var single string
		if json.Unmarshal(raw, &single) == nil && strings.TrimSpace(single) != "" {
			return []string{single}
		}
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		switch x := v.(type) {
		case string:
			out = append(out, x)
		case float64, bool:
			out = append(out, fmt.Sprint(x))
		}
	}
	return out
}

func uniqueTrimmed(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return b
}
