package product

import "strings"

// DefaultFamily is the bucket for products that match no model naming scheme.
const DefaultFamily = "Accessories"

var familyRules = []struct {
	prefix string
	family string
}{
	{"iphone", "iPhone"},
	{"galaxy a", "Samsung A"},
	{"galaxy s", "Samsung S"},
}

// FamilyOf prefers the explicit family tag, then infers it from the Model
// option values, then falls back to DefaultFamily.
func FamilyOf(p Product) string {
	if f := strings.TrimSpace(p.Family); f != "" {
		return f
	}

	models := p.Variants["Model"]
	for _, rule := range familyRules {
		for _, m := range models {
			if strings.HasPrefix(strings.ToLower(strings.TrimSpace(m)), rule.prefix) {
				return rule.family
			}
		}
	}
	return DefaultFamily
}
