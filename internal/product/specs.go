package product

import (
	"strings"
	"unicode/utf8"
)

// DisplaySpecs returns the specs worth showing to a customer: reserved entries
// are never part of Specs, and specs that merely repeat an option value are skipped.
func DisplaySpecs(p Product) []string {
	options := make(map[string]struct{})
	for _, values := range p.Variants {
		for _, v := range values {
			if n := strings.ToLower(strings.TrimSpace(v)); n != "" {
				options[n] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(p.Specs))
	for _, s := range p.Specs {
		if strings.TrimSpace(s) == "" || strings.HasPrefix(s, MetaPrefix) {
			continue
		}
		if _, dup := options[strings.ToLower(strings.TrimSpace(s))]; dup {
			continue
		}
		out = append(out, s)
	}
	return out
}

// LabeledSpec is a "Label: detail" spec split into its parts.
type LabeledSpec struct {
	Label  string `json:"label"`
	Detail string `json:"detail"`
}

// SplitLabeledSpec splits "Label: detail". Long labels or details are treated
// as free text and rejected.
func SplitLabeledSpec(spec string) (LabeledSpec, bool) {
	value := strings.TrimSpace(spec)
	idx := strings.Index(value, ":")
	if idx <= 0 {
		return LabeledSpec{}, false
	}
	label := strings.TrimSpace(value[:idx])
	detail := strings.TrimSpace(value[idx+1:])
	if label == "" || detail == "" {
		return LabeledSpec{}, false
	}
	if utf8.RuneCountInString(label) > 40 || utf8.RuneCountInString(detail) > 120 {
		return LabeledSpec{}, false
	}
	return LabeledSpec{Label: label, Detail: detail}, true
}

// SpecSheet partitions the display specs into labelled pairs and plain tags.
func SpecSheet(p Product) (pairs []LabeledSpec, tags []string) {
	for _, s := range DisplaySpecs(p) {
		if pair, ok := SplitLabeledSpec(s); ok {
			pairs = append(pairs, pair)
			continue
		}
		tags = append(tags, s)
	}
	return pairs, tags
}
