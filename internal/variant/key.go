package variant

import (
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Key is the canonical identity of one concrete option-value combination.
type Key string

// BaseKey identifies the selection with no active option groups.
const BaseKey Key = "__base__"

const (
	pairSeparator  = "|"
	labelSeparator = ":"
)

// Selection maps an option-group label to the single chosen value.
type Selection map[string]string

var collators = sync.Pool{
	New: func() any { return collate.New(language.English) },
}

// Less orders labels the way the catalogue displays them. Labels that collate
// equal are ordered bytewise so the result is total.
func Less(a, b string) bool {
	c := collators.Get().(*collate.Collator)
	defer collators.Put(c)

	if r := c.CompareString(a, b); r != 0 {
		return r < 0
	}
	return a < b
}

// SortStrings sorts s in place using Less.
func SortStrings(s []string) {
	sort.SliceStable(s, func(i, j int) bool { return Less(s[i], s[j]) })
}

// Normalize returns a copy of the selection without blank values.
func (s Selection) Normalize() Selection {
	out := make(Selection, len(s))
	for label, value := range s {
		if strings.TrimSpace(value) == "" {
			continue
		}
		out[label] = value
	}
	return out
}

// Key is shorthand for KeyOf(s).
func (s Selection) Key() Key {
	return KeyOf(s)
}

// KeyOf returns the canonical key for a selection. Blank values are ignored and
// an empty selection yields BaseKey.
func KeyOf(sel Selection) Key {
	normalized := sel.Normalize()
	if len(normalized) == 0 {
		return BaseKey
	}

	labels := make([]string, 0, len(normalized))
	for label := range normalized {
		labels = append(labels, label)
	}
	SortStrings(labels)

	var b strings.Builder
	for i, label := range labels {
		if i > 0 {
			b.WriteString(pairSeparator)
		}
		b.WriteString(escape(label))
		b.WriteString(labelSeparator)
		b.WriteString(escape(normalized[label]))
	}
	return Key(b.String())
}

// NormalizeKey maps a blank key to BaseKey and trims surrounding space.
func NormalizeKey(k Key) Key {
	trimmed := strings.TrimSpace(string(k))
	if trimmed == "" {
		return BaseKey
	}
	return Key(trimmed)
}

var escaper = strings.NewReplacer(`\`, `\\`, labelSeparator, `\`+labelSeparator, pairSeparator, `\`+pairSeparator)

func escape(s string) string {
	if !strings.ContainsAny(s, `\:|`) {
		return s
	}
	return escaper.Replace(s)
}
