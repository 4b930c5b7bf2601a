package product

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"odil-be/internal/variant"
)

// NormalizeInventory keeps the entries whose value is a finite, non-negative
// whole number. Anything else is dropped rather than read as zero stock.
func NormalizeInventory(raw map[string]any) map[variant.Key]int {
	out := make(map[variant.Key]int, len(raw))
	for k, v := range raw {
		n, ok := toNumber(v)
		if !ok || n < 0 || n != math.Trunc(n) || n > math.MaxInt32 {
			continue
		}
		out[variant.NormalizeKey(variant.Key(k))] = int(n)
	}
	return out
}

// NormalizePrices keeps the entries whose value is a finite, non-negative number.
func NormalizePrices(raw map[string]any) map[variant.Key]float64 {
	out := make(map[variant.Key]float64, len(raw))
	for k, v := range raw {
		n, ok := toNumber(v)
		if !ok || n < 0 {
			continue
		}
		out[variant.NormalizeKey(variant.Key(k))] = n
	}
	return out
}

// SanitizeInventory applies the same rules to an already typed map.
func SanitizeInventory(in map[variant.Key]int) map[variant.Key]int {
	out := make(map[variant.Key]int, len(in))
	for k, v := range in {
		if v < 0 {
			continue
		}
		out[variant.NormalizeKey(k)] = v
	}
	return out
}

// SanitizePrices drops negative or non-finite overrides.
func SanitizePrices(in map[variant.Key]float64) map[variant.Key]float64 {
	out := make(map[variant.Key]float64, len(in))
	for k, v := range in {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[variant.NormalizeKey(k)] = v
	}
	return out
}

// toNumber accepts JSON numbers, Go numeric types and numeric strings.
func toNumber(v any) (float64, bool) {
	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// ParsePrice coerces a stored price. The bool is false when the value was not
// numeric and 0 was substituted.
func ParsePrice(v any) (float64, bool) {
	n, ok := toNumber(v)
	if !ok || n < 0 {
		return 0, false
	}
	return n, true
}

func formatIssue(v any) string {
	return fmt.Sprintf("invalid value %v, defaulted to 0", v)
}
