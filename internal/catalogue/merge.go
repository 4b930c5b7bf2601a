package catalogue

import (
	"fmt"
	"strings"

	"odil-be/internal/product"
)

// ViolationKind names a merge invariant that the input records broke.
type ViolationKind string

const (
	// ViolationDuplicateRecord: two owner records share an id; the later one wins.
	ViolationDuplicateRecord ViolationKind = "duplicate_record"
	// ViolationDuplicateOverride: more than one visible override for one source.
	ViolationDuplicateOverride ViolationKind = "duplicate_override"
	// ViolationHiddenWithOverride: a source is both hidden and overridden; the hide wins.
	ViolationHiddenWithOverride ViolationKind = "hidden_with_override"
	// ViolationIDCollision: an owner record reuses the id of a retained base product.
	ViolationIDCollision ViolationKind = "id_collision"
	// ViolationDanglingSource: an override references an id that is not a base product.
	ViolationDanglingSource ViolationKind = "dangling_source"
)

type Violation struct {
	Kind     ViolationKind
	ID       string
	SourceID string
}

func (v Violation) String() string {
	if v.SourceID == "" {
		return fmt.Sprintf("%s: %s", v.Kind, v.ID)
	}
	return fmt.Sprintf("%s: %s (source %s)", v.Kind, v.ID, v.SourceID)
}

// Result is the visible catalogue plus any invariant violations found while
// building it. Violations never stop the merge.
type Result struct {
	Products   []product.Product
	Violations []Violation
}

// Merge overlays owner records on the base catalogue.
//
// Records with a SourceID replace (or, when hidden, suppress) the base product
// they reference. Records without one are new products. The output lists new
// products first, then the retained base products in base order, then the
// overrides in record order. Each base id appears at most once, either as
// itself or through its override. Inputs are not modified.
func Merge(base, records []product.Product) Result {
	var res Result

	baseIDs := make(map[string]struct{}, len(base))
	for _, p := range base {
		baseIDs[p.ID] = struct{}{}
	}

	owner := dedupeRecords(records, &res)

	hidden := make(map[string]bool)
	for _, r := range owner {
		if r.IsHide() {
			hidden[r.SourceID] = true
		}
	}

	// Pick one override per source: latest UpdatedAt, ties to the later record.
	chosen := make(map[string]int)
	for i, r := range owner {
		if !r.IsOverride() || r.Hidden {
			continue
		}
		if hidden[r.SourceID] {
			res.Violations = append(res.Violations, Violation{ViolationHiddenWithOverride, r.ID, r.SourceID})
			continue
		}
		if _, ok := baseIDs[r.SourceID]; !ok {
			res.Violations = append(res.Violations, Violation{ViolationDanglingSource, r.ID, r.SourceID})
		}
		prev, ok := chosen[r.SourceID]
		if !ok {
			chosen[r.SourceID] = i
			continue
		}
		loser := i
		if !r.UpdatedAt.Before(owner[prev].UpdatedAt) {
			chosen[r.SourceID], loser = i, prev
		}
		res.Violations = append(res.Violations, Violation{ViolationDuplicateOverride, owner[loser].ID, r.SourceID})
	}

	var fresh, overrides []product.Product
	ownerIDs := make(map[string]struct{})
	for i, r := range owner {
		switch {
		case r.Hidden:
			continue
		case r.IsOverride():
			if chosen[r.SourceID] != i || hidden[r.SourceID] {
				continue
			}
			overrides = append(overrides, r.Clone())
		default:
			fresh = append(fresh, r.Clone())
		}
		ownerIDs[r.ID] = struct{}{}
	}

	res.Products = make([]product.Product, 0, len(fresh)+len(base)+len(overrides))
	res.Products = append(res.Products, fresh...)
	for _, p := range base {
		if hidden[p.ID] {
			continue
		}
		if _, ok := chosen[p.ID]; ok {
			continue
		}
		if _, clash := ownerIDs[p.ID]; clash {
			res.Violations = append(res.Violations, Violation{Kind: ViolationIDCollision, ID: p.ID})
			continue
		}
		res.Products = append(res.Products, p.Clone())
	}
	res.Products = append(res.Products, overrides...)

	return res
}

// dedupeRecords drops the sentinel and blank ids and keeps one record per id:
// the last occurrence, at the position of the first.
func dedupeRecords(records []product.Product, res *Result) []product.Product {
	pos := make(map[string]int, len(records))
	out := make([]product.Product, 0, len(records))
	for _, r := range records {
		id := strings.TrimSpace(r.ID)
		if id == "" || id == SentinelID {
			continue
		}
		if i, ok := pos[id]; ok {
			res.Violations = append(res.Violations, Violation{Kind: ViolationDuplicateRecord, ID: id})
			out[i] = r
			continue
		}
		pos[id] = len(out)
		out = append(out, r)
	}
	return out
}
