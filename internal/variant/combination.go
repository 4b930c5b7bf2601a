package variant

import "iter"

// Groups maps an option-group label to its ordered list of allowed values.
type Groups map[string][]string

// Combination is one concrete point of the Cartesian product of option groups.
type Combination struct {
	Key       Key       `json:"key"`
	Selection Selection `json:"selection"`
}

// Labels returns the group labels in stable display order.
func Labels(groups Groups) []string {
	labels := make([]string, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	SortStrings(labels)
	return labels
}

// Count returns how many combinations Combinations would yield.
func Count(groups Groups) int {
	n := 1
	for _, values := range groups {
		n *= len(values)
	}
	return n
}

// Combinations lazily enumerates every selection of exactly one value per group.
// With no groups it yields a single empty selection keyed BaseKey; a group with
// no values makes the product unselectable and nothing is yielded.
func Combinations(groups Groups) iter.Seq[Combination] {
	labels := Labels(groups)

	return func(yield func(Combination) bool) {
		if len(labels) == 0 {
			yield(Combination{Key: BaseKey, Selection: Selection{}})
			return
		}
		for _, label := range labels {
			if len(groups[label]) == 0 {
				return
			}
		}

		idx := make([]int, len(labels))
		for {
			sel := make(Selection, len(labels))
			for i, label := range labels {
				sel[label] = groups[label][idx[i]]
			}
			if !yield(Combination{Key: KeyOf(sel), Selection: sel}) {
				return
			}

			// odometer increment, last label fastest
			i := len(labels) - 1
			for ; i >= 0; i-- {
				idx[i]++
				if idx[i] < len(groups[labels[i]]) {
					break
				}
				idx[i] = 0
			}
			if i < 0 {
				return
			}
		}
	}
}

// Expand materialises every combination.
func Expand(groups Groups) []Combination {
	out := make([]Combination, 0, Count(groups))
	for c := range Combinations(groups) {
		out = append(out, c)
	}
	return out
}

// Restrict narrows each group to the values toggled on in active, keeping the
// group's own value order. Groups missing from active end up empty.
func Restrict(groups Groups, active map[string][]string) Groups {
	out := make(Groups, len(groups))
	for label, values := range groups {
		on := make(map[string]struct{}, len(active[label]))
		for _, v := range active[label] {
			on[v] = struct{}{}
		}
		kept := make([]string, 0, len(on))
		for _, v := range values {
			if _, ok := on[v]; ok {
				kept = append(kept, v)
			}
		}
		out[label] = kept
	}
	return out
}

// FirstOfEach is the default active state: the first value of every group.
func FirstOfEach(groups Groups) map[string][]string {
	active := make(map[string][]string, len(groups))
	for label, values := range groups {
		if len(values) > 0 {
			active[label] = []string{values[0]}
		} else {
			active[label] = nil
		}
	}
	return active
}
