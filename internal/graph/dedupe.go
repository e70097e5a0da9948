package graph

import "github.com/sarchlab/llvm-ml-bench/internal/model"

// Dedupe partitions items into equivalence classes by structural graph
// equality (the graph returned by graphOf) and keeps, from each class, the
// item for which keep(a, b) reports a should replace b. Ties (keep reports
// false both ways) retain whichever item was seen first, making Dedupe
// idempotent: calling it again on its own output returns the same slice
// (testable property §8.4).
func Dedupe[T any](items []T, graphOf func(T) *model.Graph, keep func(candidate, current T) bool) []T {
	type slot struct {
		graph *model.Graph
		value T
	}
	var slots []slot

	for _, item := range items {
		g := graphOf(item)
		matched := false
		for i := range slots {
			if slots[i].graph.Equal(g) {
				matched = true
				if keep(item, slots[i].value) {
					slots[i] = slot{graph: g, value: item}
				}
				break
			}
		}
		if !matched {
			slots = append(slots, slot{graph: g, value: item})
		}
	}

	out := make([]T, len(slots))
	for i, s := range slots {
		out[i] = s.value
	}
	return out
}
