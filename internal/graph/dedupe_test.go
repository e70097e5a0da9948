package graph_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/llvm-ml-bench/internal/graph"
	"github.com/sarchlab/llvm-ml-bench/internal/model"
)

type namedGraph struct {
	name string
	cost uint64
	g    *model.Graph
}

var _ = Describe("Dedupe", func() {
	same := &model.Graph{Nodes: []model.NodeFeatures{{Opcode: 1}}}
	other := &model.Graph{Nodes: []model.NodeFeatures{{Opcode: 2}}}

	items := []namedGraph{
		{"a", 100, same},
		{"b", 40, same},
		{"c", 70, other},
	}

	keepCheaper := func(candidate, current namedGraph) bool {
		return candidate.cost < current.cost
	}

	It("keeps one representative per equivalence class (§8.4)", func() {
		out := graph.Dedupe(items, func(n namedGraph) *model.Graph { return n.g }, keepCheaper)
		Expect(out).To(HaveLen(2))
	})

	It("keeps the cheaper item within a class (S6)", func() {
		out := graph.Dedupe(items, func(n namedGraph) *model.Graph { return n.g }, keepCheaper)
		var picked *namedGraph
		for i := range out {
			if out[i].g == same {
				picked = &out[i]
			}
		}
		Expect(picked).NotTo(BeNil())
		Expect(picked.name).To(Equal("b"))
	})

	It("is idempotent (§8.4)", func() {
		first := graph.Dedupe(items, func(n namedGraph) *model.Graph { return n.g }, keepCheaper)
		second := graph.Dedupe(first, func(n namedGraph) *model.Graph { return n.g }, keepCheaper)
		Expect(second).To(HaveLen(len(first)))
		for i := range first {
			Expect(second[i].name).To(Equal(first[i].name))
		}
	})
})
