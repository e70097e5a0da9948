package model_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/llvm-ml-bench/internal/model"
)

var _ = Describe("Graph.Equal", func() {
	It("treats two graphs with the same opcode and edge sequence as equal", func() {
		a := &model.Graph{
			Nodes: []model.NodeFeatures{{Opcode: 1}, {Opcode: 2}},
			Edges: []model.Edge{{FromID: 0, ToID: 1}},
		}
		b := &model.Graph{
			Nodes: []model.NodeFeatures{{Opcode: 1}, {Opcode: 2}},
			Edges: []model.Edge{{FromID: 0, ToID: 1, EdgeFeatures: model.EdgeFeatures{IsData: true}}},
		}
		Expect(a.Equal(b)).To(BeTrue())
	})

	It("ignores edge feature flags when comparing", func() {
		a := &model.Graph{
			Nodes: []model.NodeFeatures{{Opcode: 1}, {Opcode: 2}},
			Edges: []model.Edge{{FromID: 0, ToID: 1, EdgeFeatures: model.EdgeFeatures{IsVector: true}}},
		}
		b := &model.Graph{
			Nodes: []model.NodeFeatures{{Opcode: 1}, {Opcode: 2}},
			Edges: []model.Edge{{FromID: 0, ToID: 1, EdgeFeatures: model.EdgeFeatures{IsTile: true, IsImplicit: true}}},
		}
		Expect(a.Equal(b)).To(BeTrue())
	})

	It("detects a differing opcode sequence", func() {
		a := &model.Graph{Nodes: []model.NodeFeatures{{Opcode: 1}}}
		b := &model.Graph{Nodes: []model.NodeFeatures{{Opcode: 2}}}
		Expect(a.Equal(b)).To(BeFalse())
	})

	It("detects a differing edge target", func() {
		a := &model.Graph{Edges: []model.Edge{{FromID: 0, ToID: 1}}}
		b := &model.Graph{Edges: []model.Edge{{FromID: 0, ToID: 2}}}
		Expect(a.Equal(b)).To(BeFalse())
	})

	It("treats two nils as equal and nil-vs-non-nil as unequal", func() {
		var a, b *model.Graph
		Expect(a.Equal(b)).To(BeTrue())
		Expect(a.Equal(&model.Graph{})).To(BeFalse())
	})
})

var _ = Describe("Graph.NodeCount", func() {
	It("counts all nodes when there is no virtual root", func() {
		g := &model.Graph{Nodes: make([]model.NodeFeatures, 3)}
		Expect(g.NodeCount()).To(Equal(3))
	})

	It("excludes the virtual root node from the count", func() {
		g := &model.Graph{HasVirtualRoot: true, Nodes: make([]model.NodeFeatures, 3)}
		Expect(g.NodeCount()).To(Equal(2))
	})

	It("reports zero for an empty graph even when HasVirtualRoot is set", func() {
		g := &model.Graph{HasVirtualRoot: true}
		Expect(g.NodeCount()).To(Equal(0))
	})
})
