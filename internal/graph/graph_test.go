package graph_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/llvm-ml-bench/internal/graph"
	"github.com/sarchlab/llvm-ml-bench/internal/model"
	"github.com/sarchlab/llvm-ml-bench/internal/target"
)

func reg(id model.RegID) model.Operand {
	return model.Operand{Kind: model.OperandRegister, Reg: id}
}

var _ = Describe("Build", func() {
	t := target.NewX86_64()

	const (
		rax model.RegID = 1
		rbx model.RegID = 2
		rcx model.RegID = 3
	)

	add := func(dst, src model.RegID) model.Instruction {
		return model.Instruction{Opcode: target.OpADD, Operands: []model.Operand{reg(dst), reg(src)}}
	}

	Describe("determinism (§8.1)", func() {
		It("returns structurally equal graphs for repeated calls", func() {
			insts := []model.Instruction{add(rbx, rax), add(rcx, rbx)}
			g1 := graph.Build(t, insts)
			g2 := graph.Build(t, insts)
			Expect(g1.Equal(g2)).To(BeTrue())
		})
	})

	Describe("S3: a single add", func() {
		It("has one compute node and zero edges", func() {
			g := graph.Build(t, []model.Instruction{add(rbx, rax)})
			Expect(g.Nodes).To(HaveLen(1))
			Expect(g.Nodes[0].IsCompute).To(BeTrue())
			Expect(g.Edges).To(BeEmpty())
		})
	})

	Describe("S4: a dependency chain", func() {
		It("has two compute nodes and exactly one data edge (0,1)", func() {
			g := graph.Build(t, []model.Instruction{add(rbx, rax), add(rcx, rbx)})
			Expect(g.Nodes).To(HaveLen(2))
			Expect(g.Nodes[0].IsCompute).To(BeTrue())
			Expect(g.Nodes[1].IsCompute).To(BeTrue())
			Expect(g.Edges).To(HaveLen(1))
			Expect(g.Edges[0]).To(Equal(model.Edge{
				FromID: 0, ToID: 1,
				EdgeFeatures: model.EdgeFeatures{IsData: true},
			}))
		})

		It("shifts dependency edges by +1 with a virtual root", func() {
			g := graph.Build(t, []model.Instruction{add(rbx, rax), add(rcx, rbx)},
				graph.WithVirtualRoot(true))

			Expect(g.Nodes).To(HaveLen(3))
			Expect(g.Nodes[0].IsVirtualRoot).To(BeTrue())

			// Root-adjacency edges to both real nodes, plus the shifted
			// data edge.
			Expect(g.Edges).To(ContainElement(model.Edge{FromID: 0, ToID: 1}))
			Expect(g.Edges).To(ContainElement(model.Edge{FromID: 0, ToID: 2}))
			Expect(g.Edges).To(ContainElement(model.Edge{
				FromID: 1, ToID: 2,
				EdgeFeatures: model.EdgeFeatures{IsData: true},
			}))
		})
	})

	Describe("virtual-root adjacency (§8.2)", func() {
		It("connects every non-root node to node 0", func() {
			insts := []model.Instruction{add(rbx, rax), add(rcx, rbx), add(rax, rcx)}
			g := graph.Build(t, insts, graph.WithVirtualRoot(true))

			for nid := uint32(1); nid < uint32(len(g.Nodes)); nid++ {
				found := false
				for _, e := range g.Edges {
					if e.FromID == 0 && e.ToID == nid {
						found = true
						break
					}
				}
				Expect(found).To(BeTrue(), "node %d missing root edge", nid)
			}
		})
	})

	Describe("dependency edge direction (§8.3)", func() {
		It("every data edge's source writes a register the target reads, unless it is a self-edge", func() {
			insts := []model.Instruction{add(rbx, rax), add(rcx, rbx)}
			g := graph.Build(t, insts)

			writes := func(nid uint32) []model.RegID {
				return t.WritesRegs(&insts[nid])
			}
			reads := func(nid uint32) []model.RegID {
				return t.ReadsRegs(&insts[nid])
			}
			contains := func(s []model.RegID, r model.RegID) bool {
				for _, x := range s {
					if x == r {
						return true
					}
				}
				return false
			}

			for _, e := range g.Edges {
				if !e.IsData {
					continue
				}
				if e.FromID == e.ToID {
					continue
				}
				w := writes(e.FromID)
				r := reads(e.ToID)
				overlap := false
				for _, reg := range w {
					if contains(r, reg) {
						overlap = true
						break
					}
				}
				Expect(overlap).To(BeTrue())
			}
		})
	})

	Describe("in-order links", func() {
		It("adds a link between consecutive instructions", func() {
			insts := []model.Instruction{add(rbx, rax), add(rax, rbx), add(rbx, rax)}
			g := graph.Build(t, insts, graph.WithInOrderLinks(true))

			Expect(g.Edges).To(ContainElement(model.Edge{FromID: 0, ToID: 1}))
			Expect(g.Edges).To(ContainElement(model.Edge{FromID: 1, ToID: 2}))
		})
	})

	Describe("self-edge for read-then-write of an uninitialized register", func() {
		It("adds a self edge when a register is read and written by the same instruction with no prior writer", func() {
			// An instruction whose destination operand is also named as a
			// source (index > 0) of itself: model this directly since the
			// x86_64 target's ordinary opcodes never read their own
			// destination (ARM-style 3-operand semantics).
			inst := model.Instruction{Opcode: target.OpADD, Operands: []model.Operand{reg(rbx), reg(rbx)}}
			g := graph.Build(t, []model.Instruction{inst})
			Expect(g.Edges).To(ContainElement(model.Edge{
				FromID: 0, ToID: 0,
				EdgeFeatures: model.EdgeFeatures{IsData: true},
			}))
		})
	})
})
