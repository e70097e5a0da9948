// Package graph builds the dependency Graph from an instruction sequence,
// per spec.md §4.6.
package graph

import (
	"github.com/sarchlab/llvm-ml-bench/internal/model"
	"github.com/sarchlab/llvm-ml-bench/internal/target"
)

// Options configures Build.
type Options struct {
	AddVirtualRoot bool
	InOrderLinks   bool
	Source         string
	MaxOpcodes     uint32
}

// Option is a functional option for Build, mirroring the teacher's
// EmulatorOption pattern (emu/emulator.go).
type Option func(*Options)

func WithVirtualRoot(v bool) Option    { return func(o *Options) { o.AddVirtualRoot = v } }
func WithInOrderLinks(v bool) Option   { return func(o *Options) { o.InOrderLinks = v } }
func WithSource(s string) Option       { return func(o *Options) { o.Source = s } }
func WithMaxOpcodes(n uint32) Option   { return func(o *Options) { o.MaxOpcodes = n } }

// Build constructs the dependency Graph for insts against t. Build is pure:
// repeated calls on the same inputs return structurally equal graphs
// (testable property §8.1).
func Build(t target.MLTarget, insts []model.Instruction, opts ...Option) *model.Graph {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}

	g := &model.Graph{
		Source:         o.Source,
		HasVirtualRoot: o.AddVirtualRoot,
		MaxOpcodes:     o.MaxOpcodes,
	}

	offset := uint32(0)
	if o.AddVirtualRoot {
		g.Nodes = append(g.Nodes, model.NodeFeatures{
			NodeID:        0,
			IsVirtualRoot: true,
		})
		offset = 1
	}

	for i, inst := range insts {
		nid := uint32(i) + offset
		g.Nodes = append(g.Nodes, nodeFeatures(t, &inst, nid))
	}

	lastWrite := make(map[model.RegID]uint32)

	for i := range insts {
		inst := &insts[i]
		nid := uint32(i) + offset

		if o.InOrderLinks && i > 0 {
			g.Edges = append(g.Edges, model.Edge{FromID: nid - 1, ToID: nid})
		}
		if o.AddVirtualRoot {
			g.Edges = append(g.Edges, model.Edge{FromID: 0, ToID: nid})
		}

		reads := t.ReadsRegs(inst)
		writes := t.WritesRegs(inst)
		writeSet := make(map[model.RegID]bool, len(writes))
		for _, w := range writes {
			writeSet[w] = true
		}

		for _, r := range reads {
			if writer, ok := lastWrite[r]; ok {
				g.Edges = append(g.Edges, model.Edge{
					FromID: writer,
					ToID:   nid,
					EdgeFeatures: model.EdgeFeatures{
						IsData:     true,
						IsImplicit: t.IsImplicitReg(inst, r),
						IsVector:   t.IsVectorReg(r),
						IsTile:     t.IsTileReg(r),
					},
				})
			} else if writeSet[r] {
				g.Edges = append(g.Edges, model.Edge{
					FromID: nid,
					ToID:   nid,
					EdgeFeatures: model.EdgeFeatures{
						IsData: true,
					},
				})
			}
		}

		for _, w := range writes {
			lastWrite[w] = nid
		}
	}

	return g
}

func nodeFeatures(t target.MLTarget, inst *model.Instruction, nid uint32) model.NodeFeatures {
	return model.NodeFeatures{
		Opcode:    inst.Opcode,
		NodeID:    nid,
		IsLoad:    t.IsLoad(inst),
		IsStore:   t.IsStore(inst),
		IsBarrier: t.IsBarrier(inst),
		IsAtomic:  t.IsAtomic(inst),
		IsVector:  t.IsVector(inst),
		IsCompute: t.IsCompute(inst),
		IsFloat:   t.IsFloat(inst),
	}
}
