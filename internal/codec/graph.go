package codec

import (
	"io"

	"github.com/sarchlab/llvm-ml-bench/internal/model"
)

func flagByte(bits ...bool) uint8 {
	var b uint8
	for i, set := range bits {
		if set {
			b |= 1 << uint(i)
		}
	}
	return b
}

func unpackFlags(b uint8) [8]bool {
	var out [8]bool
	for i := range out {
		out[i] = b&(1<<uint(i)) != 0
	}
	return out
}

// EncodeGraph writes a Graph record: header fields, then every node, then
// every edge, each length-tagged by the enclosing node/edge count.
func EncodeGraph(w io.Writer, g *model.Graph) error {
	wr := newWriter(w)
	if err := wr.str(g.Source); err != nil {
		return wrapErr("graph.source", err)
	}
	hasRoot := uint32(0)
	if g.HasVirtualRoot {
		hasRoot = 1
	}
	if err := wr.u32(hasRoot); err != nil {
		return wrapErr("graph.has_virtual_root", err)
	}
	if err := wr.u32(g.MaxOpcodes); err != nil {
		return wrapErr("graph.max_opcodes", err)
	}

	if err := wr.u32(uint32(len(g.Nodes))); err != nil {
		return wrapErr("graph.node_count", err)
	}
	for _, n := range g.Nodes {
		if err := wr.u32(n.Opcode); err != nil {
			return wrapErr("node.opcode", err)
		}
		if err := wr.u32(n.NodeID); err != nil {
			return wrapErr("node.id", err)
		}
		flags := flagByte(n.IsLoad, n.IsStore, n.IsBarrier, n.IsAtomic, n.IsVector, n.IsCompute, n.IsFloat, n.IsVirtualRoot)
		if _, err := w.Write([]byte{flags}); err != nil {
			return wrapErr("node.flags", err)
		}
	}

	if err := wr.u32(uint32(len(g.Edges))); err != nil {
		return wrapErr("graph.edge_count", err)
	}
	for _, e := range g.Edges {
		if err := wr.u32(e.FromID); err != nil {
			return wrapErr("edge.from", err)
		}
		if err := wr.u32(e.ToID); err != nil {
			return wrapErr("edge.to", err)
		}
		flags := flagByte(e.IsData, e.IsImplicit, e.IsVector, e.IsTile)
		if _, err := w.Write([]byte{flags}); err != nil {
			return wrapErr("edge.flags", err)
		}
	}
	return nil
}

// DecodeGraph reads back a Graph record written by EncodeGraph, enforcing
// the reader's word-budget and nesting-depth limits.
func DecodeGraph(r io.Reader) (*model.Graph, error) {
	rd := newReader(r)
	g, err := decodeGraph(rd)
	if err != nil {
		return nil, wrapErr("graph", err)
	}
	return g, nil
}

func decodeGraph(rd *reader) (*model.Graph, error) {
	if err := rd.enter(); err != nil {
		return nil, err
	}
	defer rd.leave()

	source, err := rd.str()
	if err != nil {
		return nil, err
	}
	hasRoot, err := rd.u32()
	if err != nil {
		return nil, err
	}
	maxOpcodes, err := rd.u32()
	if err != nil {
		return nil, err
	}

	nodeCount, err := rd.u32()
	if err != nil {
		return nil, err
	}
	if err := rd.charge(int64(nodeCount)); err != nil {
		return nil, err
	}
	nodes := make([]model.NodeFeatures, nodeCount)
	for i := range nodes {
		opcode, err := rd.u32()
		if err != nil {
			return nil, err
		}
		id, err := rd.u32()
		if err != nil {
			return nil, err
		}
		fb, err := rd.u8()
		if err != nil {
			return nil, err
		}
		f := unpackFlags(fb)
		nodes[i] = model.NodeFeatures{
			Opcode: opcode, NodeID: id,
			IsLoad: f[0], IsStore: f[1], IsBarrier: f[2], IsAtomic: f[3],
			IsVector: f[4], IsCompute: f[5], IsFloat: f[6], IsVirtualRoot: f[7],
		}
	}

	edgeCount, err := rd.u32()
	if err != nil {
		return nil, err
	}
	if err := rd.charge(int64(edgeCount)); err != nil {
		return nil, err
	}
	edges := make([]model.Edge, edgeCount)
	for i := range edges {
		from, err := rd.u32()
		if err != nil {
			return nil, err
		}
		to, err := rd.u32()
		if err != nil {
			return nil, err
		}
		fb, err := rd.u8()
		if err != nil {
			return nil, err
		}
		f := unpackFlags(fb)
		edges[i] = model.Edge{
			FromID: from, ToID: to,
			EdgeFeatures: model.EdgeFeatures{IsData: f[0], IsImplicit: f[1], IsVector: f[2], IsTile: f[3]},
		}
	}

	return &model.Graph{
		Source: source, HasVirtualRoot: hasRoot != 0, MaxOpcodes: maxOpcodes,
		Nodes: nodes, Edges: edges,
	}, nil
}
