package codec

import (
	"encoding/json"
	"io"

	"github.com/sarchlab/llvm-ml-bench/internal/model"
)

// jsonGraph and jsonDataPiece give the JSON diagnostics mirror tags and
// field names friendlier than the model types' Go-exported names; the
// mirror is for humans reading a dump, not for round-tripping back into
// the binary form (spec.md §4.7).
type jsonGraph struct {
	Source         string             `json:"source"`
	HasVirtualRoot bool               `json:"has_virtual_root"`
	Nodes          []model.NodeFeatures `json:"nodes"`
	Edges          []model.Edge         `json:"edges"`
}

type jsonDataPiece struct {
	ID      string             `json:"id"`
	CoV     float64            `json:"cov"`
	Graph   jsonGraph          `json:"graph"`
	Metrics model.MetricsRecord `json:"metrics"`
}

// WriteGraphJSON emits a Graph as indented JSON, for human inspection.
func WriteGraphJSON(w io.Writer, g *model.Graph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return wrapErr("graph.json", enc.Encode(jsonGraph{
		Source: g.Source, HasVirtualRoot: g.HasVirtualRoot, Nodes: g.Nodes, Edges: g.Edges,
	}))
}

// WriteMetricsJSON emits a MetricsRecord as indented JSON.
func WriteMetricsJSON(w io.Writer, m *model.MetricsRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return wrapErr("metrics.json", enc.Encode(m))
}

// WriteDataPieceJSON emits a joined DatasetEntry as indented JSON.
func WriteDataPieceJSON(w io.Writer, d *model.DatasetEntry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return wrapErr("datapiece.json", enc.Encode(jsonDataPiece{
		ID:  d.ID,
		CoV: d.CoV,
		Graph: jsonGraph{
			Source: d.Graph.Source, HasVirtualRoot: d.Graph.HasVirtualRoot,
			Nodes: d.Graph.Nodes, Edges: d.Graph.Edges,
		},
		Metrics: d.Metrics,
	}))
}
