// Package report renders tabular diagnostics for the mlbench-report
// subcommand tree (SPEC_FULL §10), replacing ad-hoc Printf column
// alignment with an actual table library.
package report

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sarchlab/llvm-ml-bench/internal/model"
)

// WriteDataset renders one row per DatasetEntry: id, cov, measured
// cycles, and node count — the fields datasetdb also indexes.
func WriteDataset(w io.Writer, entries []model.DatasetEntry) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Dataset")
	t.AppendHeader(table.Row{"ID", "CoV", "Measured Cycles", "Nodes"})

	for _, e := range entries {
		t.AppendRow(table.Row{e.ID, e.CoV, e.Metrics.MeasuredCycles, e.Graph.NodeCount()})
	}

	t.Render()
}

// WriteTrial renders one row per trial in a batch, workload trials first,
// then noise trials. It renders no aggregate rows.
func WriteTrial(w io.Writer, source string, workload, noise []model.BenchmarkResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Trials: " + source)
	t.AppendHeader(table.Row{"Kind", "Trial", "Cycles", "Num Runs", "Wall Time (ns)", "Failed"})

	for i, s := range workload {
		t.AppendRow(table.Row{"workload", i, s.Cycles, s.NumRuns, s.WallTimeNs, s.Failed})
	}
	for i, s := range noise {
		t.AppendRow(table.Row{"noise", i, s.Cycles, s.NumRuns, s.WallTimeNs, s.Failed})
	}

	t.Render()
}
