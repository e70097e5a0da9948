// Package dataset implements the Dataset Assembler (spec.md §4.8): it
// joins per-block graph and metrics records by stem, computes each pair's
// coefficient of variation, filters out unreliable or empty pairs,
// deduplicates structurally identical graphs, and emits the surviving
// DatasetEntry records.
package dataset

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sarchlab/llvm-ml-bench/internal/aggregate"
	"github.com/sarchlab/llvm-ml-bench/internal/codec"
	"github.com/sarchlab/llvm-ml-bench/internal/graph"
	"github.com/sarchlab/llvm-ml-bench/internal/model"
)

// DropReason records why a candidate pair did not make it into the
// assembled dataset.
type DropReason string

const (
	DropZeroCycles     DropReason = "measured_cycles == 0"
	DropEmptyGraph     DropReason = "empty graph"
	DropNaNCoV         DropReason = "cov is NaN"
	DropCoVExceedsMax  DropReason = "cov exceeds configured fraction"
	DropDuplicateGraph DropReason = "duplicate graph, higher measured_cycles"
)

// Dropped pairs a stem with why it didn't survive assembly.
type Dropped struct {
	Stem   string
	Reason DropReason
}

// Result is the outcome of Assemble: the surviving entries plus an
// accounting of what was dropped and why (spec.md §8.5 S5).
type Result struct {
	Entries []model.DatasetEntry
	Dropped []Dropped
}

type candidate struct {
	stem string
	g    *model.Graph
	m    *model.MetricsRecord
	cov  float64
}

// Assemble loads every stem present in both graphDir and metricsDir,
// computes CoV, applies the admission filters, deduplicates by structural
// graph equality keeping the cheaper trial, and returns the surviving
// DatasetEntry records (spec.md §4.8). maxCoV is a fraction (e.g. 0.1 for
// the CLI's `--max-cov 10` percent argument).
func Assemble(graphDir, metricsDir string, maxCoV float64) (Result, error) {
	graphs, err := loadByStem(graphDir, ".graph.cbuf", codec.DecodeGraph)
	if err != nil {
		return Result{}, fmt.Errorf("dataset: load graphs: %w", err)
	}
	metrics, err := loadByStem(metricsDir, ".metrics.cbuf", codec.DecodeMetrics)
	if err != nil {
		return Result{}, fmt.Errorf("dataset: load metrics: %w", err)
	}

	var result Result
	var kept []candidate

	for stem, g := range graphs {
		m, ok := metrics[stem]
		if !ok {
			continue // no measurement counterpart; not a pair
		}

		if m.MeasuredCycles == 0 {
			result.Dropped = append(result.Dropped, Dropped{stem, DropZeroCycles})
			continue
		}
		if g.NodeCount() == 0 {
			result.Dropped = append(result.Dropped, Dropped{stem, DropEmptyGraph})
			continue
		}

		cov := computeCoV(m)
		if math.IsNaN(cov) {
			result.Dropped = append(result.Dropped, Dropped{stem, DropNaNCoV})
			continue
		}
		if cov > maxCoV {
			result.Dropped = append(result.Dropped, Dropped{stem, DropCoVExceedsMax})
			continue
		}

		kept = append(kept, candidate{stem: stem, g: g, m: m, cov: cov})
	}

	// Among graphs comparing structurally equal, keep the one with the
	// smaller measured_cycles (closer to the noise floor, spec.md §4.8).
	deduped := graph.Dedupe(kept, func(c candidate) *model.Graph { return c.g }, func(cand, current candidate) bool {
		return cand.m.MeasuredCycles < current.m.MeasuredCycles
	})

	survivors := make(map[string]bool, len(deduped))
	for _, c := range deduped {
		survivors[c.stem] = true
	}
	for _, c := range kept {
		if survivors[c.stem] {
			result.Entries = append(result.Entries, model.DatasetEntry{
				ID: c.stem, CoV: c.cov, Graph: *c.g, Metrics: *c.m,
			})
			continue
		}
		result.Dropped = append(result.Dropped, Dropped{c.stem, DropDuplicateGraph})
	}

	return result, nil
}

func computeCoV(m *model.MetricsRecord) float64 {
	vals := aggregate.PerIterCycles(m.WorkloadSamples)
	if len(vals) == 0 {
		vals = aggregate.PerIterCycles(m.NoiseSamples)
	}
	return aggregate.CoV(vals)
}

// loadByStem concurrently reads every file with the given extension in
// dir, decoding each with decode, and returns a map keyed by filename
// stem (spec.md §4.8's "concurrently load ... from two directories").
// Fan-out is a raw goroutine-per-file plus sync.WaitGroup, matching the
// pack's convention of not reaching for golang.org/x/sync/errgroup.
func loadByStem[T any](dir, ext string, decode func(io.Reader) (T, error)) (map[string]T, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("readdir %s: %w", dir, err)
	}

	type loaded struct {
		stem string
		val  T
		err  error
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ext) {
			files = append(files, e.Name())
		}
	}

	results := make(chan loaded, len(files))
	var wg sync.WaitGroup
	for _, name := range files {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			path := filepath.Join(dir, name)
			f, err := os.Open(path)
			if err != nil {
				results <- loaded{err: fmt.Errorf("open %s: %w", path, err)}
				return
			}
			defer f.Close()

			v, err := decode(f)
			if err != nil {
				results <- loaded{err: fmt.Errorf("decode %s: %w", path, err)}
				return
			}
			results <- loaded{stem: strings.TrimSuffix(name, ext), val: v}
		}(name)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make(map[string]T, len(files))
	for r := range results {
		if r.err != nil {
			return nil, r.err
		}
		out[r.stem] = r.val
	}
	return out, nil
}
