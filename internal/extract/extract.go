// Package extract implements the Basic-Block Extractor (spec.md §4.5):
// it linearly decodes an object file's executable sections into basic
// blocks terminated at control-flow/syscall boundaries, and can
// optionally post-process an existing directory of emitted blocks to drop
// unmeasurable ones and deduplicate structurally identical graphs.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sarchlab/llvm-ml-bench/internal/graph"
	"github.com/sarchlab/llvm-ml-bench/internal/model"
	"github.com/sarchlab/llvm-ml-bench/internal/target"
)

// Section is one executable, non-virtual section of an object file.
type Section struct {
	Name string
	Addr uint64
	Data []byte
}

// SectionsFunc is the external object-file boundary (spec.md §1):
// consumes `sections(obj) -> [(addr, bytes)]`.
type SectionsFunc func(objPath string) ([]Section, error)

// DecodeFunc is the external disassembler boundary: consumes
// `decode(bytes) -> [instruction]` for one section's raw bytes.
type DecodeFunc func(data []byte, baseAddr uint64) ([]model.Instruction, error)

// RenderFunc renders one instruction back to assembly text for the
// emitted block file. Supplied by the caller since instruction-to-text
// formatting is assembler/syntax specific.
type RenderFunc func(inst model.Instruction) string

// Extract decodes every section sections returns, segments each into
// basic blocks on any terminator/call/syscall instruction (per the
// target's classifier), drops nop instructions, and writes each
// surviving block to outDir/<prefix><n>.s. It returns the number of
// blocks emitted.
func Extract(t target.MLTarget, sections SectionsFunc, decode DecodeFunc, render RenderFunc, objPath, outDir, prefix string) (int, error) {
	secs, err := sections(objPath)
	if err != nil {
		return 0, fmt.Errorf("extract: sections: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return 0, fmt.Errorf("extract: mkdir %s: %w", outDir, err)
	}

	counter := 0
	for _, sec := range secs {
		insts, err := decode(sec.Data, sec.Addr)
		if err != nil {
			return counter, fmt.Errorf("extract: decode section %s: %w", sec.Name, err)
		}

		var block []model.Instruction
		flush := func() error {
			if len(block) == 0 {
				return nil
			}
			path := filepath.Join(outDir, fmt.Sprintf("%s%d.s", prefix, counter))
			if err := writeBlock(path, block, render); err != nil {
				return err
			}
			counter++
			block = nil
			return nil
		}

		for _, inst := range insts {
			if t.IsNop(&inst) {
				continue
			}
			block = append(block, inst)
			if t.IsTerminator(&inst) || t.IsCall(&inst) || t.IsSyscall(&inst) {
				if err := flush(); err != nil {
					return counter, err
				}
			}
		}
		if err := flush(); err != nil {
			return counter, err
		}
	}
	return counter, nil
}

func writeBlock(path string, insts []model.Instruction, render RenderFunc) error {
	var sb strings.Builder
	for _, inst := range insts {
		sb.WriteString(render(inst))
		sb.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

// PostprocessResult reports what Postprocess decided for one input file.
type PostprocessResult struct {
	Path    string
	Kept    bool
	Reason  string
	NodeCnt int
}

// Postprocess re-parses every file in dir, drops it if it holds fewer
// than two instructions, has zero compute instructions, or contains a
// variable-latency instruction, then deduplicates the survivors by
// structural graph equality (has_virtual_root=false), keeping one
// representative per class and deleting the rest.
func Postprocess(t target.MLTarget, parse ParseFunc, dir string) ([]PostprocessResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("extract: readdir %s: %w", dir, err)
	}

	type candidate struct {
		path string
		g    *model.Graph
	}
	var kept []candidate
	var results []PostprocessResult

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".s") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("extract: read %s: %w", path, err)
		}
		insts, err := parse(string(src))
		if err != nil {
			results = append(results, PostprocessResult{Path: path, Kept: false, Reason: "parse error: " + err.Error()})
			continue
		}

		if reason, drop := rejectBlock(t, insts); drop {
			results = append(results, PostprocessResult{Path: path, Kept: false, Reason: reason})
			if err := os.Remove(path); err != nil {
				return nil, fmt.Errorf("extract: remove %s: %w", path, err)
			}
			continue
		}

		g := graph.Build(t, insts, graph.WithSource(e.Name()))
		kept = append(kept, candidate{path: path, g: g})
	}

	deduped := graph.Dedupe(kept, func(c candidate) *model.Graph { return c.g }, func(candidate, current candidate) bool {
		return false // first representative seen wins; order is filesystem order
	})

	survivors := make(map[string]bool, len(deduped))
	for _, c := range deduped {
		survivors[c.path] = true
	}
	for _, c := range kept {
		if survivors[c.path] {
			results = append(results, PostprocessResult{Path: c.path, Kept: true, NodeCnt: c.g.NodeCount()})
			continue
		}
		results = append(results, PostprocessResult{Path: c.path, Kept: false, Reason: "duplicate graph"})
		if err := os.Remove(c.path); err != nil {
			return nil, fmt.Errorf("extract: remove duplicate %s: %w", c.path, err)
		}
	}

	return results, nil
}

func rejectBlock(t target.MLTarget, insts []model.Instruction) (string, bool) {
	if len(insts) < 2 {
		return "fewer than two instructions", true
	}

	hasCompute := false
	for i := range insts {
		if t.IsCompute(&insts[i]) {
			hasCompute = true
		}
		if t.IsVarLatency(&insts[i]) {
			return "variable-latency instruction", true
		}
	}
	if !hasCompute {
		return "zero compute instructions", true
	}
	return "", false
}

// ParseFunc is the external assembly-parser boundary: consumes
// `parse(source) -> [instruction]`.
type ParseFunc func(source string) ([]model.Instruction, error)
