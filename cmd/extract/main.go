// Command extract runs the Basic-Block Extractor (spec.md §4.5): it
// disassembles an object file's executable sections into one assembly
// file per basic block, and can optionally post-process an existing
// directory of blocks to drop unmeasurable ones and deduplicate
// structurally identical graphs.
//
// Usage:
//
//	extract [flags] <object-file-or-dir>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/llvm-ml-bench/internal/cli"
	"github.com/sarchlab/llvm-ml-bench/internal/extract"
	"github.com/sarchlab/llvm-ml-bench/internal/objfile"
	"github.com/sarchlab/llvm-ml-bench/internal/target"
)

var (
	prefix          = flag.String("prefix", "block", "basename prefix for emitted block files")
	arch            = flag.String("arch", "", "override target architecture")
	triple          = flag.String("triple", "", "override target triple")
	postprocess     = flag.Bool("postprocess", false, "run the filter+dedup pass after extraction")
	postprocessOnly = flag.Bool("postprocess-only", false, "skip extraction; only post-process an existing block directory")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "extract: split an object file into basic-block assembly files\n\n")
		fmt.Fprintf(os.Stderr, "Usage: extract [flags] <object-file-or-dir>\n\n")
		flag.PrintDefaults()
	}
	common := cli.RegisterCommon(flag.CommandLine)
	flag.Parse()

	path := cli.RequirePositional(flag.CommandLine, "object file or block directory")

	t, err := target.Resolve(context.Background(), cli.FirstNonEmpty(*triple, *arch))
	if err != nil {
		cli.Fail("%v", err)
	}

	outDir := common.Output
	if outDir == "" {
		outDir = "."
	}

	if !*postprocessOnly {
		n, err := extract.Extract(t, objfile.Sections, objfile.Decode, objfile.Render, path, outDir, *prefix)
		if err != nil {
			cli.Fail("%v", err)
		}
		fmt.Fprintf(os.Stderr, "extract: wrote %d block(s) to %s\n", n, outDir)
	}

	if *postprocess || *postprocessOnly {
		dir := outDir
		if *postprocessOnly {
			dir = path
		}
		results, err := extract.Postprocess(t, objfile.Parse, dir)
		if err != nil {
			cli.Fail("%v", err)
		}
		kept := 0
		for _, r := range results {
			if r.Kept {
				kept++
				continue
			}
			fmt.Fprintf(os.Stderr, "extract: dropped %s: %s\n", r.Path, r.Reason)
		}
		fmt.Fprintf(os.Stderr, "extract: %d/%d block(s) survived post-processing\n", kept, len(results))
	}
}
