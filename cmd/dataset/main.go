// Command dataset runs the Dataset Assembler (spec.md §4.8): it joins
// every stem-matched .graph.cbuf/.metrics.cbuf pair under a directory, filters by
// coefficient of variation and deduplicates by graph equality, and
// serializes the survivors as a packed Dataset record.
//
// Usage:
//
//	dataset [flags] <dir>
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/llvm-ml-bench/internal/cli"
	"github.com/sarchlab/llvm-ml-bench/internal/codec"
	"github.com/sarchlab/llvm-ml-bench/internal/dataset"
)

var (
	maxCoV       = flag.Int("max-cov", 10, "maximum allowed coefficient of variation, as a percent (1-100)")
	readableJSON = flag.Bool("readable-json", false, "emit indented JSON instead of a packed binary dataset")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "dataset: join measured blocks with their graphs into a training dataset\n\n")
		fmt.Fprintf(os.Stderr, "Usage: dataset [flags] <dir>\n\n")
		flag.PrintDefaults()
	}
	common := cli.RegisterCommon(flag.CommandLine)
	flag.Parse()

	dir := cli.RequirePositional(flag.CommandLine, "dataset directory")

	if *maxCoV < 1 || *maxCoV > 100 {
		cli.Fail("--max-cov must be between 1 and 100, got %d", *maxCoV)
	}

	result, err := dataset.Assemble(dir, dir, float64(*maxCoV)/100)
	if err != nil {
		cli.Fail("%v", err)
	}

	for _, d := range result.Dropped {
		fmt.Fprintf(os.Stderr, "dataset: dropped %s: %s\n", d.Stem, d.Reason)
	}
	fmt.Fprintf(os.Stderr, "dataset: %d entries kept, %d dropped\n", len(result.Entries), len(result.Dropped))

	out := common.Output
	if out == "" {
		out = "dataset.cbuf"
	}
	f, err := os.Create(out)
	if err != nil {
		cli.Fail("%v", err)
	}
	defer f.Close()

	if *readableJSON {
		for i := range result.Entries {
			if err := codec.WriteDataPieceJSON(f, &result.Entries[i]); err != nil {
				cli.Fail("%v", err)
			}
		}
		return
	}
	if err := codec.EncodeDataset(f, result.Entries); err != nil {
		cli.Fail("%v", err)
	}
}
