// Command embedding turns extracted basic-block assembly into
// dependency-graph records (spec.md §4, Graph Builder): one opcode/
// dependency-edge graph per .s file, written alongside it as .graph.cbuf.
//
// Usage:
//
//	embedding [flags] <dir-of-.s-files>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sarchlab/llvm-ml-bench/internal/cli"
	"github.com/sarchlab/llvm-ml-bench/internal/codec"
	"github.com/sarchlab/llvm-ml-bench/internal/graph"
	"github.com/sarchlab/llvm-ml-bench/internal/objfile"
	"github.com/sarchlab/llvm-ml-bench/internal/target"
)

var (
	arch         = flag.String("arch", "", "override target architecture")
	triple       = flag.String("triple", "", "override target triple")
	virtualRoot  = flag.Bool("virtual-root", false, "add a synthetic root node with an edge to every instruction node")
	inOrder      = flag.Bool("in-order", false, "add sequential edges between consecutive instructions")
	readableJSON = flag.Bool("readable-json", false, "emit indented JSON instead of packed binary graphs")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "embedding: build dependency graphs from extracted basic blocks\n\n")
		fmt.Fprintf(os.Stderr, "Usage: embedding [flags] <dir-of-.s-files>\n\n")
		flag.PrintDefaults()
	}
	common := cli.RegisterCommon(flag.CommandLine)
	flag.Parse()

	dir := cli.RequirePositional(flag.CommandLine, "block directory")

	t, err := target.Resolve(context.Background(), cli.FirstNonEmpty(*triple, *arch))
	if err != nil {
		cli.Fail("%v", err)
	}

	outDir := common.Output
	if outDir == "" {
		outDir = dir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		cli.Fail("%v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		cli.Fail("%v", err)
	}

	built := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".s") {
			continue
		}
		inPath := filepath.Join(dir, e.Name())
		src, err := os.ReadFile(inPath)
		if err != nil {
			cli.Fail("%v", err)
		}
		insts, err := objfile.Parse(string(src))
		if err != nil {
			fmt.Fprintf(os.Stderr, "embedding: skipping %s: %v\n", inPath, err)
			continue
		}

		g := graph.Build(t, insts,
			graph.WithVirtualRoot(*virtualRoot),
			graph.WithInOrderLinks(*inOrder),
			graph.WithSource(e.Name()))

		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		ext := ".graph.cbuf"
		if *readableJSON {
			ext = ".graph.json"
		}
		outPath := filepath.Join(outDir, stem+ext)

		f, err := os.Create(outPath)
		if err != nil {
			cli.Fail("%v", err)
		}
		if *readableJSON {
			err = codec.WriteGraphJSON(f, g)
		} else {
			err = codec.EncodeGraph(f, g)
		}
		f.Close()
		if err != nil {
			cli.Fail("%v", err)
		}
		built++
	}

	fmt.Fprintf(os.Stderr, "embedding: built %d graph(s)\n", built)
}
