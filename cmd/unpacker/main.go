// Command unpacker reads a packed .cbuf Dataset record and unpacks it
// into per-entry JSON files (and, optionally, a queryable SQLite
// diagnostics table).
//
// Usage:
//
//	unpacker [flags] <dataset.cbuf>
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sarchlab/llvm-ml-bench/internal/cli"
	"github.com/sarchlab/llvm-ml-bench/internal/codec"
	"github.com/sarchlab/llvm-ml-bench/internal/datasetdb"
)

var sqlitePath = flag.String("sqlite", "", "additionally load the dataset into a SQLite diagnostics table at this path")

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "unpacker: unpack a packed dataset into per-entry JSON files\n\n")
		fmt.Fprintf(os.Stderr, "Usage: unpacker [flags] <dataset.cbuf>\n\n")
		flag.PrintDefaults()
	}
	common := cli.RegisterCommon(flag.CommandLine)
	flag.Parse()

	path := cli.RequirePositional(flag.CommandLine, "dataset file")

	f, err := os.Open(path)
	if err != nil {
		cli.Fail("%v", err)
	}
	entries, err := codec.DecodeDataset(f)
	f.Close()
	if err != nil {
		cli.Fail("%v", err)
	}

	outDir := common.Output
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		cli.Fail("%v", err)
	}

	for i := range entries {
		outPath := filepath.Join(outDir, entries[i].ID+".json")
		out, err := os.Create(outPath)
		if err != nil {
			cli.Fail("%v", err)
		}
		err = codec.WriteDataPieceJSON(out, &entries[i])
		out.Close()
		if err != nil {
			cli.Fail("%v", err)
		}
	}
	fmt.Fprintf(os.Stderr, "unpacker: unpacked %d entr(y/ies) to %s\n", len(entries), outDir)

	if *sqlitePath == "" {
		return
	}

	db, err := datasetdb.Open(*sqlitePath)
	if err != nil {
		cli.Fail("%v", err)
	}
	defer db.Close()

	if err := datasetdb.Load(db, entries); err != nil {
		cli.Fail("%v", err)
	}
	fmt.Fprintf(os.Stderr, "unpacker: loaded %d entr(y/ies) into %s\n", len(entries), *sqlitePath)
}
