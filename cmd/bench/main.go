// Command bench measures the CPU-cycle cost of one or many assembly
// blocks under the ptrace-based Sandboxed Runner (spec.md §6).
//
// Usage:
//
//	bench [flags] <path>
//
// path names a single assembly file, or (batch mode) a directory of
// them. Results are written as packed Metrics records (.cbuf), or as
// indented JSON with --readable-json.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sarchlab/llvm-ml-bench/internal/aggregate"
	"github.com/sarchlab/llvm-ml-bench/internal/cli"
	"github.com/sarchlab/llvm-ml-bench/internal/codec"
	"github.com/sarchlab/llvm-ml-bench/internal/harness"
	"github.com/sarchlab/llvm-ml-bench/internal/jit"
	"github.com/sarchlab/llvm-ml-bench/internal/model"
	"github.com/sarchlab/llvm-ml-bench/internal/sandbox"
	"github.com/sarchlab/llvm-ml-bench/internal/target"
)

var (
	numRepeat      = flag.Int("num-repeat", 0, "unroll factor for workload; 0 requests auto-calibration")
	numRepeatNoise = flag.Int("num-repeat-noise", 10, "unroll factor for baseline")
	maxTrials      = flag.Int("r", 50, "max trials per harness")
	readableJSON   = flag.Bool("readable-json", false, "emit diagnostics JSON instead of packed binary")
	arch           = flag.String("arch", "", "override target architecture")
	triple         = flag.String("triple", "", "override target triple")
	logFile        = flag.String("log-file", "", "batch-mode error log")
)

func main() {
	if sandbox.MaybeRunChild() {
		os.Exit(0)
	}

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "bench: measure the CPU-cycle cost of assembly blocks\n\n")
		fmt.Fprintf(os.Stderr, "Usage: bench [flags] <path>\n\n")
		flag.PrintDefaults()
	}
	common := cli.RegisterCommon(flag.CommandLine)
	flag.Parse()

	path := cli.RequirePositional(flag.CommandLine, "input path")

	if len(common.CPUs.IDs()) == 0 {
		cli.Fail("at least one -c CPU id is required")
	}

	t, err := target.Resolve(context.Background(), cli.FirstNonEmpty(*triple, *arch))
	if err != nil {
		cli.Fail("%v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		cli.Fail("%v", err)
	}

	var logOut *os.File
	if *logFile != "" {
		logOut, err = os.Create(*logFile)
		if err != nil {
			cli.Fail("opening log file: %v", err)
		}
		defer logOut.Close()
	}

	cpus := common.CPUs.IDs()

	if info.IsDir() {
		runBatch(t, path, common.Output, logOut, cpus)
		return
	}

	if err := runOne(t, path, outputPathFor(common.Output, path), cpus[0]); err != nil {
		cli.Fail("%v", err)
	}
}

// runBatch fans out across one worker per configured CPU id, each
// worker pulling the next file off a shared channel — layer 2 of
// spec.md §5's concurrency model. Workers share no Counter Group,
// shared-memory region, or child process; they only share the
// completion channel feeding the next input file.
func runBatch(t target.MLTarget, dir, outDir string, logOut *os.File, cpus []int) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		cli.Fail("%v", err)
	}
	if outDir == "" {
		outDir = dir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		cli.Fail("%v", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".s") {
			files = append(files, e.Name())
		}
	}

	jobs := make(chan string, len(files))
	for _, name := range files {
		jobs <- name
	}
	close(jobs)

	type failure struct {
		path string
		err  error
	}
	failures := make(chan failure, len(files))

	var wg sync.WaitGroup
	for _, cpu := range cpus {
		wg.Add(1)
		go func(cpu int) {
			defer wg.Done()
			for name := range jobs {
				in := filepath.Join(dir, name)
				out := outputPathFor(outDir, in)
				if err := runOne(t, in, out, cpu); err != nil {
					failures <- failure{in, err}
				}
			}
		}(cpu)
	}

	wg.Wait()
	close(failures)

	failed := 0
	for f := range failures {
		failed++
		if logOut != nil {
			fmt.Fprintf(logOut, "%s: %v\n", f.path, f.err)
		} else {
			fmt.Fprintf(os.Stderr, "%s: %v\n", f.path, f.err)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func outputPathFor(out, in string) string {
	ext := ".metrics.cbuf"
	if *readableJSON {
		ext = ".metrics.json"
	}
	stem := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	if out == "" {
		return stem + ext
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, stem+ext)
	}
	return out
}

func runOne(t target.MLTarget, inPath, outPath string, cpu int) error {
	source, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}

	builder := builderFor(t)
	compiler := &jit.Compiler{}
	runner := sandbox.New(compiler.Compile, sandbox.WithTrials(*maxTrials), sandbox.WithCPU(cpu))
	ctx := context.Background()

	workloadN := *numRepeat
	if workloadN == 0 {
		probe, err := harness.Generate(string(source), 1, builder)
		if err != nil {
			return fmt.Errorf("harness: %w", err)
		}
		workloadN, err = runner.Check(ctx, probe, *numRepeatNoise)
		if err != nil {
			return fmt.Errorf("calibrate: %w", err)
		}
	}

	mod, err := harness.Generate(string(source), workloadN, builder)
	if err != nil {
		return fmt.Errorf("harness: %w", err)
	}

	noise, workload, err := runner.Run(ctx, mod, *numRepeatNoise, workloadN)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	measurement := aggregate.Measure(aggregate.Trials(workload), aggregate.Trials(noise))
	record := &model.MetricsRecord{
		MeasuredCycles:  measurement.MeasuredCycles,
		NumRepeat:       uint64(workloadN),
		Source:          string(source),
		NoiseSamples:    noise,
		WorkloadSamples: workload,
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if *readableJSON {
		return codec.WriteMetricsJSON(f, record)
	}
	return codec.EncodeMetrics(f, record)
}

func builderFor(t target.MLTarget) harness.InlineAsmBuilder {
	switch t.Name() {
	default:
		return harness.X86_64Builder{}
	}
}
