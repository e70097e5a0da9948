package sandbox

import (
	"context"
	"fmt"

	"github.com/sarchlab/llvm-ml-bench/internal/calibrate"
	"github.com/sarchlab/llvm-ml-bench/internal/harness"
	"github.com/sarchlab/llvm-ml-bench/internal/model"
)

// CompileFunc is the external code-generator boundary (spec.md §1): it
// writes an object file for the IR module, invokes the system linker, and
// returns the path to the resulting position-independent shared object.
type CompileFunc func(ctx context.Context, mod *harness.Module) (soPath string, err error)

// Options configures one Runner. Construct with functional Option values,
// mirroring the teacher's EmulatorOption pattern.
type Options struct {
	CPU         int
	MaxFaults   int
	Trials      int
	SliceNs     uint64
	RerunOnNoise bool
}

func defaultOptions() Options {
	return Options{
		CPU:          0,
		MaxFaults:    30,
		Trials:       30,
		SliceNs:      1_000_000,
		RerunOnNoise: true,
	}
}

// Option configures a Runner.
type Option func(*Options)

// WithCPU pins every forked child to the given logical CPU via
// sched_setaffinity (spec.md §4.3).
func WithCPU(id int) Option { return func(o *Options) { o.CPU = id } }

// WithMaxFaults overrides the Phase A fault-and-restart bound (default 30,
// per spec.md §4.3's "typical 30").
func WithMaxFaults(n int) Option { return func(o *Options) { o.MaxFaults = n } }

// WithTrials sets R, the number of Phase B measured invocations.
func WithTrials(r int) Option { return func(o *Options) { o.Trials = r } }

// WithSliceNs overrides the assumed scheduler time-slice length used by
// Check's unroll suggestion (default ~1ms, per spec.md §4.9).
func WithSliceNs(ns uint64) Option { return func(o *Options) { o.SliceNs = ns } }

// WithoutNoiseRerun clears Options.RerunOnNoise. Phase B does not read
// that field and performs no noise-triggered rerun in either setting.
func WithoutNoiseRerun() Option { return func(o *Options) { o.RerunOnNoise = false } }

// Runner executes compiled harness modules under ptrace supervision.
type Runner struct {
	opts    Options
	compile CompileFunc
}

// New builds a Runner around the supplied compile function.
func New(compile CompileFunc, opts ...Option) *Runner {
	o := defaultOptions()
	for _, apply := range opts {
		apply(&o)
	}
	return &Runner{opts: o, compile: compile}
}

// Check runs Phase A only, then estimates a suggested unroll factor from
// the fastest observed trial, per spec.md §4.9.
func (r *Runner) Check(ctx context.Context, mod *harness.Module, noiseUnroll int) (int, error) {
	if r.opts.Trials > MaxOutputSlots {
		return 0, ErrTooManyTrials
	}

	soPath, err := r.compile(ctx, mod)
	if err != nil {
		return 0, fmt.Errorf("sandbox: compile: %w", err)
	}

	lib, err := loadSharedObject(soPath)
	if err != nil {
		return 0, err
	}
	defer lib.Close()

	mapped, result, err := runPhaseA(ctx, r.opts, lib, "baseline", noiseUnroll)
	if err != nil {
		return 0, err
	}
	_ = mapped

	suggested, err := calibrate.Suggest(result.WallTimeNs, result.NumRuns, r.opts.SliceNs)
	if err != nil {
		return 0, fmt.Errorf("sandbox: %w", err)
	}
	return suggested, nil
}

// Run executes Phase A once for the baseline and once for the workload
// function, then Phase B measured runs of each, reusing the
// mapped-address set its own Phase A discovered, and returns the two
// trial slices per spec.md §4.3.
func (r *Runner) Run(ctx context.Context, mod *harness.Module, noiseUnroll, workloadUnroll int) (noise, workload []model.BenchmarkResult, err error) {
	if r.opts.Trials > MaxOutputSlots {
		return nil, nil, ErrTooManyTrials
	}

	soPath, err := r.compile(ctx, mod)
	if err != nil {
		return nil, nil, fmt.Errorf("sandbox: compile: %w", err)
	}

	lib, err := loadSharedObject(soPath)
	if err != nil {
		return nil, nil, err
	}
	defer lib.Close()

	noiseMapped, _, err := runPhaseA(ctx, r.opts, lib, "baseline", noiseUnroll)
	if err != nil {
		return nil, nil, fmt.Errorf("sandbox: phase A (noise): %w", err)
	}
	workloadMapped, _, err := runPhaseA(ctx, r.opts, lib, "workload", workloadUnroll)
	if err != nil {
		return nil, nil, fmt.Errorf("sandbox: phase A (workload): %w", err)
	}

	noise, err = runPhaseB(ctx, r.opts, lib, "baseline", noiseUnroll, noiseMapped)
	if err != nil {
		return nil, nil, fmt.Errorf("sandbox: phase B (noise): %w", err)
	}
	workload, err = runPhaseB(ctx, r.opts, lib, "workload", workloadUnroll, workloadMapped)
	if err != nil {
		return nil, nil, fmt.Errorf("sandbox: phase B (workload): %w", err)
	}

	return noise, workload, nil
}
