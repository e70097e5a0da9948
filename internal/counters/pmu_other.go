//go:build !linux

package counters

import "errors"

// pmuGroup has no non-Linux implementation: the Sandboxed Runner's
// ptrace/perf_event_open machinery is Linux-only (spec.md §1 Non-goals:
// Windows support; the same reasoning excludes every other non-Linux
// target).
type pmuGroup struct{}

func newPMUGroup(pid int, cb Callback) (*pmuGroup, error) {
	return nil, errors.New("counters: real PMU group requires linux; set LLVM_ML_BENCH_MOCK for other platforms")
}

func (g *pmuGroup) Start() error { return errUnsupported }
func (g *pmuGroup) Stop() error  { return errUnsupported }
func (g *pmuGroup) Flush()       {}
func (g *pmuGroup) Close() error { return nil }

var errUnsupported = errors.New("counters: unsupported platform")
