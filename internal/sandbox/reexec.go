package sandbox

import "os"

// Environment variables used for the parent/child handshake. The child is
// the same binary, re-exec'd with envChild set, rather than a second
// shipped executable — the self-reexec pattern container runtimes use to
// avoid distributing a companion binary.
const (
	envChild   = "LLVM_ML_BENCH_SANDBOX_CHILD"
	envSoPath  = "LLVM_ML_BENCH_SANDBOX_SO"
	envFunc    = "LLVM_ML_BENCH_SANDBOX_FUNC"
	envCPU     = "LLVM_ML_BENCH_SANDBOX_CPU"
	envTrialID = "LLVM_ML_BENCH_SANDBOX_TRIAL_ID"
)

// MaybeRunChild checks whether the current process was re-exec'd by a
// Runner to act as a traced measurement child and, if so, runs the child
// side of the ptrace protocol and never returns. Every cmd/* entry point
// that links internal/sandbox must call this first in main(), before flag
// parsing.
func MaybeRunChild() bool {
	if os.Getenv(envChild) == "" {
		return false
	}
	runChild()
	return true
}
