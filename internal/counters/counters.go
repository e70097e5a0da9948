// Package counters implements the Counter Group (spec.md §4.1): a fixed
// set of hardware PMU events bound into a single group whose reset/enable/
// disable/read operations act atomically, plus a mock implementation for
// tests and for any environment lacking PMU access.
package counters

import "os"

// Kind identifies one counter in the group.
type Kind int

const (
	Cycles Kind = iota
	Instructions
	L1DReadMisses
	ContextSwitches
	MicroOps // optional: present only if the platform exposes an alias for it
)

func (k Kind) String() string {
	switch k {
	case Cycles:
		return "cycles"
	case Instructions:
		return "instructions"
	case L1DReadMisses:
		return "l1d_read_misses"
	case ContextSwitches:
		return "context_switches"
	case MicroOps:
		return "micro_ops"
	default:
		return "unknown"
	}
}

// Sample is one grouped counter's value, as delivered to the Flush
// callback.
type Sample struct {
	Kind  Kind
	Value uint64
}

// Callback is invoked exactly once per Stop/Flush pair. It must not
// allocate or make system calls beyond its own logic — it runs on the hot
// path inside the measured child.
type Callback func([]Sample)

// Group is the Counter Group capability surface.
type Group interface {
	// Start resets the group's counters and enables the whole group
	// atomically.
	Start() error
	// Stop disables the group and reads a single grouped record into a
	// private buffer. It does not itself invoke the callback; call Flush
	// to do that.
	Stop() error
	// Flush parses the buffer captured by Stop and invokes the callback
	// with the resulting samples.
	Flush()
	// Close releases the group's file descriptors.
	Close() error
}

// mockEnvVar switches the group to its mock implementation (spec.md §6).
const mockEnvVar = "LLVM_ML_BENCH_MOCK"

// New creates a Counter Group bound to pid (0 for the calling thread),
// counting on whichever CPU it runs, configured with exactly the event list spec.md §4.1
// names, with kernel/hypervisor time excluded from every event. If the
// mock environment variable is set, a mock group is returned instead.
func New(pid int, cb Callback) (Group, error) {
	if os.Getenv(mockEnvVar) != "" {
		return newMockGroup(cb), nil
	}
	return newPMUGroup(pid, cb)
}
