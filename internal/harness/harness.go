package harness

import (
	"errors"
	"fmt"
	"strings"
)

// ErrReservedAddress is returned by Generate when a line of the candidate
// assembly contains one of reservedLiterals, the hex spellings of the
// sandbox's ArenaBase and of the saved-state page immediately above it
// (spec.md §13.3 / SPEC_FULL.md §13). Only those exact spellings are
// matched.
var ErrReservedAddress = errors.New("harness: assembly references a reserved sandbox address")

// reservedLiterals lists the hex spellings of addresses generated code must
// never reference; see internal/sandbox for the arena layout they guard.
var reservedLiterals = []string{"0x2324000", "0x2325000"}

// InlineAsmBuilder supplies the target-specific prologue/epilogue
// fragments the generator stitches around a candidate block, mirroring
// the teacher's target-specific register-file accessors: one
// implementation per architecture, selected the same way target.MLTarget
// is.
type InlineAsmBuilder interface {
	// SetupEnv runs once, after counters_start, before the unrolled block.
	SetupEnv() []Stmt
	// RestoreEnv runs once, after the unrolled block, before counters_stop.
	RestoreEnv() []Stmt
	// SaveState preserves caller-owned register/flag state before the
	// measured region begins.
	SaveState() []Stmt
	// RestoreState restores what SaveState preserved.
	RestoreState() []Stmt
}

// Generate builds the baseline (noise, zero copies of source) and
// workload (source repeated n times) functions for one basic block, per
// spec.md §4.2.
func Generate(source string, n int, b InlineAsmBuilder) (*Module, error) {
	if n < 1 {
		return nil, fmt.Errorf("harness: unroll factor must be >= 1, got %d", n)
	}

	lines, err := preprocess(source)
	if err != nil {
		return nil, err
	}

	// An empty block (spec.md §8 scenario S1) still produces a valid
	// baseline==workload module; its measured cycle count is 0.
	var workloadLines []string
	for i := 0; i < n; i++ {
		workloadLines = append(workloadLines, lines...)
	}

	return &Module{
		Source:   source,
		Baseline: buildFunction("baseline", nil, b),
		Workload: buildFunction("workload", workloadLines, b),
	}, nil
}

// preprocess normalizes line endings, doubles literal "$" so the
// downstream assembler treats it as an immediate-prefix escape rather than
// a template placeholder, strips blank/comment lines, and rejects any
// reference to a reserved sandbox address.
func preprocess(source string) ([]string, error) {
	normalized := strings.ReplaceAll(source, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	normalized = strings.ReplaceAll(normalized, "$", "$$")

	var out []string
	for _, raw := range strings.Split(normalized, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		for _, lit := range reservedLiterals {
			if strings.Contains(line, lit) {
				return nil, fmt.Errorf("%w: %q", ErrReservedAddress, line)
			}
		}
		out = append(out, line)
	}
	return out, nil
}
