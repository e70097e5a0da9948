// Package harness implements the Harness Generator (spec.md §4.2): it
// wraps a basic block's assembly with a target-specific save/restore
// prologue-epilogue and emits an in-memory IR module with a baseline
// (noise) and a workload function, ready for the external JIT code
// generator's compile(ir_module) -> shared_object_path step (out of
// scope here per spec.md §1).
package harness

import "fmt"

// StmtKind tags one IR statement.
type StmtKind int

const (
	StmtCall StmtKind = iota
	StmtLabel
	StmtBranch
	StmtInlineAsm
)

// Stmt is one IR statement. Only the fields relevant to Kind are set.
type Stmt struct {
	Kind           StmtKind
	Target         string // StmtCall: callee name; StmtLabel/StmtBranch: label name
	Text           string // StmtInlineAsm: the assembly line, already pre-processed
	HasSideEffects bool   // StmtInlineAsm: always true per spec.md §4.2 step 5
}

func call(name string) Stmt          { return Stmt{Kind: StmtCall, Target: name} }
func label(name string) Stmt         { return Stmt{Kind: StmtLabel, Target: name} }
func branch(name string) Stmt        { return Stmt{Kind: StmtBranch, Target: name} }
func asmLine(text string) Stmt       { return Stmt{Kind: StmtInlineAsm, Text: text, HasSideEffects: true} }

// Function is one IR function: signature (counters_ctx, counters_start,
// counters_stop, out) -> void, per spec.md §4.2.
type Function struct {
	Name string
	Body []Stmt
}

// Module is the in-memory IR module produced by Generate: a baseline
// (noise) function with no unrolled copies, and a workload function with
// the block repeated N times, both calling the counter function pointers
// by address so the module is self-contained.
type Module struct {
	Source   string
	Baseline Function
	Workload Function
}

const (
	counterStartFn = "counters_start"
	counterStopFn  = "counters_stop"
)

func buildFunction(name string, asmLines []string, b InlineAsmBuilder) Function {
	var body []Stmt
	body = append(body, b.SaveState()...)
	body = append(body, call(counterStartFn))
	body = append(body, b.SetupEnv()...)

	startLabel := fmt.Sprintf("workload_start_%s", name)
	endLabel := fmt.Sprintf("workload_end_%s", name)

	body = append(body, branch(startLabel), label(startLabel))
	for _, line := range asmLines {
		body = append(body, asmLine(line))
	}
	body = append(body, branch(endLabel), label(endLabel))

	body = append(body, b.RestoreEnv()...)
	body = append(body, b.RestoreState()...)
	body = append(body, call(counterStopFn))

	return Function{Name: name, Body: body}
}
