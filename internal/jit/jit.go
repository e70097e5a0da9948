// Package jit is the concrete implementation of the external
// "compile(ir_module) -> shared_object_path" collaborator spec.md §1
// declares out of scope: it renders a harness.Module's IR to GAS text
// and hands it to the system assembler/linker (`cc -shared -fPIC`)
// rather than hosting an in-process JIT.
package jit

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sarchlab/llvm-ml-bench/internal/harness"
)

// Compiler renders and assembles harness.Module values into shared
// objects. With WorkDir empty, every call creates a fresh temporary
// directory; with WorkDir set, every call overwrites module.s and
// module.so there.
type Compiler struct {
	WorkDir string // directory for intermediate .s/.so files; os.MkdirTemp if empty
	CC      string // assembler/linker driver; "cc" if empty
}

// Compile implements sandbox.CompileFunc.
func (c *Compiler) Compile(ctx context.Context, mod *harness.Module) (string, error) {
	workDir := c.WorkDir
	if workDir == "" {
		dir, err := os.MkdirTemp("", "llvm-ml-bench-jit")
		if err != nil {
			return "", fmt.Errorf("jit: mkdtemp: %w", err)
		}
		workDir = dir
	}

	asmPath := filepath.Join(workDir, "module.s")
	if err := os.WriteFile(asmPath, []byte(render(mod)), 0o644); err != nil {
		return "", fmt.Errorf("jit: write %s: %w", asmPath, err)
	}

	soPath := filepath.Join(workDir, "module.so")
	cc := c.CC
	if cc == "" {
		cc = "cc"
	}

	cmd := exec.CommandContext(ctx, cc, "-shared", "-fPIC", "-nostartfiles", "-o", soPath, asmPath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("jit: %s failed: %w\n%s", cc, err, out)
	}

	return soPath, nil
}

// render lowers a Module's IR to GAS (AT&T) assembly text. Both
// functions share the (start_fn, stop_fn) calling convention: rdi holds
// counters_start's address, rsi holds counters_stop's address, matching
// the System V x86-64 ABI's first two integer argument registers.
func render(mod *harness.Module) string {
	var b strings.Builder
	b.WriteString(".text\n")
	renderFunction(&b, &mod.Baseline)
	renderFunction(&b, &mod.Workload)
	return b.String()
}

func renderFunction(b *strings.Builder, fn *harness.Function) {
	fmt.Fprintf(b, ".globl %s\n.type %s, @function\n%s:\n", fn.Name, fn.Name, fn.Name)

	for _, st := range fn.Body {
		switch st.Kind {
		case harness.StmtCall:
			switch st.Target {
			case "counters_start":
				b.WriteString("\tcall *%rdi\n")
			case "counters_stop":
				b.WriteString("\tcall *%rsi\n")
			default:
				fmt.Fprintf(b, "\tcall %s\n", st.Target)
			}
		case harness.StmtLabel:
			fmt.Fprintf(b, "%s:\n", st.Target)
		case harness.StmtBranch:
			fmt.Fprintf(b, "\tjmp %s\n", st.Target)
		case harness.StmtInlineAsm:
			fmt.Fprintf(b, "\t%s\n", st.Text)
		}
	}

	b.WriteString("\tret\n")
	fmt.Fprintf(b, ".size %s, .-%s\n\n", fn.Name, fn.Name)
}
