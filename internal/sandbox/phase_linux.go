//go:build linux

package sandbox

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/sarchlab/llvm-ml-bench/internal/model"
)

// childSpec describes one traced child's launch parameters.
type childSpec struct {
	soPath  string
	funcArg string // "workload" or "baseline"
	cpu     int
	phase   string // "A" or "B"
	trials  int
	trialID int
	pages   *mappedSet
	arena   *parentArena
}

// spawnChild re-execs the current binary into child mode, wired to the
// shared arena on fd 3, and leaves it ptrace-attached and stopped at the
// post-exec trap (the kernel's own doing, per PTRACE_TRACEME-on-exec
// semantics — no manual PTRACE_ATTACH race to lose).
func spawnChild(ctx context.Context, spec childSpec) (*exec.Cmd, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("sandbox: resolve self executable: %w", err)
	}

	cmd := exec.CommandContext(ctx, self, os.Args[1:]...)
	cmd.Env = append(os.Environ(),
		envChild+"=1",
		envSoPath+"="+spec.soPath,
		envFunc+"="+spec.funcArg,
		envCPU+"="+strconv.Itoa(spec.cpu),
		envPhase+"="+spec.phase,
		envTrials+"="+strconv.Itoa(spec.trials),
		envTrialID+"="+strconv.Itoa(spec.trialID),
		envPages+"="+encodePages(spec.pages),
	)
	cmd.ExtraFiles = []*os.File{os.NewFile(uintptr(spec.arena.fd), "arena")}
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Ptrace: true}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("sandbox: start child: %w", err)
	}
	return cmd, nil
}

func encodePages(m *mappedSet) string {
	if m == nil {
		return ""
	}
	parts := make([]string, 0, len(m.slots))
	for _, s := range m.slots {
		parts = append(parts, fmt.Sprintf("%d:%d", s.addr, s.offset))
	}
	return strings.Join(parts, ",")
}

// waitForStop blocks until the traced child enters its next ptrace stop
// and returns its wait status.
func waitForStop(pid int) (unix.WaitStatus, error) {
	var ws unix.WaitStatus
	_, err := unix.Wait4(pid, &ws, 0, nil)
	return ws, err
}

// runPhaseA drives page discovery for one function (spec.md §4.3): it
// runs the harness once at unroll 1, resolving every SIGSEGV/SIGTRAP it
// sees by mapping the faulting page and restarting, until the child
// reaches a clean exit or MAX_FAULTS is exceeded.
func runPhaseA(ctx context.Context, opts Options, lib sharedLibrary, funcName string, unroll int) (*mappedSet, model.BenchmarkResult, error) {
	if _, err := lib.SymbolAddr(funcName); err != nil {
		return nil, model.BenchmarkResult{}, err
	}

	arena, err := newParentArena()
	if err != nil {
		return nil, model.BenchmarkResult{}, err
	}
	defer arena.close()

	cmd, err := spawnChild(ctx, childSpec{
		soPath: lib.(pathProvider).Path(), funcArg: funcName, cpu: opts.CPU,
		phase: "A", trials: 1, arena: arena,
	})
	if err != nil {
		return nil, model.BenchmarkResult{}, err
	}
	pid := cmd.Process.Pid

	// Post-exec trap: resume into the child's own setup code.
	if _, err := waitForStop(pid); err != nil {
		return nil, model.BenchmarkResult{}, fmt.Errorf("sandbox: wait post-exec: %w", err)
	}
	if err := unix.PtraceCont(pid, 0); err != nil {
		return nil, model.BenchmarkResult{}, fmt.Errorf("sandbox: cont post-exec: %w", err)
	}

	// Ready handshake: the child has published its trampoline address and
	// raised SIGSTOP.
	if _, err := waitForStop(pid); err != nil {
		return nil, model.BenchmarkResult{}, fmt.Errorf("sandbox: wait ready: %w", err)
	}
	trampolineAddr, _ := arena.readHandshake()

	mapped := &mappedSet{}
	var lastFaultIP uint64
	faults := 0

	if err := unix.PtraceCont(pid, 0); err != nil {
		return nil, model.BenchmarkResult{}, fmt.Errorf("sandbox: cont into measured region: %w", err)
	}

	for {
		ws, err := waitForStop(pid)
		if err != nil {
			return nil, model.BenchmarkResult{}, fmt.Errorf("sandbox: wait: %w", err)
		}

		if ws.Exited() {
			if ws.ExitStatus() == 0 {
				break
			}
			return nil, model.BenchmarkResult{}, ErrUnknownExitReason
		}
		if ws.Signaled() {
			return nil, model.BenchmarkResult{}, ErrUnknownExitReason
		}
		if !ws.Stopped() {
			return nil, model.BenchmarkResult{}, ErrUnknownExitReason
		}

		sig := ws.StopSignal()
		if sig != unix.SIGSEGV && sig != unix.SIGTRAP {
			return nil, model.BenchmarkResult{}, ErrUnknownExitReason
		}

		var regs unix.PtraceRegs
		if err := unix.PtraceGetRegs(pid, &regs); err != nil {
			return nil, model.BenchmarkResult{}, fmt.Errorf("sandbox: getregs: %w", err)
		}

		faultIP := regs.Rip
		faultAddr, err := faultingAddress(pid)
		if err != nil {
			return nil, model.BenchmarkResult{}, err
		}
		if faultAddr == 0 {
			return nil, model.BenchmarkResult{}, ErrNullAccess
		}
		if faultIP == lastFaultIP {
			return nil, model.BenchmarkResult{}, ErrSameIPFaultedTwice
		}
		lastFaultIP = faultIP

		faults++
		if faults > opts.MaxFaults {
			return nil, model.BenchmarkResult{}, ErrMaxFaultsExceeded
		}

		aligned := pageAlign(uintptr(faultAddr))
		if !mapped.contains(aligned) {
			offset, err := arena.grow()
			if err != nil {
				return nil, model.BenchmarkResult{}, err
			}
			mapped.add(aligned, offset)
		}

		for _, s := range mapped.slots {
			if s.addr == aligned {
				arena.writeFaultCmd(aligned, s.offset)
				break
			}
		}

		regs.Rip = uint64(trampolineAddr)
		if err := unix.PtraceSetRegs(pid, &regs); err != nil {
			return nil, model.BenchmarkResult{}, fmt.Errorf("sandbox: setregs: %w", err)
		}
		if err := unix.PtraceCont(pid, 0); err != nil {
			return nil, model.BenchmarkResult{}, fmt.Errorf("sandbox: cont after map: %w", err)
		}
	}

	result := readBenchmarkResult(arena.outputPage(), 0)
	return mapped, result, nil
}

// runPhaseB drives the measured runs for one function: a single traced
// child pre-maps every page Phase A discovered, performs five warm-up
// invocations, then runs r back-to-back measured invocations and writes
// one BenchmarkResult per trial into the shared output page.
func runPhaseB(ctx context.Context, opts Options, lib sharedLibrary, funcName string, unroll int, mapped *mappedSet) ([]model.BenchmarkResult, error) {
	arena, err := newParentArena()
	if err != nil {
		return nil, err
	}
	defer arena.close()

	cmd, err := spawnChild(ctx, childSpec{
		soPath: lib.(pathProvider).Path(), funcArg: funcName, cpu: opts.CPU,
		phase: "B", trials: opts.Trials, pages: mapped, arena: arena,
	})
	if err != nil {
		return nil, err
	}
	pid := cmd.Process.Pid

	if _, err := waitForStop(pid); err != nil {
		return nil, fmt.Errorf("sandbox: wait post-exec: %w", err)
	}
	if err := unix.PtraceCont(pid, 0); err != nil {
		return nil, err
	}
	if _, err := waitForStop(pid); err != nil {
		return nil, fmt.Errorf("sandbox: wait ready: %w", err)
	}
	if err := unix.PtraceCont(pid, 0); err != nil {
		return nil, err
	}

	exitStatus := 0
	for {
		ws, err := waitForStop(pid)
		if err != nil {
			return nil, fmt.Errorf("sandbox: wait: %w", err)
		}
		if ws.Exited() {
			exitStatus = ws.ExitStatus()
			break
		}
		if ws.Stopped() {
			if err := unix.PtraceCont(pid, 0); err != nil {
				return nil, err
			}
			continue
		}
		break
	}

	results := make([]model.BenchmarkResult, opts.Trials)
	if exitStatus != 0 {
		for i := range results {
			results[i] = model.BenchmarkResult{Failed: true}
		}
		return results, nil
	}

	out := arena.outputPage()
	for i := range results {
		results[i] = readBenchmarkResult(out, i)
	}
	return results, nil
}

// pathProvider exposes the path loadSharedObject opened, so a re-exec'd
// child can dlopen the same file independently.
type pathProvider interface {
	Path() string
}

func (l *dlLibrary) Path() string { return l.path }

func pinCPU(cpu int) {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	_ = unix.SchedSetaffinity(0, &set)
}

// raisePriority best-effort raises the calling process to SCHED_FIFO
// priority 90, ignoring any failure (unprivileged processes cannot raise
// their own scheduling class, and that's fine — spec.md §4.3 treats this
// as a best-effort policy, not a correctness requirement).
func raisePriority() {
	const schedFIFO = 1
	param := schedParam{priority: 90}
	unix.Syscall(unix.SYS_SCHED_SETSCHEDULER, 0, schedFIFO, uintptr(unsafe.Pointer(&param)))
}

type schedParam struct{ priority int32 }
