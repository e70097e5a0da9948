//go:build linux

package sandbox

import (
	"encoding/binary"
	"fmt"
	"os"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"time"
	"unsafe"

	"github.com/ebitengine/purego"
	"golang.org/x/sys/unix"

	"github.com/sarchlab/llvm-ml-bench/internal/counters"
)

const (
	envPhase = "LLVM_ML_BENCH_SANDBOX_PHASE" // "A" or "B"
	envTrials = "LLVM_ML_BENCH_SANDBOX_TRIALS"
	// envPages carries Phase A's discovered "addr:offset" pairs,
	// comma-separated, so a Phase B child can pre-map them before running
	// unguarded (spec.md §4.3: "pre-maps every address in the mapped-
	// address set from Phase A, prefetches each one").
	envPages = "LLVM_ML_BENCH_SANDBOX_PAGES"
)

const warmupRuns = 5

// mapArenaFixed maps the memfd passed at fd onto the well-known ArenaBase
// address, so every subsequent address in this process (SavedStateAddr,
// OutputAddr, FaultCmdAddr, and whatever pages the trampoline later maps
// in) is stable and known ahead of time.
func mapArenaFixed(fd int) error {
	_, _, errno := unix.Syscall6(unix.SYS_MMAP, ArenaBase, arenaFixedPages*PageSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_FIXED|unix.MAP_SHARED, uintptr(fd), 0)
	if errno != 0 {
		return fmt.Errorf("sandbox: child mmap arena fixed: %w", errno)
	}
	return nil
}

func publishTrampoline(addr uintptr, pid int) {
	buf := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(FaultCmdAddr))), PageSize)
	binary.LittleEndian.PutUint64(buf[fcTrampolineAddr:], uint64(addr))
	binary.LittleEndian.PutUint64(buf[fcChildPID:], uint64(pid))
}

type faultCmd struct {
	faultAddr uintptr
	offset    int64
	arenaFD   int
}

func readFaultCmd() faultCmd {
	buf := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(FaultCmdAddr))), PageSize)
	return faultCmd{
		faultAddr: uintptr(binary.LittleEndian.Uint64(buf[fcFaultAddr:])),
		offset:    int64(binary.LittleEndian.Uint64(buf[fcOffset:])),
		arenaFD:   int(binary.LittleEndian.Uint64(buf[fcArenaFD:])),
	}
}

// runChild is the traced side of the protocol: pin to the configured CPU,
// raise scheduling priority (best effort — failures are ignored per
// spec.md §4.3), resolve the measured function from the compiled shared
// object, publish the trampoline's address, then stop for the parent to
// arm Phase A/B handling before resuming with PTRACE_CONT.
func runChild() {
	runtime.LockOSThread()

	cpu, _ := strconv.Atoi(os.Getenv(envCPU))
	pinCPU(cpu)
	raisePriority()

	if err := mapArenaFixed(childArenaFD); err != nil {
		fatalChild(err)
	}

	soPath := os.Getenv(envSoPath)
	funcName := os.Getenv(envFunc)
	phase := os.Getenv(envPhase)
	trials, _ := strconv.Atoi(os.Getenv(envTrials))

	lib, err := loadSharedObject(soPath)
	if err != nil {
		fatalChild(err)
	}
	addr, err := lib.SymbolAddr(funcName)
	if err != nil {
		fatalChild(err)
	}

	publishTrampoline(reflect.ValueOf(mapAndRestartTrampoline).Pointer(), os.Getpid())

	unix.Kill(os.Getpid(), unix.SIGSTOP)

	switch phase {
	case "A":
		start := time.Now()
		invokeOnce(addr, nil)
		writeChildMeta(uintptr(OutputAddr), 1, uint64(time.Since(start).Nanoseconds()))
	case "B":
		premapDiscoveredPages(os.Getenv(envPages))
		runMeasuredLoop(addr, trials)
	}
	os.Exit(0)
}

// premapDiscoveredPages maps every page Phase A discovered, with prefetch
// touches, before Phase B ever invokes the measured function — so the
// measured region runs with no page faults of its own.
func premapDiscoveredPages(encoded string) {
	if encoded == "" {
		return
	}
	for _, pair := range strings.Split(encoded, ",") {
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			continue
		}
		addr, _ := strconv.ParseUint(parts[0], 10, 64)
		offset, _ := strconv.ParseInt(parts[1], 10, 64)
		_, _, errno := unix.Syscall6(
			unix.SYS_MMAP, uintptr(addr), uintptr(PageSize),
			uintptr(unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC),
			uintptr(unix.MAP_FIXED|unix.MAP_SHARED), uintptr(childArenaFD), uintptr(offset))
		if errno != 0 {
			fatalChild(fmt.Errorf("sandbox: pre-map 0x%x: %w", addr, errno))
		}
		// Prefetch: touch the page once so the TLB/cache entry for it is
		// warm before the measured region relies on it being resident.
		_ = *(*byte)(unsafe.Pointer(uintptr(addr)))
	}
}

func fatalChild(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(2)
}

// invokeOnce calls the resolved function once with the harness ABI
// (counters_ctx, counters_start, counters_stop, out). A nil Counter Group
// means Phase A's single discovery run, where counter values are
// discarded and only control flow/fault behavior matters.
func invokeOnce(addr uintptr, group counters.Group) {
	var startCB, stopCB uintptr
	if group != nil {
		startCB = purego.NewCallback(func() uintptr { group.Start(); return 0 })
		stopCB = purego.NewCallback(func() uintptr { group.Stop(); group.Flush(); return 0 })
	} else {
		startCB = purego.NewCallback(func() uintptr { return 0 })
		stopCB = purego.NewCallback(func() uintptr { return 0 })
	}
	purego.SyscallN(addr, 0, startCB, stopCB, 0)
}

// runMeasuredLoop implements Phase B's measured-run protocol: five
// warm-up invocations with counters stubbed out, then trials back-to-back
// measured invocations with sched_yield between them, each writing its
// BenchmarkResult into the output page at its trial index.
func runMeasuredLoop(addr uintptr, trials int) {
	for i := 0; i < warmupRuns; i++ {
		invokeOnce(addr, nil)
	}

	for trial := 0; trial < trials; trial++ {
		outAddr := uintptr(OutputAddr + trial*benchmarkResultSize)

		group, err := counters.New(os.Getpid(), func(samples []counters.Sample) {
			writeBenchmarkResult(outAddr, samples)
		})
		if err != nil {
			fatalChild(err)
		}

		start := time.Now()
		invokeOnce(addr, group)
		elapsed := time.Since(start)
		group.Close()

		writeChildMeta(outAddr, 1, uint64(elapsed.Nanoseconds()))
		unix.Syscall(unix.SYS_SCHED_YIELD, 0, 0, 0)
	}
}

// mapAndRestartTrampoline is the fault-recovery entry point Phase A
// redirects a faulting child's instruction pointer to. It reads the
// pending fault command the parent staged on the fault-command page,
// mmaps the arena's backing memory over the faulting page with
// MAP_FIXED|MAP_SHARED, then traps back to the tracer so it can restore
// the original instruction pointer and resume the faulting instruction.
func mapAndRestartTrampoline() {
	cmd := readFaultCmd()
	_, _, errno := unix.Syscall6(
		unix.SYS_MMAP,
		uintptr(cmd.faultAddr),
		uintptr(PageSize),
		uintptr(unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC),
		uintptr(unix.MAP_FIXED|unix.MAP_SHARED),
		uintptr(cmd.arenaFD),
		uintptr(cmd.offset),
	)
	if errno != 0 {
		os.Exit(3)
	}
	unix.Kill(os.Getpid(), unix.SIGTRAP)
}
