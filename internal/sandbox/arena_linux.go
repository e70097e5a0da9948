//go:build linux

package sandbox

import (
	"encoding/binary"
	"fmt"

	"github.com/tebeka/atexit"
	"golang.org/x/sys/unix"
)

// Fault-command page layout (relative to the start of page 3): the child
// publishes its trampoline's address and pid once at startup; the parent
// then stages a fault address + backing-store offset before every
// redirect, which the trampoline (running in the child) reads back.
const (
	fcTrampolineAddr = 0
	fcChildPID       = 8
	fcFaultAddr      = 16
	fcOffset         = 24
	fcArenaFD        = 32
)

// childArenaFD is the file descriptor number the arena's memfd is handed
// to the child on, via exec.Cmd.ExtraFiles[0].
const childArenaFD = 3

// parentArena is the parent's view of the shared arena: a plain (non
// MAP_FIXED) mapping of the same memfd the child maps at ArenaBase.
type parentArena struct {
	fd  int
	mem []byte
}

func newParentArena() (*parentArena, error) {
	fd, err := unix.MemfdCreate("llvm-ml-bench-arena", 0)
	if err != nil {
		return nil, fmt.Errorf("sandbox: memfd_create: %w", err)
	}
	size := arenaFixedPages * PageSize
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("sandbox: ftruncate: %w", err)
	}
	mem, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("sandbox: mmap arena: %w", err)
	}
	a := &parentArena{fd: fd, mem: mem}

	// Belt-and-suspenders: the caller is expected to call close()
	// explicitly once the Runner is done with it, but a process-exit
	// path that skips that (os.Exit from a signal handler, a panic
	// unwinding past the defer) would otherwise leak the memfd and its
	// mapping for the life of the process.
	atexit.Register(a.close)

	return a, nil
}

func (a *parentArena) close() {
	unix.Munmap(a.mem)
	unix.Close(a.fd)
}

func (a *parentArena) faultCmdPage() []byte {
	return a.mem[arenaFaultCmdPage*PageSize:]
}

func (a *parentArena) outputPage() []byte {
	return a.mem[arenaOutputPage*PageSize:]
}

// readHandshake reads the trampoline address and pid the child published
// right before stopping itself with SIGSTOP.
func (a *parentArena) readHandshake() (trampolineAddr uintptr, pid int) {
	p := a.faultCmdPage()
	return uintptr(binary.LittleEndian.Uint64(p[fcTrampolineAddr:])),
		int(binary.LittleEndian.Uint64(p[fcChildPID:]))
}

// writeFaultCmd stages the page the trampoline should map next.
func (a *parentArena) writeFaultCmd(faultAddr uintptr, offset int64) {
	p := a.faultCmdPage()
	binary.LittleEndian.PutUint64(p[fcFaultAddr:], uint64(faultAddr))
	binary.LittleEndian.PutUint64(p[fcOffset:], uint64(offset))
	binary.LittleEndian.PutUint64(p[fcArenaFD:], uint64(childArenaFD))
}

// grow extends the memfd-backed file to fit one more discovered page and
// returns the byte offset of the new page.
func (a *parentArena) grow() (int64, error) {
	offset := int64(len(a.mem))
	newSize := offset + PageSize
	if err := unix.Ftruncate(a.fd, newSize); err != nil {
		return 0, fmt.Errorf("sandbox: ftruncate growth: %w", err)
	}
	mem, err := unix.Mmap(a.fd, 0, int(newSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return 0, fmt.Errorf("sandbox: remap after growth: %w", err)
	}
	unix.Munmap(a.mem)
	a.mem = mem
	return offset, nil
}
