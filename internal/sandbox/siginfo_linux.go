//go:build linux

package sandbox

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// sigfaultInfo mirrors the kernel's siginfo_t layout on linux/amd64 for
// the fault-signal branch of the union: si_signo, si_errno, si_code as
// the common header, then si_addr at its fixed offset.
type sigfaultInfo struct {
	signo, errno, code, _ int32
	addr                  uint64
}

// faultingAddress reads the faulting memory address for the tracee's most
// recent SIGSEGV/SIGTRAP via PTRACE_GETSIGINFO.
func faultingAddress(pid int) (uint64, error) {
	var info sigfaultInfo
	_, _, errno := unix.Syscall6(unix.SYS_PTRACE, unix.PTRACE_GETSIGINFO,
		uintptr(pid), 0, uintptr(unsafe.Pointer(&info)), 0, 0)
	if errno != 0 {
		return 0, fmt.Errorf("sandbox: PTRACE_GETSIGINFO: %w", errno)
	}
	return info.addr, nil
}
