//go:build linux

package counters

import (
	"encoding/binary"
	"fmt"
	"log"

	"golang.org/x/sys/unix"
)

// microOpsAliases lists the raw perf event codes recognized as a retired
// µops counter across common microarchitectures. The first one that opens
// successfully is used; none opening is not fatal (spec.md §4.1: "if the
// platform exposes a retired-µops event under any of the recognized
// aliases").
var microOpsAliases = []uint64{
	0x00c2, // UOPS_RETIRED.ALL (Intel)
	0x00c1, // UOPS_RETIRED (AMD families that alias this code)
}

// pmuGroup is the real perf_event_open-backed Counter Group.
type pmuGroup struct {
	leaderFd int
	fds      []int
	kinds    []Kind
	cb       Callback
	buf      []byte
}

func newPMUGroup(pid int, cb Callback) (*pmuGroup, error) {
	g := &pmuGroup{leaderFd: -1, cb: cb}

	mandatory := []struct {
		kind Kind
		attr unix.PerfEventAttr
	}{
		{Cycles, hwAttr(unix.PERF_COUNT_HW_CPU_CYCLES)},
		{Instructions, hwAttr(unix.PERF_COUNT_HW_INSTRUCTIONS)},
		{L1DReadMisses, cacheAttr(unix.PERF_COUNT_HW_CACHE_L1D,
			unix.PERF_COUNT_HW_CACHE_OP_READ, unix.PERF_COUNT_HW_CACHE_RESULT_MISS)},
		{ContextSwitches, swAttr(unix.PERF_COUNT_SW_CONTEXT_SWITCHES)},
	}

	for _, m := range mandatory {
		fd, err := g.open(m.attr, pid)
		if err != nil {
			// spec.md §4.1: fatal, terminate the process with a diagnostic.
			// This is only ever reached inside the measured child process.
			log.Fatalf("counters: opening %s failed: %v", m.kind, err)
		}
		g.fds = append(g.fds, fd)
		g.kinds = append(g.kinds, m.kind)
	}
	g.leaderFd = g.fds[0]

	for _, raw := range microOpsAliases {
		attr := rawAttr(raw)
		fd, err := g.open(attr, pid)
		if err == nil {
			g.fds = append(g.fds, fd)
			g.kinds = append(g.kinds, MicroOps)
			break
		}
	}

	g.buf = make([]byte, 8+8*len(g.fds))
	return g, nil
}

func (g *pmuGroup) open(attr unix.PerfEventAttr, pid int) (int, error) {
	groupFd := -1
	if g.leaderFd >= 0 {
		groupFd = g.leaderFd
	}
	attr.Size = uint32(unix.SizeofPerfEventAttr)
	attr.Bits |= unix.PerfBitExcludeKernel | unix.PerfBitExcludeHv
	attr.Read_format = unix.PERF_FORMAT_GROUP
	fd, err := unix.PerfEventOpen(&attr, pid, -1, groupFd, unix.PERF_FLAG_FD_CLOEXEC)
	if err != nil {
		return -1, fmt.Errorf("perf_event_open: %w", err)
	}
	return fd, nil
}

func hwAttr(config uint64) unix.PerfEventAttr {
	return unix.PerfEventAttr{Type: unix.PERF_TYPE_HARDWARE, Config: config}
}

func swAttr(config uint64) unix.PerfEventAttr {
	return unix.PerfEventAttr{Type: unix.PERF_TYPE_SOFTWARE, Config: config}
}

func cacheAttr(cache, op, result uint64) unix.PerfEventAttr {
	config := cache | (op << 8) | (result << 16)
	return unix.PerfEventAttr{Type: unix.PERF_TYPE_HW_CACHE, Config: config}
}

func rawAttr(config uint64) unix.PerfEventAttr {
	return unix.PerfEventAttr{Type: unix.PERF_TYPE_RAW, Config: config}
}

func (g *pmuGroup) Start() error {
	if err := unix.IoctlSetInt(g.leaderFd, unix.PERF_EVENT_IOC_RESET, unix.PERF_IOC_FLAG_GROUP); err != nil {
		return fmt.Errorf("counters: reset: %w", err)
	}
	if err := unix.IoctlSetInt(g.leaderFd, unix.PERF_EVENT_IOC_ENABLE, unix.PERF_IOC_FLAG_GROUP); err != nil {
		return fmt.Errorf("counters: enable: %w", err)
	}
	return nil
}

func (g *pmuGroup) Stop() error {
	if err := unix.IoctlSetInt(g.leaderFd, unix.PERF_EVENT_IOC_DISABLE, unix.PERF_IOC_FLAG_GROUP); err != nil {
		return fmt.Errorf("counters: disable: %w", err)
	}
	n, err := unix.Read(g.leaderFd, g.buf)
	if err != nil {
		return fmt.Errorf("counters: read: %w", err)
	}
	if n < len(g.buf) {
		// Short read: zero the unread tail so Flush reports zeros rather
		// than stale bytes from a previous Stop.
		for i := n; i < len(g.buf); i++ {
			g.buf[i] = 0
		}
	}
	return nil
}

// Flush parses the PERF_FORMAT_GROUP record captured by Stop: an 8-byte
// count of values followed by one uint64 per grouped event, in open
// order, and invokes the callback once with the resulting samples.
func (g *pmuGroup) Flush() {
	if g.cb == nil {
		return
	}
	nr := binary.LittleEndian.Uint64(g.buf[0:8])
	samples := make([]Sample, 0, nr)
	for i := uint64(0); i < nr && int(i) < len(g.kinds); i++ {
		off := 8 + 8*i
		v := binary.LittleEndian.Uint64(g.buf[off : off+8])
		samples = append(samples, Sample{Kind: g.kinds[i], Value: v})
	}
	g.cb(samples)
}

func (g *pmuGroup) Close() error {
	var firstErr error
	for _, fd := range g.fds {
		if err := unix.Close(fd); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
