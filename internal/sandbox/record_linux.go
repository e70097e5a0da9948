//go:build linux

package sandbox

import (
	"encoding/binary"
	"unsafe"

	"github.com/sarchlab/llvm-ml-bench/internal/counters"
	"github.com/sarchlab/llvm-ml-bench/internal/model"
)

// recordOffsets gives the byte offset of each BenchmarkResult field within
// one benchmarkResultSize-sized output slot.
const (
	offCycles          = 0
	offContextSwitches = 8
	offCacheMisses     = 16
	offMicroOps        = 24
	offInstructions    = 32
	offMisalignedLoads = 40
	offNumRuns         = 48
	offWallTimeNs      = 56
)

// writeBenchmarkResult is called from inside the traced child, where addr
// is a live, already-mapped virtual address: a direct unsafe write is the
// only way to get bytes to the parent without another syscall round trip.
func writeBenchmarkResult(addr uintptr, samples []counters.Sample) {
	buf := unsafe.Slice((*byte)(unsafe.Pointer(addr)), benchmarkResultSize)
	for _, s := range samples {
		switch s.Kind {
		case counters.Cycles:
			binary.LittleEndian.PutUint64(buf[offCycles:], s.Value)
		case counters.ContextSwitches:
			binary.LittleEndian.PutUint64(buf[offContextSwitches:], s.Value)
		case counters.L1DReadMisses:
			binary.LittleEndian.PutUint64(buf[offCacheMisses:], s.Value)
		case counters.MicroOps:
			binary.LittleEndian.PutUint64(buf[offMicroOps:], s.Value)
		case counters.Instructions:
			binary.LittleEndian.PutUint64(buf[offInstructions:], s.Value)
		}
	}
}

// writeChildMeta stamps NumRuns/WallTimeNs, the two fields the counter
// callback itself has no opinion on.
func writeChildMeta(addr uintptr, numRuns uint32, wallTimeNs uint64) {
	buf := unsafe.Slice((*byte)(unsafe.Pointer(addr)), benchmarkResultSize)
	binary.LittleEndian.PutUint64(buf[offNumRuns:], uint64(numRuns))
	binary.LittleEndian.PutUint64(buf[offWallTimeNs:], wallTimeNs)
}

// readBenchmarkResult decodes one output slot from the parent's view of
// the arena (mem is the parent's own mmap of the same memfd).
func readBenchmarkResult(mem []byte, slot int) model.BenchmarkResult {
	base := slot * benchmarkResultSize
	buf := mem[base : base+benchmarkResultSize]
	return model.BenchmarkResult{
		Cycles:          binary.LittleEndian.Uint64(buf[offCycles:]),
		ContextSwitches: binary.LittleEndian.Uint64(buf[offContextSwitches:]),
		CacheMisses:     binary.LittleEndian.Uint64(buf[offCacheMisses:]),
		MicroOps:        binary.LittleEndian.Uint64(buf[offMicroOps:]),
		Instructions:    binary.LittleEndian.Uint64(buf[offInstructions:]),
		MisalignedLoads: binary.LittleEndian.Uint64(buf[offMisalignedLoads:]),
		NumRuns:         uint32(binary.LittleEndian.Uint64(buf[offNumRuns:])),
		WallTimeNs:      binary.LittleEndian.Uint64(buf[offWallTimeNs:]),
	}
}
