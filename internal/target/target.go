// Package target implements the MLTarget capability set: register and
// instruction classification for a specific architecture. It is a tagged
// variant (one concrete type per architecture) with one dispatch function
// per capability, per the "avoid open inheritance" design note.
package target

import "github.com/sarchlab/llvm-ml-bench/internal/model"

// MLTarget is the capability set consumed by the Graph Builder and the
// Basic-Block Extractor's post-processing filter. Implementations never
// mutate the instruction they classify.
type MLTarget interface {
	Name() string

	ReadsRegs(inst *model.Instruction) []model.RegID
	WritesRegs(inst *model.Instruction) []model.RegID

	IsLoad(inst *model.Instruction) bool
	IsStore(inst *model.Instruction) bool
	IsBarrier(inst *model.Instruction) bool
	IsVector(inst *model.Instruction) bool
	IsAtomic(inst *model.Instruction) bool
	IsCompute(inst *model.Instruction) bool
	IsFloat(inst *model.Instruction) bool
	IsLEA(inst *model.Instruction) bool
	IsPush(inst *model.Instruction) bool
	IsPop(inst *model.Instruction) bool
	IsMov(inst *model.Instruction) bool
	IsNop(inst *model.Instruction) bool
	IsSyscall(inst *model.Instruction) bool
	IsVarLatency(inst *model.Instruction) bool

	IsImplicitReg(inst *model.Instruction, reg model.RegID) bool
	IsVectorReg(reg model.RegID) bool
	IsTileReg(reg model.RegID) bool

	// IsTerminator reports whether inst ends a basic block on its own
	// (unconditional or conditional control transfer that is not itself a
	// call or syscall instruction).
	IsTerminator(inst *model.Instruction) bool
	// IsCall reports whether inst transfers control with an implicit
	// return address (a call-family instruction).
	IsCall(inst *model.Instruction) bool
}

// ForTriple resolves an MLTarget by LLVM-style triple or bare arch name.
// Only x86_64 is implemented; everything else is a configuration error
// the CLI surfaces and fails fast on (spec.md §7).
func ForTriple(archOrTriple string) (MLTarget, error) {
	switch normalizeArch(archOrTriple) {
	case "x86_64", "x86-64", "amd64", "":
		return NewX86_64(), nil
	default:
		return nil, &UnsupportedTargetError{Triple: archOrTriple}
	}
}

// UnsupportedTargetError is returned by ForTriple for any arch/triple this
// target implementation does not cover.
type UnsupportedTargetError struct {
	Triple string
}

func (e *UnsupportedTargetError) Error() string {
	return "target: no MLTarget implementation for " + e.Triple
}

func normalizeArch(s string) string {
	// A triple is "<arch>-<vendor>-<os>-<env>"; we only care about the
	// leading arch component.
	for i := 0; i < len(s); i++ {
		if s[i] == '-' {
			return s[:i]
		}
	}
	return s
}
