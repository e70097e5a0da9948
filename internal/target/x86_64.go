package target

import "github.com/sarchlab/llvm-ml-bench/internal/model"

// x86_64 opcode identifiers for the representative instruction subset this
// target classifies. A real build would source these from the external MC
// disassembler/parser (out of scope per spec.md §1); here they stand in
// for that interface's opcode space.
const (
	OpUnknown uint32 = iota
	OpMOV
	OpMOVZX
	OpMOVSX
	OpLEA
	OpPUSH
	OpPOP
	OpADD
	OpSUB
	OpAND
	OpOR
	OpXOR
	OpIMUL
	OpNOP
	OpLOAD  // generic memory read; objfile's Decode and Parse never produce it
	OpSTORE // generic memory write
	OpJMP
	OpJCC
	OpCALL
	OpRET
	OpSYSCALL
	OpLFENCE
	OpMFENCE
	OpSFENCE
	OpLOCK_XADD
	OpLOCK_CMPXCHG
	OpADDPS // vector (packed single) add
	OpMULPS
	OpADDSS // scalar float add
	OpDIV
	OpSQRT
	OpRSQRT
	OpCPUID
	OpREP_MOVS
	OpPREFETCHT0
	OpGATHER
)

// X86_64 implements MLTarget for x86-64.
type X86_64 struct{}

// NewX86_64 constructs the x86-64 MLTarget.
func NewX86_64() *X86_64 { return &X86_64{} }

func (X86_64) Name() string { return "x86_64" }

// ReadsRegs returns the registers inst reads. Operands follow a
// destination-first convention (operand 0 is the instruction's
// destination when it has one, remaining operands are sources) — so a
// register operand is a read only at index > 0, while a memory operand's
// base/index registers are always reads regardless of position, since an
// address computation never writes the registers it references.
func (t X86_64) ReadsRegs(inst *model.Instruction) []model.RegID {
	if inst == nil {
		return nil
	}
	var regs []model.RegID
	for i, op := range inst.Operands {
		switch op.Kind {
		case model.OperandRegister:
			if i > 0 {
				regs = append(regs, op.Reg)
			}
		case model.OperandMemory:
			if op.Base != 0 {
				regs = append(regs, op.Base)
			}
			if op.Idx != 0 {
				regs = append(regs, op.Idx)
			}
		}
	}
	return regs
}

// WritesRegs returns the registers inst writes: operand 0 when it is a
// register, for every opcode that has a destination.
func (t X86_64) WritesRegs(inst *model.Instruction) []model.RegID {
	if inst == nil || len(inst.Operands) == 0 {
		return nil
	}
	switch inst.Opcode {
	case OpSTORE, OpJMP, OpJCC, OpRET, OpSYSCALL, OpLFENCE, OpMFENCE, OpSFENCE,
		OpCPUID, OpREP_MOVS, OpPREFETCHT0, OpNOP:
		return nil
	}
	dst := inst.Operands[0]
	if dst.Kind == model.OperandRegister {
		return []model.RegID{dst.Reg}
	}
	return nil
}

func (X86_64) IsLoad(inst *model.Instruction) bool {
	if inst == nil {
		return false
	}
	if inst.Opcode == OpLOAD {
		return true
	}
	return len(inst.Operands) > 1 && inst.Operands[1].Kind == model.OperandMemory
}

func (X86_64) IsStore(inst *model.Instruction) bool {
	if inst == nil {
		return false
	}
	if inst.Opcode == OpSTORE {
		return true
	}
	return len(inst.Operands) > 0 && inst.Operands[0].Kind == model.OperandMemory
}

func (X86_64) IsBarrier(inst *model.Instruction) bool {
	switch inst.Opcode {
	case OpLFENCE, OpMFENCE, OpSFENCE:
		return true
	}
	return false
}

func (X86_64) IsVector(inst *model.Instruction) bool {
	switch inst.Opcode {
	case OpADDPS, OpMULPS, OpGATHER:
		return true
	}
	return false
}

func (X86_64) IsAtomic(inst *model.Instruction) bool {
	switch inst.Opcode {
	case OpLOCK_XADD, OpLOCK_CMPXCHG:
		return true
	}
	return false
}

func (t X86_64) IsCompute(inst *model.Instruction) bool {
	switch inst.Opcode {
	case OpMOV, OpMOVZX, OpMOVSX, OpLEA, OpPUSH, OpPOP, OpLOAD, OpSTORE, OpNOP:
		return false
	case OpUnknown:
		return false
	}
	return true
}

func (X86_64) IsFloat(inst *model.Instruction) bool {
	switch inst.Opcode {
	case OpADDPS, OpMULPS, OpADDSS, OpSQRT, OpRSQRT:
		return true
	}
	return false
}

func (X86_64) IsLEA(inst *model.Instruction) bool  { return inst.Opcode == OpLEA }
func (X86_64) IsPush(inst *model.Instruction) bool { return inst.Opcode == OpPUSH }
func (X86_64) IsPop(inst *model.Instruction) bool  { return inst.Opcode == OpPOP }
func (X86_64) IsMov(inst *model.Instruction) bool {
	switch inst.Opcode {
	case OpMOV, OpMOVZX, OpMOVSX:
		return true
	}
	return false
}
func (X86_64) IsNop(inst *model.Instruction) bool     { return inst.Opcode == OpNOP }
func (X86_64) IsSyscall(inst *model.Instruction) bool { return inst.Opcode == OpSYSCALL }

// IsVarLatency reports whether inst belongs to the architecture-specific
// variable-latency list the extractor's post-processing filter drops
// (spec.md §4.5): div, sqrt/rsqrt, rep-prefixed string ops, prefetches,
// gather/scatter, cpuid, transcendental float ops.
func (X86_64) IsVarLatency(inst *model.Instruction) bool {
	switch inst.Opcode {
	case OpDIV, OpSQRT, OpRSQRT, OpREP_MOVS, OpPREFETCHT0, OpCPUID, OpGATHER:
		return true
	}
	return false
}

// IsImplicitReg reports whether reg is read/written implicitly by inst
// (not named by any operand) — e.g. flags registers for SUB-with-flags, or
// RDX:RAX for DIV. It always returns false: no implicit register use is
// reported for any opcode, and Decode and Parse do not add implicit
// registers such as DIV's RDX:RAX as operands either.
func (X86_64) IsImplicitReg(inst *model.Instruction, reg model.RegID) bool {
	return false
}

// Vector/tile register ranges follow the conventional x86-64 encoding:
// XMM/YMM/ZMM occupy a disjoint numbering band above the 16 GPRs, and AMX
// tile registers occupy a band above that.
const (
	firstVectorReg model.RegID = 32
	lastVectorReg  model.RegID = 63
	firstTileReg   model.RegID = 64
	lastTileReg    model.RegID = 71
)

func (X86_64) IsVectorReg(reg model.RegID) bool {
	return reg >= firstVectorReg && reg <= lastVectorReg
}

func (X86_64) IsTileReg(reg model.RegID) bool {
	return reg >= firstTileReg && reg <= lastTileReg
}

func (X86_64) IsTerminator(inst *model.Instruction) bool {
	switch inst.Opcode {
	case OpJMP, OpJCC, OpRET:
		return true
	}
	return false
}

func (X86_64) IsCall(inst *model.Instruction) bool {
	return inst.Opcode == OpCALL
}
