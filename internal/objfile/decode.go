package objfile

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/arch/x86/x86asm"

	"github.com/sarchlab/llvm-ml-bench/internal/model"
	"github.com/sarchlab/llvm-ml-bench/internal/target"
)

// Decode linearly disassembles one section's raw bytes into the
// target's closed instruction representation, using the x86 decoder
// the rest of the ecosystem (e.g. `go tool objdump`) is built on.
func Decode(data []byte, baseAddr uint64) ([]model.Instruction, error) {
	var insts []model.Instruction

	for off := 0; off < len(data); {
		in, err := x86asm.Decode(data[off:], 64)
		if err != nil || in.Len == 0 {
			return nil, fmt.Errorf("objfile: decode at %#x: %w", baseAddr+uint64(off), err)
		}

		insts = append(insts, model.Instruction{
			Opcode:   mapOp(in.Op.String()),
			Mnemonic: strings.ToLower(in.Op.String()),
			Operands: mapArgs(in.Args),
		})

		off += in.Len
	}

	return insts, nil
}

func mapArgs(args x86asm.Args) []model.Operand {
	var ops []model.Operand
	for _, a := range args {
		if a == nil {
			continue
		}
		switch v := a.(type) {
		case x86asm.Reg:
			ops = append(ops, model.Operand{Kind: model.OperandRegister, Reg: regID(v)})
		case x86asm.Mem:
			ops = append(ops, model.Operand{
				Kind: model.OperandMemory,
				Base: regID(v.Base),
				Idx:  regID(v.Index),
				Disp: v.Disp,
			})
		case x86asm.Imm:
			ops = append(ops, model.Operand{Kind: model.OperandImmediate, Imm: int64(v)})
		case x86asm.Rel:
			ops = append(ops, model.Operand{Kind: model.OperandImmediate, Imm: int64(v)})
		}
	}
	return ops
}

// mapOp translates an x86asm mnemonic onto the target's closed opcode
// space; anything this representative subset doesn't model collapses to
// OpUnknown. X86_64 reports OpUnknown as neither compute nor variable
// latency, so an unknown instruction does not by itself make the
// postprocess filter drop its block.
func mapOp(name string) uint32 {
	switch name {
	case "MOV", "MOVL", "MOVQ", "MOVB", "MOVW", "MOVABS":
		return target.OpMOV
	case "MOVZX":
		return target.OpMOVZX
	case "MOVSX", "MOVSXD":
		return target.OpMOVSX
	case "LEA":
		return target.OpLEA
	case "PUSH":
		return target.OpPUSH
	case "POP":
		return target.OpPOP
	case "ADD":
		return target.OpADD
	case "SUB":
		return target.OpSUB
	case "AND":
		return target.OpAND
	case "OR":
		return target.OpOR
	case "XOR":
		return target.OpXOR
	case "IMUL", "MUL":
		return target.OpIMUL
	case "NOP":
		return target.OpNOP
	case "JMP":
		return target.OpJMP
	case "CALL":
		return target.OpCALL
	case "RET", "RETF":
		return target.OpRET
	case "SYSCALL", "SYSENTER":
		return target.OpSYSCALL
	case "LFENCE":
		return target.OpLFENCE
	case "MFENCE":
		return target.OpMFENCE
	case "SFENCE":
		return target.OpSFENCE
	case "XADD":
		return target.OpLOCK_XADD
	case "CMPXCHG":
		return target.OpLOCK_CMPXCHG
	case "ADDPS":
		return target.OpADDPS
	case "MULPS":
		return target.OpMULPS
	case "ADDSS", "ADDSD":
		return target.OpADDSS
	case "DIV", "IDIV", "DIVSS", "DIVSD":
		return target.OpDIV
	case "SQRTSS", "SQRTSD", "SQRTPS":
		return target.OpSQRT
	case "RSQRTSS", "RSQRTPS":
		return target.OpRSQRT
	case "CPUID":
		return target.OpCPUID
	case "MOVSB", "MOVSW", "MOVSD", "MOVSQ":
		return target.OpREP_MOVS
	case "PREFETCHT0":
		return target.OpPREFETCHT0
	case "VGATHERDPS", "VGATHERDPD", "VGATHERQPS", "VGATHERQPD":
		return target.OpGATHER
	default:
		if strings.HasPrefix(name, "J") && name != "JMP" {
			return target.OpJCC
		}
		return target.OpUnknown
	}
}

// gpFamily canonicalizes the sub-register aliases of each of the 16
// general-purpose registers (and RIP/flags) onto one RegID per family,
// so that e.g. writes to EAX and reads of RAX are recognized as the
// same dependency edge.
var gpFamily = map[string]model.RegID{
	"AL": 1, "AH": 1, "AX": 1, "EAX": 1, "RAX": 1,
	"CL": 2, "CH": 2, "CX": 2, "ECX": 2, "RCX": 2,
	"DL": 3, "DH": 3, "DX": 3, "EDX": 3, "RDX": 3,
	"BL": 4, "BH": 4, "BX": 4, "EBX": 4, "RBX": 4,
	"SPL": 5, "SP": 5, "ESP": 5, "RSP": 5,
	"BPL": 6, "BP": 6, "EBP": 6, "RBP": 6,
	"SIL": 7, "SI": 7, "ESI": 7, "RSI": 7,
	"DIL": 8, "DI": 8, "EDI": 8, "RDI": 8,
	"R8B": 9, "R8W": 9, "R8D": 9, "R8": 9,
	"R9B": 10, "R9W": 10, "R9D": 10, "R9": 10,
	"R10B": 11, "R10W": 11, "R10D": 11, "R10": 11,
	"R11B": 12, "R11W": 12, "R11D": 12, "R11": 12,
	"R12B": 13, "R12W": 13, "R12D": 13, "R12": 13,
	"R13B": 14, "R13W": 14, "R13D": 14, "R13": 14,
	"R14B": 15, "R14W": 15, "R14D": 15, "R14": 15,
	"R15B": 16, "R15W": 16, "R15D": 16, "R15": 16,
	"IP": 17, "EIP": 17, "RIP": 17,
	"FLAGS": 18, "EFLAGS": 18, "RFLAGS": 18,
}

// regID maps an x86asm register onto the target's RegID numbering:
// 1-31 general-purpose, 32-63 vector (XMM/YMM/ZMM), 64-71 AMX tile — the
// bands X86_64.IsVectorReg/IsTileReg classify on.
func regID(r x86asm.Reg) model.RegID {
	if r == 0 {
		return 0
	}
	return regIDByName(r.String())
}

// regIDByName implements regID's mapping directly from a register's
// uppercase name, shared with textasm.go's Parse so both Decode and
// Parse classify the same register spelling onto the same RegID.
func regIDByName(name string) model.RegID {
	switch {
	case strings.HasPrefix(name, "XMM"), strings.HasPrefix(name, "YMM"), strings.HasPrefix(name, "ZMM"):
		if idx, ok := trailingIndex(name, 3); ok {
			return model.RegID(32 + idx%32)
		}
	case strings.HasPrefix(name, "TMM"):
		if idx, ok := trailingIndex(name, 3); ok {
			return model.RegID(64 + idx%8)
		}
	}

	if id, ok := gpFamily[name]; ok {
		return id
	}
	return 0
}

func trailingIndex(name string, prefixLen int) (int, bool) {
	if len(name) <= prefixLen {
		return 0, false
	}
	n, err := strconv.Atoi(name[prefixLen:])
	if err != nil {
		return 0, false
	}
	return n, true
}
