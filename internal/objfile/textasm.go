package objfile

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/sarchlab/llvm-ml-bench/internal/model"
)

// gpName is the canonical 64-bit spelling Render uses for each
// general-purpose RegID family; the inverse of decode.go's gpFamily.
var gpName = map[model.RegID]string{
	1: "rax", 2: "rcx", 3: "rdx", 4: "rbx",
	5: "rsp", 6: "rbp", 7: "rsi", 8: "rdi",
	9: "r8", 10: "r9", 11: "r10", 12: "r11",
	13: "r12", 14: "r13", 15: "r14", 16: "r15",
	17: "rip", 18: "rflags",
}

// regName renders a RegID back to the bare register name (no leading
// "%"), widening vector/tile ids to their band's representative name —
// RegID collapses XMM/YMM/ZMM onto one band, so the width distinction
// Decode discarded can't be recovered here either.
func regName(id model.RegID) (string, bool) {
	switch {
	case id == 0:
		return "", false
	case id >= 32 && id <= 63:
		return fmt.Sprintf("xmm%d", id-32), true
	case id >= 64 && id <= 71:
		return fmt.Sprintf("tmm%d", id-64), true
	default:
		name, ok := gpName[id]
		return name, ok
	}
}

// Render writes one instruction as a line of real GAS (AT&T) assembly —
// the same text jit.Compile hands to the system assembler for a
// harness.Module, so a block cmd/extract emits can be fed straight
// through cmd/bench as well as read back by Parse. The mnemonic is
// whatever Decode or a prior Parse recorded on the instruction, not a
// name derived from its Opcode classification: Opcode only tracks how
// the instruction is costed, not how it must be spelled.
func Render(inst model.Instruction) string {
	name := inst.Mnemonic
	if name == "" {
		name = "nop"
	}

	if len(inst.Operands) == 0 {
		return name
	}

	operands := make([]string, len(inst.Operands))
	for i, op := range inst.Operands {
		operands[i] = renderOperand(op)
	}
	return name + " " + strings.Join(operands, ", ")
}

func renderOperand(op model.Operand) string {
	switch op.Kind {
	case model.OperandRegister:
		name, ok := regName(op.Reg)
		if !ok {
			name = fmt.Sprintf("r%d", op.Reg)
		}
		return "%" + name
	case model.OperandImmediate:
		return "$" + strconv.FormatInt(op.Imm, 10)
	case model.OperandMemory:
		return renderMemory(op)
	default:
		return "0"
	}
}

func renderMemory(op model.Operand) string {
	baseName, hasBase := regName(op.Base)
	idxName, hasIdx := regName(op.Idx)

	var b strings.Builder
	if op.Disp != 0 || (!hasBase && !hasIdx) {
		b.WriteString(strconv.FormatInt(op.Disp, 10))
	}
	if !hasBase && !hasIdx {
		return b.String()
	}

	b.WriteByte('(')
	if hasBase {
		b.WriteByte('%')
		b.WriteString(baseName)
	}
	if hasIdx {
		b.WriteByte(',')
		b.WriteByte('%')
		b.WriteString(idxName)
		b.WriteString(",1")
	}
	b.WriteByte(')')
	return b.String()
}

// Parse is the inverse of Render: it reads back a block of .s text this
// package wrote (spec.md §1's "parse(source) -> [instruction]"
// collaborator), classifying each mnemonic through the same mapOp
// Decode uses so a hand-written or previously-rendered block is
// classified identically to freshly disassembled bytes. An
// unrecognized mnemonic collapses to target.OpUnknown rather than
// failing the parse, mirroring mapOp's own fallback.
func Parse(source string) ([]model.Instruction, error) {
	var insts []model.Instruction

	scanner := bufio.NewScanner(strings.NewReader(source))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.SplitN(line, " ", 2)
		mnemonic := fields[0]

		inst := model.Instruction{
			Opcode:   mapOp(strings.ToUpper(mnemonic)),
			Mnemonic: mnemonic,
		}
		if len(fields) == 2 {
			operands, err := parseOperands(fields[1])
			if err != nil {
				return nil, fmt.Errorf("objfile: parse %q: %w", line, err)
			}
			inst.Operands = operands
		}
		insts = append(insts, inst)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("objfile: parse: %w", err)
	}

	return insts, nil
}

func parseOperands(text string) ([]model.Operand, error) {
	var ops []model.Operand
	for _, tok := range splitOperands(text) {
		if tok == "" {
			return nil, fmt.Errorf("empty operand")
		}
		op, err := parseOperand(tok)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// splitOperands splits on top-level commas only, since a memory
// operand's "(base,index,scale)" group has commas of its own.
func splitOperands(text string) []string {
	var out []string
	depth := 0
	start := 0
	for i, r := range text {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(text[start:i]))
				start = i + 1
			}
		}
	}
	out = append(out, strings.TrimSpace(text[start:]))
	return out
}

func parseOperand(tok string) (model.Operand, error) {
	switch {
	case strings.HasPrefix(tok, "$"):
		v, err := strconv.ParseInt(tok[1:], 0, 64)
		if err != nil {
			return model.Operand{}, fmt.Errorf("malformed immediate %q: %w", tok, err)
		}
		return model.Operand{Kind: model.OperandImmediate, Imm: v}, nil
	case strings.HasPrefix(tok, "%"):
		reg := regIDByName(strings.ToUpper(tok[1:]))
		if reg == 0 {
			return model.Operand{}, fmt.Errorf("unknown register %q", tok)
		}
		return model.Operand{Kind: model.OperandRegister, Reg: reg}, nil
	default:
		return parseMemory(tok)
	}
}

func parseMemory(tok string) (model.Operand, error) {
	open := strings.IndexByte(tok, '(')
	if open == -1 {
		disp, err := strconv.ParseInt(tok, 0, 64)
		if err != nil {
			return model.Operand{}, fmt.Errorf("malformed memory operand %q", tok)
		}
		return model.Operand{Kind: model.OperandMemory, Disp: disp}, nil
	}
	if !strings.HasSuffix(tok, ")") {
		return model.Operand{}, fmt.Errorf("malformed memory operand %q", tok)
	}

	op := model.Operand{Kind: model.OperandMemory}
	if dispStr := tok[:open]; dispStr != "" {
		v, err := strconv.ParseInt(dispStr, 0, 64)
		if err != nil {
			return model.Operand{}, fmt.Errorf("malformed displacement in %q", tok)
		}
		op.Disp = v
	}

	inner := tok[open+1 : len(tok)-1]
	parts := strings.Split(inner, ",")
	parseReg := func(s, role string) (model.RegID, error) {
		if s == "" {
			return 0, nil
		}
		reg := regIDByName(strings.ToUpper(strings.TrimPrefix(s, "%")))
		if reg == 0 {
			return 0, fmt.Errorf("unknown %s register in %q", role, tok)
		}
		return reg, nil
	}

	switch len(parts) {
	case 1:
		base, err := parseReg(parts[0], "base")
		if err != nil {
			return model.Operand{}, err
		}
		op.Base = base
	case 3:
		base, err := parseReg(parts[0], "base")
		if err != nil {
			return model.Operand{}, err
		}
		idx, err := parseReg(parts[1], "index")
		if err != nil {
			return model.Operand{}, err
		}
		op.Base, op.Idx = base, idx
		// parts[2] is the scale factor; model.Operand carries no scale field.
	default:
		return model.Operand{}, fmt.Errorf("malformed memory operand %q", tok)
	}
	return op, nil
}
