package objfile_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/llvm-ml-bench/internal/model"
	"github.com/sarchlab/llvm-ml-bench/internal/objfile"
	"github.com/sarchlab/llvm-ml-bench/internal/target"
)

var _ = Describe("Render/Parse", func() {
	It("round-trips a register-only instruction as real AT&T assembly", func() {
		inst := model.Instruction{
			Opcode:   target.OpADD,
			Mnemonic: "add",
			Operands: []model.Operand{
				{Kind: model.OperandRegister, Reg: 1},
				{Kind: model.OperandRegister, Reg: 4},
			},
		}

		text := objfile.Render(inst)
		Expect(text).To(Equal("add %rax, %rbx"))

		back, err := objfile.Parse(text + "\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(back).To(HaveLen(1))
		Expect(back[0].Opcode).To(Equal(target.OpADD))
		Expect(back[0].Operands).To(Equal(inst.Operands))
	})

	It("round-trips a memory operand alongside an immediate", func() {
		inst := model.Instruction{
			Opcode:   target.OpMOV,
			Mnemonic: "mov",
			Operands: []model.Operand{
				{Kind: model.OperandMemory, Base: 5, Idx: 7, Disp: -16},
				{Kind: model.OperandImmediate, Imm: 42},
			},
		}

		text := objfile.Render(inst)
		Expect(text).To(Equal("mov -16(%rsp,%rsi,1), $42"))

		back, err := objfile.Parse(text + "\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(back).To(HaveLen(1))
		Expect(back[0].Operands).To(Equal(inst.Operands))
	})

	It("round-trips an absolute memory operand with no base or index", func() {
		inst := model.Instruction{
			Opcode:   target.OpMOV,
			Mnemonic: "mov",
			Operands: []model.Operand{
				{Kind: model.OperandMemory, Disp: 4096},
			},
		}
		back, err := objfile.Parse(objfile.Render(inst) + "\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(back[0].Operands).To(Equal(inst.Operands))
	})

	It("parses multiple lines in order", func() {
		source := "push %r14\nnop\nret\n"
		insts, err := objfile.Parse(source)
		Expect(err).NotTo(HaveOccurred())
		Expect(insts).To(HaveLen(3))
		Expect(insts[0].Opcode).To(Equal(target.OpPUSH))
		Expect(insts[1].Opcode).To(Equal(target.OpNOP))
		Expect(insts[2].Opcode).To(Equal(target.OpRET))
	})

	It("classifies an unrecognized mnemonic as OpUnknown instead of failing", func() {
		insts, err := objfile.Parse("vfrobnicate %rax\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(insts).To(HaveLen(1))
		Expect(insts[0].Opcode).To(Equal(target.OpUnknown))
		Expect(insts[0].Mnemonic).To(Equal("vfrobnicate"))
	})

	It("rejects a line with an unrecognized register", func() {
		_, err := objfile.Parse("add %bogus, %rax\n")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Decode", func() {
	It("decodes a nop followed by a ret", func() {
		insts, err := objfile.Decode([]byte{0x90, 0xc3}, 0x1000)
		Expect(err).NotTo(HaveOccurred())
		Expect(insts).To(HaveLen(2))
		Expect(insts[0].Opcode).To(Equal(target.OpNOP))
		Expect(insts[1].Opcode).To(Equal(target.OpRET))
	})
})
