package extract_test

import (
	"fmt"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/llvm-ml-bench/internal/extract"
	"github.com/sarchlab/llvm-ml-bench/internal/model"
	"github.com/sarchlab/llvm-ml-bench/internal/target"
)

func reg(id model.RegID) model.Operand {
	return model.Operand{Kind: model.OperandRegister, Reg: id}
}

func inst(op uint32, operands ...model.Operand) model.Instruction {
	return model.Instruction{Opcode: op, Operands: operands}
}

func renderAsText(i model.Instruction) string { return fmt.Sprintf("op%d", i.Opcode) }

var _ = Describe("Extract", func() {
	t := target.NewX86_64()

	It("splits a section into blocks on terminator/call/syscall and strips nops (§4.5)", func() {
		insts := []model.Instruction{
			inst(target.OpADD, reg(1), reg(2)),
			inst(target.OpNOP),
			inst(target.OpJCC),
			inst(target.OpMOV, reg(3), reg(4)),
			inst(target.OpCALL),
			inst(target.OpSUB, reg(1), reg(2)),
			inst(target.OpSYSCALL),
		}
		sections := func(string) ([]extract.Section, error) {
			return []extract.Section{{Name: ".text", Addr: 0x1000, Data: []byte("ignored")}}, nil
		}
		decode := func([]byte, uint64) ([]model.Instruction, error) { return insts, nil }

		dir, err := os.MkdirTemp("", "extract")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(dir)

		n, err := extract.Extract(t, sections, decode, renderAsText, "obj.o", dir, "block")
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(3))

		b0, err := os.ReadFile(filepath.Join(dir, "block0.s"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(b0)).To(Equal(fmt.Sprintf("op%d\nop%d\n", target.OpADD, target.OpJCC))) // NOP stripped

		b1, err := os.ReadFile(filepath.Join(dir, "block1.s"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(b1)).To(Equal(fmt.Sprintf("op%d\nop%d\n", target.OpMOV, target.OpCALL)))

		b2, err := os.ReadFile(filepath.Join(dir, "block2.s"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(b2)).To(Equal(fmt.Sprintf("op%d\nop%d\n", target.OpSUB, target.OpSYSCALL)))
	})

	It("drops blocks with fewer than two instructions in post-processing", func() {
		parse := func(string) ([]model.Instruction, error) {
			return []model.Instruction{inst(target.OpADD, reg(1), reg(2))}, nil
		}
		dir, err := os.MkdirTemp("", "extract-post")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(dir)
		Expect(os.WriteFile(filepath.Join(dir, "block0.s"), []byte("op6\n"), 0o644)).To(Succeed())

		results, err := extract.Postprocess(t, parse, dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].Kept).To(BeFalse())
		Expect(results[0].Reason).To(ContainSubstring("fewer than two"))

		_, statErr := os.Stat(filepath.Join(dir, "block0.s"))
		Expect(os.IsNotExist(statErr)).To(BeTrue())
	})

	It("drops blocks with zero compute instructions", func() {
		parse := func(string) ([]model.Instruction, error) {
			return []model.Instruction{
				inst(target.OpMOV, reg(1), reg(2)),
				inst(target.OpPUSH, reg(1)),
			}, nil
		}
		dir, err := os.MkdirTemp("", "extract-post")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(dir)
		Expect(os.WriteFile(filepath.Join(dir, "block0.s"), []byte("mov\npush\n"), 0o644)).To(Succeed())

		results, err := extract.Postprocess(t, parse, dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(results[0].Reason).To(ContainSubstring("zero compute"))
	})

	It("drops blocks containing a variable-latency instruction", func() {
		parse := func(string) ([]model.Instruction, error) {
			return []model.Instruction{
				inst(target.OpADD, reg(1), reg(2)),
				inst(target.OpDIV, reg(1), reg(2)),
			}, nil
		}
		dir, err := os.MkdirTemp("", "extract-post")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(dir)
		Expect(os.WriteFile(filepath.Join(dir, "block0.s"), []byte("add\ndiv\n"), 0o644)).To(Succeed())

		results, err := extract.Postprocess(t, parse, dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(results[0].Reason).To(ContainSubstring("variable-latency"))
	})

	It("dedups structurally identical surviving blocks", func() {
		block := []model.Instruction{
			inst(target.OpADD, reg(1), reg(2)),
			inst(target.OpSUB, reg(1), reg(2)),
		}
		parse := func(string) ([]model.Instruction, error) { return block, nil }
		dir, err := os.MkdirTemp("", "extract-post")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(dir)
		Expect(os.WriteFile(filepath.Join(dir, "block0.s"), []byte("add\nsub\n"), 0o644)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "block1.s"), []byte("add\nsub\n"), 0o644)).To(Succeed())

		results, err := extract.Postprocess(t, parse, dir)
		Expect(err).NotTo(HaveOccurred())

		kept := 0
		for _, r := range results {
			if r.Kept {
				kept++
			}
		}
		Expect(kept).To(Equal(1))
	})
})
