package target_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/llvm-ml-bench/internal/model"
	"github.com/sarchlab/llvm-ml-bench/internal/target"
)

var _ = Describe("ForTriple", func() {
	It("resolves x86_64 by bare arch name", func() {
		t, err := target.ForTriple("x86_64")
		Expect(err).NotTo(HaveOccurred())
		Expect(t.Name()).To(Equal("x86_64"))
	})

	It("resolves x86_64 by full LLVM triple", func() {
		t, err := target.ForTriple("x86_64-unknown-linux-gnu")
		Expect(err).NotTo(HaveOccurred())
		Expect(t.Name()).To(Equal("x86_64"))
	})

	It("defaults to x86_64 on an empty string", func() {
		t, err := target.ForTriple("")
		Expect(err).NotTo(HaveOccurred())
		Expect(t.Name()).To(Equal("x86_64"))
	})

	It("rejects an unsupported architecture", func() {
		_, err := target.ForTriple("riscv64")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Resolve", func() {
	It("prefers an explicit override over host detection", func() {
		t, err := target.Resolve(context.Background(), "x86_64")
		Expect(err).NotTo(HaveOccurred())
		Expect(t.Name()).To(Equal("x86_64"))
	})

	It("falls back to the detected host architecture when given none", func() {
		t, err := target.Resolve(context.Background(), "")
		Expect(err).NotTo(HaveOccurred())
		Expect(t.Name()).To(Equal("x86_64"))
	})
})

var _ = Describe("X86_64 classifiers", func() {
	t := target.NewX86_64()

	It("treats jmp/jcc/ret as terminators but not call", func() {
		Expect(t.IsTerminator(&model.Instruction{Opcode: target.OpJMP})).To(BeTrue())
		Expect(t.IsTerminator(&model.Instruction{Opcode: target.OpJCC})).To(BeTrue())
		Expect(t.IsTerminator(&model.Instruction{Opcode: target.OpRET})).To(BeTrue())
		Expect(t.IsTerminator(&model.Instruction{Opcode: target.OpCALL})).To(BeFalse())
		Expect(t.IsCall(&model.Instruction{Opcode: target.OpCALL})).To(BeTrue())
	})

	It("excludes moves/loads/stores/push/pop/nop from IsCompute", func() {
		for _, op := range []uint32{target.OpMOV, target.OpLEA, target.OpPUSH, target.OpPOP, target.OpNOP} {
			Expect(t.IsCompute(&model.Instruction{Opcode: op})).To(BeFalse())
		}
		Expect(t.IsCompute(&model.Instruction{Opcode: target.OpADD})).To(BeTrue())
	})

	It("flags div/sqrt/rep-movs/prefetch/cpuid/gather as variable latency", func() {
		for _, op := range []uint32{target.OpDIV, target.OpSQRT, target.OpRSQRT, target.OpREP_MOVS, target.OpPREFETCHT0, target.OpCPUID, target.OpGATHER} {
			Expect(t.IsVarLatency(&model.Instruction{Opcode: op})).To(BeTrue())
		}
		Expect(t.IsVarLatency(&model.Instruction{Opcode: target.OpADD})).To(BeFalse())
	})

	It("classifies vector/tile register bands disjointly from general-purpose", func() {
		Expect(t.IsVectorReg(40)).To(BeTrue())
		Expect(t.IsVectorReg(5)).To(BeFalse())
		Expect(t.IsTileReg(68)).To(BeTrue())
		Expect(t.IsTileReg(40)).To(BeFalse())
	})
})
