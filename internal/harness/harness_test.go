package harness_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/llvm-ml-bench/internal/harness"
)

func countAsm(f harness.Function) int {
	n := 0
	for _, s := range f.Body {
		if s.Kind == harness.StmtInlineAsm {
			n++
		}
	}
	return n
}

var _ = Describe("Generate", func() {
	It("repeats the block n times in the workload function but not in baseline", func() {
		src := "add %rax, %rbx\nmov %rcx, %rdx\n"
		mod, err := harness.Generate(src, 5, harness.X86_64Builder{})
		Expect(err).NotTo(HaveOccurred())

		baselineAsm := countAsm(mod.Baseline)
		workloadAsm := countAsm(mod.Workload)
		Expect(workloadAsm - baselineAsm).To(Equal(5 * 2))
	})

	It("rejects blocks that reference the reserved arena address", func() {
		src := "movq $0x2324000, %rax\n"
		_, err := harness.Generate(src, 1, harness.X86_64Builder{})
		Expect(err).To(MatchError(harness.ErrReservedAddress))
	})

	It("produces a valid baseline==workload module for an empty block", func() {
		src := "# just a comment\n\n"
		mod, err := harness.Generate(src, 1, harness.X86_64Builder{})
		Expect(err).NotTo(HaveOccurred())
		Expect(countAsm(mod.Workload)).To(Equal(countAsm(mod.Baseline)))
	})

	It("rejects a non-positive unroll factor", func() {
		_, err := harness.Generate("nop\n", 0, harness.X86_64Builder{})
		Expect(err).To(HaveOccurred())
	})

	It("wraps counters_start/counters_stop calls around the workload region", func() {
		mod, err := harness.Generate("nop\n", 1, harness.X86_64Builder{})
		Expect(err).NotTo(HaveOccurred())

		var calls []string
		for _, s := range mod.Workload.Body {
			if s.Kind == harness.StmtCall {
				calls = append(calls, s.Target)
			}
		}
		Expect(calls).To(Equal([]string{"counters_start", "counters_stop"}))
	})
})
