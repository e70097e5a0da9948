package report_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/llvm-ml-bench/internal/model"
	"github.com/sarchlab/llvm-ml-bench/internal/report"
)

var _ = Describe("WriteDataset", func() {
	It("renders one row per entry with its id and cov", func() {
		var buf bytes.Buffer
		report.WriteDataset(&buf, []model.DatasetEntry{
			{ID: "a0", CoV: 0.02, Metrics: model.MetricsRecord{MeasuredCycles: 100}},
		})
		Expect(buf.String()).To(ContainSubstring("a0"))
		Expect(buf.String()).To(ContainSubstring("0.02"))
	})
})

var _ = Describe("WriteTrial", func() {
	It("renders both workload and noise rows", func() {
		var buf bytes.Buffer
		report.WriteTrial(&buf, "add0.s",
			[]model.BenchmarkResult{{Cycles: 100, NumRuns: 10}},
			[]model.BenchmarkResult{{Cycles: 10, NumRuns: 10}},
		)
		Expect(buf.String()).To(ContainSubstring("workload"))
		Expect(buf.String()).To(ContainSubstring("noise"))
		Expect(buf.String()).To(ContainSubstring("add0.s"))
	})
})
