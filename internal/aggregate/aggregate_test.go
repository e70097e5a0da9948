package aggregate_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/llvm-ml-bench/internal/aggregate"
	"github.com/sarchlab/llvm-ml-bench/internal/model"
)

var _ = Describe("Trials", func() {
	It("drops the two highest-cycle trials before averaging (§8.7)", func() {
		trials := []model.BenchmarkResult{
			{Cycles: 100, NumRuns: 5},
			{Cycles: 200, NumRuns: 5},
			{Cycles: 300, NumRuns: 5}, // dropped
			{Cycles: 400, NumRuns: 5}, // dropped
		}
		got := aggregate.Trials(trials)
		Expect(got.Cycles).To(Equal(uint64(150))) // avg(100, 200)
	})

	It("carries the unroll factor the harness actually ran (§8.8)", func() {
		trials := []model.BenchmarkResult{
			{Cycles: 10, NumRuns: 7},
			{Cycles: 20, NumRuns: 7},
			{Cycles: 30, NumRuns: 7},
		}
		got := aggregate.Trials(trials)
		Expect(got.NumRuns).To(Equal(uint32(7)))
	})

	It("skips failed trials in the average but still counts them as dropped candidates", func() {
		trials := []model.BenchmarkResult{
			{Cycles: 10, NumRuns: 3},
			{Cycles: 20, NumRuns: 3},
			{Cycles: 30, NumRuns: 3, Failed: true},
		}
		got := aggregate.Trials(trials)
		Expect(got.Cycles).To(Equal(uint64(10)))
	})

	It("returns a failed record when every trial failed", func() {
		trials := []model.BenchmarkResult{{Failed: true}, {Failed: true}}
		got := aggregate.Trials(trials)
		Expect(got.Failed).To(BeTrue())
	})
})

var _ = Describe("Measure", func() {
	It("saturates cycles at 0 (§8.6)", func() {
		workload := model.BenchmarkResult{Cycles: 5, NumRuns: 1}
		noise := model.BenchmarkResult{Cycles: 20, NumRuns: 1}
		m := aggregate.Measure(workload, noise)
		Expect(m.MeasuredCycles).To(Equal(uint64(0)))
	})

	It("subtracts cleanly when workload exceeds noise", func() {
		workload := model.BenchmarkResult{Cycles: 120, NumRuns: 1}
		noise := model.BenchmarkResult{Cycles: 20, NumRuns: 1}
		m := aggregate.Measure(workload, noise)
		Expect(m.MeasuredCycles).To(Equal(uint64(100)))
	})

	It("matches S3: mock counters yield measured_cycles == 0", func() {
		workload := model.BenchmarkResult{Cycles: 10, NumRuns: 3}
		noise := model.BenchmarkResult{Cycles: 10, NumRuns: 10}
		m := aggregate.Measure(workload, noise)
		Expect(m.MeasuredCycles).To(Equal(uint64(0)))
	})

	It("passes auxiliary counters through workload_*/noise_* unchanged", func() {
		workload := model.BenchmarkResult{Cycles: 50, CacheMisses: 3, Instructions: 9, NumRuns: 2}
		noise := model.BenchmarkResult{Cycles: 10, CacheMisses: 1, Instructions: 2, NumRuns: 2}
		m := aggregate.Measure(workload, noise)
		Expect(m.WorkloadCacheMisses).To(Equal(uint64(3)))
		Expect(m.NoiseCacheMisses).To(Equal(uint64(1)))
		Expect(m.WorkloadInstructions).To(Equal(uint64(9)))
		Expect(m.NoiseInstructions).To(Equal(uint64(2)))
	})
})

var _ = Describe("CoV", func() {
	It("computes stddev/mean (§8.5)", func() {
		samples := []float64{10, 10, 10, 10}
		Expect(aggregate.CoV(samples)).To(BeNumerically("~", 0, 1e-9))
	})

	It("is positive and finite for varying samples", func() {
		samples := []float64{8, 10, 12}
		cov := aggregate.CoV(samples)
		Expect(cov).To(BeNumerically(">", 0))
	})
})
