package dataset_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/llvm-ml-bench/internal/codec"
	"github.com/sarchlab/llvm-ml-bench/internal/dataset"
	"github.com/sarchlab/llvm-ml-bench/internal/model"
)

func writeGraph(dir, stem string, g *model.Graph) {
	var buf bytes.Buffer
	Expect(codec.EncodeGraph(&buf, g)).To(Succeed())
	Expect(os.WriteFile(filepath.Join(dir, stem+".graph.cbuf"), buf.Bytes(), 0o644)).To(Succeed())
}

func writeMetrics(dir, stem string, m *model.MetricsRecord) {
	var buf bytes.Buffer
	Expect(codec.EncodeMetrics(&buf, m)).To(Succeed())
	Expect(os.WriteFile(filepath.Join(dir, stem+".metrics.cbuf"), buf.Bytes(), 0o644)).To(Succeed())
}

func steadyGraph() *model.Graph {
	return &model.Graph{
		Source: "a.s",
		Nodes:  []model.NodeFeatures{{NodeID: 0, Opcode: 7, IsCompute: true}, {NodeID: 1, Opcode: 8, IsCompute: true}},
		Edges:  []model.Edge{{FromID: 0, ToID: 1}},
	}
}

var _ = Describe("Assemble", func() {
	var graphDir, metricsDir string

	BeforeEach(func() {
		var err error
		graphDir, err = os.MkdirTemp("", "graphs")
		Expect(err).NotTo(HaveOccurred())
		metricsDir, err = os.MkdirTemp("", "metrics")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(graphDir)
		os.RemoveAll(metricsDir)
	})

	It("joins by stem and emits a DatasetEntry for a clean low-CoV pair", func() {
		writeGraph(graphDir, "a0", steadyGraph())
		writeMetrics(metricsDir, "a0", &model.MetricsRecord{
			MeasuredCycles: 100,
			WorkloadSamples: []model.BenchmarkResult{
				{Cycles: 1000, NumRuns: 10}, {Cycles: 1000, NumRuns: 10}, {Cycles: 1000, NumRuns: 10},
			},
		})

		result, err := dataset.Assemble(graphDir, metricsDir, 0.1)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Entries).To(HaveLen(1))
		Expect(result.Entries[0].ID).To(Equal("a0"))
		Expect(result.Entries[0].CoV).To(BeNumerically("~", 0, 1e-9))
	})

	It("drops a pair whose measured_cycles is zero (S5-adjacent)", func() {
		writeGraph(graphDir, "a0", steadyGraph())
		writeMetrics(metricsDir, "a0", &model.MetricsRecord{MeasuredCycles: 0})

		result, err := dataset.Assemble(graphDir, metricsDir, 0.1)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Entries).To(BeEmpty())
		Expect(result.Dropped[0].Reason).To(Equal(dataset.DropZeroCycles))
	})

	It("drops a pair whose CoV exceeds the configured fraction (§8.5 S5)", func() {
		writeGraph(graphDir, "a0", steadyGraph())
		writeMetrics(metricsDir, "a0", &model.MetricsRecord{
			MeasuredCycles: 100,
			WorkloadSamples: []model.BenchmarkResult{
				{Cycles: 80, NumRuns: 10}, {Cycles: 120, NumRuns: 10},
			},
		})

		result, err := dataset.Assemble(graphDir, metricsDir, 0.10)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Entries).To(BeEmpty())
		Expect(result.Dropped[0].Reason).To(Equal(dataset.DropCoVExceedsMax))
	})

	It("falls back to noise_samples when workload_samples is empty (compatibility path)", func() {
		writeGraph(graphDir, "a0", steadyGraph())
		writeMetrics(metricsDir, "a0", &model.MetricsRecord{
			MeasuredCycles: 100,
			NoiseSamples: []model.BenchmarkResult{
				{Cycles: 1000, NumRuns: 10}, {Cycles: 1000, NumRuns: 10},
			},
		})

		result, err := dataset.Assemble(graphDir, metricsDir, 0.1)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Entries).To(HaveLen(1))
	})

	It("keeps the cheaper trial among structurally duplicate graphs (§4.8 dedupe)", func() {
		writeGraph(graphDir, "cheap", steadyGraph())
		writeGraph(graphDir, "expensive", steadyGraph())
		samples := []model.BenchmarkResult{{Cycles: 1000, NumRuns: 10}, {Cycles: 1000, NumRuns: 10}}
		writeMetrics(metricsDir, "cheap", &model.MetricsRecord{MeasuredCycles: 50, WorkloadSamples: samples})
		writeMetrics(metricsDir, "expensive", &model.MetricsRecord{MeasuredCycles: 500, WorkloadSamples: samples})

		result, err := dataset.Assemble(graphDir, metricsDir, 0.1)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Entries).To(HaveLen(1))
		Expect(result.Entries[0].ID).To(Equal("cheap"))
	})

	It("skips a graph file with no metrics counterpart", func() {
		writeGraph(graphDir, "orphan", steadyGraph())

		result, err := dataset.Assemble(graphDir, metricsDir, 0.1)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Entries).To(BeEmpty())
		Expect(result.Dropped).To(BeEmpty())
	})
})
