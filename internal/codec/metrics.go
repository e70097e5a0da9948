package codec

import (
	"io"

	"github.com/sarchlab/llvm-ml-bench/internal/model"
)

// EncodeSample writes one BenchmarkResult ("Sample" in spec.md §4.7).
func EncodeSample(w io.Writer, s model.BenchmarkResult) error {
	wr := newWriter(w)
	failed := uint32(0)
	if s.Failed {
		failed = 1
	}
	fields := []uint64{
		uint64(failed), s.Cycles, s.ContextSwitches, s.CacheMisses,
		s.MicroOps, s.Instructions, s.MisalignedLoads, uint64(s.NumRuns), s.WallTimeNs,
	}
	for _, v := range fields {
		if err := wr.u64(v); err != nil {
			return wrapErr("sample", err)
		}
	}
	return nil
}

func decodeSample(rd *reader) (model.BenchmarkResult, error) {
	vals := make([]uint64, 9)
	for i := range vals {
		v, err := rd.u64()
		if err != nil {
			return model.BenchmarkResult{}, err
		}
		vals[i] = v
	}
	return model.BenchmarkResult{
		Failed:          vals[0] != 0,
		Cycles:          vals[1],
		ContextSwitches: vals[2],
		CacheMisses:     vals[3],
		MicroOps:        vals[4],
		Instructions:    vals[5],
		MisalignedLoads: vals[6],
		NumRuns:         uint32(vals[7]),
		WallTimeNs:      vals[8],
	}, nil
}

// DecodeSample reads back one BenchmarkResult written by EncodeSample.
func DecodeSample(r io.Reader) (model.BenchmarkResult, error) {
	rd := newReader(r)
	return decodeSample(rd)
}

// EncodeMetrics writes a MetricsRecord: header fields, then its
// noise_samples and workload_samples slices.
func EncodeMetrics(w io.Writer, m *model.MetricsRecord) error {
	wr := newWriter(w)
	if err := wr.u64(m.MeasuredCycles); err != nil {
		return wrapErr("metrics.measured_cycles", err)
	}
	if err := wr.u64(m.NumRepeat); err != nil {
		return wrapErr("metrics.num_repeat", err)
	}
	if err := wr.str(m.Source); err != nil {
		return wrapErr("metrics.source", err)
	}

	if err := wr.u32(uint32(len(m.NoiseSamples))); err != nil {
		return wrapErr("metrics.noise_count", err)
	}
	for _, s := range m.NoiseSamples {
		if err := EncodeSample(w, s); err != nil {
			return err
		}
	}

	if err := wr.u32(uint32(len(m.WorkloadSamples))); err != nil {
		return wrapErr("metrics.workload_count", err)
	}
	for _, s := range m.WorkloadSamples {
		if err := EncodeSample(w, s); err != nil {
			return err
		}
	}
	return nil
}

func decodeMetrics(rd *reader) (*model.MetricsRecord, error) {
	if err := rd.enter(); err != nil {
		return nil, err
	}
	defer rd.leave()

	measured, err := rd.u64()
	if err != nil {
		return nil, err
	}
	numRepeat, err := rd.u64()
	if err != nil {
		return nil, err
	}
	source, err := rd.str()
	if err != nil {
		return nil, err
	}

	noiseCount, err := rd.u32()
	if err != nil {
		return nil, err
	}
	if err := rd.charge(int64(noiseCount) * 9); err != nil {
		return nil, err
	}
	noise := make([]model.BenchmarkResult, noiseCount)
	for i := range noise {
		s, err := decodeSample(rd)
		if err != nil {
			return nil, err
		}
		noise[i] = s
	}

	workloadCount, err := rd.u32()
	if err != nil {
		return nil, err
	}
	if err := rd.charge(int64(workloadCount) * 9); err != nil {
		return nil, err
	}
	workload := make([]model.BenchmarkResult, workloadCount)
	for i := range workload {
		s, err := decodeSample(rd)
		if err != nil {
			return nil, err
		}
		workload[i] = s
	}

	return &model.MetricsRecord{
		MeasuredCycles: measured, NumRepeat: numRepeat, Source: source,
		NoiseSamples: noise, WorkloadSamples: workload,
	}, nil
}

// DecodeMetrics reads back a MetricsRecord written by EncodeMetrics.
func DecodeMetrics(r io.Reader) (*model.MetricsRecord, error) {
	rd := newReader(r)
	m, err := decodeMetrics(rd)
	if err != nil {
		return nil, wrapErr("metrics", err)
	}
	return m, nil
}
