// Package aggregate implements the Trial Aggregator (spec.md §4.4): it
// reduces a batch of per-trial BenchmarkResult samples into one
// representative tuple, and computes the saturating workload-minus-noise
// Measurement.
package aggregate

import (
	"math"
	"sort"

	"github.com/sarchlab/llvm-ml-bench/internal/model"
)

// trimCount is the number of highest-cycle trials dropped before
// averaging (spec.md §4.4, §8.7).
const trimCount = 2

// Trials reduces trials (sorted ascending by cycles internally; callers
// may pass any order) to one representative BenchmarkResult: the top
// trimCount highest-cycle trials are dropped, then every remaining
// successful trial's counters are averaged. The returned NumRuns is the
// unroll factor the harness actually ran, taken from the first surviving
// trial — every retained trial in one batch ran the same unroll factor
// (spec.md §8.8).
func Trials(trials []model.BenchmarkResult) model.BenchmarkResult {
	if len(trials) == 0 {
		return model.BenchmarkResult{}
	}

	sorted := make([]model.BenchmarkResult, len(trials))
	copy(sorted, trials)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Cycles < sorted[j].Cycles
	})

	kept := sorted
	if len(sorted) > trimCount {
		kept = sorted[:len(sorted)-trimCount]
	} else if len(sorted) > 0 {
		// Fewer than trimCount+1 trials: nothing survives the trim in the
		// strict reading, but we still need a representative tuple, so we
		// fall back to averaging whatever is left rather than returning a
		// zero record outright.
		kept = sorted
	}

	var (
		sumCycles, sumCtxSw, sumCacheMiss, sumMicroOps, sumInsns, sumMisaligned, sumWall uint64
		numRuns                                                                          uint32
		successCount                                                                    int
	)

	for i, t := range kept {
		if t.Failed {
			continue
		}
		if successCount == 0 {
			numRuns = t.NumRuns
		}
		sumCycles += t.Cycles
		sumCtxSw += t.ContextSwitches
		sumCacheMiss += t.CacheMisses
		sumMicroOps += t.MicroOps
		sumInsns += t.Instructions
		sumMisaligned += t.MisalignedLoads
		sumWall += t.WallTimeNs
		successCount++
		_ = i
	}

	if successCount == 0 {
		// All trials failed: return an implementation-defined "no sample"
		// record (spec.md §7) rather than dividing by zero.
		return model.BenchmarkResult{Failed: true}
	}

	n := uint64(successCount)
	return model.BenchmarkResult{
		Cycles:          sumCycles / n,
		ContextSwitches: sumCtxSw / n,
		CacheMisses:     sumCacheMiss / n,
		MicroOps:        sumMicroOps / n,
		Instructions:    sumInsns / n,
		MisalignedLoads: sumMisaligned / n,
		WallTimeNs:      sumWall / n,
		NumRuns:         numRuns,
	}
}

// Measure computes the saturating Measurement from an aggregated workload
// tuple and an aggregated noise tuple (spec.md §4.4, §8.6): cycles are
// clamped at 0, every other counter is pass-through into the workload_*/
// noise_* fields.
func Measure(workload, noise model.BenchmarkResult) model.Measurement {
	measured := int64(workload.Cycles) - int64(noise.Cycles)
	if measured < 0 {
		measured = 0
	}

	return model.Measurement{
		MeasuredCycles:  uint64(measured),
		MeasuredNumRuns: uint64(workload.NumRuns),

		WorkloadCycles:          workload.Cycles,
		WorkloadCacheMisses:     workload.CacheMisses,
		WorkloadContextSwitches: workload.ContextSwitches,
		WorkloadMicroOps:        workload.MicroOps,
		WorkloadInstructions:    workload.Instructions,
		WorkloadNumRuns:         uint64(workload.NumRuns),

		NoiseCycles:          noise.Cycles,
		NoiseCacheMisses:     noise.CacheMisses,
		NoiseContextSwitches: noise.ContextSwitches,
		NoiseMicroOps:        noise.MicroOps,
		NoiseInstructions:    noise.Instructions,
		NoiseNumRuns:         uint64(noise.NumRuns),
	}
}

// CoV computes the coefficient of variation of vals (per-iteration cycle
// counts, already divided by each sample's unroll factor by the caller)
// as `stddev/mean`. Returns NaN for fewer than two values or a zero mean,
// which callers filter out (spec.md §4.8, §8.5).
func CoV(vals []float64) float64 {
	if len(vals) < 2 {
		return math.NaN()
	}

	mean := meanOf(vals)
	if mean == 0 {
		return math.NaN()
	}
	return stddevOf(vals, mean) / mean
}

// legacyCoV reproduces the historical statistics helper's inverted
// formula (`mean/stddev`), kept only so a regression test can assert
// CoV is never accidentally reverted to it (spec.md §9 Open Question 2).
func legacyCoV(vals []float64) float64 {
	if len(vals) < 2 {
		return math.NaN()
	}

	mean := meanOf(vals)
	sd := stddevOf(vals, mean)
	if sd == 0 {
		return math.NaN()
	}
	return mean / sd
}

// PerIterCycles converts samples' raw Cycles counts into per-iteration
// values (each divided by its own NumRuns unroll factor), skipping
// failed or zero-unroll samples, ready to hand to CoV.
func PerIterCycles(samples []model.BenchmarkResult) []float64 {
	vals := make([]float64, 0, len(samples))
	for _, s := range samples {
		if s.Failed || s.NumRuns == 0 {
			continue
		}
		vals = append(vals, float64(s.Cycles)/float64(s.NumRuns))
	}
	return vals
}

func meanOf(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func stddevOf(vals []float64, mean float64) float64 {
	var sumSq float64
	for _, v := range vals {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(vals)))
}
