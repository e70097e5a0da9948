// Package calibrate implements the Calibrator (spec.md §4.9): given one
// Phase A discovery trial's wall-clock duration, it estimates the
// per-iteration cost and suggests an unroll factor that fills roughly 80%
// of a scheduler time slice.
package calibrate

import (
	"errors"
	"fmt"
)

// ErrTooFast is returned when the estimated per-iteration wall time falls
// below the threshold at which measurement noise dominates the signal.
var ErrTooFast = errors.New("calibrate: workload too short to measure reliably")

const minNsPerIter = 10

// DefaultSliceNs approximates one scheduler time slice on a contended
// Linux host (spec.md §4.9: "slice_ns ≈ 1 ms").
const DefaultSliceNs = 1_000_000

// minSuggestedUnroll is the floor a runaway per-iteration estimate is
// clamped to (spec.md §4.9: "caps runaway estimates at the configured
// minimum 200").
const minSuggestedUnroll = 200

// Suggest computes an unroll factor from one trial's wall-clock duration
// and run count: ns_per_iter = wallTimeNs / numRuns, then
// unroll = 0.8 * sliceNs / ns_per_iter, floored at minSuggestedUnroll.
func Suggest(wallTimeNs uint64, numRuns uint32, sliceNs uint64) (int, error) {
	if numRuns == 0 || wallTimeNs == 0 {
		return 0, ErrTooFast
	}

	nsPerIter := float64(wallTimeNs) / float64(numRuns)
	if nsPerIter < minNsPerIter {
		return 0, fmt.Errorf("%w: %.2fns/iter", ErrTooFast, nsPerIter)
	}

	suggested := int(0.8 * float64(sliceNs) / nsPerIter)
	if suggested < minSuggestedUnroll {
		suggested = minSuggestedUnroll
	}
	return suggested, nil
}
