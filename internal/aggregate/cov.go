package aggregate

import "math"

// CoV computes the coefficient of variation of samples: stddev/mean, using
// the population standard deviation (spec.md §8.5). This is the corrected
// form; see legacyCoV for the historical bug this replaces (spec.md §9
// Open Questions, SPEC_FULL §12).
func CoV(samples []float64) float64 {
	if len(samples) == 0 {
		return math.NaN()
	}

	mean := meanOf(samples)
	if mean == 0 {
		return math.NaN()
	}

	var sumSq float64
	for _, x := range samples {
		d := x - mean
		sumSq += d * d
	}
	stddev := math.Sqrt(sumSq / float64(len(samples)))

	return stddev / mean
}

// legacyCoV reproduces the historical, incorrect mean/sigma formula
// (spec.md §9) for exactly one purpose: a regression test asserting that
// CoV is never accidentally reverted to this form. It has no other call
// site and backs no production behavior.
func legacyCoV(samples []float64) float64 {
	if len(samples) == 0 {
		return math.NaN()
	}
	mean := meanOf(samples)
	var sumSq float64
	for _, x := range samples {
		d := x - mean
		sumSq += d * d
	}
	stddev := math.Sqrt(sumSq / float64(len(samples)))
	if stddev == 0 {
		return math.NaN()
	}
	return mean / stddev
}

func meanOf(samples []float64) float64 {
	var sum float64
	for _, x := range samples {
		sum += x
	}
	return sum / float64(len(samples))
}
