package aggregate

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// legacyCoV is unexported, so this regression guard lives in the
// aggregate package itself rather than aggregate_test.
var _ = Describe("legacyCoV", func() {
	It("is not what CoV computes (§9 Open Question 2 stays fixed)", func() {
		vals := []float64{8, 10, 12}
		Expect(CoV(vals)).NotTo(Equal(legacyCoV(vals)))
	})
})
