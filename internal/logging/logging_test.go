package logging_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/llvm-ml-bench/internal/logging"
)

var _ = Describe("Logger", func() {
	It("suppresses messages below the configured level", func() {
		var buf bytes.Buffer
		l := logging.New(&buf, logging.LevelWarn)

		l.Infof("hidden %d", 1)
		l.Warnf("shown %d", 2)

		Expect(buf.String()).NotTo(ContainSubstring("hidden"))
		Expect(buf.String()).To(ContainSubstring("shown"))
		Expect(buf.String()).To(ContainSubstring("WARN"))
	})

	It("prefixes every line with its level", func() {
		var buf bytes.Buffer
		l := logging.New(&buf, logging.LevelDebug)
		l.Errorf("boom")
		Expect(buf.String()).To(ContainSubstring("ERROR: boom"))
	})
})
