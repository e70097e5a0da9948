package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/llvm-ml-bench/internal/config"
)

var _ = Describe("Load", func() {
	It("parses a YAML tunables overlay", func() {
		dir, err := os.MkdirTemp("", "config")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(dir)

		path := filepath.Join(dir, "tunables.yaml")
		Expect(os.WriteFile(path, []byte("max_cov_percent: 10\nmax_faults: 30\n"), 0o644)).To(Succeed())

		got, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.MaxCoVPercent).To(Equal(10))
		Expect(got.MaxFaults).To(Equal(30))
	})
})

var _ = Describe("ApplyDefaults", func() {
	It("only fills zero-valued fields, leaving explicit flags untouched", func() {
		defaults := &config.Tunables{MaxCoVPercent: 5, Trials: 50}
		dst := &config.Tunables{MaxCoVPercent: 20} // explicit flag override
		defaults.ApplyDefaults(dst)

		Expect(dst.MaxCoVPercent).To(Equal(20))
		Expect(dst.Trials).To(Equal(50))
	})
})
