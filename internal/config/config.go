// Package config is an optional YAML overlay of tunables (SPEC_FULL §10):
// Load parses a YAML file, and ApplyDefaults copies its values into the
// fields a caller left at zero. No cmd/* tool has a `--config` flag or
// calls this package.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tunables is the overlay's schema. MaxCoVPercent corresponds to
// dataset's --max-cov and Trials to bench's -r; MaxFaults and SliceNs
// have no CLI flag. The file only ever supplies defaults.
type Tunables struct {
	MaxCoVPercent int `yaml:"max_cov_percent"`
	MaxFaults     int `yaml:"max_faults"`
	Trials        int `yaml:"trials"`
	SliceNs       int `yaml:"slice_ns"`
}

// Load reads and parses a YAML tunables file.
func Load(path string) (*Tunables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var t Tunables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &t, nil
}

// ApplyDefaults fills zero-valued fields of dst from t, leaving any field
// the caller already set (e.g. from an explicit flag) untouched.
func (t *Tunables) ApplyDefaults(dst *Tunables) {
	if dst.MaxCoVPercent == 0 {
		dst.MaxCoVPercent = t.MaxCoVPercent
	}
	if dst.MaxFaults == 0 {
		dst.MaxFaults = t.MaxFaults
	}
	if dst.Trials == 0 {
		dst.Trials = t.Trials
	}
	if dst.SliceNs == 0 {
		dst.SliceNs = t.SliceNs
	}
}
