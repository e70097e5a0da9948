//go:build !linux

package sandbox

import (
	"context"
	"os"

	"github.com/sarchlab/llvm-ml-bench/internal/model"
)

func runChild() {
	os.Exit(2)
}

func runPhaseA(ctx context.Context, opts Options, lib sharedLibrary, funcName string, unroll int) (*mappedSet, model.BenchmarkResult, error) {
	return nil, model.BenchmarkResult{}, errUnsupportedPlatform
}

func runPhaseB(ctx context.Context, opts Options, lib sharedLibrary, funcName string, unroll int, mapped *mappedSet) ([]model.BenchmarkResult, error) {
	return nil, errUnsupportedPlatform
}
