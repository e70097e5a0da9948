//go:build !linux

package sandbox

import "errors"

var errUnsupportedPlatform = errors.New("sandbox: requires linux (ptrace, perf_event_open)")

func loadSharedObject(path string) (sharedLibrary, error) {
	return nil, errUnsupportedPlatform
}
