//go:build linux

package sandbox

import (
	"fmt"

	"github.com/ebitengine/purego"
)

type dlLibrary struct {
	handle uintptr
	path   string
}

// loadSharedObject dlopens the shared object the external compile() step
// produced, without requiring cgo — purego wraps dlopen/dlsym with raw
// syscalls on Linux.
func loadSharedObject(path string) (sharedLibrary, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("sandbox: dlopen %s: %w", path, err)
	}
	return &dlLibrary{handle: handle, path: path}, nil
}

func (l *dlLibrary) SymbolAddr(name string) (uintptr, error) {
	addr, err := purego.Dlsym(l.handle, name)
	if err != nil {
		return 0, fmt.Errorf("sandbox: dlsym %s in %s: %w", name, l.path, err)
	}
	return addr, nil
}

func (l *dlLibrary) Close() error {
	return purego.Dlclose(l.handle)
}
