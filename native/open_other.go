//go:build !(darwin || freebsd || linux)

package native

import (
	"runtime"

	"github.com/pkg/errors"
)

// Open loads the simulation library at path and binds its C ABI.
//
func Open(path string) (*Library, error) {
	return nil, errors.Errorf("load %s: native libraries are not supported on %s", path, runtime.GOOS)
}

// Close unloads the library.
//
func (l *Library) Close() error { return nil }
