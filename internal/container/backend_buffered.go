//go:build !unix

package container

import "os"

// On non-unix targets there is no mmap backend; every open uses the
// buffered fallback described in spec.md §4.3.
func openBackendImpl(path string) (backend, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return openBuffered(f, info.Size())
}
