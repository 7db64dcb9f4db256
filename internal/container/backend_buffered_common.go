package container

import (
	"io"
	"os"
)

// bufferedBackend reads the whole file into memory once, up front. This is
// the portable fallback backend: used directly on non-unix targets, and as
// the unix mmap backend's fallback when Mmap itself fails.
type bufferedBackend struct {
	file *os.File
	data []byte
}

func openBuffered(f *os.File, size int64) (backend, int64, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, 0, err
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(f, buf); err != nil && err != io.EOF {
		f.Close()
		return nil, 0, err
	}
	return &bufferedBackend{file: f, data: buf}, size, nil
}

func (b *bufferedBackend) Bytes() []byte { return b.data }

func (b *bufferedBackend) Close() error {
	return b.file.Close()
}
