//go:build unix

package container

import (
	"os"
	"syscall"
)

// mmapBackend memory-maps the whole file read-only. Grounded on
// alphazero-gart/index/oidx/mmap.go's mapfile/mmap/Unmap pattern: open,
// fstat, Mmap, and always unmap+close on every exit path.
type mmapBackend struct {
	file *os.File
	data []byte
}

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
	size := info.Size()

	if size == 0 {
		// syscall.Mmap rejects a zero-length mapping; let the caller's
		// size validation reject the file instead of failing here.
		return &bufferedBackend{file: f, data: nil}, size, nil
	}

	data, err := syscall.Mmap(int(f.Fd()), 0, int(size), syscall.PROT_READ, syscall.MAP_PRIVATE)
	if err != nil {
		// Fall back to buffered reads rather than failing outright: some
		// filesystems (overlay, certain network mounts) reject mmap.
		buffered, bsize, berr := openBuffered(f, size)
		if berr != nil {
			f.Close()
			return nil, 0, berr
		}
		return buffered, bsize, nil
	}

	return &mmapBackend{file: f, data: data}, size, nil
}

func (b *mmapBackend) Bytes() []byte { return b.data }

func (b *mmapBackend) Close() error {
	var err error
	if b.data != nil {
		err = syscall.Munmap(b.data)
		b.data = nil
	}
	if cerr := b.file.Close(); err == nil {
		err = cerr
	}
	return err
}
