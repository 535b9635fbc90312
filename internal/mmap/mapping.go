package mmap

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

// File represents a writable, growable memory-mapped file.
//
// Resize invalidates every byte slice previously returned by Bytes; the
// storage package never caches those slices across an access and instead
// re-derives them from File on every call (see storage.NodeStore).
type File struct {
	mu     sync.Mutex // serializes Resize against itself; callers gate reads separately
	f      *os.File
	data   []byte
	size   int
	closed atomic.Bool
}

// Open creates parent directories if needed, opens or creates the file at
// path, grows it to at least minSize bytes if shorter, and maps the full
// length read/write shared.
func Open(path string, minSize int64) (*File, error) {
	if minSize < 0 {
		return nil, ErrInvalidSize
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, err
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o640) //nolint:gosec // path is caller-controlled, same as storage.Open contract
	if err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	size := fi.Size()
	if size < minSize {
		if err := f.Truncate(minSize); err != nil {
			_ = f.Close()
			return nil, err
		}
		size = minSize
	}

	m := &File{f: f}
	if err := m.mapLocked(int(size)); err != nil {
		_ = f.Close()
		return nil, err
	}
	return m, nil
}

func (m *File) mapLocked(size int) error {
	if size == 0 {
		m.data = nil
		m.size = 0
		return nil
	}
	data, err := osMap(m.f, size)
	if err != nil {
		return err
	}
	m.data = data
	m.size = size
	return nil
}

// Size returns the current mapped length in bytes.
func (m *File) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.size
}

// Bytes returns the base mapping. The slice is valid only until the next
// call to Resize or Close; callers must not retain it across either.
func (m *File) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// ReadAt implements io.ReaderAt over the mapping, matching the
// teacher's internal/mmap.Mapping.ReadAt contract: a negative offset is
// a contract violation (ErrInvalidOffset), an offset at or past the
// mapped length is io.EOF.
func (m *File) ReadAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed.Load() {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, ErrInvalidOffset
	}
	if off >= int64(m.size) {
		return 0, io.EOF
	}

	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Resize unmaps, grows the file, and remaps it at the new size. It
// invalidates every previously returned slice from Bytes. newSize must be
// greater than or equal to the current size; shrinking is not supported.
func (m *File) Resize(newSize int64) error {
	if newSize < 0 {
		return ErrInvalidSize
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed.Load() {
		return ErrClosed
	}
	if int(newSize) <= m.size {
		return nil
	}

	if m.data != nil {
		if err := osUnmap(m.data); err != nil {
			return err
		}
		m.data = nil
	}

	if err := m.f.Truncate(newSize); err != nil {
		return err
	}

	return m.mapLocked(int(newSize))
}

// Close unmaps and closes the file. It is idempotent and flushes dirty
// pages to disk via the OS's backing mechanism (munmap implies a flush on
// all supported platforms; there is no separate explicit msync call).
func (m *File) Close() error {
	if m.closed.Swap(true) {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if m.data != nil {
		err = osUnmap(m.data)
		m.data = nil
	}
	if closeErr := m.f.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
