// Package mmap provides a writable, growable memory-mapped file.
//
// It backs storage.NodeStore: the node array is the file's bytes, and the
// in-memory graph representation is the same bytes as the on-disk
// representation. Unlike a read-only mapping, Resize allows the file (and
// therefore the mapping) to grow in place as new node slots are addressed.
//
// # Usage
//
//	f, err := mmap.Open("nodes.bin", 1<<20)
//	if err != nil { ... }
//	defer f.Close()
//
//	data := f.Bytes()
//	if needed > f.Size() {
//	    if err := f.Resize(needed); err != nil { ... }
//	    data = f.Bytes() // data must be re-derived; the old slice is invalid
//	}
//
// # Platform support
//
// Unix (Linux, macOS, BSD) uses mmap(2)/munmap(2) via golang.org/x/sys/unix.
// Windows uses CreateFileMapping/MapViewOfFile.
package mmap
