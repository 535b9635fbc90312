package metadata

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/lumenvec/hnswdb/core"
)

// lengthPrefixSize is the size in bytes of the little-endian length
// prefix preceding every record, per spec.md §6.
const lengthPrefixSize = 4

// slot records where one identifier's payload lives in the file.
type slot struct {
	offset int64
	length uint32
}

// Store is the append-only metadata log described in spec.md §4.3: a
// sequence of (uint32 length, bytes) records plus an in-memory table
// mapping identifier to (offset, length), rebuilt from the file on Open.
//
// Grounded on wal.WAL's append-only file idiom (os.OpenFile with
// O_CREATE|O_RDWR, a single mutex guarding append, scan-on-open rebuild)
// generalized into the simpler, checksum-free, uncompressed framing
// spec.md §4.3 and §6 specify.
type Store struct {
	mu   sync.Mutex
	file *os.File
	path string

	slots []slot // slots[id] is valid metadata; a zero slot means unknown/empty.
	end   int64  // current end-of-file offset, where the next record is appended.
}

// Open creates or opens the metadata file at path and rebuilds the
// in-memory offset table by scanning it from the start, assigning
// identifiers 0, 1, 2, ... in file order.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("metadata: create directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o640) //nolint:gosec // path is caller-controlled
	if err != nil {
		return nil, fmt.Errorf("metadata: open %s: %w", path, err)
	}

	s := &Store{file: f, path: path}
	if err := s.rebuild(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return s, nil
}

// rebuild scans the file from the start and populates the offset table.
// Recovery assigns identifiers in strictly increasing order starting at
// zero, matching the append order Save uses — the documented coupling
// named in spec.md §9.
func (s *Store) rebuild() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("metadata: seek: %w", err)
	}

	r := bufio.NewReader(s.file)
	var offset int64
	var id uint32

	for {
		var length uint32
		if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("metadata: read length prefix: %w", err)
		}

		s.growSlots(id)
		s.slots[id] = slot{offset: offset, length: length}

		if length > 0 {
			if _, err := io.CopyN(io.Discard, r, int64(length)); err != nil {
				return fmt.Errorf("metadata: read payload for id %d: %w", id, err)
			}
		}

		offset += lengthPrefixSize + int64(length)
		id++
	}

	s.end = offset
	return nil
}

func (s *Store) growSlots(id uint32) {
	if int(id) < len(s.slots) {
		return
	}
	next := make([]slot, id+1)
	copy(next, s.slots)
	s.slots = next
}

// Save appends payload under the writer mutex and updates the in-memory
// index at slot id. Empty payloads are a no-op, per spec.md §4.3.
func (s *Store) Save(id core.ID, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.Seek(s.end, io.SeekStart); err != nil {
		return fmt.Errorf("metadata: seek to end: %w", err)
	}

	var header [lengthPrefixSize]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(payload)))

	if _, err := s.file.Write(header[:]); err != nil {
		return fmt.Errorf("metadata: write length prefix: %w", err)
	}
	if _, err := s.file.Write(payload); err != nil {
		return fmt.Errorf("metadata: write payload: %w", err)
	}

	s.growSlots(id)
	s.slots[id] = slot{offset: s.end, length: uint32(len(payload))}
	s.end += lengthPrefixSize + int64(len(payload))

	return nil
}

// Get returns the most recently saved payload for id, or nil if none was
// saved (spec.md §8: "returns the most recently saved payload for id, or
// empty if none was saved"). The read path clears any sticky end-of-file
// condition before seeking, per spec.md §4.6.
func (s *Store) Get(id core.ID) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if int(id) >= len(s.slots) {
		return nil, nil
	}
	sl := s.slots[id]
	if sl.length == 0 {
		return nil, nil
	}

	// Clear a sticky EOF flag left over from a previous read that hit
	// the end of file, mirroring wal.WAL's read-path handling of the
	// same os.File quirk.
	if _, err := s.file.Seek(0, io.SeekCurrent); err != nil {
		return nil, fmt.Errorf("metadata: clear eof: %w", err)
	}

	if _, err := s.file.Seek(sl.offset+lengthPrefixSize, io.SeekStart); err != nil {
		return nil, fmt.Errorf("metadata: seek to payload for id %d: %w", id, err)
	}

	buf := make([]byte, sl.length)
	if _, err := io.ReadFull(s.file, buf); err != nil {
		return nil, fmt.Errorf("metadata: read payload for id %d: %w", id, err)
	}
	return buf, nil
}

// Close closes the underlying file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
