package storage

import (
	"sync"
	"sync/atomic"

	"github.com/lumenvec/hnswdb/core"
	"github.com/lumenvec/hnswdb/internal/mmap"
)

// DefaultGrowthBytes is the additive growth increment applied to the
// mapped node file whenever EnsureSlot needs more room: spec.md §4.5
// step 2 names this as the reference policy (current size + 10 MiB).
const DefaultGrowthBytes = 10 * 1024 * 1024

const (
	lockSegmentBits = 12
	lockSegmentSize = 1 << lockSegmentBits
	lockSegmentMask = lockSegmentSize - 1
)

// lockSegment is one fixed-size slab of per-node spinlocks. Segments are
// never resized or copied after allocation; growth appends new segments,
// the same segmented-array idiom the teacher uses for its node array
// (internal/hnsw.growNodes) adapted here to spinlocks instead of node
// pointers so that growing the lock table never copies a live spinlock.
type lockSegment [lockSegmentSize]spinlock

// NodeStore is the memory-mapped, fixed-record node array described in
// spec.md §3 and §4.2: slot i holds the NodeRecord for identifier i, at
// byte offset i*RecordSize in the backing file.
type NodeStore struct {
	file *mmap.File

	// resizeMu is the coarse resize lock (spec.md §4.6): held during file
	// growth and lock-array extension, double-checked after acquisition.
	resizeMu sync.Mutex

	// rmu drains in-flight node accesses before a resize proceeds and is
	// held RLocked for the duration of any single node access — the
	// reader-lock half of the pointer-into-mapping hazard resolution
	// described in SPEC_FULL.md §5.
	rmu sync.RWMutex

	// lockSegs is the segmented per-node spinlock array, grown under
	// resizeMu and read via atomic.Pointer so growth never races a
	// concurrent LockNode call.
	lockSegs atomic.Pointer[[]*lockSegment]

	growthBytes int64
}

// Open creates or opens the node file at path, grows it to at least
// minBytes, and maps it read/write. growthBytes is the additive growth
// increment for EnsureSlot; zero selects DefaultGrowthBytes.
func Open(path string, minBytes, growthBytes int64) (*NodeStore, error) {
	if growthBytes <= 0 {
		growthBytes = DefaultGrowthBytes
	}

	f, err := mmap.Open(path, minBytes)
	if err != nil {
		return nil, err
	}

	s := &NodeStore{file: f, growthBytes: growthBytes}
	segs := []*lockSegment{new(lockSegment)}
	s.lockSegs.Store(&segs)
	return s, nil
}

// SetGrowthBytes overrides the additive growth increment applied by a
// future EnsureSlot call. Exposed so a caller above storage (hnsw.New)
// can apply its configured GrowthBytes option to a NodeStore that was
// already opened with the default.
func (s *NodeStore) SetGrowthBytes(n int64) {
	if n <= 0 {
		return
	}
	s.resizeMu.Lock()
	s.growthBytes = n
	s.resizeMu.Unlock()
}

// Size returns the current mapped length in bytes.
func (s *NodeStore) Size() int64 {
	return int64(s.file.Size())
}

// Close unmaps and closes the node file. Idempotent.
func (s *NodeStore) Close() error {
	return s.file.Close()
}

// Capacity returns the number of addressable slots in the current mapping.
func (s *NodeStore) Capacity() core.ID {
	return core.ID(s.Size() / RecordSize)
}

// EnsureSlot grows the mapped file, if necessary, so that slot id is
// addressable, and extends the per-node spinlock array to cover it, also
// when the file was already large enough. Safe for concurrent callers:
// growth is double-checked under resizeMu, and the resize itself drains
// in-flight node accesses via rmu.
func (s *NodeStore) EnsureSlot(id core.ID) error {
	need := (int64(id) + 1) * RecordSize
	if need <= s.Size() && int(id)>>lockSegmentBits < len(*s.lockSegs.Load()) {
		return nil
	}

	s.resizeMu.Lock()
	defer s.resizeMu.Unlock()

	if cur := s.Size(); need > cur {
		newSize := cur
		for newSize < need {
			newSize += s.growthBytes
		}

		s.rmu.Lock()
		err := s.file.Resize(newSize)
		s.rmu.Unlock()
		if err != nil {
			return err
		}
	}

	s.growLocksLocked(id)
	return nil
}

// growLocksLocked extends the segmented spinlock array to cover id. The
// caller must hold resizeMu.
func (s *NodeStore) growLocksLocked(id core.ID) {
	idx := int(id) >> lockSegmentBits

	cur := *s.lockSegs.Load()
	if idx < len(cur) && cur[idx] != nil {
		return
	}

	next := make([]*lockSegment, len(cur))
	copy(next, cur)
	for len(next) <= idx {
		next = append(next, new(lockSegment))
	}
	s.lockSegs.Store(&next)
}

// lockFor returns the spinlock owning identifier id. EnsureSlot must have
// been called for id (directly or via an ancestor growth) before this is
// reachable; otherwise the segment may be nil and this panics, which is
// the correct contract-violation behavior for an unaddressed identifier.
func (s *NodeStore) lockFor(id core.ID) *spinlock {
	segs := *s.lockSegs.Load()
	idx := int(id) >> lockSegmentBits
	seg := segs[idx]
	return &seg[int(id)&lockSegmentMask]
}

// LockNode acquires the per-node spinlock for id and returns a function
// that releases it. The critical section should be bounded, per spec.md
// §4.6: at most MMax0 distance computations (hnsw.addLink's prune path).
func (s *NodeStore) LockNode(id core.ID) func() {
	l := s.lockFor(id)
	l.Lock()
	return l.Unlock
}

// Node returns a view over the record at slot id, plus a release function
// that must be called when the caller is done reading or writing through
// it. The view aliases the mapped file and must not be retained past
// release: holding rmu RLocked across the call guarantees no concurrent
// Resize invalidates the underlying slice while the view is live.
func (s *NodeStore) Node(id core.ID) (Node, func()) {
	s.rmu.RLock()
	buf := s.file.Bytes()
	off := int64(id) * RecordSize
	n := Node{buf: buf[off : off+RecordSize]}
	return n, s.rmu.RUnlock
}
