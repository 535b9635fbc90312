package hnsw

import "github.com/lumenvec/hnswdb/core"

// visitedSet tracks visited identifiers for one search using generation
// tokens for O(1) reset, resolving the "Visited set per search" design
// note in spec.md §9 (the reference allocates a boolean array sized to
// the element count on every query; this reuses one buffer across
// searches via a generation counter instead). Sized from the backing
// storage.NodeStore's current slot count at construction time (see
// hnsw.New), since that is this domain's natural upper bound on the
// identifiers a search will ever visit, rather than an arbitrary fixed
// constant. Grounded on the teacher's index/hnsw.VisitedSet.
type visitedSet struct {
	tokens []uint32
	token  uint32
}

func newVisitedSet(capacity int) *visitedSet {
	return &visitedSet{tokens: make([]uint32, capacity), token: 1}
}

func (v *visitedSet) Visit(id core.ID) {
	v.ensureCapacity(int(id))
	v.tokens[id] = v.token
}

func (v *visitedSet) Visited(id core.ID) bool {
	if int(id) >= len(v.tokens) {
		return false
	}
	return v.tokens[id] == v.token
}

// Reset prepares the set for a new search by incrementing the
// generation token; O(1) except on the rare token overflow, where every
// slot is cleared and the token restarts at 1.
func (v *visitedSet) Reset() {
	v.token++
	if v.token == 0 {
		clear(v.tokens)
		v.token = 1
	}
}

func (v *visitedSet) ensureCapacity(idx int) {
	if idx < len(v.tokens) {
		return
	}
	newCap := len(v.tokens) * 2
	if newCap <= idx {
		newCap = idx + 1
	}
	next := make([]uint32, newCap)
	copy(next, v.tokens)
	v.tokens = next
}
