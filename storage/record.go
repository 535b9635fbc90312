package storage

import (
	"encoding/binary"
	"sync/atomic"
	"unsafe"

	"github.com/lumenvec/hnswdb/core"
)

const (
	// Dim is the vector dimensionality. Must match every inserted and
	// queried vector exactly.
	Dim = 128

	// M is the target degree for upper layers.
	M = 16

	// MMax0 is the degree cap for layer 0 (2*M).
	MMax0 = 2 * M

	// LMax is the hard cap on the number of layers a node can occupy.
	LMax = 4
)

// Field offsets within a NodeRecord. The vector is placed first so that
// each record's vector data begins on the record's 32-byte boundary,
// matching the distance kernel's preferred (if not required) alignment.
const (
	vectorOffset         = 0
	idOffset             = vectorOffset + Dim*4
	maxLayerOffset       = idOffset + 4
	neighborCountsOffset = maxLayerOffset + 4
	neighborsOffset      = neighborCountsOffset + LMax*4

	recordPayloadSize = neighborsOffset + LMax*MMax0*4

	// RecordSize is the on-disk/in-memory stride of one NodeRecord, padded
	// up to a multiple of 32 bytes.
	RecordSize = ((recordPayloadSize + 31) / 32) * 32
)

// cap returns the neighbor-list capacity for the given layer.
func cap0(layer int) int {
	if layer == 0 {
		return MMax0
	}
	return M
}

// Cap returns the neighbor-list capacity for the given layer: MMax0 at
// layer 0, M above it.
func Cap(layer int) int {
	return cap0(layer)
}

// Node is a view over one record's bytes. It aliases the underlying
// mapped file and must not be retained across a NodeStore.Resize — callers
// obtain a fresh Node via NodeStore.Node(id) after any resize.
type Node struct {
	buf []byte
}

// ID returns the identifier stored in this record.
func (n Node) ID() core.ID {
	return binary.LittleEndian.Uint32(n.buf[idOffset:])
}

// MaxLayer returns the highest layer this node belongs to.
func (n Node) MaxLayer() int {
	return int(binary.LittleEndian.Uint32(n.buf[maxLayerOffset:]))
}

// Vector returns the stored vector. The slice aliases the mapped file;
// callers must not modify it and must not retain it past a resize.
func (n Node) Vector() []float32 {
	return unsafe.Slice((*float32)(unsafe.Pointer(&n.buf[vectorOffset])), Dim)
}

// NeighborCount returns the current populated neighbor count at layer l,
// using an acquire load so a racing AppendNeighbor's release store on the count is
// observed before the corresponding slot data is read.
func (n Node) NeighborCount(layer int) int {
	ptr := (*uint32)(unsafe.Pointer(&n.buf[neighborCountsOffset+layer*4]))
	return int(atomic.LoadUint32(ptr))
}

func (n Node) setNeighborCount(layer, count int) {
	ptr := (*uint32)(unsafe.Pointer(&n.buf[neighborCountsOffset+layer*4]))
	atomic.StoreUint32(ptr, uint32(count))
}

// Neighbor returns the identifier of the index-th neighbor at layer l.
// The caller must ensure index < NeighborCount(layer).
func (n Node) Neighbor(layer, index int) core.ID {
	off := neighborsOffset + layer*MMax0*4 + index*4
	return binary.LittleEndian.Uint32(n.buf[off:])
}

// setNeighbor writes the identifier of the index-th neighbor slot at
// layer l without touching the count; callers update the count separately
// (and after the slot write, so a racing reader that observes the new
// count also observes the new slot — see package storage's locking
// discipline in NodeStore).
func (n Node) setNeighbor(layer, index int, id core.ID) {
	off := neighborsOffset + layer*MMax0*4 + index*4
	binary.LittleEndian.PutUint32(n.buf[off:], id)
}

// Neighbors returns the populated prefix of the neighbor list at layer l
// as a plain slice view, for scanning during beam search or pruning. The
// slice aliases the mapped file; callers must not retain it past a resize
// and must not write through it (it does not carry the release ordering
// that AppendNeighbor/ReplaceNeighbor apply to writes).
func (n Node) Neighbors(layer int) []uint32 {
	count := n.NeighborCount(layer)
	off := neighborsOffset + layer*MMax0*4
	return unsafe.Slice((*uint32)(unsafe.Pointer(&n.buf[off])), count)
}

// Initialize writes a freshly constructed record: identifier, max layer,
// vector payload, and zeroed neighbor counts for every layer up to and
// including maxLayer. vec must have length Dim.
func (n Node) Initialize(id core.ID, maxLayer int, vec []float32) {
	binary.LittleEndian.PutUint32(n.buf[idOffset:], id)
	binary.LittleEndian.PutUint32(n.buf[maxLayerOffset:], uint32(maxLayer))
	copy(n.Vector(), vec)
	for l := 0; l <= maxLayer; l++ {
		n.setNeighborCount(l, 0)
	}
}

// AppendNeighbor appends dest to the neighbor list at layer l if there is
// capacity, writing the slot before incrementing the count (release
// ordering). Returns false if the list is already at capacity, in which
// case the caller (hnsw.addLink) must fall back to the prune path.
func (n Node) AppendNeighbor(layer int, dest core.ID) bool {
	count := n.NeighborCount(layer)
	if count >= cap0(layer) {
		return false
	}
	n.setNeighbor(layer, count, dest)
	n.setNeighborCount(layer, count+1)
	return true
}

// ReplaceNeighbor overwrites the neighbor at the given index with dest.
// Used by the prune path in hnsw.addLink; the count does not change.
func (n Node) ReplaceNeighbor(layer, index int, dest core.ID) {
	n.setNeighbor(layer, index, dest)
}
