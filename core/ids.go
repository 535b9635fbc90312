// Package core defines the identifier types shared across the index.
package core

// ID is the caller-supplied external identifier for a vector.
//
// It doubles as the slot index into the node storage file: the record
// for ID i lives at byte offset i*sizeof(NodeRecord). Callers are
// expected to allocate IDs densely from zero; the identifier space is
// otherwise sparse-allocated on disk (see storage.NodeStore).
type ID = uint32
