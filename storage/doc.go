// Package storage implements the fixed-record, memory-mapped node storage
// that backs the HNSW graph.
//
// The node file has no header: it is a raw array of NodeRecord values, one
// per slot, where slot i occupies byte range [i*RecordSize, (i+1)*RecordSize).
// Identifier i is stored at slot i — the identifier IS the slot index. This
// makes the identifier space sparse-allocated on disk: unused slots between
// the largest and smallest identifier written consume space. Callers are
// expected to allocate identifiers densely from zero; NodeStore does not
// maintain an identifier-to-slot translation table.
//
// Zero-filled regions (from file extension) represent absent nodes. The
// engine never reads an absent node because it only follows identifiers
// that appear in populated neighbor lists, and neighbor lists are only
// ever populated with identifiers of nodes that have already been written.
package storage
