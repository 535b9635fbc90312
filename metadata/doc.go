// Package metadata implements the append-only side-store for
// per-identifier metadata payloads (spec.md §4.3).
//
// The store is a sequence of (uint32 length, length bytes) records in the
// order they were appended. On Open, the store scans the file from the
// start and builds an in-memory offset table assuming records were
// written in strictly increasing identifier order starting at zero — the
// same coupling of append order to identifier that spec.md §9
// ("Metadata identifier recovery") documents as a known limitation and
// that this implementation preserves rather than fixes, per DESIGN.md's
// Open Question resolution.
//
// The store is a side-channel: the HNSW engine never dereferences
// metadata during graph traversal.
package metadata
