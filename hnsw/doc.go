// Package hnsw implements the Hierarchical Navigable Small World graph
// described in spec.md §4.4-§4.6: level assignment, insert, search,
// beam search, and bidirectional link insertion with pruning, over the
// fixed-record storage.NodeStore.
package hnsw
