// Package hnswdb is the public façade over the embeddable HNSW vector
// index: memory-mapped fixed-record node storage, an append-only
// metadata side-store, and the HNSW graph engine that sits above both.
//
// Grounded on the teacher's root-package façade (vecgo.Open combining
// its engine/index/persistence subpackages) generalized to this
// module's three-package split.
package hnswdb

import (
	"context"
	"fmt"

	"github.com/lumenvec/hnswdb/core"
	"github.com/lumenvec/hnswdb/hnsw"
	"github.com/lumenvec/hnswdb/metadata"
	"github.com/lumenvec/hnswdb/storage"
)

// OpenStorage opens or creates the memory-mapped node file at path,
// growing it to at least minBytes.
func OpenStorage(path string, minBytes int64) (*storage.NodeStore, error) {
	store, err := storage.Open(path, minBytes, 0)
	if err != nil {
		return nil, fmt.Errorf("hnswdb: open node storage %s: %w", path, err)
	}
	return store, nil
}

// OpenMetadata opens or creates the append-only metadata file at path.
func OpenMetadata(path string) (*metadata.Store, error) {
	store, err := metadata.Open(path)
	if err != nil {
		return nil, fmt.Errorf("hnswdb: open metadata store %s: %w", path, err)
	}
	return store, nil
}

// NewIndex constructs an hnsw.Index over nodes and meta.
func NewIndex(nodes *storage.NodeStore, meta *metadata.Store, opts ...Option) (*hnsw.Index, error) {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = NewLogger(nil)
	}

	idx, err := hnsw.New(nodes, meta,
		hnsw.WithM(o.m),
		hnsw.WithEFConstruction(o.efConstruct),
		hnsw.WithEFSearchMin(o.efSearchMin),
		hnsw.WithGrowthBytes(o.growthBytes),
		hnsw.WithLogger(logger.Logger),
		hnsw.WithRandomSeed(o.randomSeed),
		hnsw.WithMaxID(o.maxID),
		hnsw.WithInsertRateLimit(o.insertRateLimit),
	)
	if err != nil {
		return nil, translateError(err)
	}
	return idx, nil
}

// Index is the combined façade over node storage, metadata, and the
// HNSW graph, returned by Open. Close releases the underlying files.
type Index struct {
	*hnsw.Index

	nodes  *storage.NodeStore
	meta   *metadata.Store
	logger *Logger
}

// Open opens or creates the node file at nodePath and the metadata file
// at metaPath, and constructs an Index over them.
func Open(nodePath, metaPath string, opts ...Option) (*Index, error) {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = NewLogger(nil)
	}

	nodes, err := OpenStorage(nodePath, o.minBytes)
	if err != nil {
		return nil, err
	}

	meta, err := OpenMetadata(metaPath)
	if err != nil {
		_ = nodes.Close()
		return nil, err
	}

	engine, err := NewIndex(nodes, meta, opts...)
	if err != nil {
		_ = nodes.Close()
		_ = meta.Close()
		return nil, err
	}

	logger.LogRecovery(context.Background(), int(engine.Len()), nil)

	return &Index{Index: engine, nodes: nodes, meta: meta, logger: logger}, nil
}

// Insert adds vector under id, with optional opaque metadata, logging
// the outcome through the façade's Logger before returning.
func (ix *Index) Insert(vector []float32, id core.ID, meta []byte) error {
	err := ix.Index.Insert(vector, id, meta)
	ix.logger.LogInsert(context.Background(), id, err)
	return translateError(err)
}

// InsertBatch inserts items concurrently, logging the outcome through
// the façade's Logger before returning.
func (ix *Index) InsertBatch(items []hnsw.Item) error {
	err := ix.Index.InsertBatch(items)
	ix.logger.LogBatchInsert(context.Background(), len(items), err)
	return translateError(err)
}

// Search returns up to k nearest neighbors of query, logging the
// outcome through the façade's Logger before returning.
func (ix *Index) Search(query []float32, k int) ([]hnsw.Result, error) {
	if k < 0 {
		err := &ErrInvalidK{K: k}
		ix.logger.LogSearch(context.Background(), k, 0, err)
		return nil, err
	}
	results, err := ix.Index.Search(query, k)
	ix.logger.LogSearch(context.Background(), k, len(results), err)
	return results, translateError(err)
}

// Close closes the underlying node and metadata files.
func (ix *Index) Close() error {
	nodeErr := ix.nodes.Close()
	metaErr := ix.meta.Close()
	if nodeErr != nil {
		return fmt.Errorf("hnswdb: close node storage: %w", nodeErr)
	}
	if metaErr != nil {
		return fmt.Errorf("hnswdb: close metadata store: %w", metaErr)
	}
	return nil
}
