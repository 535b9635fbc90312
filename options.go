package hnswdb

import (
	"github.com/lumenvec/hnswdb/core"
	"github.com/lumenvec/hnswdb/hnsw"
	"github.com/lumenvec/hnswdb/storage"
)

// options configures Open, generalized from the teacher's options.go
// functional-option surface down to this domain's knobs.
type options struct {
	minBytes        int64
	m               int
	efConstruct     int
	efSearchMin     int
	growthBytes     int64
	logger          *Logger
	randomSeed      uint64
	maxID           core.ID
	insertRateLimit float64
}

func defaultOptions() options {
	return options{
		minBytes:    storage.RecordSize * 1024,
		m:           storage.M,
		efConstruct: hnsw.DefaultEFConstruction,
		efSearchMin: hnsw.DefaultEFSearchMin,
		growthBytes: storage.DefaultGrowthBytes,
	}
}

// Option mutates Open's configuration.
type Option func(*options)

// WithMinBytes overrides the initial size the node file is grown to on Open.
func WithMinBytes(n int64) Option {
	return func(o *options) { o.minBytes = n }
}

// WithM validates the caller's expected target degree against the
// compile-time storage.M baked into the node record layout.
func WithM(m int) Option {
	return func(o *options) { o.m = m }
}

// WithEFConstruction overrides the insert-time beam width.
func WithEFConstruction(ef int) Option {
	return func(o *options) { o.efConstruct = ef }
}

// WithEFSearch overrides the floor on the search-time beam width.
func WithEFSearch(ef int) Option {
	return func(o *options) { o.efSearchMin = ef }
}

// WithGrowthBytes overrides the additive node-file growth increment.
func WithGrowthBytes(n int64) Option {
	return func(o *options) { o.growthBytes = n }
}

// WithLogger overrides the structured logger used for insert/search/
// batch-insert/recovery records.
func WithLogger(l *Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRandomSeed pins the level-assignment RNG seed for deterministic tests.
func WithRandomSeed(seed uint64) Option {
	return func(o *options) { o.randomSeed = seed }
}

// WithMaxID sets the configured identifier range: Insert rejects any id
// at or beyond limit with ErrIDOutOfRange. Zero (the default) leaves
// the range unlimited.
func WithMaxID(limit uint32) Option {
	return func(o *options) { o.maxID = core.ID(limit) }
}

// WithInsertRateLimit bounds InsertBatch's aggregate insert throughput
// to n inserts per second. Zero (the default) leaves it unlimited.
func WithInsertRateLimit(n float64) Option {
	return func(o *options) { o.insertRateLimit = n }
}
