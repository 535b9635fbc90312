package hnsw

import (
	"log/slog"

	"github.com/lumenvec/hnswdb/core"
	"github.com/lumenvec/hnswdb/storage"
)

// Defaults for the hyperparameters named in spec.md §6.
const (
	DefaultEFConstruction = 200
	DefaultEFSearchMin    = 100
	DefaultPLevel         = 0.03
)

// Options configures a New Index. Unset fields take the defaults named in
// spec.md §6; the fields mirror the teacher's options.go functional-option
// surface (WithCodec/WithNumShards/WithWAL generalized to this domain's
// WithM/WithEFConstruction/WithEFSearchMin/WithLogger/WithGrowthBytes).
type Options struct {
	// M, if non-zero, is validated against storage.M: the target degree
	// is a compile-time constant baked into the NodeRecord layout (spec.md
	// §3), so this option cannot retune it — it exists to catch a caller
	// that was built against a different storage.M at construction time,
	// the same role hnsw.Options.Dimension validation plays in the
	// teacher's New().
	M int

	// EFConstruction is the beam width used during insert (spec.md §4.5
	// step 6a). Default DefaultEFConstruction.
	EFConstruction int

	// EFSearchMin is the floor on the beam width used during search:
	// ef_search = max(EFSearchMin, k), per spec.md §6. Default
	// DefaultEFSearchMin.
	EFSearchMin int

	// PLevel is the per-step probability of climbing a level during level
	// assignment (spec.md §4.4). Default DefaultPLevel. Implementations
	// must not change this without recomputing expected recall, per
	// spec.md §4.4 — exposed as an option only so tests can pin a
	// deterministic distribution, not for production tuning.
	PLevel float64

	// GrowthBytes is the additive growth increment applied to the node
	// file when a new identifier needs a slot beyond the current mapping
	// (spec.md §4.5 step 2). Default storage.DefaultGrowthBytes.
	GrowthBytes int64

	// Logger receives structured records for insert/search/batch-insert
	// operations. Default slog.Default().
	Logger *slog.Logger

	// RandomSeed seeds the lock-free per-call level-assignment RNG. Zero
	// selects a time-derived seed; set for deterministic tests.
	RandomSeed uint64

	// MaxID, if non-zero, is the configured identifier range named in
	// spec.md §7 ("identifier out of the configured range"): Insert
	// rejects any id >= MaxID with ErrIDOutOfRange. Zero means unlimited
	// (the full uint32 identifier space), the default.
	MaxID core.ID

	// InsertRateLimit, if non-zero, bounds InsertBatch's aggregate
	// insert throughput to this many inserts per second, the same
	// IO-throttling concern as the teacher's resource.Controller
	// applies to background IO. Zero means unlimited, the default.
	InsertRateLimit float64
}

// DefaultOptions holds the reference-configuration hyperparameters from
// spec.md §6.
var DefaultOptions = Options{
	M:              storage.M,
	EFConstruction: DefaultEFConstruction,
	EFSearchMin:    DefaultEFSearchMin,
	PLevel:         DefaultPLevel,
	GrowthBytes:    storage.DefaultGrowthBytes,
}

// Option mutates an Options value during New.
type Option func(*Options)

// WithM validates the caller's expected target degree against the
// compile-time storage.M baked into the node record layout.
func WithM(m int) Option {
	return func(o *Options) { o.M = m }
}

// WithEFConstruction overrides the insert-time beam width.
func WithEFConstruction(ef int) Option {
	return func(o *Options) { o.EFConstruction = ef }
}

// WithEFSearchMin overrides the floor on the search-time beam width.
func WithEFSearchMin(ef int) Option {
	return func(o *Options) { o.EFSearchMin = ef }
}

// WithGrowthBytes overrides the additive node-file growth increment.
func WithGrowthBytes(n int64) Option {
	return func(o *Options) { o.GrowthBytes = n }
}

// WithLogger overrides the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithRandomSeed pins the level-assignment RNG seed for deterministic tests.
func WithRandomSeed(seed uint64) Option {
	return func(o *Options) { o.RandomSeed = seed }
}

// WithMaxID sets the configured identifier range: Insert rejects any id
// at or beyond limit with ErrIDOutOfRange. Zero (the default) leaves
// the range unlimited.
func WithMaxID(limit core.ID) Option {
	return func(o *Options) { o.MaxID = limit }
}

// WithInsertRateLimit bounds InsertBatch's aggregate insert throughput
// to n inserts per second. Zero (the default) leaves it unlimited.
func WithInsertRateLimit(n float64) Option {
	return func(o *Options) { o.InsertRateLimit = n }
}
