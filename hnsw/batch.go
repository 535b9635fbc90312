package hnsw

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/lumenvec/hnswdb/core"
)

// Item is one (vector, identifier, metadata) tuple for InsertBatch.
type Item struct {
	Vector   []float32
	ID       core.ID
	Metadata []byte
}

// InsertBatch inserts items using the work-sharing parallel-for spec.md
// §5 names for batch insertion: a fixed pool of runtime.GOMAXPROCS(0)
// workers pulling from a shared index counter, so a worker that finishes
// its share early steals more rather than idling. Grounded on the
// teacher's errgroup.Group-based shard fan-out pattern, bounded with
// SetLimit instead of a fixed channel of shard indices since items here
// share no partitioning key. If Options.InsertRateLimit is set, every
// worker waits on the same rate.Limiter before each insert, the same
// IO-throttling role the teacher's resource.Controller.AcquireIO plays
// around background work.
func (idx *Index) InsertBatch(items []Item) error {
	if len(items) == 0 {
		return nil
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(items) {
		workers = len(items)
	}

	var g errgroup.Group
	g.SetLimit(workers)

	var next atomic.Int64
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				i := int(next.Add(1) - 1)
				if i >= len(items) {
					return nil
				}
				if idx.insertLimiter != nil {
					if err := idx.insertLimiter.Wait(context.Background()); err != nil {
						return err
					}
				}
				item := items[i]
				if err := idx.Insert(item.Vector, item.ID, item.Metadata); err != nil {
					return err
				}
			}
		})
	}

	err := g.Wait()
	idx.opts.Logger.Debug("hnsw batch insert", "count", len(items))
	return err
}
