package hnsw

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/lumenvec/hnswdb/core"
	"github.com/lumenvec/hnswdb/distance"
	"github.com/lumenvec/hnswdb/metadata"
	"github.com/lumenvec/hnswdb/storage"
)

// Result is one neighbor returned from Search: its identifier, its
// squared L2 distance to the query, and its most recently saved
// metadata payload (nil if none was saved).
type Result struct {
	ID       core.ID
	Distance float32
	Metadata []byte
}

// scratch holds the per-search working state pooled across calls: the
// visited set, the min-heap of unexplored candidates C, and the bounded
// max-heap of best-so-far results W (spec.md §4.5's search_layer).
// Grounded on the teacher's searcher scratch pool in internal/hnsw, which
// pools the same pair of heaps plus a visited-set buffer across queries.
type scratch struct {
	visited *visitedSet
	c       *candidateHeap
	w       *resultHeap
}

// Index is the HNSW graph over a storage.NodeStore, with side metadata
// in a metadata.Store. It implements the operations of spec.md §4.4-§4.6.
type Index struct {
	nodes *storage.NodeStore
	meta  *metadata.Store
	opts  Options

	levels *levelAssigner

	// entryAndLayer packs the global entry point's identifier (low 32
	// bits) and layer (next 8 bits) into one word, so the "Global entry
	// point race" hazard named in spec.md §9 is resolved with a single
	// CompareAndSwap loop (promoteEntryPoint) instead of the reference's
	// unlocked two-field update.
	entryAndLayer atomic.Uint64

	// count is the number of elements inserted so far; zero means the
	// graph is empty, per spec.md §4.5 step 1 and §4.6's empty-graph
	// search rule.
	count atomic.Int64

	// initMu serializes the empty-graph-to-first-element transition.
	initMu sync.Mutex

	scratchPool sync.Pool

	// insertLimiter bounds InsertBatch's aggregate insert throughput
	// when Options.InsertRateLimit is set; nil means unlimited.
	insertLimiter *rate.Limiter
}

// New constructs an Index over nodes and meta. nodes and meta must
// already be open; the caller retains ownership and is responsible for
// closing them.
func New(nodes *storage.NodeStore, meta *metadata.Store, optFns ...Option) (*Index, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.M != 0 && opts.M != storage.M {
		return nil, &ErrInvalidM{Expected: storage.M, Actual: opts.M}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	nodes.SetGrowthBytes(opts.GrowthBytes)

	idx := &Index{
		nodes:  nodes,
		meta:   meta,
		opts:   opts,
		levels: newLevelAssigner(opts.RandomSeed, opts.PLevel),
	}
	idx.scratchPool.New = func() any {
		return &scratch{
			visited: newVisitedSet(initialVisitedCapacity(nodes)),
			c:       newCandidateHeap(),
			w:       newResultHeap(),
		}
	}
	if opts.InsertRateLimit > 0 {
		burst := int(opts.InsertRateLimit)
		if burst < 1 {
			burst = 1
		}
		idx.insertLimiter = rate.NewLimiter(rate.Limit(opts.InsertRateLimit), burst)
	}
	return idx, nil
}

// minVisitedCapacity floors the visited set's initial allocation for a
// freshly created, still-empty storage.NodeStore.
const minVisitedCapacity = 1024

// initialVisitedCapacity sizes a new scratch's visitedSet from nodes'
// current slot count: that is the largest identifier a search against
// nodes could ever need to mark visited, so it is a better starting
// point than an arbitrary constant. visitedSet still grows past this on
// demand if nodes is resized afterward.
func initialVisitedCapacity(nodes *storage.NodeStore) int {
	if cap := int(nodes.Capacity()); cap > minVisitedCapacity {
		return cap
	}
	return minVisitedCapacity
}

func (idx *Index) getScratch() *scratch {
	return idx.scratchPool.Get().(*scratch)
}

func (idx *Index) putScratch(s *scratch) {
	idx.scratchPool.Put(s)
}

func packEntryLayer(id core.ID, layer int) uint64 {
	return uint64(id) | uint64(uint8(layer))<<32
}

func unpackEntryLayer(v uint64) (core.ID, int) {
	return core.ID(v & 0xffffffff), int(uint8(v >> 32))
}

// Insert adds vector under id, with optional opaque metadata, following
// the eight steps of spec.md §4.5 exactly.
func (idx *Index) Insert(vector []float32, id core.ID, meta []byte) error {
	if len(vector) == 0 {
		return ErrEmptyVector
	}
	if len(vector) != storage.Dim {
		return &ErrDimensionMismatch{Expected: storage.Dim, Actual: len(vector)}
	}
	if idx.opts.MaxID != 0 && id >= idx.opts.MaxID {
		return &ErrIDOutOfRange{ID: uint32(id)}
	}

	level := idx.levels.next()

	if err := idx.nodes.EnsureSlot(id); err != nil {
		return fmt.Errorf("hnsw: grow node storage for id %d: %w", id, err)
	}

	node, release := idx.nodes.Node(id)
	node.Initialize(id, level, vector)
	release()

	if idx.count.Load() == 0 {
		if first, err := idx.tryPublishFirst(id, level, meta); first {
			return err
		}
	}

	entryID, maxLayer := unpackEntryLayer(idx.entryAndLayer.Load())

	startLayer := level
	if maxLayer < startLayer {
		startLayer = maxLayer
	}

	currID, _ := idx.greedyDescend(entryID, vector, maxLayer, startLayer)
	idx.fineLayer(id, vector, startLayer, currID)

	idx.count.Add(1)
	idx.promoteEntryPoint(id, level)

	if len(meta) > 0 {
		if err := idx.meta.Save(id, meta); err != nil {
			return err
		}
	}

	idx.opts.Logger.Debug("hnsw insert", "id", id, "level", level)
	return nil
}

// tryPublishFirst handles spec.md §4.5's empty-graph case: under initMu,
// if the graph is still empty, this element becomes the entry point and
// the function returns (true, err). If another goroutine won the race
// and populated the graph first, it returns (false, nil) so Insert falls
// through to the normal coarse-descent path.
func (idx *Index) tryPublishFirst(id core.ID, level int, meta []byte) (bool, error) {
	idx.initMu.Lock()
	defer idx.initMu.Unlock()

	if idx.count.Load() != 0 {
		return false, nil
	}

	idx.entryAndLayer.Store(packEntryLayer(id, level))
	idx.count.Store(1)

	if len(meta) > 0 {
		if err := idx.meta.Save(id, meta); err != nil {
			return true, err
		}
	}
	idx.opts.Logger.Debug("hnsw insert", "id", id, "level", level, "first", true)
	return true, nil
}

// promoteEntryPoint atomically replaces the global entry point with
// (id, level) if level is strictly above the currently stored layer.
func (idx *Index) promoteEntryPoint(id core.ID, level int) {
	for {
		old := idx.entryAndLayer.Load()
		_, oldLayer := unpackEntryLayer(old)
		if level <= oldLayer {
			return
		}
		next := packEntryLayer(id, level)
		if idx.entryAndLayer.CompareAndSwap(old, next) {
			return
		}
	}
}

// greedyDescend walks from entry down through layers fromLayer..toLayer+1
// (exclusive of toLayer), moving to a strictly closer neighbor at each
// layer until none improves, per spec.md §4.5 step 5 / §4.6's search
// descent. Grounded on the teacher's internal/hnsw.greedySearch.
func (idx *Index) greedyDescend(entry core.ID, query []float32, fromLayer, toLayer int) (core.ID, float32) {
	curr := entry
	currDist := idx.distanceTo(query, curr)

	for l := fromLayer; l > toLayer; l-- {
		for {
			improved := false
			for _, n := range idx.neighborsOf(curr, l) {
				d := idx.distanceTo(query, n)
				if d < currDist {
					curr = n
					currDist = d
					improved = true
				}
			}
			if !improved {
				break
			}
		}
	}
	return curr, currDist
}

// fineLayer runs spec.md §4.5 step 6: for each layer from startLayer down
// to 0, beam search for ef_construction candidates, select the nearest
// up to the layer's degree cap, link bidirectionally, and descend the
// entry point to the nearest selected neighbor.
func (idx *Index) fineLayer(id core.ID, vector []float32, startLayer int, currID core.ID) {
	sc := idx.getScratch()
	defer idx.putScratch(sc)

	for l := startLayer; l >= 0; l-- {
		entryDist := idx.distanceTo(vector, currID)
		w := idx.searchLayerScratch(sc, currID, entryDist, vector, l, idx.opts.EFConstruction)
		neighbors := selectNearest(w, storage.Cap(l))

		if len(neighbors) > 0 {
			currID = neighbors[0].id
		}

		for _, n := range neighbors {
			idx.addLink(id, n.id, l)
			idx.addLink(n.id, id, l)
		}
	}
}

// searchLayerScratch implements spec.md §4.5's search_layer beam search,
// reusing sc's heaps and visited set. Returns sc.w, which the caller must
// finish consuming before the scratch is returned to the pool.
func (idx *Index) searchLayerScratch(sc *scratch, entry core.ID, entryDist float32, query []float32, layer, ef int) *resultHeap {
	sc.visited.Reset()
	sc.c.Reset()
	sc.w.Reset()

	sc.visited.Visit(entry)
	sc.c.Push(queueItem{id: entry, dist: entryDist})
	sc.w.Offer(queueItem{id: entry, dist: entryDist}, ef)

	for sc.c.Len() > 0 {
		c, _ := sc.c.Pop()

		if sc.w.Len() >= ef {
			worst, _ := sc.w.Worst()
			if c.dist > worst.dist {
				break
			}
		}

		for _, n := range idx.neighborsOf(c.id, layer) {
			if sc.visited.Visited(n) {
				continue
			}
			sc.visited.Visit(n)
			d := idx.distanceTo(query, n)

			if sc.w.Offer(queueItem{id: n, dist: d}, ef) {
				sc.c.Push(queueItem{id: n, dist: d})
			}
		}
	}
	return sc.w
}

// selectNearest drains w into nearest-first order and truncates to m:
// spec.md §4.5's plain nearest-first neighbor selection, not the
// relative-neighborhood heuristic the teacher offers as an alternative.
func selectNearest(w *resultHeap, m int) []queueItem {
	all := w.Drain()
	if len(all) > m {
		all = all[:m]
	}
	return all
}

// addLink links src -> dest at layer, appending if there is room or
// pruning the farthest existing neighbor if dest is closer, per spec.md
// §4.5 step 6c / §4.6's add_link. The per-node spinlock serializes
// concurrent addLink calls targeting the same src.
func (idx *Index) addLink(src, dest core.ID, layer int) {
	unlock := idx.nodes.LockNode(src)
	defer unlock()

	if idx.tryAppend(src, dest, layer) {
		return
	}

	srcVec := idx.vectorCopy(src)
	destVec := idx.vectorCopy(dest)
	destDist := distance.SquaredL2(srcVec, destVec)

	_, neighbors := idx.neighborSnapshot(src, layer)

	worstIdx, worstDist := -1, float32(-1)
	for i, nb := range neighbors {
		nbVec := idx.vectorCopy(nb)
		d := distance.SquaredL2(srcVec, nbVec)
		if d > worstDist {
			worstDist = d
			worstIdx = i
		}
	}

	if worstIdx >= 0 && destDist < worstDist {
		idx.replaceNeighbor(src, layer, worstIdx, dest)
	}
}

func (idx *Index) tryAppend(src, dest core.ID, layer int) bool {
	node, release := idx.nodes.Node(src)
	defer release()
	return node.AppendNeighbor(layer, dest)
}

func (idx *Index) replaceNeighbor(src core.ID, layer, index int, dest core.ID) {
	node, release := idx.nodes.Node(src)
	defer release()
	node.ReplaceNeighbor(layer, index, dest)
}

// distanceTo and neighborsOf each take exactly one NodeStore.Node view at
// a time and release it before returning, so no two calls ever nest a
// second rmu.RLock under a live first one on the same goroutine.

func (idx *Index) distanceTo(query []float32, id core.ID) float32 {
	node, release := idx.nodes.Node(id)
	d := distance.SquaredL2(query, node.Vector())
	release()
	return d
}

func (idx *Index) neighborsOf(id core.ID, layer int) []core.ID {
	node, release := idx.nodes.Node(id)
	raw := node.Neighbors(layer)
	out := make([]core.ID, len(raw))
	copy(out, raw)
	release()
	return out
}

func (idx *Index) vectorCopy(id core.ID) []float32 {
	node, release := idx.nodes.Node(id)
	v := make([]float32, storage.Dim)
	copy(v, node.Vector())
	release()
	return v
}

func (idx *Index) neighborSnapshot(id core.ID, layer int) (int, []core.ID) {
	node, release := idx.nodes.Node(id)
	raw := node.Neighbors(layer)
	out := make([]core.ID, len(raw))
	copy(out, raw)
	release()
	return len(out), out
}

// Search returns up to k nearest neighbors of query, following spec.md
// §4.6: empty-graph check, greedy descent to layer 0, a layer-0 beam
// search with ef_search = max(EFSearchMin, k), then truncation and
// metadata enrichment.
func (idx *Index) Search(query []float32, k int) ([]Result, error) {
	if len(query) == 0 {
		return nil, ErrEmptyVector
	}
	if len(query) != storage.Dim {
		return nil, &ErrDimensionMismatch{Expected: storage.Dim, Actual: len(query)}
	}
	if k <= 0 || idx.count.Load() == 0 {
		return nil, nil
	}

	entryID, maxLayer := unpackEntryLayer(idx.entryAndLayer.Load())
	currID, currDist := idx.greedyDescend(entryID, query, maxLayer, 0)

	efSearch := idx.opts.EFSearchMin
	if k > efSearch {
		efSearch = k
	}

	sc := idx.getScratch()
	w := idx.searchLayerScratch(sc, currID, currDist, query, 0, efSearch)
	all := w.Drain()
	idx.putScratch(sc)

	if len(all) > k {
		all = all[:k]
	}

	results := make([]Result, len(all))
	for i, item := range all {
		payload, err := idx.meta.Get(item.id)
		if err != nil {
			return nil, err
		}
		results[i] = Result{ID: item.id, Distance: item.dist, Metadata: payload}
	}

	idx.opts.Logger.Debug("hnsw search", "k", k, "found", len(results))
	return results, nil
}

// GetMetadata returns the most recently saved metadata payload for id, or
// nil if none was saved.
func (idx *Index) GetMetadata(id core.ID) ([]byte, error) {
	return idx.meta.Get(id)
}

// Len returns the number of elements inserted so far.
func (idx *Index) Len() int64 {
	return idx.count.Load()
}
