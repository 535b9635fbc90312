package hnsw

import "github.com/lumenvec/hnswdb/core"

// queueItem is one (identifier, distance) entry in a search heap.
type queueItem struct {
	id   core.ID
	dist float32
}

// candidateHeap is the unbounded min-heap C of unexplored candidates in
// spec.md §4.5's beam search: Pop always returns the closest remaining
// candidate. Grounded on the comparison/swap shape of the teacher's
// internal/searcher.PriorityQueue, split out of that one generic
// min-or-max class into a heap whose direction is fixed rather than
// carried as an isMaxHeap flag, since C is never anything but a
// min-heap here.
type candidateHeap struct {
	items []queueItem
}

func newCandidateHeap() *candidateHeap {
	return &candidateHeap{items: make([]queueItem, 0, 16)}
}

func (h *candidateHeap) Len() int { return len(h.items) }

func (h *candidateHeap) Reset() { h.items = h.items[:0] }

func (h *candidateHeap) Push(item queueItem) {
	h.items = append(h.items, item)
	i := len(h.items) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if h.items[i].dist >= h.items[parent].dist {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *candidateHeap) Pop() (queueItem, bool) {
	n := len(h.items)
	if n == 0 {
		return queueItem{}, false
	}
	item := h.items[0]
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	h.siftDown(0)
	return item, true
}

func (h *candidateHeap) siftDown(i int) {
	n := len(h.items)
	for {
		left := 2*i + 1
		if left >= n {
			break
		}
		child := left
		if right := left + 1; right < n && h.items[right].dist < h.items[left].dist {
			child = right
		}
		if h.items[child].dist >= h.items[i].dist {
			break
		}
		h.items[i], h.items[child] = h.items[child], h.items[i]
		i = child
	}
}

// resultHeap is the bounded max-heap W of the best ef results seen so
// far in spec.md §4.5's beam search. Unlike the teacher's PriorityQueue,
// which exposes a generic Push plus a separate PushBounded for this
// exact case, resultHeap has only one entry point, Offer, that folds
// "push, then evict the farthest result if now over capacity" into a
// single bound-and-replace step, matching how searchLayerScratch
// actually drives W.
type resultHeap struct {
	items []queueItem
}

func newResultHeap() *resultHeap {
	return &resultHeap{items: make([]queueItem, 0, 16)}
}

func (h *resultHeap) Len() int { return len(h.items) }

func (h *resultHeap) Reset() { h.items = h.items[:0] }

// Worst returns the farthest result currently held, the heap root.
func (h *resultHeap) Worst() (queueItem, bool) {
	if len(h.items) == 0 {
		return queueItem{}, false
	}
	return h.items[0], true
}

// Offer admits item if there is room under capacity, or if item is
// closer than the current farthest result, replacing it. Reports
// whether item was admitted, so the caller can skip expanding
// candidates that W already rejected.
func (h *resultHeap) Offer(item queueItem, capacity int) bool {
	if len(h.items) < capacity {
		h.push(item)
		return true
	}
	if len(h.items) == 0 || item.dist >= h.items[0].dist {
		return false
	}
	h.items[0] = item
	h.siftDown(0)
	return true
}

func (h *resultHeap) push(item queueItem) {
	h.items = append(h.items, item)
	i := len(h.items) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if h.items[i].dist <= h.items[parent].dist {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *resultHeap) pop() (queueItem, bool) {
	n := len(h.items)
	if n == 0 {
		return queueItem{}, false
	}
	item := h.items[0]
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	h.siftDown(0)
	return item, true
}

func (h *resultHeap) siftDown(i int) {
	n := len(h.items)
	for {
		left := 2*i + 1
		if left >= n {
			break
		}
		child := left
		if right := left + 1; right < n && h.items[right].dist > h.items[left].dist {
			child = right
		}
		if h.items[child].dist <= h.items[i].dist {
			break
		}
		h.items[i], h.items[child] = h.items[child], h.items[i]
		i = child
	}
}

// Drain empties the heap in nearest-first order, leaving it at length
// zero, for spec.md §4.5's neighbor selection and §4.6's result
// truncation, both of which want the closest items first.
func (h *resultHeap) Drain() []queueItem {
	out := make([]queueItem, len(h.items))
	for i := len(out) - 1; i >= 0; i-- {
		item, _ := h.pop()
		out[i] = item
	}
	return out
}
