package hnsw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenvec/hnswdb/core"
)

func TestCandidateHeap_PopsClosestFirst(t *testing.T) {
	h := newCandidateHeap()
	h.Push(queueItem{id: 1, dist: 5})
	h.Push(queueItem{id: 2, dist: 1})
	h.Push(queueItem{id: 3, dist: 3})

	item, ok := h.Pop()
	require.True(t, ok)
	assert.Equal(t, core.ID(2), item.id)

	item, ok = h.Pop()
	require.True(t, ok)
	assert.Equal(t, core.ID(3), item.id)

	item, ok = h.Pop()
	require.True(t, ok)
	assert.Equal(t, core.ID(1), item.id)

	_, ok = h.Pop()
	assert.False(t, ok)
}

func TestCandidateHeap_Reset(t *testing.T) {
	h := newCandidateHeap()
	h.Push(queueItem{id: 1, dist: 1})
	h.Reset()
	assert.Equal(t, 0, h.Len())
	_, ok := h.Pop()
	assert.False(t, ok)
}

func TestResultHeap_OfferFillsUpToCapacity(t *testing.T) {
	h := newResultHeap()
	assert.True(t, h.Offer(queueItem{id: 1, dist: 5}, 2))
	assert.True(t, h.Offer(queueItem{id: 2, dist: 3}, 2))
	require.Equal(t, 2, h.Len())

	worst, ok := h.Worst()
	require.True(t, ok)
	assert.Equal(t, core.ID(1), worst.id)
}

func TestResultHeap_OfferReplacesWorstWhenFull(t *testing.T) {
	h := newResultHeap()
	h.Offer(queueItem{id: 1, dist: 5}, 2)
	h.Offer(queueItem{id: 2, dist: 3}, 2)

	// A better candidate should displace the current worst (id 1, dist 5).
	admitted := h.Offer(queueItem{id: 3, dist: 1}, 2)
	assert.True(t, admitted)
	assert.Equal(t, 2, h.Len())

	worst, _ := h.Worst()
	assert.Equal(t, core.ID(2), worst.id)
}

func TestResultHeap_OfferRejectsWorseThanFullWorst(t *testing.T) {
	h := newResultHeap()
	h.Offer(queueItem{id: 1, dist: 5}, 2)
	h.Offer(queueItem{id: 2, dist: 3}, 2)

	admitted := h.Offer(queueItem{id: 4, dist: 100}, 2)
	assert.False(t, admitted)
	assert.Equal(t, 2, h.Len())

	worst, _ := h.Worst()
	assert.Equal(t, core.ID(1), worst.id)
}

func TestResultHeap_DrainReturnsNearestFirstAndEmptiesHeap(t *testing.T) {
	h := newResultHeap()
	h.Offer(queueItem{id: 1, dist: 5}, 3)
	h.Offer(queueItem{id: 2, dist: 1}, 3)
	h.Offer(queueItem{id: 3, dist: 3}, 3)

	drained := h.Drain()
	require.Len(t, drained, 3)
	assert.Equal(t, core.ID(2), drained[0].id)
	assert.Equal(t, core.ID(3), drained[1].id)
	assert.Equal(t, core.ID(1), drained[2].id)
	assert.Equal(t, 0, h.Len())
}

func TestResultHeap_Reset(t *testing.T) {
	h := newResultHeap()
	h.Offer(queueItem{id: 1, dist: 1}, 2)
	h.Reset()
	assert.Equal(t, 0, h.Len())
	_, ok := h.Worst()
	assert.False(t, ok)
}
