package hnsw

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenvec/hnswdb/core"
	"github.com/lumenvec/hnswdb/distance"
	"github.com/lumenvec/hnswdb/storage"
)

func randomVector(rng *xorshiftRNG) []float32 {
	v := make([]float32, storage.Dim)
	for i := range v {
		v[i] = float32(rng.next())
	}
	return v
}

// xorshiftRNG is a tiny deterministic generator for test vectors only;
// it has no relation to the production level-assignment RNG.
type xorshiftRNG struct{ state uint64 }

func (r *xorshiftRNG) next() float64 {
	r.state ^= r.state << 13
	r.state ^= r.state >> 7
	r.state ^= r.state << 17
	if r.state == 0 {
		r.state = 0x9E3779B97F4A7C15
	}
	return float64(r.state%10000) / 10000
}

// Invariant 1 (spec.md §8): for every node n and layer l <= n.max_layer,
// n.neighbor_counts[l] <= cap(l).
func TestInvariant_NeighborCountsNeverExceedCap(t *testing.T) {
	idx := newTestIndex(t)
	rng := &xorshiftRNG{state: 1}

	const n = 300
	for i := 0; i < n; i++ {
		require.NoError(t, idx.Insert(randomVector(rng), core.ID(i), nil))
	}

	for i := core.ID(0); i < n; i++ {
		node, release := idx.nodes.Node(i)
		maxLayer := node.MaxLayer()
		for l := 0; l <= maxLayer; l++ {
			assert.LessOrEqual(t, node.NeighborCount(l), storage.Cap(l))
		}
		release()
	}
}

// Invariant 2 (spec.md §8): every identifier appearing in any neighbor
// list has a written node record (its id was passed to Insert).
func TestInvariant_EveryNeighborIsAWrittenNode(t *testing.T) {
	idx := newTestIndex(t)
	rng := &xorshiftRNG{state: 2}

	const n = 300
	written := make(map[core.ID]bool, n)
	for i := 0; i < n; i++ {
		require.NoError(t, idx.Insert(randomVector(rng), core.ID(i), nil))
		written[core.ID(i)] = true
	}

	for i := core.ID(0); i < n; i++ {
		node, release := idx.nodes.Node(i)
		maxLayer := node.MaxLayer()
		for l := 0; l <= maxLayer; l++ {
			for _, nb := range node.Neighbors(l) {
				assert.True(t, written[nb], "neighbor %d at layer %d of node %d was never written", nb, l, i)
			}
		}
		release()
	}
}

// Invariant 3 (spec.md §8): a single-threaded sequence of inserts
// followed by a search returns results ordered by non-decreasing
// distance.
func TestInvariant_SearchResultsAreNonDecreasingByDistance(t *testing.T) {
	idx := newTestIndex(t)
	rng := &xorshiftRNG{state: 3}

	const n = 200
	for i := 0; i < n; i++ {
		require.NoError(t, idx.Insert(randomVector(rng), core.ID(i), nil))
	}

	query := randomVector(rng)
	results, err := idx.Search(query, 20)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i-1].Distance, results[i].Distance)
	}
}

// Round-trip law (spec.md §8): for a small graph, top-1 recall against
// brute force must exceed 0.95 at the default hyperparameters.
func TestRecall_Top1MatchesBruteForceAboveThreshold(t *testing.T) {
	idx := newTestIndex(t)
	rng := &xorshiftRNG{state: 4}

	const n = 1000
	vectors := make([][]float32, n)
	for i := 0; i < n; i++ {
		v := randomVector(rng)
		vectors[i] = v
		require.NoError(t, idx.Insert(v, core.ID(i), nil))
	}

	const queries = 100
	matches := 0
	for q := 0; q < queries; q++ {
		query := randomVector(rng)

		bestID, bestDist := 0, float32(math.MaxFloat32)
		for i, v := range vectors {
			d := distance.SquaredL2(query, v)
			if d < bestDist {
				bestDist = d
				bestID = i
			}
		}

		results, err := idx.Search(query, 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		if int(results[0].ID) == bestID {
			matches++
		}
	}

	recall := float64(matches) / float64(queries)
	assert.Greater(t, recall, 0.95, "top-1 recall %.2f below threshold", recall)
}
