package hnsw

import (
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenvec/hnswdb/core"
	"github.com/lumenvec/hnswdb/distance"
	"github.com/lumenvec/hnswdb/metadata"
	"github.com/lumenvec/hnswdb/storage"
)

func newTestIndex(t *testing.T, optFns ...Option) *Index {
	t.Helper()
	dir := t.TempDir()

	nodes, err := storage.Open(filepath.Join(dir, "nodes.db"), storage.RecordSize*16, storage.RecordSize*16)
	require.NoError(t, err)
	t.Cleanup(func() { _ = nodes.Close() })

	meta, err := metadata.Open(filepath.Join(dir, "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = meta.Close() })

	idx, err := New(nodes, meta, optFns...)
	require.NoError(t, err)
	return idx
}

func vec(fill float32) []float32 {
	v := make([]float32, storage.Dim)
	for i := range v {
		v[i] = fill
	}
	return v
}

// dimVec returns a vector that is all zero except one distinguishing
// dimension, so distances between distinct ids are well separated.
func dimVec(dim int, value float32) []float32 {
	v := make([]float32, storage.Dim)
	v[dim%storage.Dim] = value
	return v
}

func TestIndex_Insert_FirstElementBecomesEntryPoint(t *testing.T) {
	idx := newTestIndex(t)

	require.NoError(t, idx.Insert(vec(1), 0, nil))
	assert.EqualValues(t, 1, idx.Len())

	entryID, _ := unpackEntryLayer(idx.entryAndLayer.Load())
	assert.EqualValues(t, 0, entryID)
}

// S1 — identity retrieval: search with the exact inserted vector returns
// that same identifier with distance zero.
func TestIndex_Search_IdentityRetrieval(t *testing.T) {
	idx := newTestIndex(t)

	for i := core.ID(0); i < 20; i++ {
		require.NoError(t, idx.Insert(dimVec(int(i), float32(i+1)), i, nil))
	}

	results, err := idx.Search(dimVec(7, 8), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.EqualValues(t, 7, results[0].ID)
	assert.InDelta(t, 0, results[0].Distance, 1e-6)
}

// S6 — searching an empty graph returns no results and no error.
func TestIndex_Search_EmptyGraph(t *testing.T) {
	idx := newTestIndex(t)

	results, err := idx.Search(vec(1), 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIndex_Search_RejectsWrongDimension(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Insert(vec(1), 0, nil))

	_, err := idx.Search(make([]float32, storage.Dim-1), 1)
	require.Error(t, err)
	var dimErr *ErrDimensionMismatch
	assert.ErrorAs(t, err, &dimErr)
}

func TestIndex_Insert_RejectsWrongDimension(t *testing.T) {
	idx := newTestIndex(t)

	err := idx.Insert(make([]float32, storage.Dim+1), 0, nil)
	require.Error(t, err)
	var dimErr *ErrDimensionMismatch
	assert.ErrorAs(t, err, &dimErr)
}

// S3 — a sparse, far-apart identifier forces storage growth well beyond
// the initial mapping.
func TestIndex_Insert_SparseIdentifierGrowsStorage(t *testing.T) {
	idx := newTestIndex(t)

	require.NoError(t, idx.Insert(vec(1), 0, nil))
	bigID := core.ID(100000)
	require.NoError(t, idx.Insert(vec(2), bigID, nil))

	results, err := idx.Search(vec(2), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, bigID, results[0].ID)
}

func TestIndex_GetMetadata_RoundTrips(t *testing.T) {
	idx := newTestIndex(t)

	require.NoError(t, idx.Insert(vec(1), 0, []byte("hello")))
	require.NoError(t, idx.Insert(vec(2), 1, nil))

	payload, err := idx.GetMetadata(0)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), payload)

	payload, err = idx.GetMetadata(1)
	require.NoError(t, err)
	assert.Empty(t, payload)
}

func TestIndex_Search_ResultsIncludeMetadata(t *testing.T) {
	idx := newTestIndex(t)

	require.NoError(t, idx.Insert(dimVec(0, 5), 0, []byte("zero")))
	require.NoError(t, idx.Insert(dimVec(1, 5), 1, []byte("one")))

	results, err := idx.Search(dimVec(0, 5), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []byte("zero"), results[0].Metadata)
}

// S5 — forcing every node through the same small neighbor list exercises
// the prune-by-argmax path in addLink.
func TestIndex_Insert_PrunesWhenLayerIsFull(t *testing.T) {
	idx := newTestIndex(t)

	const n = storage.MMax0 + 10
	for i := 0; i < n; i++ {
		require.NoError(t, idx.Insert(dimVec(i, float32(i+1)), core.ID(i), nil))
	}

	for i := 0; i < n; i++ {
		node, release := idx.nodes.Node(core.ID(i))
		count := node.NeighborCount(0)
		release()
		assert.LessOrEqual(t, count, storage.MMax0)
	}
}

// S4 — concurrent inserts followed by a brute-force cross-check of the
// nearest result.
func TestIndex_InsertBatch_ConcurrentInsertsAreConsistentWithBruteForce(t *testing.T) {
	idx := newTestIndex(t, WithEFConstruction(64))

	const n = 200
	items := make([]Item, n)
	vectors := make([][]float32, n)
	for i := 0; i < n; i++ {
		v := dimVec(i, float32(i+1))
		vectors[i] = v
		items[i] = Item{Vector: v, ID: core.ID(i)}
	}

	require.NoError(t, idx.InsertBatch(items))
	assert.EqualValues(t, n, idx.Len())

	query := dimVec(42, 43)
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
	assert.EqualValues(t, bestID, results[0].ID)
}

func TestIndex_InsertBatch_EmptyIsNoop(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.InsertBatch(nil))
	assert.EqualValues(t, 0, idx.Len())
}

func TestIndex_Insert_ConcurrentInsertsDoNotCorruptGraph(t *testing.T) {
	idx := newTestIndex(t)

	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = idx.Insert(dimVec(i, float32(i+1)), core.ID(i), []byte(fmt.Sprintf("m%d", i)))
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, n, idx.Len())
	for i := 0; i < n; i++ {
		payload, err := idx.GetMetadata(core.ID(i))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("m%d", i), string(payload))
	}
}

func TestIndex_Insert_RejectsEmptyVector(t *testing.T) {
	idx := newTestIndex(t)

	err := idx.Insert(nil, 0, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyVector)
}

func TestIndex_Search_RejectsEmptyVector(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Insert(vec(1), 0, nil))

	_, err := idx.Search(nil, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyVector)
}

func TestIndex_Insert_RejectsIDAtOrBeyondMaxID(t *testing.T) {
	idx := newTestIndex(t, WithMaxID(10))

	require.NoError(t, idx.Insert(vec(1), 9, nil))

	err := idx.Insert(vec(1), 10, nil)
	require.Error(t, err)
	var idErr *ErrIDOutOfRange
	require.ErrorAs(t, err, &idErr)
	assert.EqualValues(t, 10, idErr.ID)
}

func TestIndex_New_InsertRateLimitConstructsLimiter(t *testing.T) {
	idx := newTestIndex(t, WithInsertRateLimit(1000))
	require.NotNil(t, idx.insertLimiter)

	items := []Item{
		{Vector: vec(1), ID: 0},
		{Vector: vec(2), ID: 1},
	}
	require.NoError(t, idx.InsertBatch(items))
	assert.EqualValues(t, 2, idx.Len())
}

func TestIndex_New_NoRateLimitByDefault(t *testing.T) {
	idx := newTestIndex(t)
	assert.Nil(t, idx.insertLimiter)
}

func TestIndex_New_RejectsMismatchedM(t *testing.T) {
	dir := t.TempDir()
	nodes, err := storage.Open(filepath.Join(dir, "nodes.db"), storage.RecordSize, storage.RecordSize)
	require.NoError(t, err)
	defer nodes.Close()
	meta, err := metadata.Open(filepath.Join(dir, "meta.db"))
	require.NoError(t, err)
	defer meta.Close()

	_, err = New(nodes, meta, WithM(storage.M+1))
	require.Error(t, err)
	var mErr *ErrInvalidM
	assert.ErrorAs(t, err, &mErr)
}
