// Command hnswbench is a thin driver over the public hnswdb API: it
// inserts a batch of random vectors, runs a handful of searches, and
// reports wall-clock timings. Grounded on the teacher's
// examples/basic/main.go, generalized to this module's Insert/Search
// signatures and random-vector generation instead of hardcoded ones.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/lumenvec/hnswdb"
	"github.com/lumenvec/hnswdb/storage"
)

func main() {
	dir := flag.String("dir", "", "directory for the node and metadata files (default: a temp directory)")
	n := flag.Int("n", 10000, "number of vectors to insert")
	k := flag.Int("k", 10, "number of neighbors to search for")
	queries := flag.Int("queries", 20, "number of search queries to run")
	seed := flag.Int64("seed", 1, "random seed for the generated dataset")
	flag.Parse()

	if *n <= 0 {
		log.Fatalf("n must be positive, got %d", *n)
	}

	workDir := *dir
	if workDir == "" {
		tmp, err := os.MkdirTemp("", "hnswbench-")
		if err != nil {
			log.Fatalf("create temp dir: %v", err)
		}
		workDir = tmp
		defer os.RemoveAll(workDir)
	}

	idx, err := hnswdb.Open(
		filepath.Join(workDir, "nodes.db"),
		filepath.Join(workDir, "meta.db"),
	)
	if err != nil {
		log.Fatalf("open index: %v", err)
	}
	defer idx.Close()

	rng := rand.New(rand.NewSource(*seed))
	vectors := make([][]float32, *n)

	fmt.Printf("inserting %d vectors (dim=%d)...\n", *n, storage.Dim)
	insertStart := time.Now()
	for i := 0; i < *n; i++ {
		v := randomVector(rng)
		vectors[i] = v
		if err := idx.Insert(v, uint32(i), nil); err != nil {
			log.Fatalf("insert %d: %v", i, err)
		}
	}
	fmt.Printf("inserted %d vectors in %s\n", *n, time.Since(insertStart))

	fmt.Printf("running %d searches (k=%d)...\n", *queries, *k)
	searchStart := time.Now()
	for q := 0; q < *queries; q++ {
		query := vectors[rng.Intn(len(vectors))]
		results, err := idx.Search(query, *k)
		if err != nil {
			log.Fatalf("search %d: %v", q, err)
		}
		fmt.Printf("query %d: %d results, nearest id=%d dist=%.4f\n", q, len(results), results[0].ID, results[0].Distance)
	}
	fmt.Printf("ran %d searches in %s\n", *queries, time.Since(searchStart))
}

func randomVector(rng *rand.Rand) []float32 {
	v := make([]float32, storage.Dim)
	for i := range v {
		v[i] = rng.Float32()
	}
	return v
}
