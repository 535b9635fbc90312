// Package simd implements the distance kernel used by the HNSW engine.
//
// SquaredL2 computes squared Euclidean distance between two equal-length
// float32 vectors. The dimension is walked in groups of eight lanes with
// a fused subtract/multiply/accumulate step and a scalar tail for
// dimensions not divisible by eight, the same shape a hand-written AVX2
// kernel would take. The active implementation is selected once at
// package init based on detected CPU capability; both tiers are plain Go
// so the selection only changes unroll width, not correctness.
package simd
