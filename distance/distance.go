// Package distance provides the public API for vector distance calculations.
//
// Implementations live in internal/simd and are selected by detected CPU
// capability at package init.
package distance

import "github.com/lumenvec/hnswdb/internal/simd"

// SquaredL2 calculates the squared L2 (Euclidean) distance between two
// equal-length vectors. Square root is intentionally omitted: every use
// in the engine is comparison-only, and squared distance is monotone in
// the true distance.
//
// SAFETY: assumes len(a) == len(b); callers must ensure lengths match.
func SquaredL2(a, b []float32) float32 {
	return simd.SquaredL2(a, b)
}

// Dot calculates the dot product of two equal-length vectors.
func Dot(a, b []float32) float32 {
	return simd.Dot(a, b)
}

// Metric identifies a distance function. Only MetricL2 is wired into the
// engine; the others are exposed so the kernel package is independently
// testable and reusable, should a caller need Dot directly.
type Metric int

const (
	MetricL2 Metric = iota
	MetricDot
)

// Func is a function type for distance calculation between two vectors.
type Func func(a, b []float32) float32

// Provider returns the distance function for the given metric.
func Provider(m Metric) Func {
	switch m {
	case MetricDot:
		return Dot
	default:
		return SquaredL2
	}
}
