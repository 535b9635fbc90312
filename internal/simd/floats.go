package simd

var (
	squaredL2Impl = squaredL2Wide8
	dotImpl       = dotWide8
)

// SquaredL2 calculates the squared L2 distance between a and b.
//
// SAFETY: assumes len(a) == len(b). Does not bounds-check for
// performance; callers must ensure lengths match.
func SquaredL2(a, b []float32) float32 {
	return squaredL2Impl(a, b)
}

// Dot calculates the dot product of a and b.
//
// SAFETY: assumes len(a) == len(b).
func Dot(a, b []float32) float32 {
	return dotImpl(a, b)
}

// squaredL2Wide8 processes the dimension in groups of eight lanes using
// four independent accumulators (two lanes per accumulator) so the Go
// compiler can pipeline the multiply-adds, then reduces and handles the
// scalar tail. This is the kernel selected on amd64 with AVX2, on arm64
// with ASIMD (NEON), and on every other architecture by default.
func squaredL2Wide8(a, b []float32) float32 {
	n := len(a)
	var acc0, acc1, acc2, acc3 float32

	i := 0
	for ; i+8 <= n; i += 8 {
		d0 := a[i] - b[i]
		d1 := a[i+1] - b[i+1]
		d2 := a[i+2] - b[i+2]
		d3 := a[i+3] - b[i+3]
		d4 := a[i+4] - b[i+4]
		d5 := a[i+5] - b[i+5]
		d6 := a[i+6] - b[i+6]
		d7 := a[i+7] - b[i+7]

		acc0 += d0*d0 + d1*d1
		acc1 += d2*d2 + d3*d3
		acc2 += d4*d4 + d5*d5
		acc3 += d6*d6 + d7*d7
	}

	sum := acc0 + acc1 + acc2 + acc3
	for ; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// squaredL2Wide4 is the fallback kernel selected when init detects
// neither AVX2 (amd64) nor ASIMD (arm64): groups of four lanes, one
// accumulator.
func squaredL2Wide4(a, b []float32) float32 {
	n := len(a)
	var sum float32

	i := 0
	for ; i+4 <= n; i += 4 {
		d0 := a[i] - b[i]
		d1 := a[i+1] - b[i+1]
		d2 := a[i+2] - b[i+2]
		d3 := a[i+3] - b[i+3]
		sum += d0*d0 + d1*d1 + d2*d2 + d3*d3
	}
	for ; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func dotWide8(a, b []float32) float32 {
	n := len(a)
	var acc0, acc1, acc2, acc3 float32

	i := 0
	for ; i+8 <= n; i += 8 {
		acc0 += a[i]*b[i] + a[i+1]*b[i+1]
		acc1 += a[i+2]*b[i+2] + a[i+3]*b[i+3]
		acc2 += a[i+4]*b[i+4] + a[i+5]*b[i+5]
		acc3 += a[i+6]*b[i+6] + a[i+7]*b[i+7]
	}

	sum := acc0 + acc1 + acc2 + acc3
	for ; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func dotWide4(a, b []float32) float32 {
	n := len(a)
	var sum float32

	i := 0
	for ; i+4 <= n; i += 4 {
		sum += a[i]*b[i] + a[i+1]*b[i+1] + a[i+2]*b[i+2] + a[i+3]*b[i+3]
	}
	for ; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
