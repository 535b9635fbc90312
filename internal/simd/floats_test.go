package simd

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func naiveSquaredL2(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(sum)
}

func TestSquaredL2_MatchesNaive(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for _, dim := range []int{1, 3, 4, 7, 8, 9, 16, 17, 128, 129} {
		a := make([]float32, dim)
		b := make([]float32, dim)
		for i := range a {
			a[i] = r.Float32()*2 - 1
			b[i] = r.Float32()*2 - 1
		}

		got := SquaredL2(a, b)
		want := naiveSquaredL2(a, b)

		if want == 0 {
			assert.InDelta(t, 0, got, 1e-5, "dim=%d", dim)
			continue
		}
		rel := math.Abs(float64(got-want)) / math.Abs(float64(want))
		assert.Less(t, rel, 1e-5, "dim=%d got=%v want=%v", dim, got, want)
	}
}

func TestSquaredL2_Symmetric(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	a := make([]float32, 128)
	b := make([]float32, 128)
	for i := range a {
		a[i] = r.Float32()
		b[i] = r.Float32()
	}

	ab := SquaredL2(a, b)
	ba := SquaredL2(b, a)
	require.Equal(t, ab, ba)
}

func TestSquaredL2_Identical(t *testing.T) {
	v := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}
	require.Equal(t, float32(0), SquaredL2(v, v))
}

func TestSquaredL2_KnownValue(t *testing.T) {
	a := []float32{1, 0, 0, 0}
	b := []float32{0, 1, 0, 0}
	require.Equal(t, float32(2), SquaredL2(a, b))
}

func TestDot_MatchesNaive(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	a := make([]float32, 37)
	b := make([]float32, 37)
	for i := range a {
		a[i] = r.Float32()
		b[i] = r.Float32()
	}

	var want float64
	for i := range a {
		want += float64(a[i]) * float64(b[i])
	}

	got := Dot(a, b)
	rel := math.Abs(float64(got)-want) / math.Abs(want)
	assert.Less(t, rel, 1e-5)
}
