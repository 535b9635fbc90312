package hnsw

import (
	"sync/atomic"
	"time"

	"github.com/lumenvec/hnswdb/storage"
)

// levelAssigner draws levels with spec.md §4.4's geometric-counting rule:
// starting at zero, repeatedly draw a uniform in [0,1) and increment the
// level while the draw is below p and the level is below the cap. The RNG
// itself is a lock-free per-call xorshift64*, the same update sequence as
// the teacher's internal/hnsw.determineLayer, but the stopping rule is
// rewritten to match the geometric-counting definition rather than the
// teacher's closed-form log-normal formula, and the result is clamped at
// LMax-1 per the REDESIGN FLAG in spec.md §9 ("Level cap coupled to M" —
// the teacher caps at M=16, which would index out of LMax=4's bound).
type levelAssigner struct {
	seed atomic.Uint64
	p    float64
}

func newLevelAssigner(seed uint64, p float64) *levelAssigner {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	if seed == 0 {
		seed = 0x9E3779B97F4A7C15
	}
	la := &levelAssigner{p: p}
	la.seed.Store(seed)
	return la
}

// next draws a level in [0, LMax).
func (la *levelAssigner) next() int {
	level := 0
	for level < storage.LMax-1 && la.uniform() < la.p {
		level++
	}
	return level
}

// uniform draws a float64 in [0,1) using a lock-free xorshift64* update,
// grounded on the teacher's internal/hnsw.determineLayer RNG.
func (la *levelAssigner) uniform() float64 {
	seed := la.seed.Add(0x9E3779B97F4A7C15)
	seed ^= seed >> 12
	seed ^= seed << 25
	seed ^= seed >> 27
	return float64(seed*0x2545F4914F6CDD1D>>11) / float64(uint64(1)<<53)
}
