package storage

import (
	"runtime"
	"sync/atomic"
)

// spinlock is a test-and-test-and-set busy-wait mutex sized for very
// short critical sections: add_link's critical section is bounded by at
// most MMax0 distance computations. Go has no portable pause intrinsic
// without assembly, so runtime.Gosched is used as the yield hint between
// spin attempts.
type spinlock struct {
	state atomic.Uint32
}

func (s *spinlock) Lock() {
	for {
		if s.state.Load() == 0 && s.state.CompareAndSwap(0, 1) {
			return
		}
		runtime.Gosched()
	}
}

func (s *spinlock) Unlock() {
	s.state.Store(0)
}
