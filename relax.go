package spinx

import (
	"time"
	_ "unsafe" // for linkname
)

// relaxQuantum is the number of relaxation-hint cycles one
// runtime_doSpin call executes (the runtime's active_spin_cnt).
const relaxQuantum = 30

// Relax executes the CPU relaxation hint (PAUSE on x86, YIELD on
// arm64) for approximately n cycles, rounded up to the runtime's spin
// quantum. It has no effect on correctness: it only tells the core
// that the caller is in a spin-wait, which avoids the memory-order
// mis-speculation flush on loop exit, frees execution resources for a
// co-resident hyperthread, and throttles the load rate on the line
// being watched. Because each quantum enters the runtime it cannot be
// optimized away, so bounded waits built on it remain observable spin
// loops.
func Relax(n uint32) {
	for spent := uint32(0); spent < n; spent += relaxQuantum {
		runtime_doSpin()
	}
}

func trySpin(spins *int) bool {
	if runtime_canSpin(*spins) {
		*spins++
		runtime_doSpin()
		return true
	}
	return false
}

// delay is the hybrid wait used by unbounded spin loops: active
// spinning while the runtime considers it profitable, then a timed
// sleep so the waiter actually vacates its P. A true sleep is used
// rather than Gosched because Gosched keeps the thread runnable when
// no other work exists.
func delay(spins *int) {
	if trySpin(spins) {
		return
	}
	*spins = 0
	// time.Sleep with non-zero duration (≈Millisecond level) works
	// effectively as backoff under high concurrency.
	// The 500µs duration is derived from Facebook/folly's implementation:
	// https://github.com/facebook/folly/blob/main/folly/synchronization/detail/Sleeper.h
	time.Sleep(500 * time.Microsecond)
}

// nolint:all
//
//go:linkname runtime_canSpin sync.runtime_canSpin
//goland:noinspection ALL
func runtime_canSpin(i int) bool

// nolint:all
//
//go:linkname runtime_doSpin sync.runtime_doSpin
//goland:noinspection ALL
func runtime_doSpin()
