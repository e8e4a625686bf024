package spinx

import "sync/atomic"

// TASLock is the classic test-and-set spin-lock: a single shared flag
// acquired by an atomic exchange.
//
// Every acquisition attempt, successful or not, performs an
// invalidating write on the flag's cache line, so under contention t
// waiters generate continuous coherence traffic. That makes TASLock
// the baseline the other locks in this package improve on; prefer
// TTASLock unless the lock is known to be almost always free.
//
// TASLock makes no fairness guarantee: a late arrival can win the
// exchange ahead of threads that have been spinning far longer.
//
// The zero value is an unlocked TASLock.
type TASLock struct {
	_    noCopy
	flag atomic.Uint32
}

// Lock acquires the lock. Blocks until the lock is available.
func (l *TASLock) Lock() {
	if l.flag.Swap(1) == 0 {
		return
	}
	l.slowLock()
}

func (l *TASLock) slowLock() {
	var spins int
	for l.flag.Swap(1) != 0 {
		delay(&spins)
	}
}

// TryLock attempts to acquire the lock without blocking.
//
//go:nosplit
func (l *TASLock) TryLock() bool {
	return l.flag.CompareAndSwap(0, 1)
}

// Unlock releases the lock.
//
//go:nosplit
func (l *TASLock) Unlock() {
	l.flag.Store(0)
}

// TTASLock is the test-and-test-and-set refinement of TASLock: waiters
// spin on a plain load, which stays read-only in the cache, and only
// attempt the invalidating exchange after observing the flag free.
// Contention traffic collapses to shared read hits, at the cost of an
// O(t) invalidation burst across t waiters the instant the lock is
// released (the thundering herd is inherent to a single shared flag;
// AndersonLock and GTLock exist to remove it).
//
// The zero value is an unlocked TTASLock that retries immediately
// after a lost race. NewTTASLock composes in exponential-random
// backoff for heavily contended locks.
//
// Like TASLock, TTASLock is unfair.
type TTASLock struct {
	_       noCopy
	flag    atomic.Uint32
	backoff BackoffConfig // zero MaxIters means no backoff
}

// NewTTASLock returns a TTASLock whose waiters apply exponential
// random backoff: after each lost race the waiter pauses for a random
// number of Relax iterations drawn from [0, bound], doubling bound up
// to cfg.MaxIters, and sleeps once cfg.MaxWaitIters iterations have
// been spent. Randomization keeps concurrent waiters from retrying in
// lock-step.
func NewTTASLock(cfg BackoffConfig) (*TTASLock, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &TTASLock{backoff: cfg}, nil
}

// Lock acquires the lock. Blocks until the lock is available.
func (l *TTASLock) Lock() {
	if l.flag.CompareAndSwap(0, 1) {
		return
	}
	l.slowLock()
}

func (l *TTASLock) slowLock() {
	if l.backoff.MaxIters == 0 {
		var spins int
		for {
			for l.flag.Load() != 0 {
				delay(&spins)
			}
			if l.flag.Swap(1) == 0 {
				return
			}
		}
	}
	b := newExpBackoff(l.backoff)
	for {
		for l.flag.Load() != 0 {
			b.wait()
		}
		if l.flag.Swap(1) == 0 {
			return
		}
		// Lost the race after seeing the flag free; back off before
		// re-reading rather than hammering the exchange.
		b.wait()
	}
}

// TryLock attempts to acquire the lock without blocking.
//
//go:nosplit
func (l *TTASLock) TryLock() bool {
	return l.flag.Load() == 0 && l.flag.CompareAndSwap(0, 1)
}

// Unlock releases the lock.
//
//go:nosplit
func (l *TTASLock) Unlock() {
	l.flag.Store(0)
}
