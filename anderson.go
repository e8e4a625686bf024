package spinx

import (
	"fmt"
	"sync/atomic"

	"github.com/Levalicious/spinx/internal/opt"
)

// AndersonLock is an array-based FIFO spin-lock. Each acquirer claims
// a private slot in a fixed ring of cache-line-padded flags and spins
// only on that slot, so a hand-off invalidates exactly one waiter's
// line instead of the O(t) burst a shared-flag lock pays.
//
// Fairness is the same strict FIFO as TicketLock (slots are issued by
// a monotonic counter), bought with O(maxThreads) memory: one padded
// slot per potential participant, fixed at construction. The capacity
// is a hard limit: if more than maxThreads goroutines ever hold or
// wait for the lock at once, two of them collide on a slot and mutual
// exclusion is gone. Choose maxThreads from the worst case, not the
// expected one.
//
// Build with -tags=spinx_disable_padding to drop the per-slot padding
// where memory is scarcer than the false-sharing risk.
type AndersonLock struct {
	_       noCopy
	slots   []opt.WaitSlot_
	size    uint32
	next    atomic.Uint32 // ring index handed to acquirers
	serving atomic.Uint32 // ring index of the next slot to release
}

// NewAndersonLock returns an unlocked AndersonLock supporting up to
// maxThreads simultaneous participants.
func NewAndersonLock(maxThreads int) (*AndersonLock, error) {
	if maxThreads < 1 {
		return nil, fmt.Errorf("spinx: AndersonLock maxThreads must be >= 1, got %d", maxThreads)
	}
	l := &AndersonLock{
		slots: make([]opt.WaitSlot_, maxThreads),
		size:  uint32(maxThreads),
	}
	// Slot 0 starts open so the first-ever acquirer has no
	// predecessor to wait on; every other slot starts closed.
	for i := 1; i < maxThreads; i++ {
		l.slots[i].F = 1
	}
	// Release begins one slot ahead of acquisition: releasing slot i
	// opens slot i+1 for the next ticket in ring order.
	l.serving.Store(1)
	return l, nil
}

// Lock acquires the lock. Blocks until the lock is available.
func (l *AndersonLock) Lock() {
	slot := l.claim(&l.next)
	s := &l.slots[slot]
	var spins int
	for atomic.LoadUint32(&s.F) != 0 {
		delay(&spins)
	}
	// Re-arm the slot for its next trip around the ring.
	atomic.StoreUint32(&s.F, 1)
}

// Unlock releases the lock, opening the next slot in ring order.
func (l *AndersonLock) Unlock() {
	slot := l.claim(&l.serving)
	atomic.StoreUint32(&l.slots[slot].F, 0)
}

// claim fetch-and-increments a ring counter and returns its value
// modulo the ring size. Whichever claimer lands on slot 0 after a full
// trip renormalizes the raw counter by one ring length; every
// outstanding value moves by an exact multiple of size, so all
// concurrently computed slots are preserved while the counter never
// reaches its wraparound point.
func (l *AndersonLock) claim(ctr *atomic.Uint32) uint32 {
	t := ctr.Add(1) - 1
	slot := t % l.size
	if slot == 0 && t != 0 {
		ctr.Add(^(l.size - 1))
	}
	return slot
}

// Capacity returns the maximum number of simultaneous participants.
func (l *AndersonLock) Capacity() int {
	return int(l.size)
}
