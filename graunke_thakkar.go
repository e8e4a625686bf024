package spinx

import (
	"fmt"
	"sync/atomic"

	"github.com/Levalicious/spinx/internal/opt"
)

// GTLock is the Graunke–Thakkar queue lock: a FIFO spin-lock whose
// wait queue is a linked list threaded through an atomically swapped
// tail word. Each participating goroutine owns one cell permanently;
// to enqueue it publishes (own cell, own flag value) into the tail and
// spins until its predecessor's flag moves off the captured value.
// Release is a single flip of the releaser's own flag, which is the exact
// transition its successor is watching for. The flag free-runs between
// 0 and 1 across the owner's acquisitions; there is no reset step.
//
// Unlike AndersonLock, where the slot a goroutine spins on depends on
// arrival order, a GTLock participant always spins on state reachable
// from its own permanently assigned cell's predecessor link, and
// signals only its own cell. On machines where memory locality matters
// more than cache coherence traffic this keeps each waiter's traffic
// confined to a predictable pair of cells.
//
// Participants are fixed for the lock's lifetime: each goroutine calls
// Register once and uses the returned handle for every Lock/Unlock
// pair. Registration past maxThreads panics. Handing a handle to a
// replacement goroutine after the original is gone is outside the
// contract; the cell assignment assumes a fixed, non-recycled set of
// participants.
type GTLock struct {
	_ noCopy
	// tail packs the current tail cell's index with that cell's flag
	// value in bit 0 (index<<1 | flag); exchanging the pair as one
	// word is what lets an enqueuer capture (predecessor, value to
	// wait out) atomically. All cells live in the cells slice, so an
	// index identifies a cell as well as its address would, without
	// laundering a pointer through a uintptr.
	tail  atomic.Uintptr
	cells []opt.WaitSlot_
	nreg  atomic.Uint32
	max   uint32
}

// GTHandle is one participant's permanent identity on a GTLock. A
// handle must only be used by the goroutine it was issued to; it
// satisfies sync.Locker.
type GTHandle struct {
	lk   *GTLock
	cell *opt.WaitSlot_
	idx  uint32
}

// NewGTLock returns an unlocked GTLock supporting up to maxThreads
// registered participants.
func NewGTLock(maxThreads int) (*GTLock, error) {
	if maxThreads < 1 {
		return nil, fmt.Errorf("spinx: GTLock maxThreads must be >= 1, got %d", maxThreads)
	}
	l := &GTLock{
		// One extra cell: the sentinel the tail points at before any
		// goroutine has ever acquired the lock.
		cells: make([]opt.WaitSlot_, maxThreads+1),
		max:   uint32(maxThreads),
	}
	// The sentinel's flag is 0 but the tail records it as 1, so the
	// first enqueuer observes "predecessor already moved off the
	// captured value" and enters immediately.
	l.tail.Store(tailWord(uint32(maxThreads), 1))
	return l, nil
}

// tailWord packs a cell index and a flag value into one
// atomically-exchangeable word.
func tailWord(idx, flag uint32) uintptr {
	return uintptr(idx)<<1 | uintptr(flag)
}

// Register permanently assigns a cell to the calling goroutine and
// returns its handle. It panics once more than maxThreads handles have
// been issued: slot assignment is the capacity contract, and violating
// it silently would hand two goroutines the same cell.
func (l *GTLock) Register() *GTHandle {
	n := l.nreg.Add(1) - 1
	if n >= l.max {
		panic(fmt.Sprintf("spinx: GTLock registration %d exceeds capacity %d", n+1, l.max))
	}
	return &GTHandle{lk: l, cell: &l.cells[n], idx: n}
}

// Capacity returns the maximum number of registered participants.
func (l *GTLock) Capacity() int {
	return int(l.max)
}

// Lock acquires the lock. Blocks until the predecessor in the queue
// flips its flag.
func (h *GTHandle) Lock() {
	c := h.cell
	// Own flag is only ever written by Unlock on this same handle, so
	// the freshly loaded value is exactly what the successor will see
	// until our next release.
	old := h.lk.tail.Swap(tailWord(h.idx, atomic.LoadUint32(&c.F)))
	pred := &h.lk.cells[old>>1]
	tag := uint32(old & 1)
	var spins int
	for atomic.LoadUint32(&pred.F) == tag {
		delay(&spins)
	}
}

// Unlock releases the lock by flipping the handle's own flag, which is
// the transition the next-in-line acquirer spins on.
//
//go:nosplit
func (h *GTHandle) Unlock() {
	c := h.cell
	atomic.StoreUint32(&c.F, atomic.LoadUint32(&c.F)^1)
}
