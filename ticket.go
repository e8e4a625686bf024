package spinx

import (
	"fmt"
	"sync/atomic"
	"time"
)

// TicketLock is a fair, FIFO (First-In-First-Out) spin-lock.
//
// Unlike sync.Mutex, which allows "barging" (newcomers can steal the lock),
// TicketLock guarantees that goroutines acquire the lock in the exact order
// they called Lock().
//
// Implementation:
// It uses the classic "ticket" algorithm.
//   - Lock(): Takes a ticket number. Spins/Sleeps until `serving` == `my_ticket`.
//   - Unlock(): Increments `serving`, allowing the next ticket holder to proceed.
//
// Waiters spin on a load of `serving` only; the single invalidating
// write per hand-off is the holder's increment. Trade-off: strict
// ordering is preemption-intolerant: if the goroutine whose ticket is
// next is descheduled, every later ticket waits behind it with no way
// to skip ahead.
//
// Precondition: the counters are 32-bit, so the number of goroutines
// simultaneously waiting for or holding one TicketLock must stay below
// 2^32. Past that, two waiters can be issued equal tickets and enter
// the critical section together. The bound is unreachable in practice
// but it is a correctness limit, not a performance one.
type TicketLock struct {
	_       noCopy
	next    atomic.Uint32
	serving atomic.Uint32
}

// Lock acquires the lock. Blocks until the lock is available.
func (m *TicketLock) Lock() {
	my := m.next.Add(1) - 1
	var spins int
	for {
		if m.serving.Load() == my {
			return
		}
		delay(&spins)
	}
}

// Unlock releases the lock.
func (m *TicketLock) Unlock() {
	m.serving.Add(1)
}

// propSleepDistance is the queue depth past which a proportional
// waiter stops spinning entirely and sleeps between checks; that far
// back, even one full rotation of the queue is longer than a sleep
// quantum.
const propSleepDistance = 32

// TicketLockProp is a TicketLock whose waiters apply proportional
// backoff: a goroutine d positions behind the serving counter pauses
// for d*baseUnit Relax iterations before re-reading, recomputing d
// each round as the queue drains. Because FIFO order fixes who runs
// next, position is a better wait estimate than randomized doubling;
// exponential backoff on a ticket lock compounds with queue distance
// and inflates hand-off latency superlinearly, which is why this
// package does not offer that combination.
type TicketLockProp struct {
	_        noCopy
	next     atomic.Uint32
	serving  atomic.Uint32
	baseUnit uint32
}

// NewTicketLockProp returns a proportional-backoff ticket lock.
// baseUnit is the per-queue-position pause in Relax iterations
// (DefaultBaseUnit is a reasonable start); it must be positive.
func NewTicketLockProp(baseUnit uint32) (*TicketLockProp, error) {
	if baseUnit == 0 {
		return nil, fmt.Errorf("spinx: proportional backoff baseUnit must be positive")
	}
	return &TicketLockProp{baseUnit: baseUnit}, nil
}

// Lock acquires the lock. Blocks until the lock is available.
func (m *TicketLockProp) Lock() {
	my := m.next.Add(1) - 1
	for {
		cur := m.serving.Load()
		if cur == my {
			return
		}
		// Monotonic counters make the wraparound-safe distance just
		// the unsigned difference.
		if d := my - cur; d > propSleepDistance {
			time.Sleep(backoffSleep)
		} else {
			Relax(propWait(d, m.baseUnit))
		}
	}
}

// Unlock releases the lock.
func (m *TicketLockProp) Unlock() {
	m.serving.Add(1)
}

// propWait is the proportional policy: wait grows linearly with queue
// position, so a waiter never pauses longer than anyone ahead of it
// plus one unit (overtaking the schedule would defeat the point of a
// FIFO lock).
func propWait(distance, baseUnit uint32) uint32 {
	return distance * baseUnit
}
