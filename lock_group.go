package spinx

import (
	"github.com/llxisdsh/pb"
)

// TicketLockGroup allows locking on arbitrary keys (string, int, struct, etc.).
// It dynamically manages a set of TicketLocks associated with values.
//
// Features:
//   - Infinite Keys: No need to pre-allocate locks.
//   - Auto-Cleanup: Locks are automatically removed from memory when unlocked and no one else is waiting.
//   - Fairness: waiters on the same key are served in FIFO order, since
//     the per-key lock is a TicketLock.
//
// Usage:
//
//	var group TicketLockGroup[string]
//	group.Lock("user-123")
//	// Critical section for user-123
//	group.Unlock("user-123")
//
// Implementation Note:
// It uses reference counting to safely delete entries; the count is
// only touched inside the map's entry callback, which serializes all
// mutations for a key.
//
// Known issue: pb v1.5.9's ProcessEntry performs plain loads in its
// own table internals that the race detector flags. A -race report
// whose frames are all inside github.com/llxisdsh/pb is that upstream
// issue, not a defect in the group's locking.
type TicketLockGroup[K comparable] struct {
	_ noCopy
	m pb.MapOf[K, *lockGroupEntry]
}

type lockGroupEntry struct {
	mu  TicketLock
	ref int32
}

// Lock acquires the lock for key k, creating it on first use.
func (g *TicketLockGroup[K]) Lock(k K) {
	var e *lockGroupEntry
	g.m.ProcessEntry(k,
		func(l *pb.EntryOf[K, *lockGroupEntry]) (*pb.EntryOf[K, *lockGroupEntry], *lockGroupEntry, bool) {
			if l != nil {
				e = l.Value
				e.ref++
				return l, e, true
			}
			e = &lockGroupEntry{ref: 1}
			return &pb.EntryOf[K, *lockGroupEntry]{Value: e}, e, false
		},
	)
	e.mu.Lock()
}

// Unlock releases the lock for key k. The entry is dropped once no
// goroutine holds or waits for it.
func (g *TicketLockGroup[K]) Unlock(k K) {
	var e *lockGroupEntry
	g.m.ProcessEntry(k,
		func(l *pb.EntryOf[K, *lockGroupEntry]) (*pb.EntryOf[K, *lockGroupEntry], *lockGroupEntry, bool) {
			if l == nil {
				return nil, nil, false
			}
			e = l.Value
			e.ref--
			if e.ref <= 0 {
				return nil, e, true
			}
			return l, e, true
		},
	)
	if e != nil {
		e.mu.Unlock()
	}
}
