package bench

import (
	"fmt"
	"slices"
	"sync"

	"github.com/llxisdsh/pb"

	"github.com/Levalicious/spinx"
)

// Factory builds the lock under test for one run and returns a
// per-worker locker source. The indirection lets variants with
// per-participant state (GTLock handles) hand every worker its own
// view while the single-instance locks return themselves.
type Factory func(cfg Config) (func() sync.Locker, error)

var registry pb.MapOf[string, Factory]

// Register makes a variant available to Run under the given name.
// Registering a name twice replaces the earlier factory.
func Register(name string, f Factory) {
	registry.Store(name, f)
}

// Variants returns the registered variant names, sorted.
func Variants() []string {
	var names []string
	registry.Range(func(name string, _ Factory) bool {
		names = append(names, name)
		return true
	})
	slices.Sort(names)
	return names
}

func lookup(name string) (Factory, error) {
	f, ok := registry.Load(name)
	if !ok {
		return nil, fmt.Errorf("bench: unknown variant %q (have %v)", name, Variants())
	}
	return f, nil
}

func shared(l sync.Locker) func() sync.Locker {
	return func() sync.Locker { return l }
}

func init() {
	Register("tas", func(Config) (func() sync.Locker, error) {
		return shared(new(spinx.TASLock)), nil
	})
	Register("ttas", func(Config) (func() sync.Locker, error) {
		return shared(new(spinx.TTASLock)), nil
	})
	Register("ttas-backoff", func(cfg Config) (func() sync.Locker, error) {
		l, err := spinx.NewTTASLock(cfg.backoff())
		if err != nil {
			return nil, err
		}
		return shared(l), nil
	})
	Register("ticket", func(Config) (func() sync.Locker, error) {
		return shared(new(spinx.TicketLock)), nil
	})
	Register("ticket-prop", func(cfg Config) (func() sync.Locker, error) {
		l, err := spinx.NewTicketLockProp(cfg.baseUnit())
		if err != nil {
			return nil, err
		}
		return shared(l), nil
	})
	Register("anderson", func(cfg Config) (func() sync.Locker, error) {
		l, err := spinx.NewAndersonLock(cfg.maxThreads())
		if err != nil {
			return nil, err
		}
		return shared(l), nil
	})
	Register("graunke-thakkar", func(cfg Config) (func() sync.Locker, error) {
		l, err := spinx.NewGTLock(cfg.maxThreads())
		if err != nil {
			return nil, err
		}
		// Register is called from inside each worker goroutine, so
		// the handle is issued to the goroutine that will use it.
		return func() sync.Locker { return l.Register() }, nil
	})
	// Reference point for the spin locks.
	Register("mutex", func(Config) (func() sync.Locker, error) {
		return shared(new(sync.Mutex)), nil
	})
}
