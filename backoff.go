package spinx

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Experimentally tuned defaults. There is no universally correct
// setting: the right values depend on critical-section length, core
// count and how oversubscribed the machine is, so every constructor
// accepts a BackoffConfig and these are only a reasonable start.
const (
	// DefaultMinIters is the initial upper bound of the randomized
	// wait range, in Relax iterations.
	DefaultMinIters uint32 = 32
	// DefaultMaxIters caps the doubling of the wait range.
	DefaultMaxIters uint32 = 8192
	// DefaultMaxWaitIters is the total spin budget of one acquisition
	// attempt before the waiter falls back to a timed sleep.
	DefaultMaxWaitIters uint32 = 1 << 20
	// DefaultBaseUnit is the per-queue-position wait of the
	// proportional policy, in Relax iterations.
	DefaultBaseUnit uint32 = 256

	// backoffSleep is the timed-sleep fallback. A true sleep vacates
	// the waiter's execution resources, which a scheduler yield does
	// not guarantee when nothing else is runnable. Duration follows
	// folly's Sleeper (see delay in relax.go).
	backoffSleep = 500 * time.Microsecond
)

// BackoffConfig tunes the exponential-random backoff used by TTAS
// locks. The zero value is invalid; use DefaultBackoff for a starting
// point.
type BackoffConfig struct {
	// MinIters is the initial bound of the randomized wait range.
	MinIters uint32
	// MaxIters is the ceiling the bound doubles up to.
	MaxIters uint32
	// MaxWaitIters is the spin budget after which the waiter sleeps
	// instead of spinning.
	MaxWaitIters uint32
}

// DefaultBackoff returns the experimentally tuned default configuration.
func DefaultBackoff() BackoffConfig {
	return BackoffConfig{
		MinIters:     DefaultMinIters,
		MaxIters:     DefaultMaxIters,
		MaxWaitIters: DefaultMaxWaitIters,
	}
}

func (c BackoffConfig) validate() error {
	if c.MinIters == 0 || c.MaxIters == 0 || c.MaxWaitIters == 0 {
		return fmt.Errorf("spinx: backoff iters must be positive: %+v", c)
	}
	if c.MinIters > c.MaxIters {
		return fmt.Errorf("spinx: backoff MinIters %d > MaxIters %d", c.MinIters, c.MaxIters)
	}
	return nil
}

// expBackoff is the state of one acquisition attempt under
// exponential-random backoff. It is value-typed and created fresh per
// Lock call: the bound always restarts at MinIters, and each waiter
// owns its PRNG so concurrent retries never correlate (correlated
// retry schedules recreate the very collision the backoff exists to
// break up).
type expBackoff struct {
	bound uint32
	spent uint32
	rng   uint64
	cfg   BackoffConfig
}

func newExpBackoff(cfg BackoffConfig) expBackoff {
	return expBackoff{
		bound: cfg.MinIters,
		// rand.Uint64 draws from the runtime's per-P chacha source,
		// the same seeding used for map hash seeds. The |1 keeps the
		// xorshift state nonzero.
		rng: rand.Uint64() | 1,
		cfg: cfg,
	}
}

// next steps the waiter-local xorshift64 generator.
func (b *expBackoff) next() uint64 {
	x := b.rng
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	b.rng = x
	return x
}

// wait blocks for one failed attempt: Relax for a uniformly random
// number of iterations in [0, bound], then double the bound up to
// MaxIters. Once the attempt's total spin budget is spent the waiter
// sleeps instead, so a long queue does not burn cores.
func (b *expBackoff) wait() {
	if b.spent >= b.cfg.MaxWaitIters {
		b.spent = 0
		time.Sleep(backoffSleep)
		return
	}
	n := uint32(b.next() % (uint64(b.bound) + 1))
	Relax(n)
	b.spent += n
	if bound := b.bound * 2; bound > b.cfg.MaxIters || bound < b.bound {
		b.bound = b.cfg.MaxIters
	} else {
		b.bound = bound
	}
}
